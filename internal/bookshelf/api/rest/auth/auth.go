package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/auth/login"
	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/auth/register"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
)

type Recorder interface {
	login.Recorder
	register.Recorder
}

type Auth struct {
	login    login.Login
	register register.Register
}

// New creates a new Auth.
func New(identityProvider idp.IdentityProvider, recorder Recorder) Auth {
	return Auth{
		login:    login.New(identityProvider, recorder),
		register: register.New(identityProvider, recorder),
	}
}

func (a Auth) Route() http.Handler {
	router := chi.NewRouter()
	router.Mount("/login", a.login.Route())
	router.Mount("/register", a.register.Route())
	return router
}
