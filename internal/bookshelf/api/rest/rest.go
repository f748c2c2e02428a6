package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/auth"
	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/books"
	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/response"
	shelf "github.com/kerelape/bookshelf/internal/bookshelf/books"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
)

type REST struct {
	auth  auth.Auth
	books books.Books
}

// New creates a new REST.
func New(identityProvider idp.IdentityProvider, bookShelf shelf.Shelf, recorder auth.Recorder) REST {
	return REST{
		auth:  auth.New(identityProvider, recorder),
		books: books.New(bookShelf, identityProvider),
	}
}

func (r REST) Route() http.Handler {
	router := chi.NewRouter()
	router.Mount("/auth", r.auth.Route())
	router.Mount("/books", r.books.Route())
	router.Get("/health", func(out http.ResponseWriter, in *http.Request) {
		response.JSON(out, in, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.NotFound(func(out http.ResponseWriter, in *http.Request) {
		response.Status(out, in, http.StatusNotFound)
	})
	return router
}
