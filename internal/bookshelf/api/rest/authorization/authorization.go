package authorization

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/response"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
)

type contextKey string

const ContextKeyUser = contextKey("authorization.user")

// Authorization rejects requests without a valid Keycloak bearer token and
// stores the caller in the request context.
func Authorization(identityProvider idp.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(out http.ResponseWriter, in *http.Request) {
			token := in.Header.Get("Authorization")
			user, err := identityProvider.User(in.Context(), idp.Token(token))
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, idp.ErrBadCredentials) {
					status = http.StatusUnauthorized
				} else {
					hlog.FromRequest(in).Error().Err(err).Msg("failed to verify bearer token")
				}
				response.Status(out, in, status)
				return
			}
			next.ServeHTTP(out, in.WithContext(context.WithValue(in.Context(), ContextKeyUser, user)))
		})
	}
}

// User returns the caller stored by Authorization.
func User(in *http.Request) idp.User {
	user, ok := in.Context().Value(ContextKeyUser).(idp.User)
	if !ok {
		panic("user not defined (authorization middleware is not used)")
	}
	return user
}
