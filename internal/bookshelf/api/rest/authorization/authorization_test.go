package authorization_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/authorization"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp/mocks"
)

func TestAuthorization(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	provider.EXPECT().User(gomock.Any(), idp.Token("Bearer good")).Return(idp.User{ID: "uuid-123", Username: "bob"}, nil)
	provider.EXPECT().User(gomock.Any(), idp.Token("Bearer bad")).Return(idp.User{}, idp.ErrBadCredentials)
	provider.EXPECT().User(gomock.Any(), idp.Token("Bearer broken")).Return(idp.User{}, errors.New("jwks unavailable"))

	var seen idp.User
	handler := authorization.Authorization(provider)(http.HandlerFunc(func(out http.ResponseWriter, in *http.Request) {
		seen = authorization.User(in)
		out.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		token  string
		status int
	}{
		{"Bearer good", http.StatusNoContent},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer broken", http.StatusInternalServerError},
	}
	for _, c := range cases {
		in := httptest.NewRequest(http.MethodGet, "/", nil)
		in.Header.Set("Authorization", c.token)
		out := httptest.NewRecorder()
		handler.ServeHTTP(out, in)
		assert.Equal(t, c.status, out.Code, c.token)
	}
	assert.Equal(t, "uuid-123", seen.ID)
}

func TestUserPanicsWithoutMiddleware(t *testing.T) {
	assert.Panics(t, func() {
		authorization.User(httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
