package login_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/auth/login"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp/mocks"
	"github.com/kerelape/bookshelf/internal/keycloak"
)

type outcomes []string

func (o *outcomes) RecordLogin(outcome string) {
	*o = append(*o, outcome)
}

type problem struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    any    `json:"message"`
	Timestamp  string `json:"timestamp"`
}

func serve(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	in := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	out := httptest.NewRecorder()
	handler.ServeHTTP(out, in)
	return out
}

func TestLoginReturnsProviderTokenVerbatim(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	raw := `{"access_token":"eyJ...","expires_in":300,"refresh_token":"r","token_type":"Bearer"}`
	provider.EXPECT().
		Authenticate(gomock.Any(), idp.Credentials{Username: "bob", Password: "Secret1!"}).
		Return(keycloak.Token{AccessToken: "eyJ...", Raw: []byte(raw)}, nil)
	recorder := &outcomes{}

	out := serve(t, login.New(provider, recorder).Route(), `{"username":"bob","password":"Secret1!"}`)

	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "application/json", out.Header().Get("Content-Type"))
	assert.JSONEq(t, raw, out.Body.String())
	assert.Equal(t, outcomes{"ok"}, *recorder)
}

func TestLoginFailures(t *testing.T) {
	cases := map[string]struct {
		err     error
		status  int
		title   string
		message string
	}{
		"invalid credentials": {
			err:     &idp.Error{Kind: idp.KindInvalidCredentials, Message: "Invalid user credentials", Detail: "invalid_grant"},
			status:  http.StatusUnauthorized,
			title:   "Unauthorized",
			message: "Invalid credentials",
		},
		"account setup incomplete": {
			err:     &idp.Error{Kind: idp.KindAccountSetupIncomplete, Message: "Account is not fully set up"},
			status:  http.StatusForbidden,
			title:   "Account Setup Incomplete",
			message: "Account is not fully set up",
		},
		"provider unavailable": {
			err:     &idp.Error{Kind: idp.KindProviderUnavailable, Message: "Authentication service is unavailable"},
			status:  http.StatusServiceUnavailable,
			title:   "Service Unavailable",
			message: "Authentication service is unavailable",
		},
		"unknown": {
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			title:   "Internal Server Error",
			message: "Internal Server Error",
		},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mocks.NewMockIdentityProvider(ctrl)
			provider.EXPECT().Authenticate(gomock.Any(), gomock.Any()).Return(keycloak.Token{}, c.err)

			out := serve(t, login.New(provider, &outcomes{}).Route(), `{"username":"bob","password":"wrong"}`)

			require.Equal(t, c.status, out.Code)
			var body problem
			require.NoError(t, json.Unmarshal(out.Body.Bytes(), &body))
			assert.Equal(t, c.status, body.StatusCode)
			assert.Equal(t, c.title, body.Error)
			assert.Equal(t, c.message, body.Message)
			assert.NotEmpty(t, body.Timestamp)
			assert.NotContains(t, out.Body.String(), "invalid_grant")
		})
	}
}

func TestLoginRejectsBadRequestsWithoutCallingKeycloak(t *testing.T) {
	cases := map[string]string{
		"not json":       `username=bob`,
		"missing field":  `{"username":"bob"}`,
		"unknown field":  `{"username":"bob","password":"x","admin":true}`,
		"empty password": `{"username":"bob","password":""}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mocks.NewMockIdentityProvider(ctrl)

			out := serve(t, login.New(provider, &outcomes{}).Route(), body)

			assert.Equal(t, http.StatusBadRequest, out.Code)
		})
	}
}
