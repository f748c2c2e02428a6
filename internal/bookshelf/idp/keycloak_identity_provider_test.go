package idp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/keycloak"
)

type fakeKeycloak struct {
	userToken   func(username, password string) (keycloak.Token, error)
	adminError  error
	createID    string
	createError error
	verifyError error

	calls    []string
	verified map[string]int
}

func (f *fakeKeycloak) ExchangeUserToken(_ context.Context, username, password string) (keycloak.Token, error) {
	f.calls = append(f.calls, "user_token")
	return f.userToken(username, password)
}

func (f *fakeKeycloak) ExchangeAdminToken(context.Context) (keycloak.Token, error) {
	f.calls = append(f.calls, "admin_token")
	if f.adminError != nil {
		return keycloak.Token{}, f.adminError
	}
	return keycloak.Token{AccessToken: "admin"}, nil
}

func (f *fakeKeycloak) CreateUser(_ context.Context, admin keycloak.Token, _ keycloak.NewUser) (string, error) {
	f.calls = append(f.calls, "create_user:"+admin.AccessToken)
	return f.createID, f.createError
}

func (f *fakeKeycloak) MarkEmailVerified(_ context.Context, admin keycloak.Token, id string) error {
	f.calls = append(f.calls, "mark_email_verified:"+admin.AccessToken+":"+id)
	if f.verifyError != nil {
		return f.verifyError
	}
	if f.verified == nil {
		f.verified = map[string]int{}
	}
	f.verified[id]++
	return nil
}

type fakeUserDatabase struct {
	users     map[string]idp.LocalUser
	failWith  error
	createdAt int
}

func (f *fakeUserDatabase) Create(_ context.Context, user idp.LocalUser) (idp.LocalUser, error) {
	if f.failWith != nil {
		return idp.LocalUser{}, f.failWith
	}
	if _, exists := f.users[user.KeycloakID]; exists {
		return idp.LocalUser{}, idp.ErrDuplicateUser
	}
	f.createdAt++
	user.ID = fmt.Sprintf("local-%d", f.createdAt)
	f.users[user.KeycloakID] = user
	return user, nil
}

type KeycloakIdentityProviderSuite struct {
	suite.Suite
	keycloak *fakeKeycloak
	database *fakeUserDatabase
	logs     *bytes.Buffer
	provider idp.KeycloakIdentityProvider
}

func TestKeycloakIdentityProviderSuite(t *testing.T) {
	suite.Run(t, new(KeycloakIdentityProviderSuite))
}

func (s *KeycloakIdentityProviderSuite) SetupTest() {
	s.keycloak = &fakeKeycloak{createID: "uuid-123"}
	s.database = &fakeUserDatabase{users: map[string]idp.LocalUser{}}
	s.logs = &bytes.Buffer{}
	s.provider = idp.NewKeycloakIdentityProvider(s.keycloak, s.database, nil, zerolog.New(s.logs))
}

var bob = idp.Registration{Username: "bob", Email: "bob@x.com", Password: "pw"}

func (s *KeycloakIdentityProviderSuite) TestAuthenticatePassesTokenThrough() {
	raw := json.RawMessage(`{"access_token":"abc","refresh_token":"def","expires_in":300}`)
	s.keycloak.userToken = func(username, password string) (keycloak.Token, error) {
		s.Equal("user1", username)
		s.Equal("pass1", password)
		return keycloak.ParseToken(raw)
	}

	token, err := s.provider.Authenticate(context.Background(), idp.Credentials{Username: "user1", Password: "pass1"})

	s.Require().NoError(err)
	s.JSONEq(string(raw), string(token.Raw))
	s.Empty(s.database.users)
}

func (s *KeycloakIdentityProviderSuite) TestAuthenticateRejected() {
	cases := map[string]struct {
		err  error
		want idp.Kind
	}{
		"invalid grant": {
			&keycloak.ProviderError{Status: http.StatusUnauthorized, Body: []byte(`{"error":"invalid_grant","error_description":"Invalid user credentials"}`)},
			idp.KindInvalidCredentials,
		},
		"setup incomplete": {
			&keycloak.ProviderError{Status: http.StatusBadRequest, Body: []byte(`{"error":"invalid_grant","error_description":"Account is not fully set up..."}`)},
			idp.KindAccountSetupIncomplete,
		},
		"unavailable": {
			fmt.Errorf("%w: connection refused", keycloak.ErrUnavailable),
			idp.KindProviderUnavailable,
		},
	}
	for name, c := range cases {
		s.Run(name, func() {
			s.keycloak.userToken = func(string, string) (keycloak.Token, error) {
				return keycloak.Token{}, c.err
			}

			_, err := s.provider.Authenticate(context.Background(), idp.Credentials{Username: "user1", Password: "nope"})

			var idpError *idp.Error
			s.Require().ErrorAs(err, &idpError)
			s.Equal(c.want, idpError.Kind)
			s.NotContains(idpError.Message, "invalid_grant")
			s.NotContains(s.logs.String(), "nope")
		})
	}
}

func (s *KeycloakIdentityProviderSuite) TestRegister() {
	err := s.provider.Register(context.Background(), bob)

	s.Require().NoError(err)
	s.Equal([]string{
		"admin_token",
		"create_user:admin",
		"mark_email_verified:admin:uuid-123",
	}, s.keycloak.calls)
	s.Require().Contains(s.database.users, "uuid-123")
	user := s.database.users["uuid-123"]
	s.Equal("uuid-123", user.KeycloakID)
	s.Equal("bob@x.com", user.Email)
	s.Equal("bob", user.Username)
	s.NotContains(s.logs.String(), `"pw"`)
}

func (s *KeycloakIdentityProviderSuite) TestRegisterAdminAuthFailed() {
	s.keycloak.adminError = &keycloak.ProviderError{Status: http.StatusUnauthorized, Body: []byte(`{"error":"invalid_grant"}`)}

	err := s.provider.Register(context.Background(), bob)

	s.Equal(idp.KindAdminAuthFailed, idp.KindOf(err))
	s.Equal([]string{"admin_token"}, s.keycloak.calls)
	s.Empty(s.database.users)
}

func (s *KeycloakIdentityProviderSuite) TestRegisterUserCreationFailed() {
	s.keycloak.createError = &keycloak.ProviderError{Status: http.StatusConflict, Body: []byte(`{"errorMessage":"User exists with same username"}`)}

	err := s.provider.Register(context.Background(), bob)

	var idpError *idp.Error
	s.Require().ErrorAs(err, &idpError)
	s.Equal(idp.KindUserCreationFailed, idpError.Kind)
	s.True(idpError.Conflict())
	s.Contains(idpError.Detail, "User exists")
	s.Empty(s.database.users)
}

func (s *KeycloakIdentityProviderSuite) TestRegisterMalformedLocation() {
	s.keycloak.createError = fmt.Errorf("%w: missing Location header", keycloak.ErrMalformedResponse)

	err := s.provider.Register(context.Background(), bob)

	s.Equal(idp.KindMalformedProviderResponse, idp.KindOf(err))
	s.Len(s.keycloak.calls, 2)
	s.Empty(s.database.users)
}

func (s *KeycloakIdentityProviderSuite) TestRegisterVerificationFailedIsPartial() {
	s.keycloak.verifyError = &keycloak.ProviderError{Status: http.StatusForbidden, Body: []byte(`{"error":"forbidden"}`)}

	err := s.provider.Register(context.Background(), bob)

	var idpError *idp.Error
	s.Require().ErrorAs(err, &idpError)
	s.Equal(idp.KindPartialRegistration, idpError.Kind)
	s.Equal("uuid-123", idpError.ProviderUserID)
	s.True(idpError.Kind.NeedsReconciliation())
	s.Contains(s.database.users, "uuid-123")
	s.Contains(s.logs.String(), "uuid-123")
}

func (s *KeycloakIdentityProviderSuite) TestRegisterLocalConflictIsOrphan() {
	s.database.users["uuid-123"] = idp.LocalUser{ID: "local-0", KeycloakID: "uuid-123", Username: "bob"}

	err := s.provider.Register(context.Background(), bob)

	var idpError *idp.Error
	s.Require().ErrorAs(err, &idpError)
	s.Equal(idp.KindOrphanedExternalUser, idpError.Kind)
	s.Equal("uuid-123", idpError.ProviderUserID)
	s.ErrorIs(err, idp.ErrDuplicateUser)
	s.Len(s.database.users, 1)
	s.Equal("local-0", s.database.users["uuid-123"].ID)
	s.Contains(s.logs.String(), `"provider_user_id":"uuid-123"`)
}

func (s *KeycloakIdentityProviderSuite) TestRegisterLocalFailureAfterVerificationFailure() {
	s.keycloak.verifyError = errors.New("verify failed")
	s.database.failWith = errors.New("connection reset")

	err := s.provider.Register(context.Background(), bob)

	s.Equal(idp.KindOrphanedExternalUser, idp.KindOf(err))
	s.Empty(s.database.users)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "OrphanedExternalUser", idp.KindOrphanedExternalUser.String())
	assert.Equal(t, "Unknown", idp.Kind(100).String())
	assert.Equal(t, idp.KindUnknown, idp.KindOf(errors.New("plain")))
	require.False(t, idp.KindInvalidCredentials.NeedsReconciliation())
}
