package idp

import (
	"context"

	"github.com/kerelape/bookshelf/internal/keycloak"
)

// Token is the raw value of an Authorization header.
type Token string

// Credentials are end-user login credentials. They are never stored.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Registration is a request to create a new account.
type Registration struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

//go:generate mockgen -source=identity_provider.go -destination=mocks/mock_identity_provider.go -package=mocks

type IdentityProvider interface {

	// Register creates the user in Keycloak and stores the local user.
	Register(ctx context.Context, registration Registration) error

	// Authenticate exchanges credentials for a Keycloak token.
	Authenticate(ctx context.Context, credentials Credentials) (keycloak.Token, error)

	// User returns the user the bearer token was issued to.
	User(ctx context.Context, token Token) (User, error)
}
