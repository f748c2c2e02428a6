package idp

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateUser is returned when a local user with the same Keycloak id
// already exists.
var ErrDuplicateUser = errors.New("duplicate user")

// User is the caller of a protected request, as asserted by Keycloak.
type User struct {
	ID       string
	Username string
	Email    string
}

// LocalUser is the local record of a user registered through Keycloak.
type LocalUser struct {
	ID         string
	KeycloakID string
	Email      string
	Username   string
	CreatedAt  time.Time
}

type UserDatabase interface {
	// Create stores a new user in a single write. It returns
	// ErrDuplicateUser if the Keycloak id is already taken.
	Create(ctx context.Context, user LocalUser) (LocalUser, error)
}
