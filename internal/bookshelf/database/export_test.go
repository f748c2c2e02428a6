package database

import (
	"context"

	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
)

// UserByKeycloakID reads back a stored user.
func (p PostgresUserDatabase) UserByKeycloakID(ctx context.Context, keycloakID string) (idp.LocalUser, error) {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return idp.LocalUser{}, acquireError
	}

	user := idp.LocalUser{}
	err := pool.QueryRow(
		ctx,
		`SELECT id, keycloak_id, email, username, created_at FROM users WHERE keycloak_id = $1`,
		keycloakID,
	).Scan(&user.ID, &user.KeycloakID, &user.Email, &user.Username, &user.CreatedAt)
	return user, err
}
