package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
)

const uniqueViolation = "23505"

type PostgresUserDatabase struct {
	database *PostgresDatabase
}

// Create inserts the user with a single statement.
func (p PostgresUserDatabase) Create(ctx context.Context, user idp.LocalUser) (idp.LocalUser, error) {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return idp.LocalUser{}, acquireError
	}

	user.ID = uuid.NewString()
	insertError := pool.QueryRow(
		ctx,
		`INSERT INTO users(id, keycloak_id, email, username) VALUES($1, $2, $3, $4) RETURNING created_at`,
		user.ID,
		user.KeycloakID,
		user.Email,
		user.Username,
	).Scan(&user.CreatedAt)
	if insertError != nil {
		var pgError *pgconn.PgError
		if errors.As(insertError, &pgError) && pgError.Code == uniqueViolation {
			return idp.LocalUser{}, idp.ErrDuplicateUser
		}
		return idp.LocalUser{}, insertError
	}
	return user, nil
}
