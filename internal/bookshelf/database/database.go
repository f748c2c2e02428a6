package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresDatabase owns the connection pool shared by the user and book
// databases. It is a runnable: Run connects, migrates and keeps the pool
// open until the context is done.
type PostgresDatabase struct {
	dsn string
	log zerolog.Logger

	pool  *pgxpool.Pool
	ready chan struct{}
}

// NewPostgresDatabase creates a new PostgresDatabase.
func NewPostgresDatabase(dsn string, log zerolog.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		dsn: dsn,
		log: log.With().Str("component", "database").Logger(),

		pool:  nil,
		ready: make(chan struct{}),
	}
}

// Users returns the database of registered users.
func (p *PostgresDatabase) Users() PostgresUserDatabase {
	return PostgresUserDatabase{database: p}
}

// Books returns the database of books.
func (p *PostgresDatabase) Books() PostgresBookDatabase {
	return PostgresBookDatabase{database: p}
}

// acquire waits until Run has connected and migrated.
func (p *PostgresDatabase) acquire(ctx context.Context) (*pgxpool.Pool, error) {
	select {
	case <-p.ready:
		return p.pool, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PostgresDatabase) Run(ctx context.Context) error {
	if p.pool != nil {
		return errors.New("connection is already initialized")
	}

	pool, connectError := pgxpool.New(ctx, p.dsn)
	if connectError != nil {
		return connectError
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return err
	}

	p.pool = pool
	close(p.ready)
	p.log.Info().Msg("database ready")

	<-ctx.Done()
	p.pool.Close()
	return nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	transaction, transactionError := pool.Begin(ctx)
	if transactionError != nil {
		return transactionError
	}

	queries := []string{
		// Create users table.
		`
		CREATE TABLE IF NOT EXISTS users(
			id UUID PRIMARY KEY,
			keycloak_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			username TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
		`,
		// Create books table.
		`
		CREATE TABLE IF NOT EXISTS books(
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			genre TEXT NOT NULL,
			publication_year INTEGER NOT NULL,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
		`,
		`CREATE INDEX IF NOT EXISTS books_created_by_idx ON books(created_by, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := transaction.Exec(ctx, query); err != nil {
			if rollbackError := transaction.Rollback(ctx); rollbackError != nil {
				return errors.Join(err, rollbackError)
			}
			return err
		}
	}

	return transaction.Commit(ctx)
}
