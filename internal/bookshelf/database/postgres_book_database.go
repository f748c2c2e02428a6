package database

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kerelape/bookshelf/internal/bookshelf/books"
)

type PostgresBookDatabase struct {
	database *PostgresDatabase
}

const bookColumns = `id, title, author, genre, publication_year, created_by, created_at, updated_at`

func (p PostgresBookDatabase) Create(ctx context.Context, book books.Book) error {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return acquireError
	}
	_, err := pool.Exec(
		ctx,
		`INSERT INTO books(`+bookColumns+`) VALUES($1, $2, $3, $4, $5, $6, $7, $8)`,
		book.ID,
		book.Title,
		book.Author,
		book.Genre,
		book.PublicationYear,
		book.CreatedBy,
		book.CreatedAt,
		book.UpdatedAt,
	)
	return err
}

func (p PostgresBookDatabase) Books(ctx context.Context, owner string) ([]books.Book, error) {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return nil, acquireError
	}
	rows, queryError := pool.Query(
		ctx,
		`SELECT `+bookColumns+` FROM books WHERE created_by = $1 ORDER BY created_at DESC`,
		owner,
	)
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	result := make([]books.Book, 0)
	for rows.Next() {
		book, scanError := scanBook(rows)
		if scanError != nil {
			return nil, scanError
		}
		result = append(result, book)
	}
	return result, rows.Err()
}

func (p PostgresBookDatabase) Book(ctx context.Context, id uuid.UUID) (books.Book, error) {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return books.Book{}, acquireError
	}
	book, err := scanBook(pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return books.Book{}, books.ErrNotFound
	}
	return book, err
}

func (p PostgresBookDatabase) Update(ctx context.Context, book books.Book) error {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return acquireError
	}
	tag, err := pool.Exec(
		ctx,
		`UPDATE books SET title = $1, author = $2, genre = $3, publication_year = $4, updated_at = $5 WHERE id = $6`,
		book.Title,
		book.Author,
		book.Genre,
		book.PublicationYear,
		book.UpdatedAt,
		book.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return books.ErrNotFound
	}
	return nil
}

func (p PostgresBookDatabase) Delete(ctx context.Context, id uuid.UUID) error {
	pool, acquireError := p.database.acquire(ctx)
	if acquireError != nil {
		return acquireError
	}
	tag, err := pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return books.ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (books.Book, error) {
	book := books.Book{}
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.PublicationYear,
		&book.CreatedBy,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	return book, err
}
