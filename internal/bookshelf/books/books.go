package books

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a book does not exist or belongs to
	// another user.
	ErrNotFound = errors.New("book not found")
)

// Book is a book on a user's shelf.
type Book struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Genre           string    `json:"genre"`
	PublicationYear int       `json:"publicationYear"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Draft is the content of a new book.
type Draft struct {
	Title           string `json:"title" validate:"required"`
	Author          string `json:"author" validate:"required"`
	Genre           string `json:"genre" validate:"required"`
	PublicationYear int    `json:"publicationYear" validate:"required,min=1000,notfuture"`
}

// Patch changes the fields of a book that are set.
type Patch struct {
	Title           *string `json:"title" validate:"omitnil,min=1"`
	Author          *string `json:"author" validate:"omitnil,min=1"`
	Genre           *string `json:"genre" validate:"omitnil,min=1"`
	PublicationYear *int    `json:"publicationYear" validate:"omitnil,min=1000,notfuture"`
}

func (p Patch) apply(book Book) Book {
	if p.Title != nil {
		book.Title = *p.Title
	}
	if p.Author != nil {
		book.Author = *p.Author
	}
	if p.Genre != nil {
		book.Genre = *p.Genre
	}
	if p.PublicationYear != nil {
		book.PublicationYear = *p.PublicationYear
	}
	return book
}

type Database interface {
	// Create stores a new book.
	Create(ctx context.Context, book Book) error

	// Books returns the books created by owner, newest first.
	Books(ctx context.Context, owner string) ([]Book, error)

	// Book returns the book by id or ErrNotFound.
	Book(ctx context.Context, id uuid.UUID) (Book, error)

	// Update overwrites an existing book.
	Update(ctx context.Context, book Book) error

	// Delete removes the book by id.
	Delete(ctx context.Context, id uuid.UUID) error
}
