package books

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kerelape/bookshelf/internal/validation"
)

// Shelf manages the books of each user. A user only ever sees their own
// books; anybody else's look like they do not exist.
type Shelf struct {
	database Database
	now      func() time.Time
}

// NewShelf creates a new Shelf.
func NewShelf(database Database) Shelf {
	return Shelf{
		database: database,
		now:      time.Now,
	}
}

func (s Shelf) Add(ctx context.Context, owner string, draft Draft) (Book, error) {
	if err := validation.Validate(draft); err != nil {
		return Book{}, err
	}
	now := s.now().UTC()
	book := Book{
		ID:              uuid.New(),
		Title:           draft.Title,
		Author:          draft.Author,
		Genre:           draft.Genre,
		PublicationYear: draft.PublicationYear,
		CreatedBy:       owner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.database.Create(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func (s Shelf) List(ctx context.Context, owner string) ([]Book, error) {
	return s.database.Books(ctx, owner)
}

func (s Shelf) Get(ctx context.Context, owner string, id uuid.UUID) (Book, error) {
	book, err := s.database.Book(ctx, id)
	if err != nil {
		return Book{}, err
	}
	if book.CreatedBy != owner {
		return Book{}, ErrNotFound
	}
	return book, nil
}

func (s Shelf) Update(ctx context.Context, owner string, id uuid.UUID, patch Patch) (Book, error) {
	if err := validation.Validate(patch); err != nil {
		return Book{}, err
	}
	book, err := s.Get(ctx, owner, id)
	if err != nil {
		return Book{}, err
	}
	book = patch.apply(book)
	book.UpdatedAt = s.now().UTC()
	if err := s.database.Update(ctx, book); err != nil {
		return Book{}, err
	}
	return book, nil
}

func (s Shelf) Remove(ctx context.Context, owner string, id uuid.UUID) error {
	if _, err := s.Get(ctx, owner, id); err != nil {
		return err
	}
	return s.database.Delete(ctx, id)
}
