package books

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/authorization"
	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest/response"
	"github.com/kerelape/bookshelf/internal/bookshelf/books"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/validation"
)

type Books struct {
	shelf            books.Shelf
	identityProvider idp.IdentityProvider
}

// New creates a new Books.
func New(shelf books.Shelf, identityProvider idp.IdentityProvider) Books {
	return Books{
		shelf:            shelf,
		identityProvider: identityProvider,
	}
}

func (b Books) Route() http.Handler {
	router := chi.NewRouter()
	router.Use(authorization.Authorization(b.identityProvider))
	router.Get("/", b.list)
	router.Post("/", b.create)
	router.Get("/{id}", b.get)
	router.Put("/{id}", b.update)
	router.Delete("/{id}", b.remove)
	return router
}

func (b Books) list(out http.ResponseWriter, in *http.Request) {
	user := authorization.User(in)

	list, listError := b.shelf.List(in.Context(), user.ID)
	if listError != nil {
		b.fail(out, in, listError, "Failed to list books")
		return
	}
	response.JSON(out, in, http.StatusOK, list)
}

func (b Books) get(out http.ResponseWriter, in *http.Request) {
	user := authorization.User(in)
	id, ok := bookID(out, in)
	if !ok {
		return
	}

	book, getError := b.shelf.Get(in.Context(), user.ID, id)
	if getError != nil {
		b.fail(out, in, getError, "Failed to get book")
		return
	}
	response.JSON(out, in, http.StatusOK, book)
}

func (b Books) create(out http.ResponseWriter, in *http.Request) {
	user := authorization.User(in)

	var draft books.Draft
	if !decode(out, in, &draft) {
		return
	}

	book, addError := b.shelf.Add(in.Context(), user.ID, draft)
	if addError != nil {
		b.fail(out, in, addError, "Failed to create book")
		return
	}
	response.JSON(out, in, http.StatusCreated, map[string]any{
		"message": "Book created successfully",
		"book":    book,
	})
}

func (b Books) update(out http.ResponseWriter, in *http.Request) {
	user := authorization.User(in)
	id, ok := bookID(out, in)
	if !ok {
		return
	}

	var patch books.Patch
	if !decode(out, in, &patch) {
		return
	}

	book, updateError := b.shelf.Update(in.Context(), user.ID, id, patch)
	if updateError != nil {
		b.fail(out, in, updateError, "Failed to update book")
		return
	}
	response.JSON(out, in, http.StatusOK, map[string]any{
		"message": "Book updated successfully",
		"book":    book,
	})
}

func (b Books) remove(out http.ResponseWriter, in *http.Request) {
	user := authorization.User(in)
	id, ok := bookID(out, in)
	if !ok {
		return
	}

	if err := b.shelf.Remove(in.Context(), user.ID, id); err != nil {
		b.fail(out, in, err, "Failed to delete book")
		return
	}
	response.JSON(out, in, http.StatusOK, map[string]string{
		"message": "Book deleted successfully",
	})
}

func (b Books) fail(out http.ResponseWriter, in *http.Request, err error, message string) {
	var validationError *validation.Error
	switch {
	case errors.Is(err, books.ErrNotFound):
		response.Problem(out, in, http.StatusNotFound, "", "Book with ID "+chi.URLParam(in, "id")+" not found")
	case errors.As(err, &validationError):
		response.Problem(out, in, http.StatusBadRequest, "", validationError.Messages())
	default:
		hlog.FromRequest(in).Error().Err(err).Msg(message)
		response.Problem(out, in, http.StatusInternalServerError, "", message)
	}
}

func bookID(out http.ResponseWriter, in *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(in, "id"))
	if err != nil {
		response.Problem(out, in, http.StatusNotFound, "", "Book with ID "+chi.URLParam(in, "id")+" not found")
		return uuid.Nil, false
	}
	return id, true
}

func decode(out http.ResponseWriter, in *http.Request, target any) bool {
	decoder := json.NewDecoder(in.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		response.Status(out, in, http.StatusBadRequest)
		return false
	}
	return true
}
