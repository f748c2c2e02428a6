package validation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerelape/bookshelf/internal/validation"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Year  *int   `json:"year" validate:"omitempty,min=1000,notfuture"`
}

func TestValidate(t *testing.T) {
	year := 1999
	assert.NoError(t, validation.Validate(sample{Name: "ok", Year: &year}))

	future := time.Now().Year() + 1
	err := validation.Validate(sample{Name: "too long", Email: "nope", Year: &future})

	var validationError *validation.Error
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, []string{
		"name must be at most 5 characters",
		"email must be a valid email address",
		"year must not be in the future",
	}, validationError.Messages())
}

func TestValidateRequired(t *testing.T) {
	err := validation.Validate(sample{})

	var validationError *validation.Error
	require.ErrorAs(t, err, &validationError)
	assert.Equal(t, []validation.FieldError{{Field: "name", Message: "must not be empty"}}, validationError.Fields)
}
