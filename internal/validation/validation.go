// Package validation checks request structs against their `validate` tags.
package validation

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		// notfuture accepts years up to and including the current one.
		_ = validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
			return fl.Field().Int() <= int64(time.Now().Year())
		})
	})
	return validate
}

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned when a struct fails validation.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	return strings.Join(e.Messages(), "; ")
}

// Messages returns one human readable message per invalid field.
func (e *Error) Messages() []string {
	messages := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		messages = append(messages, field.Field+" "+field.Message)
	}
	return messages
}

// Validate validates s using its struct tags.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	result := &Error{Fields: make([]FieldError, 0, len(validationErrors))}
	for _, e := range validationErrors {
		result.Fields = append(result.Fields, FieldError{
			Field:   e.Field(),
			Message: message(e),
		})
	}
	return result
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "must not be empty"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		return "must not be less than " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must not be greater than " + e.Param()
	case "notfuture":
		return "must not be in the future"
	}
	return "is invalid"
}
