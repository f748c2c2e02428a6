package idp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/kerelape/bookshelf/internal/keycloak"
)

var setupIncompletePhrases = []string{
	"account is not fully set up",
	"account not fully set up",
}

// Classify maps an error returned by the Keycloak client onto a Kind.
// It is the only place that knows Keycloak's error vocabulary.
func Classify(err error) Kind {
	if errors.Is(err, keycloak.ErrUnavailable) {
		return KindProviderUnavailable
	}
	var providerError *keycloak.ProviderError
	if errors.As(err, &providerError) {
		if providerError.Status >= http.StatusInternalServerError {
			return KindProviderUnavailable
		}
		return ClassifyBody(providerError.Body)
	}
	if errors.Is(err, keycloak.ErrMalformedResponse) {
		return KindMalformedProviderResponse
	}
	return KindUnknown
}

// ClassifyBody classifies the body of a rejected token exchange.
func ClassifyBody(body []byte) Kind {
	var payload struct {
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return KindInvalidCredentials
	}
	description := normalize(payload.Description)
	for _, phrase := range setupIncompletePhrases {
		if strings.Contains(description, phrase) {
			return KindAccountSetupIncomplete
		}
	}
	return KindInvalidCredentials
}

// normalize lowercases s and collapses punctuation and whitespace runs into
// single spaces.
func normalize(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
