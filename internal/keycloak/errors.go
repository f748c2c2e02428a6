package keycloak

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when no response was received from Keycloak.
	ErrUnavailable = errors.New("keycloak unavailable")

	// ErrMalformedResponse is returned when a successful response cannot be interpreted.
	ErrMalformedResponse = errors.New("malformed keycloak response")
)

// ProviderError is returned when Keycloak answers with a non-2xx status.
type ProviderError struct {
	Status int
	Body   []byte
}

func (p *ProviderError) Error() string {
	return fmt.Sprintf("keycloak responded with status %d", p.Status)
}
