package bookshelf

import (
	"time"

	"github.com/kerelape/bookshelf/internal/keycloak"
)

// Config is everything the service needs, parsed once at startup.
type Config struct {
	ServerAddress  string
	DatabaseURI    string
	AllowedOrigins []string

	Keycloak        keycloak.Config
	KeycloakIssuer  string
	KeycloakTimeout time.Duration
}
