package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"

	"github.com/kerelape/bookshelf/internal/bookshelf"
	"github.com/kerelape/bookshelf/internal/keycloak"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"3000"`
	AddressRun  string `env:"RUN_ADDRESS"`
	DatabaseURL string `env:"DATABASE_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	KeycloakURL           string        `env:"KEYCLOAK_URL"`
	KeycloakRealm         string        `env:"KEYCLOAK_REALM"`
	KeycloakClientID      string        `env:"KEYCLOAK_CLIENT_ID"`
	KeycloakClientSecret  string        `env:"KEYCLOAK_CLIENT_SECRET"`
	KeycloakAdminRealm    string        `env:"KEYCLOAK_ADMIN_REALM" envDefault:"master"`
	KeycloakAdminClientID string        `env:"KEYCLOAK_ADMIN_CLIENT_ID" envDefault:"admin-cli"`
	KeycloakAdminUsername string        `env:"KEYCLOAK_ADMIN_USERNAME"`
	KeycloakAdminPassword string        `env:"KEYCLOAK_ADMIN_PASSWORD"`
	KeycloakIssuer        string        `env:"KEYCLOAK_ISSUER"`
	KeycloakTimeout       time.Duration `env:"KEYCLOAK_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// ParseConfig reads the environment and then the command-line arguments,
// which take precedence.
func ParseConfig(args []string) (Config, error) {
	config := Config{}
	if err := env.Parse(&config); err != nil {
		return Config{}, err
	}

	flags := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	addressRun := flags.String("a", "", "Server run address")
	databaseURL := flags.String("d", "", "Database DSN URI")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if *addressRun != "" {
		config.AddressRun = *addressRun
	}
	if *databaseURL != "" {
		config.DatabaseURL = *databaseURL
	}
	if config.AddressRun == "" {
		config.AddressRun = net.JoinHostPort("", config.Port)
	}

	if config.DatabaseURL == "" {
		return Config{}, errors.New("missing database url (-d|DATABASE_URL)")
	}
	required := []struct {
		value string
		name  string
	}{
		{config.KeycloakURL, "KEYCLOAK_URL"},
		{config.KeycloakRealm, "KEYCLOAK_REALM"},
		{config.KeycloakClientID, "KEYCLOAK_CLIENT_ID"},
		{config.KeycloakClientSecret, "KEYCLOAK_CLIENT_SECRET"},
		{config.KeycloakAdminUsername, "KEYCLOAK_ADMIN_USERNAME"},
		{config.KeycloakAdminPassword, "KEYCLOAK_ADMIN_PASSWORD"},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, fmt.Errorf("missing %s", r.name)
		}
	}
	if config.KeycloakTimeout <= 0 {
		return Config{}, errors.New("KEYCLOAK_TIMEOUT must be positive")
	}

	config.KeycloakURL = strings.TrimRight(config.KeycloakURL, "/")
	if config.KeycloakIssuer == "" {
		config.KeycloakIssuer = config.KeycloakURL + "/realms/" + config.KeycloakRealm
	}
	return config, nil
}

func (c Config) Bookshelf() bookshelf.Config {
	return bookshelf.Config{
		ServerAddress:  c.AddressRun,
		DatabaseURI:    c.DatabaseURL,
		AllowedOrigins: c.CORSAllowedOrigins,
		Keycloak: keycloak.Config{
			Address:       c.KeycloakURL,
			Realm:         c.KeycloakRealm,
			ClientID:      c.KeycloakClientID,
			ClientSecret:  c.KeycloakClientSecret,
			AdminRealm:    c.KeycloakAdminRealm,
			AdminClientID: c.KeycloakAdminClientID,
			AdminUsername: c.KeycloakAdminUsername,
			AdminPassword: c.KeycloakAdminPassword,
		},
		KeycloakIssuer:  c.KeycloakIssuer,
		KeycloakTimeout: c.KeycloakTimeout,
	}
}
