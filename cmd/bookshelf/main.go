package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pior/runnable"
	"github.com/rs/zerolog"

	"github.com/kerelape/bookshelf/internal/bookshelf"
)

func main() {
	// .env is optional.
	_ = godotenv.Load()

	config, parseConfigError := ParseConfig(os.Args[1:])
	if parseConfigError != nil {
		log.Fatal(parseConfigError)
	}

	logger, loggerError := newLogger(os.Stderr, config.LogLevel, config.LogFormat)
	if loggerError != nil {
		log.Fatal(loggerError)
	}
	logger.Info().
		Str("address", config.AddressRun).
		Str("keycloak_url", config.KeycloakURL).
		Str("keycloak_realm", config.KeycloakRealm).
		Str("keycloak_client_id", config.KeycloakClientID).
		Dur("keycloak_timeout", config.KeycloakTimeout).
		Msg("starting bookshelf")

	runnable.Run(bookshelf.New(config.Bookshelf(), logger))
}

func newLogger(out io.Writer, level, format string) (zerolog.Logger, error) {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	switch format {
	case "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid LOG_FORMAT %q", format)
	}
	return zerolog.New(out).Level(parsedLevel).With().Timestamp().Logger(), nil
}
