package bookshelf

import (
	"context"
	"net/http"

	"github.com/pior/runnable"
	"github.com/rs/zerolog"

	"github.com/kerelape/bookshelf/internal/bookshelf/api"
	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest"
	"github.com/kerelape/bookshelf/internal/bookshelf/books"
	"github.com/kerelape/bookshelf/internal/bookshelf/database"
	"github.com/kerelape/bookshelf/internal/bookshelf/idp"
	"github.com/kerelape/bookshelf/internal/bookshelf/metrics"
	"github.com/kerelape/bookshelf/internal/keycloak"
)

type Bookshelf struct {
	database *database.PostgresDatabase
	api      api.API
}

func New(config Config, log zerolog.Logger) Bookshelf {
	collectors := metrics.New()
	httpClient := &http.Client{Timeout: config.KeycloakTimeout}

	client := keycloak.New(config.Keycloak, httpClient)
	client.Observer = collectors

	postgres := database.NewPostgresDatabase(config.DatabaseURI, log)
	verifier := idp.NewKeycloakVerifier(config.Keycloak.Address, config.Keycloak.Realm, config.KeycloakIssuer, httpClient)
	identityProvider := idp.NewKeycloakIdentityProvider(client, postgres.Users(), verifier, log)

	return Bookshelf{
		database: postgres,
		api: api.New(
			config.ServerAddress,
			config.AllowedOrigins,
			rest.New(identityProvider, books.NewShelf(postgres.Books()), collectors),
			collectors.Handler(),
			log,
		),
	}
}

func (b Bookshelf) Run(ctx context.Context) error {
	manager := runnable.NewManager()
	manager.Add(b.database)
	manager.Add(b.api)
	return manager.Build().Run(ctx)
}
