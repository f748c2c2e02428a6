package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pior/runnable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/kerelape/bookshelf/internal/bookshelf/api/rest"
)

type API struct {
	rest    rest.REST
	metrics http.Handler
	log     zerolog.Logger

	ServerAddress  string
	AllowedOrigins []string
}

func New(address string, allowedOrigins []string, routes rest.REST, metrics http.Handler, log zerolog.Logger) API {
	return API{
		rest:    routes,
		metrics: metrics,
		log:     log,

		ServerAddress:  address,
		AllowedOrigins: allowedOrigins,
	}
}

// Handler returns the root handler with logging, CORS and recovery applied.
func (a API) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(
		hlog.NewHandler(a.log),
		hlog.RequestIDHandler("request_id", "X-Request-Id"),
		hlog.AccessHandler(func(in *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(in).Info().
				Str("method", in.Method).
				Str("path", in.URL.Path).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		}),
		cors.Handler(cors.Options{
			AllowedOrigins: a.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}),
		middleware.Recoverer,
	)
	router.Handle("/metrics", a.metrics)
	router.Mount("/", a.rest.Route())
	return router
}

func (a API) Run(ctx context.Context) error {
	server := http.Server{
		Addr:              a.ServerAddress,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	manager := runnable.NewManager()
	manager.Add(runnable.HTTPServer(&server))
	return manager.Build().Run(ctx)
}
