package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	logins          *prometheus.CounterVec
	registrations   *prometheus.CounterVec
	keycloakLatency *prometheus.HistogramVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_registrations_total",
			Help: "Registration attempts by outcome.",
		}, []string{"outcome"}),
		keycloakLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_keycloak_request_duration_seconds",
			Help:    "Latency of requests to Keycloak.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
	}
	m.registry.MustRegister(
		m.logins,
		m.registrations,
		m.keycloakLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) RecordLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordRegistration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveKeycloakRequest(operation, outcome string, elapsed time.Duration) {
	m.keycloakLatency.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
