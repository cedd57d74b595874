package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	loginAttempts *prometheus.CounterVec
	bookings      *prometheus.CounterVec
	activeTokens  prometheus.Gauge
}

// New builds a Metrics with its own registry so tests can create isolated
// instances.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casaway_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casaway_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		loginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casaway_login_attempts_total",
			Help: "Login attempts by outcome (success, failure, locked, throttled).",
		}, []string{"outcome"}),
		bookings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "casaway_bookings_total",
			Help: "Booking operations by result (created, conflict, confirmed, cancelled).",
		}, []string{"result"}),
		activeTokens: factory.NewGauge(prometheus.GaugeOpts{
			Name: "casaway_active_tokens",
			Help: "Unexpired API tokens observed at the last cleanup pass.",
		}),
	}
}

// Handler exposes the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one completed HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordLoginAttempt records a login outcome.
func (m *Metrics) RecordLoginAttempt(outcome string) {
	m.loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordBooking records a booking operation result.
func (m *Metrics) RecordBooking(result string) {
	m.bookings.WithLabelValues(result).Inc()
}

// SetActiveTokens reports the current count of live tokens.
func (m *Metrics) SetActiveTokens(n int64) {
	m.activeTokens.Set(float64(n))
}
