// Package metrics exposes Prometheus collectors for the API surface.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors tracked per endpoint.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	active   *prometheus.GaugeVec
	errors   *prometheus.CounterVec
}

// New builds a Metrics instance backed by its own registry.
func New(version string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orgpulse_requests_total",
			Help: "Total number of API requests.",
		}, []string{"endpoint", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "orgpulse_request_duration_seconds",
			Help:    "Request duration in seconds.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1.0, 2.5, 5.0, 7.5, 10.0},
		}, []string{"endpoint"}),
		active: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "orgpulse_active_requests",
			Help: "Number of currently active requests.",
		}, []string{"endpoint"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "orgpulse_errors_total",
			Help: "Total number of errors by type.",
		}, []string{"endpoint", "error_type"}),
	}

	buildInfo := factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "orgpulse_build_info",
		Help: "Build information.",
	}, []string{"version"})
	buildInfo.WithLabelValues(version).Set(1)

	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordError counts one classified error for an endpoint.
func (m *Metrics) RecordError(endpoint, errorType string) {
	m.errors.WithLabelValues(endpoint, errorType).Inc()
}

// Track instruments a handler with request count, duration and in-flight gauges.
func (m *Metrics) Track(endpoint string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.active.WithLabelValues(endpoint).Inc()
		defer m.active.WithLabelValues(endpoint).Dec()

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		m.duration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(endpoint, statusLabel(recorder.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func statusLabel(status int) string {
	if status >= 400 {
		return "error"
	}
	return "success"
}
