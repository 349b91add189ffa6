// Package metrics defines the Prometheus collectors for the service and
// exposes the scrape handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	UploadsTotal         *prometheus.CounterVec
	DuplicateHitsTotal   *prometheus.CounterVec
	LLMCallDuration      *prometheus.HistogramVec
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.005, 0.025, 0.1, 0.5, 1, 2.5, 5, 15, 60},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		UploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_uploads_total",
				Help: "Document uploads by kind (notice, reply) and outcome (ok, duplicate, error).",
			},
			[]string{"kind", "outcome"},
		),
		DuplicateHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duplicate_hits_total",
				Help: "Uploads short-circuited by the deduplication gate, by kind.",
			},
			[]string{"kind"},
		),
		LLMCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_call_duration_seconds",
				Help:    "Latency of outbound model calls by purpose (fields, opinion).",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"purpose"},
		),
	}
}

// New creates and registers all collectors on the default registry.
func New() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.UploadsTotal,
		m.DuplicateHitsTotal,
		m.LLMCallDuration,
	)
	return m
}

// NewUnregistered creates collectors without registering them; used by
// tests so repeated construction does not panic on duplicate registration.
func NewUnregistered() *Metrics {
	return newMetrics()
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
