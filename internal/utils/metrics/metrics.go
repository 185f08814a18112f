package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/uniedit/reelgen/internal/domain/generation"
	"github.com/uniedit/reelgen/internal/model"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Generation metrics
	GenerationJobsTotal   *prometheus.CounterVec
	GenerationJobDuration *prometheus.HistogramVec
	GenerationItemsTotal  *prometheus.CounterVec
	GenerationBatches     *prometheus.CounterVec
	CooldownSeconds       *prometheus.HistogramVec
	ProgressEventsTotal   *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry.
func New(namespace string) *Metrics {
	return NewWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered on reg.
func NewWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "reelgen"
	}
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		// Generation metrics
		GenerationJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "jobs_total",
				Help:      "Total number of generation jobs by final status",
			},
			[]string{"provider", "status"},
		),
		GenerationJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "job_duration_seconds",
				Help:      "Generation job duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		GenerationItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "batch_items_total",
				Help:      "Items produced or lost per batch",
			},
			[]string{"provider", "outcome"}, // outcome: succeeded, failed
		),
		GenerationBatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "batches_total",
				Help:      "Total number of completed batches",
			},
			[]string{"provider"},
		),
		CooldownSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "cooldown_seconds",
				Help:      "Time spent waiting between batches",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
			},
			[]string{"provider"},
		),
		ProgressEventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "progress",
				Name:      "events_total",
				Help:      "Progress events published on the bus",
			},
			[]string{"type"},
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusStr := statusCodeToString(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// JobFinished records one generation job.
func (m *Metrics) JobFinished(provider string, status model.JobStatus, took time.Duration) {
	m.GenerationJobsTotal.WithLabelValues(provider, string(status)).Inc()
	m.GenerationJobDuration.WithLabelValues(provider).Observe(took.Seconds())
}

// BatchFinished records one completed batch.
func (m *Metrics) BatchFinished(provider string, succeeded, failed int) {
	m.GenerationBatches.WithLabelValues(provider).Inc()
	m.GenerationItemsTotal.WithLabelValues(provider, "succeeded").Add(float64(succeeded))
	m.GenerationItemsTotal.WithLabelValues(provider, "failed").Add(float64(failed))
}

// CooldownWaited records an inter-batch wait.
func (m *Metrics) CooldownWaited(provider string, waited time.Duration) {
	m.CooldownSeconds.WithLabelValues(provider).Observe(waited.Seconds())
}

// RecordProgressEvent counts one published progress event.
func (m *Metrics) RecordProgressEvent(eventType string) {
	m.ProgressEventsTotal.WithLabelValues(eventType).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}

// Compile-time interface check
var _ generation.Observer = (*Metrics)(nil)
