// Package metrics provides Prometheus metrics for the translation
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	JobsTotal         *prometheus.CounterVec
	JobsInFlight      prometheus.Gauge
	TranslateDuration *prometheus.HistogramVec
	UnitsPerDocument  prometheus.Histogram
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		JobsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slidetrans_jobs_total",
				Help: "Total number of translation jobs by final status",
			},
			[]string{"status"},
		),
		JobsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "slidetrans_jobs_in_flight",
				Help: "Number of translation jobs currently being processed",
			},
		),
		TranslateDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slidetrans_translate_request_duration_seconds",
				Help:    "Duration of provider translation requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		UnitsPerDocument: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "slidetrans_units_per_document",
				Help:    "Number of text units extracted per document",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
	}
}

// JobFinished records a job's terminal status.
func (m *Metrics) JobFinished(status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status).Inc()
}
