// Package metrics provides Prometheus metrics for the dashboard API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal tracks handled API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scci",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks API request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scci",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of API requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 30},
		},
		[]string{"method", "route"},
	)

	// IngestionRowsTotal counts rows imported per dataset and entity kind
	IngestionRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scci",
			Subsystem: "ingestion",
			Name:      "rows_total",
			Help:      "Rows imported by dataset and kind (routes, records, skipped)",
		},
		[]string{"dataset", "kind"},
	)

	// IngestionRunsTotal counts dataset imports by outcome
	IngestionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "scci",
			Subsystem: "ingestion",
			Name:      "runs_total",
			Help:      "Dataset import runs by outcome",
		},
		[]string{"dataset", "status"},
	)

	// IngestionDuration tracks how long one dataset import takes
	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "scci",
			Subsystem: "ingestion",
			Name:      "duration_seconds",
			Help:      "Duration of dataset imports in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"dataset"},
	)
)

// RecordHTTPRequest records one handled API request
func RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
