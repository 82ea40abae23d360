package storage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StorageRequests tracks index requests by index, operation and outcome.
	StorageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_storage_requests_total",
			Help: "Total number of search index requests",
		},
		[]string{"index", "operation", "outcome"}, // outcome: "ok", "not_found", "malformed", "error"
	)

	// StorageRequestDuration tracks index request latency.
	StorageRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_storage_request_duration_seconds",
			Help:    "Search index request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"index", "operation"},
	)
)
