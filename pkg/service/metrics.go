package service

import (
	"github.com/Sternrassler/catalog-search/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit   = metrics.OutcomeHit
	outcomeMiss  = metrics.OutcomeMiss
	outcomeError = metrics.OutcomeError
)

var (
	// ReadThroughTotal tracks read-through calls by entity, operation and outcome
	ReadThroughTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_read_through_total",
			Help: "Total number of read-through calls",
		},
		[]string{"entity", "operation", "outcome"}, // outcome: "hit", "miss", "error"
	)

	// ReadThroughDuration tracks read-through latency by entity and operation
	ReadThroughDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_read_through_duration_seconds",
			Help:    "Read-through call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity", "operation"},
	)
)
