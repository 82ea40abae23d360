// Package metrics exposes the Prometheus registry of the search API.
// All metrics are defined in their respective packages (storage, cache,
// service, api) and registered via promauto, so importing a package is
// enough to publish its metrics.
//
// This package provides the scrape handler and documents every metric.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the registerer every promauto metric is added to.
	Registry = prometheus.DefaultRegisterer

	// Gatherer collects the metrics served by Handler.
	Gatherer = prometheus.DefaultGatherer
)

// Outcome labels shared by the storage and read-through metrics.
const (
	OutcomeHit       = "hit"
	OutcomeMiss      = "miss"
	OutcomeOK        = "ok"
	OutcomeNotFound  = "not_found"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Handler returns the /metrics scrape handler.
func Handler() http.Handler {
	return promhttp.InstrumentMetricHandler(
		Registry,
		promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{}),
	)
}

// Metrics Documentation
//
// Storage Metrics (pkg/storage):
//   - catalog_storage_requests_total{index, operation, outcome} (Counter): Index calls by outcome (ok, not_found, malformed, error)
//   - catalog_storage_request_duration_seconds{index, operation} (Histogram): Index call latency
//
// Cache Metrics (pkg/cache):
//   - catalog_cache_hits_total{entity, kind} (Counter): Cache hits by entity and key kind (id, query)
//   - catalog_cache_misses_total{entity, kind} (Counter): Cache misses, including degraded lookups
//   - catalog_cache_errors_total{operation} (Counter): Store or codec failures (get, set, encode, decode)
//
// Read-Through Metrics (pkg/service):
//   - catalog_read_through_total{entity, operation, outcome} (Counter): Service calls by outcome (hit, miss, error)
//   - catalog_read_through_duration_seconds{entity, operation} (Histogram): Service call latency
//
// HTTP Metrics (pkg/api):
//   - catalog_http_requests_total{route, status} (Counter): API requests by route and status code
//   - catalog_http_request_duration_seconds{route} (Histogram): API latency by route
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(catalog_cache_hits_total[5m])) /
//   (sum(rate(catalog_cache_hits_total[5m])) + sum(rate(catalog_cache_misses_total[5m])))
//
//   # Degraded Cache
//   rate(catalog_cache_errors_total[5m]) > 0
//
//   # Index Error Rate
//   sum(rate(catalog_storage_requests_total{outcome="error"}[5m])) by (index)
//
//   # P95 API Latency
//   histogram_quantile(0.95, rate(catalog_http_request_duration_seconds_bucket[5m]))
