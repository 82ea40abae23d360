package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Sternrassler/catalog-search/pkg/cache"
	"github.com/Sternrassler/catalog-search/pkg/metrics"
	"github.com/Sternrassler/catalog-search/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if metrics.Registry == nil {
		t.Error("Registry should not be nil")
	}

	if metrics.Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}

	if metrics.Gatherer != prometheus.DefaultGatherer {
		t.Error("Gatherer should be the default Prometheus gatherer")
	}
}

func TestHandler(t *testing.T) {
	cache.CacheHits.WithLabelValues("Genre", "query").Inc()
	storage.StorageRequests.WithLabelValues("genres", "search", metrics.OutcomeOK).Inc()

	w := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	body := w.Body.String()
	for _, want := range []string{
		"# HELP",
		"# TYPE",
		`catalog_cache_hits_total{entity="Genre",kind="query"}`,
		`catalog_storage_requests_total{index="genres",operation="search",outcome="ok"}`,
		"promhttp_metric_handler_requests_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics output to contain %s", want)
		}
	}
}
