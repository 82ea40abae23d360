// Package testutil provides test doubles for the catalog search service.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockElasticResponse defines the behavior for a mock Elasticsearch response.
type MockElasticResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockElastic is a configurable mock Elasticsearch server for testing.
type MockElastic struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	LastPath     string
	LastBody     []byte
}

// NewMockElastic creates a new mock Elasticsearch server.
func NewMockElastic() *MockElastic {
	mock := &MockElastic{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		mock.mu.Lock()
		mock.RequestCount++
		mock.LastPath = r.URL.Path
		mock.LastBody = body
		mock.mu.Unlock()

		// The client refuses servers that do not identify as Elasticsearch.
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockElastic) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockElastic) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockElastic) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastPath = ""
	m.LastBody = nil
}

// SetHandler sets a custom handler for a specific path.
func (m *MockElastic) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockElastic) SetResponse(path string, resp MockElasticResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDocResponse configures GET /{index}/_doc/{id}.
func (m *MockElastic) SetDocResponse(index, id string, resp MockElasticResponse) {
	m.SetResponse(fmt.Sprintf("/%s/_doc/%s", index, id), resp)
}

// SetMgetResponse configures POST /{index}/_mget.
func (m *MockElastic) SetMgetResponse(index string, resp MockElasticResponse) {
	m.SetResponse(fmt.Sprintf("/%s/_mget", index), resp)
}

// SetSearchResponse configures POST /{index}/_search.
func (m *MockElastic) SetSearchResponse(index string, resp MockElasticResponse) {
	m.SetResponse(fmt.Sprintf("/%s/_search", index), resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockElastic) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetLastBody returns the body of the most recent request.
func (m *MockElastic) GetLastBody() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastBody
}

// defaultHandler answers like a cluster without the requested index.
func (m *MockElastic) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"version":{"number":"8.15.0"},"tagline":"You Know, for Search"}`))
		return
	}

	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":{"type":"index_not_found_exception","reason":"no such index"},"status":404}`))
}

// NewDocResponse creates a 200 OK get-document response.
func NewDocResponse(index, id, source string) MockElasticResponse {
	return MockElasticResponse{
		StatusCode: http.StatusOK,
		Body:       fmt.Sprintf(`{"_index":%q,"_id":%q,"found":true,"_source":%s}`, index, id, source),
	}
}

// NewDocNotFoundResponse creates the 404 response for a missing document.
func NewDocNotFoundResponse(index, id string) MockElasticResponse {
	return MockElasticResponse{
		StatusCode: http.StatusNotFound,
		Body:       fmt.Sprintf(`{"_index":%q,"_id":%q,"found":false}`, index, id),
	}
}

// NewMgetResponse creates a multi-get response. Sources keyed by id are
// returned as found; ids listed in missing are returned as not found.
func NewMgetResponse(sources map[string]string, missing ...string) MockElasticResponse {
	docs := make([]map[string]any, 0, len(sources)+len(missing))
	for id, source := range sources {
		docs = append(docs, map[string]any{"_id": id, "found": true, "_source": json.RawMessage(source)})
	}
	for _, id := range missing {
		docs = append(docs, map[string]any{"_id": id, "found": false})
	}

	body, _ := json.Marshal(map[string]any{"docs": docs})
	return MockElasticResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewHitsResponse creates a search response returning sources in order.
func NewHitsResponse(sources ...string) MockElasticResponse {
	hits := make([]map[string]any, 0, len(sources))
	for _, source := range sources {
		hits = append(hits, map[string]any{"_source": json.RawMessage(source)})
	}

	body, _ := json.Marshal(map[string]any{
		"hits": map[string]any{
			"total": map[string]any{"value": len(sources), "relation": "eq"},
			"hits":  hits,
		},
	})
	return MockElasticResponse{StatusCode: http.StatusOK, Body: string(body)}
}

// NewErrorResponse creates an Elasticsearch error response.
func NewErrorResponse(status int, errType, reason string) MockElasticResponse {
	return MockElasticResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"error":{"type":%q,"reason":%q},"status":%d}`, errType, reason, status),
	}
}

// NewUnknownSortResponse creates the 400 response for a sort on an unmapped field.
func NewUnknownSortResponse(field string) MockElasticResponse {
	return NewErrorResponse(http.StatusBadRequest, "search_phase_execution_exception",
		fmt.Sprintf("No mapping found for [%s] in order to sort on", field))
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockElasticResponse {
	return NewErrorResponse(http.StatusInternalServerError, "internal_server_error", "shard failure")
}
