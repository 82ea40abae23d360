package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Sternrassler/catalog-search/pkg/pagination"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/Sternrassler/catalog-search/pkg/storage"
)

// maxResultWindow mirrors the default index.max_result_window of Elasticsearch.
const maxResultWindow = 10000

// MemoryIndex is an in-memory storage.Index. It understands the descriptor
// features the builders emit: multi-field text match with boosts, term and
// nested term filters, single-field sort and from/size windows.
type MemoryIndex struct {
	mu      sync.RWMutex
	indexes map[string]*memoryDocs

	// Err, when set, is returned by every call.
	Err error

	getCalls    int
	mgetCalls   int
	searchCalls int
	lastMGetIDs []string
}

type memoryDocs struct {
	order   []string
	sources map[string]json.RawMessage
}

// NewMemoryIndex creates an empty MemoryIndex.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{indexes: make(map[string]*memoryDocs)}
}

// Put stores v (JSON-encoded) under index/id.
func (m *MemoryIndex) Put(index, id string, v any) error {
	source, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs, ok := m.indexes[index]
	if !ok {
		docs = &memoryDocs{sources: make(map[string]json.RawMessage)}
		m.indexes[index] = docs
	}
	if _, exists := docs.sources[id]; !exists {
		docs.order = append(docs.order, id)
	}
	docs.sources[id] = source
	return nil
}

// Get implements storage.Index.
func (m *MemoryIndex) Get(ctx context.Context, index, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	if err := m.check(ctx); err != nil {
		return nil, err
	}

	docs, ok := m.indexes[index]
	if !ok {
		return nil, &storage.IndexError{Index: index, Operation: "get", StatusCode: http.StatusNotFound, Kind: storage.ErrNotFound}
	}
	source, ok := docs.sources[id]
	if !ok {
		return nil, &storage.IndexError{Index: index, Operation: "get", StatusCode: http.StatusNotFound, Kind: storage.ErrNotFound}
	}
	return source, nil
}

// MGet implements storage.Index.
func (m *MemoryIndex) MGet(ctx context.Context, index string, ids []string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mgetCalls++
	m.lastMGetIDs = append([]string(nil), ids...)

	if err := m.check(ctx); err != nil {
		return nil, err
	}

	docs, ok := m.indexes[index]
	if !ok {
		return []json.RawMessage{}, nil
	}

	sources := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		if source, ok := docs.sources[id]; ok {
			sources = append(sources, source)
		}
	}
	return sources, nil
}

// Search implements storage.Index.
func (m *MemoryIndex) Search(ctx context.Context, index string, d query.Descriptor) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searchCalls++

	if err := m.check(ctx); err != nil {
		return nil, err
	}

	if d.From+d.Size > maxResultWindow {
		return nil, &storage.IndexError{
			Index: index, Operation: "search", StatusCode: http.StatusBadRequest,
			Kind: storage.ErrMalformedQuery, Reason: "Result window is too large",
		}
	}

	docs, ok := m.indexes[index]
	if !ok {
		return nil, &storage.IndexError{Index: index, Operation: "search", StatusCode: http.StatusNotFound, Kind: storage.ErrNotFound}
	}

	type hit struct {
		source json.RawMessage
		doc    map[string]any
		score  float64
	}

	var hits []hit
	for _, id := range docs.order {
		var doc map[string]any
		if err := json.Unmarshal(docs.sources[id], &doc); err != nil {
			return nil, fmt.Errorf("decode stored document %s: %w", id, err)
		}

		score := 1.0
		if d.Text != "" {
			score = textScore(doc, d.Text, d.Fields)
			if score == 0 {
				continue
			}
		}
		if d.Filter != nil && !matchesFilter(doc, *d.Filter) {
			continue
		}
		hits = append(hits, hit{source: docs.sources[id], doc: doc, score: score})
	}

	if d.Sort != nil {
		field := strings.TrimSuffix(d.Sort.Field, ".raw")
		mapped := false
		for _, h := range hits {
			if _, ok := h.doc[field]; ok {
				mapped = true
				break
			}
		}
		if !mapped && len(hits) > 0 {
			return nil, &storage.IndexError{
				Index: index, Operation: "search", StatusCode: http.StatusBadRequest,
				Kind:   storage.ErrMalformedQuery,
				Reason: fmt.Sprintf("No mapping found for [%s] in order to sort on", d.Sort.Field),
			}
		}
		sort.SliceStable(hits, func(i, j int) bool {
			less := compareValues(hits[i].doc[field], hits[j].doc[field])
			if d.Sort.Desc {
				return less > 0
			}
			return less < 0
		})
	} else if d.Text != "" {
		sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	}

	sources := make([]json.RawMessage, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, h.source)
	}
	return pagination.Slice(sources, d.Window()), nil
}

// GetCalls returns the number of Get calls.
func (m *MemoryIndex) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls
}

// MGetCalls returns the number of MGet calls.
func (m *MemoryIndex) MGetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mgetCalls
}

// SearchCalls returns the number of Search calls.
func (m *MemoryIndex) SearchCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searchCalls
}

// LastMGetIDs returns the ids passed to the most recent MGet.
func (m *MemoryIndex) LastMGetIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lastMGetIDs...)
}

// ResetCalls clears the call counters.
func (m *MemoryIndex) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls, m.mgetCalls, m.searchCalls = 0, 0, 0
	m.lastMGetIDs = nil
}

func (m *MemoryIndex) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &storage.IndexError{Operation: "request", Kind: storage.ErrStorageUnavailable, Err: err}
	}
	return m.Err
}

// textScore sums the boosts of the fields containing any term of text.
func textScore(doc map[string]any, text string, fields []string) float64 {
	terms := strings.Fields(strings.ToLower(text))
	score := 0.0

	for _, f := range fields {
		name, boost := f, 1.0
		if i := strings.IndexByte(f, '^'); i >= 0 {
			name = f[:i]
			if b, err := strconv.ParseFloat(f[i+1:], 64); err == nil {
				boost = b
			}
		}

		for _, value := range stringValues(doc[name]) {
			value = strings.ToLower(value)
			for _, term := range terms {
				if strings.Contains(value, term) {
					score += boost
				}
			}
		}
	}
	return score
}

func matchesFilter(doc map[string]any, p query.Predicate) bool {
	if p.Path == "" {
		for _, v := range stringValues(doc[p.Field]) {
			if v == p.Value {
				return true
			}
		}
		return false
	}

	nested, _ := doc[p.Path].([]any)
	field := strings.TrimPrefix(p.Field, p.Path+".")
	for _, item := range nested {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := obj[field].(string); ok && v == p.Value {
			return true
		}
	}
	return false
}

func stringValues(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// compareValues orders strings lexically and numbers numerically; missing
// values sort last.
func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return -1
		}
		return strings.Compare(av, bv)
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return -1
		}
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		if b == nil {
			return 0
		}
		return 1
	}
}
