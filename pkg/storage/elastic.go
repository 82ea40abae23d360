package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticConfig holds the Elasticsearch connection settings.
type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string

	// Transport overrides the HTTP transport (for testing).
	Transport http.RoundTripper
}

// ElasticIndex implements Index on top of the Elasticsearch REST API.
type ElasticIndex struct {
	es *elasticsearch.Client
}

// NewElasticIndex creates an Index backed by an Elasticsearch cluster.
// Retries are left to the client transport; the index itself never retries.
func NewElasticIndex(cfg ElasticConfig) (*ElasticIndex, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("elasticsearch addresses are required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	return &ElasticIndex{es: es}, nil
}

// Ping checks that the cluster answers.
func (e *ElasticIndex) Ping(ctx context.Context) error {
	res, err := e.es.Ping(e.es.Ping.WithContext(ctx))
	if err != nil {
		return &IndexError{Operation: "ping", Kind: ErrStorageUnavailable, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return &IndexError{Operation: "ping", StatusCode: res.StatusCode, Kind: ErrStorageUnavailable}
	}
	return nil
}

// Get implements Index.
func (e *ElasticIndex) Get(ctx context.Context, index, id string) (json.RawMessage, error) {
	res, err := e.es.Get(index, id, e.es.Get.WithContext(ctx))
	if err != nil {
		return nil, &IndexError{Index: index, Operation: "get", Kind: ErrStorageUnavailable, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(index, "get", res)
	}

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, &IndexError{Index: index, Operation: "get", Kind: ErrStorageUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !doc.Found {
		return nil, &IndexError{Index: index, Operation: "get", StatusCode: res.StatusCode, Kind: ErrNotFound}
	}

	return doc.Source, nil
}

// MGet implements Index.
func (e *ElasticIndex) MGet(ctx context.Context, index string, ids []string) ([]json.RawMessage, error) {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("encode mget body: %w", err)
	}

	res, err := e.es.Mget(bytes.NewReader(body),
		e.es.Mget.WithIndex(index),
		e.es.Mget.WithContext(ctx),
	)
	if err != nil {
		return nil, &IndexError{Index: index, Operation: "mget", Kind: ErrStorageUnavailable, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(index, "mget", res)
	}

	var out struct {
		Docs []struct {
			Found  bool            `json:"found"`
			Source json.RawMessage `json:"_source"`
		} `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &IndexError{Index: index, Operation: "mget", Kind: ErrStorageUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}

	sources := make([]json.RawMessage, 0, len(out.Docs))
	for _, doc := range out.Docs {
		if doc.Found {
			sources = append(sources, doc.Source)
		}
	}
	return sources, nil
}

// Search implements Index.
func (e *ElasticIndex) Search(ctx context.Context, index string, d query.Descriptor) ([]json.RawMessage, error) {
	body, err := d.Body()
	if err != nil {
		return nil, err
	}

	res, err := e.es.Search(
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, &IndexError{Index: index, Operation: "search", Kind: ErrStorageUnavailable, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError(index, "search", res)
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, &IndexError{Index: index, Operation: "search", Kind: ErrStorageUnavailable, Err: fmt.Errorf("decode response: %w", err)}
	}

	sources := make([]json.RawMessage, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		sources = append(sources, hit.Source)
	}
	return sources, nil
}

// responseError builds an IndexError from an error response.
func responseError(index, op string, res *esapi.Response) error {
	ie := &IndexError{
		Index:      index,
		Operation:  op,
		StatusCode: res.StatusCode,
		Kind:       kindForStatus(res.StatusCode),
	}

	data, err := io.ReadAll(res.Body)
	if err != nil || len(data) == 0 {
		return ie
	}

	var payload struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(data, &payload) != nil || len(payload.Error) == 0 {
		return ie
	}

	var detail struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(payload.Error, &detail) == nil && detail.Type != "" {
		ie.Reason = detail.Type + ": " + detail.Reason
		return ie
	}

	var reason string
	if json.Unmarshal(payload.Error, &reason) == nil {
		ie.Reason = reason
	}
	return ie
}
