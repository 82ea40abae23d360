package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Sternrassler/catalog-search/internal/testutil"
	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/Sternrassler/catalog-search/pkg/storage"
)

const (
	genreAction      = `{"id":"5017d3c9-3cb5-4cd1-a329-3c99a253bcf3","name":"Action","description":"","filmworks":[]}`
	genreDocumentary = `{"id":"59e89fb7-639c-41fa-b829-a9261bad1114","name":"Documentary","description":"","filmworks":[]}`
)

func newElasticIndex(t *testing.T) (*storage.ElasticIndex, *testutil.MockElastic) {
	t.Helper()

	mock := testutil.NewMockElastic()
	t.Cleanup(mock.Close)

	index, err := storage.NewElasticIndex(storage.ElasticConfig{Addresses: []string{mock.URL()}})
	if err != nil {
		t.Fatalf("NewElasticIndex failed: %v", err)
	}
	return index, mock
}

func TestNewElasticIndex_NoAddresses(t *testing.T) {
	if _, err := storage.NewElasticIndex(storage.ElasticConfig{}); err == nil {
		t.Error("NewElasticIndex should fail without addresses")
	}
}

func TestElasticIndex_Get(t *testing.T) {
	index, mock := newElasticIndex(t)
	id := "5017d3c9-3cb5-4cd1-a329-3c99a253bcf3"
	mock.SetDocResponse(model.GenreIndex, id, testutil.NewDocResponse(model.GenreIndex, id, genreAction))

	source, err := index.Get(context.Background(), model.GenreIndex, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	var genre model.Genre
	if err := json.Unmarshal(source, &genre); err != nil {
		t.Fatalf("decode source: %v", err)
	}
	if genre.Name != "Action" {
		t.Errorf("Name = %s, want Action", genre.Name)
	}
}

func TestElasticIndex_Get_NotFound(t *testing.T) {
	index, mock := newElasticIndex(t)
	id := "6bcc7f85-9e5d-45a9-91ec-25903212c8b7"
	mock.SetDocResponse(model.GenreIndex, id, testutil.NewDocNotFoundResponse(model.GenreIndex, id))

	_, err := index.Get(context.Background(), model.GenreIndex, id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestElasticIndex_Get_ServerError(t *testing.T) {
	index, mock := newElasticIndex(t)
	id := "5017d3c9-3cb5-4cd1-a329-3c99a253bcf3"
	mock.SetDocResponse(model.GenreIndex, id, testutil.NewServerErrorResponse())

	_, err := index.Get(context.Background(), model.GenreIndex, id)
	if !errors.Is(err, storage.ErrStorageUnavailable) {
		t.Errorf("Get error = %v, want ErrStorageUnavailable", err)
	}
}

func TestElasticIndex_MGet(t *testing.T) {
	index, mock := newElasticIndex(t)
	mock.SetMgetResponse(model.GenreIndex, testutil.NewMgetResponse(
		map[string]string{"5017d3c9-3cb5-4cd1-a329-3c99a253bcf3": genreAction},
		"missing-id",
	))

	ids := []string{"5017d3c9-3cb5-4cd1-a329-3c99a253bcf3", "missing-id"}
	sources, err := index.MGet(context.Background(), model.GenreIndex, ids)
	if err != nil {
		t.Fatalf("MGet failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("MGet returned %d sources, want 1", len(sources))
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal(mock.GetLastBody(), &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if len(body.IDs) != 2 {
		t.Errorf("request ids = %v, want both ids", body.IDs)
	}
}

func TestElasticIndex_Search(t *testing.T) {
	index, mock := newElasticIndex(t)
	mock.SetSearchResponse(model.GenreIndex, testutil.NewHitsResponse(genreDocumentary, genreAction))

	d, err := query.NewBuilder(query.GenreSpec()).Build("", nil, "-name")
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	sources, err := index.Search(context.Background(), model.GenreIndex, d)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("Search returned %d sources, want 2", len(sources))
	}

	sent := string(mock.GetLastBody())
	want, _ := d.Body()
	if sent != string(want) {
		t.Errorf("request body = %s, want %s", sent, want)
	}
}

func TestElasticIndex_Search_UnknownSort(t *testing.T) {
	index, mock := newElasticIndex(t)
	mock.SetSearchResponse(model.GenreIndex, testutil.NewUnknownSortResponse("weird_name"))

	d, _ := query.NewBuilder(query.GenreSpec()).Build("", nil, "-weird_name")

	_, err := index.Search(context.Background(), model.GenreIndex, d)
	if !errors.Is(err, storage.ErrMalformedQuery) {
		t.Fatalf("Search error = %v, want ErrMalformedQuery", err)
	}

	var ie *storage.IndexError
	if !errors.As(err, &ie) {
		t.Fatalf("Search error should be an IndexError")
	}
	if ie.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", ie.StatusCode)
	}
	if !strings.Contains(ie.Reason, "No mapping found for [weird_name]") {
		t.Errorf("Reason = %q", ie.Reason)
	}
}

func TestElasticIndex_Search_MissingIndex(t *testing.T) {
	index, _ := newElasticIndex(t)

	d, _ := query.NewBuilder(query.GenreSpec()).Build("", nil, "")
	_, err := index.Search(context.Background(), "no-such-index", d)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Search error = %v, want ErrNotFound", err)
	}
}

func TestElasticIndex_Unreachable(t *testing.T) {
	mock := testutil.NewMockElastic()
	url := mock.URL()
	mock.Close()

	index, err := storage.NewElasticIndex(storage.ElasticConfig{Addresses: []string{url}})
	if err != nil {
		t.Fatalf("NewElasticIndex failed: %v", err)
	}

	_, err = index.Get(context.Background(), model.GenreIndex, "any")
	if !errors.Is(err, storage.ErrStorageUnavailable) {
		t.Errorf("Get error = %v, want ErrStorageUnavailable", err)
	}
}

func TestElasticIndex_Ping(t *testing.T) {
	index, _ := newElasticIndex(t)

	if err := index.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
