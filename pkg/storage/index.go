package storage

import (
	"context"
	"encoding/json"

	"github.com/Sternrassler/catalog-search/pkg/query"
)

// Index is the document store the storage adapter reads from. Documents are
// addressed by index name and id and returned as raw JSON sources.
type Index interface {
	// Get returns the source of one document, or ErrNotFound.
	Get(ctx context.Context, index, id string) (json.RawMessage, error)

	// MGet returns the sources of the documents that exist among ids.
	// Missing documents are omitted.
	MGet(ctx context.Context, index string, ids []string) ([]json.RawMessage, error)

	// Search executes d, including its window, and returns matching sources
	// in rank or sort order.
	Search(ctx context.Context, index string, d query.Descriptor) ([]json.RawMessage, error)
}
