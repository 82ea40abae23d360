// Package storage reads catalog entities from the search index.
//
// Adapter wraps an Index for one entity type and one index name. It decodes
// documents into entity values, applies pagination windows to descriptors
// and reports failures as one of three kinds:
//
//   - ErrNotFound: no document for an id (GetByID reports it as absent)
//   - ErrMalformedQuery: the index rejected the query shape (bad request)
//   - ErrStorageUnavailable: anything else (server fault)
//
// ElasticIndex is the production Index.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/metrics"
	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/pagination"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/rs/zerolog"
)

// Adapter reads entities of type T from one index.
type Adapter[T model.Entity] struct {
	index  Index
	name   string
	logger zerolog.Logger
}

// NewAdapter creates a storage adapter for the named index.
func NewAdapter[T model.Entity](index Index, name string, logger zerolog.Logger) *Adapter[T] {
	if index == nil {
		panic("index cannot be nil")
	}
	if name == "" {
		panic("index name cannot be empty")
	}
	return &Adapter[T]{
		index:  index,
		name:   name,
		logger: logger.With().Str("index", name).Logger(),
	}
}

// Name returns the index name.
func (a *Adapter[T]) Name() string {
	return a.name
}

// GetByID returns the entity with the given id. A missing document is
// reported as ok == false with a nil error.
func (a *Adapter[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	var entity T

	start := time.Now()
	source, err := a.index.Get(ctx, a.name, id)
	a.observe("get", start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return entity, false, nil
		}
		return entity, false, err
	}

	if err := a.decode(source, &entity); err != nil {
		return entity, false, err
	}
	return entity, true, nil
}

// BulkGetByIDs returns the entities that exist among ids, in index order.
// An empty ids slice returns without contacting the index.
func (a *Adapter[T]) BulkGetByIDs(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	start := time.Now()
	sources, err := a.index.MGet(ctx, a.name, ids)
	a.observe("mget", start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		return nil, err
	}

	return a.decodeAll(sources)
}

// Search executes d and returns the entities in its window. A window past
// the end of the results yields an empty slice.
func (a *Adapter[T]) Search(ctx context.Context, d query.Descriptor) ([]T, error) {
	start := time.Now()
	sources, err := a.index.Search(ctx, a.name, d)
	a.observe("search", start, err)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}
		if errors.Is(err, ErrMalformedQuery) {
			a.logger.Debug().Err(err).Str("query", d.Canonical()).Msg("Index rejected query")
		}
		return nil, err
	}

	return a.decodeAll(sources)
}

// Paginate restricts d to page pageNumber (1-based) of size pageSize.
func (a *Adapter[T]) Paginate(d query.Descriptor, pageNumber, pageSize int) (query.Descriptor, error) {
	w, err := pagination.NewWindow(pageNumber, pageSize)
	if err != nil {
		return query.Descriptor{}, fmt.Errorf("%w: %w", query.ErrInvalidInput, err)
	}
	return d.WithWindow(w), nil
}

func (a *Adapter[T]) decodeAll(sources []json.RawMessage) ([]T, error) {
	entities := make([]T, 0, len(sources))
	for _, source := range sources {
		var entity T
		if err := a.decode(source, &entity); err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (a *Adapter[T]) decode(source json.RawMessage, entity *T) error {
	if err := json.Unmarshal(source, entity); err != nil {
		return &IndexError{
			Index:     a.name,
			Operation: "decode",
			Kind:      ErrStorageUnavailable,
			Err:       err,
		}
	}
	return nil
}

// observe records metrics for one index request.
func (a *Adapter[T]) observe(op string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = metrics.OutcomeNotFound
	case errors.Is(err, ErrMalformedQuery):
		outcome = metrics.OutcomeMalformed
	default:
		outcome = metrics.OutcomeError
	}

	StorageRequests.WithLabelValues(a.name, op, outcome).Inc()
	StorageRequestDuration.WithLabelValues(a.name, op).Observe(time.Since(start).Seconds())
}
