// Package service implements the read-through layer over the cache and the
// search index.
//
// Each ReadThrough instance serves one entity type. Reads consult the cache
// first; on a miss the index is queried once and the result is written back
// to the cache before returning. Cache failures never reach the caller,
// index failures always do, with their kind unchanged.
package service

import (
	"context"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/pagination"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultBulkConcurrency bounds concurrent cache lookups in BulkGetByIDs.
const DefaultBulkConcurrency = 16

// Storage reads entities of type T from the index.
type Storage[T model.Entity] interface {
	GetByID(ctx context.Context, id string) (T, bool, error)
	BulkGetByIDs(ctx context.Context, ids []string) ([]T, error)
	Search(ctx context.Context, d query.Descriptor) ([]T, error)
	Paginate(d query.Descriptor, pageNumber, pageSize int) (query.Descriptor, error)
}

// Cache stores entities of type T. Implementations absorb their own
// failures and report them as misses.
type Cache[T model.Entity] interface {
	GetByID(ctx context.Context, id string) (T, bool)
	SetByID(ctx context.Context, id string, entity T)
	GetByQuery(ctx context.Context, d query.Descriptor) ([]T, bool)
	SetByQuery(ctx context.Context, d query.Descriptor, entities []T)
}

// SearchParams is a search request. Zero page values select the defaults.
type SearchParams struct {
	Query      string
	Filter     *query.Filter
	Sort       string
	PageNumber int
	PageSize   int
}

// Options configures a ReadThrough.
type Options struct {
	// BulkConcurrency bounds concurrent cache lookups. Default: 16
	BulkConcurrency int

	Logger zerolog.Logger
}

// ReadThrough serves reads of one entity type.
type ReadThrough[T model.Entity] struct {
	entity      string
	storage     Storage[T]
	cache       Cache[T]
	builder     query.Builder
	concurrency int
	logger      zerolog.Logger
}

// New creates a read-through service for the named entity type.
func New[T model.Entity](entity string, storage Storage[T], cache Cache[T], builder query.Builder, opts Options) *ReadThrough[T] {
	if entity == "" {
		panic("entity type name cannot be empty")
	}
	if storage == nil {
		panic("storage cannot be nil")
	}
	if cache == nil {
		panic("cache cannot be nil")
	}
	if builder == nil {
		panic("query builder cannot be nil")
	}
	if opts.BulkConcurrency <= 0 {
		opts.BulkConcurrency = DefaultBulkConcurrency
	}

	return &ReadThrough[T]{
		entity:      entity,
		storage:     storage,
		cache:       cache,
		builder:     builder,
		concurrency: opts.BulkConcurrency,
		logger:      opts.Logger.With().Str("entity", entity).Logger(),
	}
}

// Entity returns the entity type name.
func (s *ReadThrough[T]) Entity() string {
	return s.entity
}

// GetByID returns the entity with the given id, or ok == false when neither
// the cache nor the index has it.
func (s *ReadThrough[T]) GetByID(ctx context.Context, id string) (T, bool, error) {
	start := time.Now()

	if entity, ok := s.cache.GetByID(ctx, id); ok {
		s.record("get_by_id", outcomeHit, start)
		s.logger.Debug().Str("id", id).Bool("cache_hit", true).Msg("Entity served from cache")
		return entity, true, nil
	}

	entity, ok, err := s.storage.GetByID(ctx, id)
	if err != nil {
		s.record("get_by_id", outcomeError, start)
		return entity, false, err
	}
	s.record("get_by_id", outcomeMiss, start)
	if !ok {
		s.logger.Debug().Str("id", id).Msg("Entity not found")
		return entity, false, nil
	}

	s.cache.SetByID(ctx, id, entity)
	s.logger.Debug().Str("id", id).Bool("cache_hit", false).Msg("Entity fetched from index")
	return entity, true, nil
}

// BulkGetByIDs returns the entities found for ids: cache hits first, then
// entities fetched from the index. Unknown ids are dropped. Duplicate ids
// are looked up once.
func (s *ReadThrough[T]) BulkGetByIDs(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	start := time.Now()
	ids = uniqueIDs(ids)

	cached := make([]T, len(ids))
	found := make([]bool, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			cached[i], found[i] = s.cache.GetByID(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	entities := make([]T, 0, len(ids))
	missing := make([]string, 0, len(ids))
	for i, id := range ids {
		if found[i] {
			entities = append(entities, cached[i])
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		s.record("bulk_get_by_ids", outcomeHit, start)
		s.logger.Debug().Int("ids", len(ids)).Msg("Bulk lookup served from cache")
		return entities, nil
	}

	fetched, err := s.storage.BulkGetByIDs(ctx, missing)
	if err != nil {
		s.record("bulk_get_by_ids", outcomeError, start)
		return nil, err
	}
	s.record("bulk_get_by_ids", outcomeMiss, start)

	g = new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for _, entity := range fetched {
		g.Go(func() error {
			s.cache.SetByID(ctx, entity.EntityID(), entity)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Debug().
		Int("ids", len(ids)).
		Int("cache_hits", len(entities)).
		Int("fetched", len(fetched)).
		Msg("Bulk lookup completed")

	return append(entities, fetched...), nil
}

// Search runs a search request. An empty result is returned (and cached) as
// an empty slice; callers decide whether that means "not found".
func (s *ReadThrough[T]) Search(ctx context.Context, p SearchParams) ([]T, error) {
	start := time.Now()

	d, err := s.builder.Build(p.Query, p.Filter, p.Sort)
	if err != nil {
		s.record("search", outcomeError, start)
		return nil, err
	}

	pageNumber, pageSize := p.PageNumber, p.PageSize
	if pageNumber == 0 {
		pageNumber = pagination.DefaultPageNumber
	}
	if pageSize == 0 {
		pageSize = pagination.DefaultPageSize
	}
	d, err = s.storage.Paginate(d, pageNumber, pageSize)
	if err != nil {
		s.record("search", outcomeError, start)
		return nil, err
	}

	if entities, ok := s.cache.GetByQuery(ctx, d); ok {
		s.record("search", outcomeHit, start)
		s.logger.Debug().Str("query", d.Canonical()).Bool("cache_hit", true).Msg("Search served from cache")
		return entities, nil
	}

	entities, err := s.storage.Search(ctx, d)
	if err != nil {
		s.record("search", outcomeError, start)
		return nil, err
	}
	s.record("search", outcomeMiss, start)

	s.cache.SetByQuery(ctx, d, entities)
	s.logger.Debug().
		Str("query", d.Canonical()).
		Bool("cache_hit", false).
		Int("results", len(entities)).
		Msg("Search fetched from index")

	return entities, nil
}

func (s *ReadThrough[T]) record(op, outcome string, start time.Time) {
	ReadThroughTotal.WithLabelValues(s.entity, op, outcome).Inc()
	ReadThroughDuration.WithLabelValues(s.entity, op).Observe(time.Since(start).Seconds())
}

// uniqueIDs drops repeated ids, keeping first occurrences in order.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
