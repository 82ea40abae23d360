package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/rs/zerolog"
)

// Options configures an Adapter.
type Options struct {
	// TTL applies to every entry the adapter writes. Required.
	TTL time.Duration

	// Codec serializes entities. Default: JSONCodec
	Codec Codec

	// Logger receives degradation warnings.
	Logger zerolog.Logger
}

// Adapter caches entities of type T under keys prefixed with the entity
// type name. It never returns an error: failures degrade to misses.
type Adapter[T model.Entity] struct {
	store  Store
	entity string
	ttl    time.Duration
	codec  Codec
	logger zerolog.Logger
}

// NewAdapter creates a cache adapter for one entity type.
func NewAdapter[T model.Entity](store Store, entity string, opts Options) *Adapter[T] {
	if store == nil {
		panic("cache store cannot be nil")
	}
	if entity == "" {
		panic("entity type name cannot be empty")
	}
	if opts.TTL <= 0 {
		panic("cache ttl must be positive")
	}
	if opts.Codec == nil {
		opts.Codec = JSONCodec{}
	}

	return &Adapter[T]{
		store:  store,
		entity: entity,
		ttl:    opts.TTL,
		codec:  opts.Codec,
		logger: opts.Logger.With().Str("entity", entity).Logger(),
	}
}

// Entity returns the entity type name used in keys.
func (a *Adapter[T]) Entity() string {
	return a.entity
}

// GetByID returns the cached entity for id.
func (a *Adapter[T]) GetByID(ctx context.Context, id string) (T, bool) {
	var entity T
	ok := a.get(ctx, IDKey(a.entity, id), &entity)
	return entity, ok
}

// SetByID caches entity under id.
func (a *Adapter[T]) SetByID(ctx context.Context, id string, entity T) {
	a.set(ctx, IDKey(a.entity, id), entity)
}

// GetByQuery returns the cached result list for d. A cached empty list is a
// hit and is returned as a non-nil empty slice.
func (a *Adapter[T]) GetByQuery(ctx context.Context, d query.Descriptor) ([]T, bool) {
	var entities []T
	if !a.get(ctx, QueryKey(a.entity, d), &entities) {
		return nil, false
	}
	if entities == nil {
		entities = []T{}
	}
	return entities, true
}

// SetByQuery caches entities as the result list for d.
func (a *Adapter[T]) SetByQuery(ctx context.Context, d query.Descriptor, entities []T) {
	if entities == nil {
		entities = []T{}
	}
	a.set(ctx, QueryKey(a.entity, d), entities)
}

func (a *Adapter[T]) get(ctx context.Context, key CacheKey, v any) bool {
	kind := string(key.Kind)

	data, err := a.store.Get(ctx, key.String())
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			a.degrade(ctx, "get", key, err)
		}
		CacheMisses.WithLabelValues(a.entity, kind).Inc()
		return false
	}

	if err := a.codec.Unmarshal(data, v); err != nil {
		a.degrade(ctx, "decode", key, fmt.Errorf("%w: %s decode: %v", ErrCacheUnavailable, a.codec.Name(), err))
		CacheMisses.WithLabelValues(a.entity, kind).Inc()
		return false
	}

	CacheHits.WithLabelValues(a.entity, kind).Inc()
	return true
}

func (a *Adapter[T]) set(ctx context.Context, key CacheKey, v any) {
	data, err := a.codec.Marshal(v)
	if err != nil {
		a.degrade(ctx, "encode", key, fmt.Errorf("%w: %s encode: %v", ErrCacheUnavailable, a.codec.Name(), err))
		return
	}

	if err := a.store.Set(ctx, key.String(), data, a.ttl); err != nil {
		a.degrade(ctx, "set", key, err)
	}
}

// degrade records a cache failure that the read path absorbs. Failures
// caused by the caller's own cancellation or deadline are not store faults
// and are only logged at debug level.
func (a *Adapter[T]) degrade(ctx context.Context, op string, key CacheKey, err error) {
	if ctx.Err() != nil {
		a.logger.Debug().
			Err(err).
			Str("operation", op).
			Str("key", key.String()).
			Msg("Cache call abandoned, request context done")
		return
	}

	CacheErrors.WithLabelValues(op).Inc()
	a.logger.Warn().
		Err(err).
		Str("operation", op).
		Str("key", key.String()).
		Msg("Cache unavailable, falling back to index")
}
