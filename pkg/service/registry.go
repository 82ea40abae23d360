package service

import (
	"time"

	"github.com/Sternrassler/catalog-search/pkg/cache"
	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/Sternrassler/catalog-search/pkg/query"
	"github.com/Sternrassler/catalog-search/pkg/storage"
	"github.com/rs/zerolog"
)

// RegistryConfig holds the settings shared by every entity service.
type RegistryConfig struct {
	TTL             time.Duration
	Codec           cache.Codec
	BulkConcurrency int
	Logger          zerolog.Logger
}

// Registry holds one read-through service per entity type. It is built once
// at startup and handed to the HTTP layer.
type Registry struct {
	Films   *ReadThrough[model.Film]
	Genres  *ReadThrough[model.Genre]
	Persons *ReadThrough[model.Person]
}

// NewRegistry wires the entity services over a shared index and cache store.
func NewRegistry(index storage.Index, store cache.Store, cfg RegistryConfig) *Registry {
	opts := Options{BulkConcurrency: cfg.BulkConcurrency, Logger: cfg.Logger}
	cacheOpts := cache.Options{TTL: cfg.TTL, Codec: cfg.Codec, Logger: cfg.Logger}

	return &Registry{
		Films: New[model.Film](model.FilmType,
			storage.NewAdapter[model.Film](index, model.FilmIndex, cfg.Logger),
			cache.NewAdapter[model.Film](store, model.FilmType, cacheOpts),
			query.NewBuilder(query.FilmSpec()),
			opts,
		),
		Genres: New[model.Genre](model.GenreType,
			storage.NewAdapter[model.Genre](index, model.GenreIndex, cfg.Logger),
			cache.NewAdapter[model.Genre](store, model.GenreType, cacheOpts),
			query.NewBuilder(query.GenreSpec()),
			opts,
		),
		Persons: New[model.Person](model.PersonType,
			storage.NewAdapter[model.Person](index, model.PersonIndex, cfg.Logger),
			cache.NewAdapter[model.Person](store, model.PersonType, cacheOpts),
			query.NewBuilder(query.PersonSpec()),
			opts,
		),
	}
}
