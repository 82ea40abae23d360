package cache

import (
	"strings"

	"github.com/Sternrassler/catalog-search/pkg/query"
)

// Kind separates point lookups from search results in the key space.
type Kind string

const (
	// KindID marks a single entity cached by identifier.
	KindID Kind = "id"

	// KindQuery marks an entity list cached by canonical query.
	KindQuery Kind = "query"
)

// CacheKey represents a unique identifier for a cached entity or result list.
type CacheKey struct {
	// Entity is the entity type name (e.g., "Genre")
	Entity string

	// Kind is KindID or KindQuery
	Kind Kind

	// Value is the entity id or the canonical query descriptor
	Value string
}

// IDKey returns the key for the entity with the given id.
func IDKey(entity, id string) CacheKey {
	return CacheKey{Entity: entity, Kind: KindID, Value: id}
}

// QueryKey returns the key for the results of d.
func QueryKey(entity string, d query.Descriptor) CacheKey {
	return CacheKey{Entity: entity, Kind: KindQuery, Value: d.Canonical()}
}

// String generates the cache key string.
// Format: entity:kind:value
//
// Example:
//
//	Genre:query:{from:0,size:50,sort:-name}
func (k CacheKey) String() string {
	return strings.Join([]string{k.Entity, string(k.Kind), k.Value}, ":")
}
