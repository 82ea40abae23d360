// Package cache provides the cache-aside layer in front of the search index.
//
// The cache stores serialized entities under deterministic keys:
//
//   - {Entity}:id:{id} for point lookups
//   - {Entity}:query:{canonical descriptor} for search results
//
// Every entry is written with the configured TTL. Expiry is left to the
// backing Store; nothing in this package evicts entries on its own.
//
// # Stores
//
//   - RedisStore: shared cache for multi-instance deployments (default)
//   - MemoryStore: in-process sharded cache, for single instances and development
//   - BadgerStore: embedded on-disk store
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	store := cache.NewRedisStore(redisClient)
//	genres := cache.NewAdapter[model.Genre](store, model.GenreType, cache.Options{
//		TTL:    5 * time.Minute,
//		Codec:  cache.JSONCodec{},
//		Logger: logger,
//	})
//
//	if genre, ok := genres.GetByID(ctx, id); ok {
//		return genre, nil
//	}
//
// # Degradation
//
// The Adapter never fails a read. A store or codec error is logged, counted
// in catalog_cache_errors_total and then treated as a miss (get) or dropped
// (set), so an unreachable cache degrades the service to direct index reads.
//
// # Metrics
//
//   - catalog_cache_hits_total{entity,kind} - Cache hits
//   - catalog_cache_misses_total{entity,kind} - Cache misses
//   - catalog_cache_errors_total{operation} - Store and codec failures
package cache
