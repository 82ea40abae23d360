package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/viccon/sturdyc"
)

// MemoryConfig holds the settings for an in-process MemoryStore.
type MemoryConfig struct {
	// Capacity is the maximum number of entries. Must be greater than 0.
	Capacity int

	// NumShards is the number of independently locked shards. Default: 64
	NumShards int

	// TTL applies to every entry written to the store.
	TTL time.Duration

	// EvictionPercentage is the share of entries evicted when a shard is full.
	// Default: 10
	EvictionPercentage int
}

// MemoryStore implements Store with an in-process sturdyc cache.
// Entries are not shared between processes.
type MemoryStore struct {
	client *sturdyc.Client[[]byte]
	ttl    time.Duration
}

// NewMemoryStore creates a sharded in-memory store.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	if cfg.NumShards == 0 {
		cfg.NumShards = 64
	}
	if cfg.EvictionPercentage == 0 {
		cfg.EvictionPercentage = 10
	}

	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("memory store capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.NumShards < 0 || cfg.NumShards > cfg.Capacity {
		return nil, fmt.Errorf("memory store shards must be between 1 and capacity, got %d", cfg.NumShards)
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("memory store ttl must be positive, got %s", cfg.TTL)
	}
	if cfg.EvictionPercentage < 1 || cfg.EvictionPercentage > 100 {
		return nil, fmt.Errorf("memory store eviction percentage must be between 1 and 100, got %d", cfg.EvictionPercentage)
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
	)

	return &MemoryStore{client: client, ttl: cfg.TTL}, nil
}

// Get retrieves the value stored under key.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}

	value, ok := s.client.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

// Set stores value under key. The store's configured TTL applies; a
// different ttl argument is rejected.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	if ttl != s.ttl {
		return fmt.Errorf("memory store ttl is fixed at %s, got %s", s.ttl, ttl)
	}

	s.client.Set(key, value)
	return nil
}

// Size returns the number of entries currently held.
func (s *MemoryStore) Size() int {
	return s.client.Size()
}

// Close implements Store. The in-memory cache holds no external resources.
func (s *MemoryStore) Close() error {
	return nil
}
