package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis starts an in-memory Redis server and returns a client for it.
// Integration tests run against a real Redis via testcontainers.
func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:       mr.Addr(),
		MaxRetries: -1,
	})

	t.Cleanup(func() {
		client.Close()
	})

	return mr, client
}

func TestNewRedisStore(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	store := NewRedisStore(client)
	if store == nil {
		t.Fatal("NewRedisStore returned nil")
	}
	if store.redis != client {
		t.Error("RedisStore redis client not set correctly")
	}
}

func TestNewRedisStore_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStore should panic with nil redis client")
		}
	}()
	NewRedisStore(nil)
}

func TestRedisStore_SetAndGet(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	key := "Genre:id:5017d3c9-3cb5-4cd1-a329-3c99a253bcf3"
	value := []byte(`{"id":"5017d3c9-3cb5-4cd1-a329-3c99a253bcf3","name":"Action"}`)

	if err := store.Set(ctx, key, value, 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("Data mismatch: got %s, want %s", got, value)
	}

	if ttl := mr.TTL(key); ttl != 5*time.Minute {
		t.Errorf("TTL = %v, want 5m", ttl)
	}
}

func TestRedisStore_Get_CacheMiss(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client)

	_, err := store.Get(context.Background(), "Genre:id:nonexistent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestRedisStore_Get_Expired(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	key := "Genre:id:expiring"
	if err := store.Set(ctx, key, []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, key)
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
}

func TestRedisStore_Set_InvalidTTL(t *testing.T) {
	_, client := setupTestRedis(t)
	store := NewRedisStore(client)

	if err := store.Set(context.Background(), "k", []byte("v"), 0); err == nil {
		t.Error("Set with zero TTL should return error")
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr, client := setupTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	mr.Close()

	_, err := store.Get(ctx, "Genre:id:any")
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Errorf("Get error = %v, want ErrCacheUnavailable", err)
	}
	if errors.Is(err, ErrCacheMiss) {
		t.Error("connection failure should not be reported as a miss by the store")
	}

	err = store.Set(ctx, "Genre:id:any", []byte(`{}`), time.Minute)
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Errorf("Set error = %v, want ErrCacheUnavailable", err)
	}
}
