package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBadgerStore_SetAndGet(t *testing.T) {
	store, err := OpenBadgerStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	if _, err := store.Get(ctx, "Film:id:f1"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Expected ErrCacheMiss, got %v", err)
	}

	if err := store.Set(ctx, "Film:id:f1", []byte(`{"id":"f1"}`), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := store.Get(ctx, "Film:id:f1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"id":"f1"}` {
		t.Errorf("Get = %s", got)
	}
}

func TestBadgerStore_Expiry(t *testing.T) {
	store, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	// Badger TTLs have second granularity.
	if err := store.Set(ctx, "Film:id:f1", []byte(`{}`), time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(2100 * time.Millisecond)

	if _, err := store.Get(ctx, "Film:id:f1"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestBadgerStore_Closed(t *testing.T) {
	store, err := OpenBadgerStore("")
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	store.Close()

	err = store.Set(context.Background(), "Film:id:f1", []byte(`{}`), time.Minute)
	if !errors.Is(err, ErrCacheUnavailable) {
		t.Errorf("Set error = %v, want ErrCacheUnavailable", err)
	}
}
