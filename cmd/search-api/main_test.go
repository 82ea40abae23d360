package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-search/internal/testutil"
	"github.com/Sternrassler/catalog-search/pkg/api"
	"github.com/Sternrassler/catalog-search/pkg/cache"
	"github.com/Sternrassler/catalog-search/pkg/config"
	"github.com/Sternrassler/catalog-search/pkg/model"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T, mr *miniredis.Miniredis) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.Cache.Redis.Addr = mr.Addr()
	return cfg
}

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name      string
		cfg       config.CacheConfig
		wantCheck bool
		wantErr   bool
	}{
		{
			name:      "redis",
			cfg:       config.CacheConfig{Backend: config.BackendRedis, TTL: time.Minute, Redis: config.RedisConfig{Addr: mr.Addr()}},
			wantCheck: true,
		},
		{
			name: "memory",
			cfg:  config.CacheConfig{Backend: config.BackendMemory, TTL: time.Minute, Capacity: 100},
		},
		{
			name: "badger in memory",
			cfg:  config.CacheConfig{Backend: config.BackendBadger, TTL: time.Minute},
		},
		{
			name:    "memory without capacity",
			cfg:     config.CacheConfig{Backend: config.BackendMemory, TTL: time.Minute},
			wantErr: true,
		},
		{
			name:    "unknown backend",
			cfg:     config.CacheConfig{Backend: "memcached"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, check, err := openStore(tt.cfg)
			if tt.wantErr {
				if err == nil {
					store.Close()
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStore: %v", err)
			}
			defer store.Close()

			if (check != nil) != tt.wantCheck {
				t.Fatalf("check present = %v, want %v", check != nil, tt.wantCheck)
			}
			if check != nil {
				if err := check(context.Background()); err != nil {
					t.Errorf("check failed: %v", err)
				}
			}

			ctx := context.Background()
			if err := store.Set(ctx, "Genre:id:1", []byte("x"), tt.cfg.TTL); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := store.Get(ctx, "Genre:id:1")
			if err != nil || string(got) != "x" {
				t.Errorf("Get = %q, %v", got, err)
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)

	index := testutil.NewMemoryIndex()
	if err := index.Put(model.GenreIndex, "6c162475-c7ed-4461-9184-001ef3d9f26e", model.Genre{
		ID: "6c162475-c7ed-4461-9184-001ef3d9f26e", Name: "Sci-Fi",
	}); err != nil {
		t.Fatal(err)
	}

	store, check, err := openStore(cfg.Cache)
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	defer store.Close()

	server, err := newServer(cfg, index, store, map[string]api.Check{"cache": check}, zerolog.Nop())
	if err != nil {
		t.Fatalf("newServer: %v", err)
	}

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("genre search", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/genres", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Sci-Fi") {
			t.Errorf("unexpected body %s", w.Body.String())
		}
		if len(mr.Keys()) != 1 {
			t.Errorf("Expected one cached query, got keys %v", mr.Keys())
		}
	})

	t.Run("ready", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
	})

	t.Run("not ready with redis down", func(t *testing.T) {
		mr.Close()

		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", w.Code)
		}
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		body := w.Body.String()
		if !strings.Contains(body, "# HELP") || !strings.Contains(body, "catalog_cache_misses_total") {
			t.Error("Expected Prometheus output with cache metrics")
		}
	})
}

func TestNewServer_UnknownCodec(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Codec = "gob"

	store, err := cache.OpenBadgerStore("")
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if _, err := newServer(cfg, testutil.NewMemoryIndex(), store, nil, zerolog.Nop()); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestRun_Shutdown(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t, mr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, zerolog.Nop())
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
}
