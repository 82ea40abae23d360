// Command search-api serves the catalog search API.
//
// Usage:
//
//	search-api [-config path/to/config.yaml]
//
// Configuration is read from the optional YAML file and overridden by
// environment variables (see package config).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/catalog-search/pkg/api"
	"github.com/Sternrassler/catalog-search/pkg/cache"
	"github.com/Sternrassler/catalog-search/pkg/config"
	"github.com/Sternrassler/catalog-search/pkg/logging"
	"github.com/Sternrassler/catalog-search/pkg/service"
	"github.com/Sternrassler/catalog-search/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "search-api: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

// run wires the dependencies and serves until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	index, err := storage.NewElasticIndex(storage.ElasticConfig{
		Addresses: cfg.Elastic.URLs,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		return err
	}

	store, storeCheck, err := openStore(cfg.Cache)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close cache store")
		}
	}()

	checks := map[string]api.Check{"elasticsearch": index.Ping}
	if storeCheck != nil {
		checks["cache"] = storeCheck
	}

	server, err := newServer(cfg, index, store, checks, logging.NewLogger("api"))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.HTTPAddr).
			Str("cache_backend", cfg.Cache.Backend).
			Str("codec", cfg.Cache.Codec).
			Dur("ttl", cfg.Cache.TTL).
			Msg("Starting search API")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down search API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServer builds the services and the HTTP front-end on top of index and store.
func newServer(cfg config.Config, index storage.Index, store cache.Store, checks map[string]api.Check, logger zerolog.Logger) (*api.Server, error) {
	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}

	registry := service.NewRegistry(index, store, service.RegistryConfig{
		TTL:             cfg.Cache.TTL,
		Codec:           codec,
		BulkConcurrency: cfg.BulkConcurrency,
		Logger:          logging.NewLogger("read-through"),
	})

	return api.NewServer(registry, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		Checks:         checks,
		Logger:         logger,
	}), nil
}

// openStore opens the configured cache backend. The returned check is nil
// for in-process backends.
func openStore(cfg config.CacheConfig) (cache.Store, api.Check, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		check := func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		return cache.NewRedisStore(client), check, nil

	case config.BackendMemory:
		store, err := cache.NewMemoryStore(cache.MemoryConfig{
			Capacity: cfg.Capacity,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.BackendBadger:
		store, err := cache.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
