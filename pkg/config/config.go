// Package config loads the search API configuration.
//
// Values come from three layers, later layers winning:
//
//  1. Defaults (see Default)
//  2. An optional YAML file
//  3. Environment variables
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v2"
)

// Cache backends.
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Config is the complete service configuration.
type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `yaml:"http_addr"`

	// RequestTimeout bounds each API request, including cache and index calls.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// BulkConcurrency bounds concurrent cache lookups in bulk reads.
	BulkConcurrency int `yaml:"bulk_concurrency"`

	Elastic ElasticConfig `yaml:"elasticsearch"`
	Cache   CacheConfig   `yaml:"cache"`
	Log     LogConfig     `yaml:"log"`
}

// ElasticConfig holds the search cluster connection.
type ElasticConfig struct {
	URLs     []string `yaml:"urls"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
}

// CacheConfig selects and configures the cache store.
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
	Codec   string        `yaml:"codec"`

	// Capacity is the entry limit of the memory backend.
	Capacity int `yaml:"capacity"`

	// BadgerPath is the data directory of the badger backend. Empty keeps
	// the database in memory.
	BadgerPath string `yaml:"badger_path"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds the Redis connection.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		HTTPAddr:        ":8000",
		RequestTimeout:  10 * time.Second,
		BulkConcurrency: 16,
		Elastic: ElasticConfig{
			URLs: []string{"http://127.0.0.1:9200"},
		},
		Cache: CacheConfig{
			Backend:  BackendRedis,
			TTL:      5 * time.Minute,
			Codec:    "json",
			Capacity: 10000,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var urlPattern = regexp.MustCompile(`^https?://[^\s/]+`)

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.RequestTimeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.BulkConcurrency, validation.Required, validation.Min(1)),
		validation.Field(&c.Elastic),
		validation.Field(&c.Cache),
		validation.Field(&c.Log),
	)
}

// Validate checks the cluster settings.
func (e ElasticConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URLs, validation.Required, validation.Each(validation.Required, validation.Match(urlPattern))),
	)
}

// Validate checks the cache settings.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required, validation.In(BackendRedis, BackendMemory, BackendBadger)),
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.Codec, validation.Required, validation.In("json", "msgpack")),
		validation.Field(&c.Capacity, validation.When(c.Backend == BackendMemory, validation.Required, validation.Min(1))),
		validation.Field(&c.Redis, validation.Skip.When(c.Backend != BackendRedis)),
	)
}

// Validate checks the Redis settings.
func (r RedisConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
	)
}

// Validate checks the log settings.
func (l LogConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "warning", "error")),
	)
}

// applyEnv overrides fields from environment variables.
func (c *Config) applyEnv() error {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.Elastic.Username = getEnv("ES_USERNAME", c.Elastic.Username)
	c.Elastic.Password = getEnv("ES_PASSWORD", c.Elastic.Password)
	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Codec = getEnv("CACHE_CODEC", c.Cache.Codec)
	c.Cache.BadgerPath = getEnv("BADGER_PATH", c.Cache.BadgerPath)
	c.Cache.Redis.Addr = getEnv("REDIS_ADDR", c.Cache.Redis.Addr)
	c.Cache.Redis.Password = getEnv("REDIS_PASSWORD", c.Cache.Redis.Password)
	c.Log.Level = strings.ToLower(getEnv("LOG_LEVEL", c.Log.Level))

	if v := os.Getenv("ES_URL"); v != "" {
		c.Elastic.URLs = splitList(v)
	}

	var err error
	if c.Cache.Redis.DB, err = getEnvInt("REDIS_DB", c.Cache.Redis.DB); err != nil {
		return err
	}
	if c.Cache.Capacity, err = getEnvInt("CACHE_CAPACITY", c.Cache.Capacity); err != nil {
		return err
	}
	if c.BulkConcurrency, err = getEnvInt("BULK_CONCURRENCY", c.BulkConcurrency); err != nil {
		return err
	}
	if c.Cache.TTL, err = getEnvDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		return err
	}
	if c.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Log.Pretty = pretty
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
