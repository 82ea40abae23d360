// Package logging configures the zerolog loggers of the search API.
//
// Setup installs the process-wide logger once at startup; packages derive
// their own loggers from it with NewLogger or receive one through options.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every log line.
const ServiceName = "catalog-search"

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	// Set global log level
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	// Configure output
	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", ServiceName).
		Logger()

	// Set as global logger
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level. Unknown or empty levels
// fall back to Info.
func parseLevel(level LogLevel) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	if name == "warning" {
		name = "warn"
	}

	parsed, err := zerolog.ParseLevel(name)
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache hit/miss per entity, id or canonical query
//   - Queries rejected by the index (malformed sort, result window)
//   - Client errors answered with 4xx
//
// Info: Normal operation events
//   - Served requests
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Cache store or codec failures (request continues against the index)
//   - Requests answered with 5xx
//
// Error: Error conditions requiring attention
//   - Index unavailable or returning undecodable documents
//   - Configuration errors
//
// Context Fields:
//   - component: Subsystem name (api, read-through)
//   - request_id: X-Request-ID of the request being served
//   - entity: Entity type (Film, Genre, Person)
//   - index: Search index name
//   - id: Entity identifier
//   - query: Canonical query string
//   - key: Cache key
//   - cache_hit: Boolean indicating cache hit
//   - status_code: HTTP status code
//   - duration: Request duration
