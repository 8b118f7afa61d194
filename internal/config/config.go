// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/keymerge/internal/core"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Scoring  ScoringConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 2m)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"2m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 90s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"90s"`
}

// DatabaseConfig holds the optional merge history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty keeps history in memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// HistorySize is how many merges the in-memory history keeps (default: 200)
	HistorySize int `env:"HISTORY_SIZE" default:"200"`
}

// Enabled reports whether a history database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds file upload and merge execution settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed size of one uploaded file in bytes (default: 50MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"52428800"`

	// MergeCellBudget is the number of input cells (rows x columns of both
	// tables) that running merges may hold at once (default: 20M)
	MergeCellBudget int64 `env:"MERGE_CELL_BUDGET" envAlt:"MERGE_MAX_CELLS" default:"20000000"`

	// MaxWaitTime is how long a merge waits for budget to free up (default: 30s)
	MaxWaitTime time.Duration `env:"MERGE_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration of a single merge request (default: 2m)
	Timeout time.Duration `env:"MERGE_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// MergeLimit is requests per minute for the merge endpoint (default: 10)
	MergeLimit int `env:"RATE_LIMIT_MERGE" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ScoringConfig holds the key candidate scoring constants.
type ScoringConfig struct {
	// OverlapWeight is the weight of the value overlap sub-score (default: 0.7)
	OverlapWeight float64 `env:"SCORE_OVERLAP_WEIGHT" default:"0.7"`

	// NameWeight is the weight of the name similarity sub-score (default: 0.3)
	NameWeight float64 `env:"SCORE_NAME_WEIGHT" default:"0.3"`

	// MinOverlap rejects pairs with less value overlap (default: 0.3)
	MinOverlap float64 `env:"SCORE_MIN_OVERLAP" default:"0.3"`

	// PartialName is the name score of substring and abbreviation matches (default: 0.6)
	PartialName float64 `env:"SCORE_PARTIAL_NAME" default:"0.6"`

	// FuzzyNameFloor is the minimum edit-distance ratio for a fuzzy name match (default: 0.75)
	FuzzyNameFloor float64 `env:"SCORE_FUZZY_NAME_FLOOR" default:"0.75"`

	// MinUniqueness rejects pairs where neither column reaches this
	// distinct/non-null ratio; 0 disables the gate (default: 0.7)
	MinUniqueness float64 `env:"SCORE_MIN_UNIQUENESS" default:"0.7"`

	// SingleValueDiscount scales overlap for single-valued columns (default: 0.5)
	SingleValueDiscount float64 `env:"SCORE_SINGLE_VALUE_DISCOUNT" default:"0.5"`

	// AmbiguityMargin is the confidence gap below which the top two tie (default: 0.05)
	AmbiguityMargin float64 `env:"SCORE_AMBIGUITY_MARGIN" default:"0.05"`
}

// Core converts the settings to the scorer's configuration.
func (c ScoringConfig) Core() core.ScoringConfig {
	return core.ScoringConfig{
		OverlapWeight:       c.OverlapWeight,
		NameWeight:          c.NameWeight,
		MinOverlap:          c.MinOverlap,
		PartialNameScore:    c.PartialName,
		FuzzyNameFloor:      c.FuzzyNameFloor,
		MinUniqueness:       c.MinUniqueness,
		SingleValueDiscount: c.SingleValueDiscount,
		AmbiguityMargin:     c.AmbiguityMargin,
	}
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
