// Package config loads the import service configuration from environment
// variables, applies defaults, and validates everything on startup so a bad
// deployment fails before it accepts a file.
package config

import (
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Redis    RedisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including the wait for
	// in-flight imports.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds PostgreSQL pool settings.
type DatabaseConfig struct {
	// URL accepts DATABASE_URL or DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds the CSV ingestion pipeline settings.
type ImportConfig struct {
	// BatchSize is the number of records persisted per transaction.
	BatchSize int `env:"IMPORT_BATCH_SIZE" default:"100"`

	// MaxErrors stops an import once this many records have failed.
	MaxErrors int `env:"IMPORT_MAX_ERRORS" default:"1000"`

	// ValidateData enables schema validation of each normalized record.
	ValidateData bool `env:"IMPORT_VALIDATE_DATA" default:"true"`

	// SkipDuplicates drops rows whose signature was seen in an earlier import.
	SkipDuplicates bool `env:"IMPORT_SKIP_DUPLICATES" default:"false"`

	// MaxWarnings caps the warnings returned in the stats.
	MaxWarnings int `env:"IMPORT_MAX_WARNINGS" default:"100"`

	// MaxFileSize accepts plain bytes or a KB/MB/GB suffix.
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"50MB" unit:"bytes"`

	MaxConcurrent int           `env:"IMPORT_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
	Timeout       time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// RateLimitConfig holds HTTP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// Rate uses the "<limit>-<period>" notation, e.g. 60-M or 1000-H.
	Rate string `env:"RATE_LIMIT_RATE" default:"60-M"`
}

// SecurityConfig holds API key and proxy settings.
type SecurityConfig struct {
	APIKeys        []string `env:"API_KEYS"`
	RequireAPIKey  bool     `env:"REQUIRE_API_KEY" default:"false"`
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is text or json.
	Format string `env:"LOG_FORMAT" default:"text"`
}

// RedisConfig configures the cross-import duplicate index. An empty URL
// keeps the index in process memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	DuplicateTTL time.Duration `env:"DUPLICATE_TTL" default:"720h"`
	KeyPrefix    string        `env:"DUPLICATE_KEY_PREFIX" default:"accessimport:sig:"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
