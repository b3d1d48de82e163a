// Package config provides centralized configuration management for the results service.
// It loads configuration from environment variables with defaults and validates
// all settings on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Import   ImportConfig
	Webhook  WebhookConfig
	Auth     AuthConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, imports may run long)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// Migrate applies the embedded schema on startup (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// StorageConfig selects and configures the blob store holding uploaded result files.
type StorageConfig struct {
	// Backend is "local" or "gcs" (default: local)
	Backend string `env:"STORAGE_BACKEND" default:"local"`

	// Bucket is the upload bucket; webhook notifications for any other bucket are rejected
	Bucket string `env:"STORAGE_BUCKET" default:"result-uploads"`

	// LocalDir is the root directory for the local backend; the bucket is a subdirectory
	LocalDir string `env:"STORAGE_LOCAL_DIR" default:"./data/storage"`

	// GCSEmulatorHost points the gcs backend at an emulator (e.g. http://localhost:4443)
	GCSEmulatorHost string `env:"STORAGE_GCS_EMULATOR_HOST"`

	// GCSCredentialsFile is an optional service account JSON file for the gcs backend
	GCSCredentialsFile string `env:"STORAGE_GCS_CREDENTIALS_FILE" envAlt:"GOOGLE_APPLICATION_CREDENTIALS"`

	// Notifications is true when the bucket posts object-created events to
	// /webhooks/storage; admin uploads then only store the file (default: false)
	Notifications bool `env:"STORAGE_NOTIFICATIONS" default:"false"`
}

// ImportConfig holds result import pipeline settings.
type ImportConfig struct {
	// MaxFileSize is the largest object the pipeline will download, in bytes (default: 20MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the maximum number of imports running at once (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long a trigger waits for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single import run (default: 10m)
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"10m"`
}

// WebhookConfig holds settings for the storage-change webhook.
type WebhookConfig struct {
	// RequireSecret rejects notifications without a valid X-Webhook-Secret header (default: false)
	RequireSecret bool `env:"WEBHOOK_REQUIRE_SECRET" default:"false"`

	// Secrets is a comma-separated list of accepted shared secrets
	Secrets []string `env:"WEBHOOK_SECRETS"`
}

// AuthConfig holds token settings for the admin and student API.
type AuthConfig struct {
	// JWTSecret signs access tokens (required)
	JWTSecret string `env:"JWT_SECRET" required:"true"`

	// TokenTTL is the lifetime of an access token (default: 12h)
	TokenTTL time.Duration `env:"JWT_TOKEN_TTL" default:"12h"`

	// Issuer is written to and checked against the iss claim (default: results)
	Issuer string `env:"JWT_ISSUER" default:"results"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins is a comma-separated list of CORS origins for the dashboard frontend
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds import history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long import run records are kept (default: 180)
	RetentionDays int `env:"IMPORT_HISTORY_RETENTION_DAYS" default:"180"`

	// PruneInterval is how often old import runs are pruned (default: 24h)
	PruneInterval time.Duration `env:"IMPORT_HISTORY_PRUNE_INTERVAL" default:"24h"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
