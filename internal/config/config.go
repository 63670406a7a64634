// Package config provides centralized configuration management for the application.
// It loads configuration from an optional YAML file and environment variables
// with sensible defaults, and validates all settings on startup to fail fast
// on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Validation ValidationConfig `yaml:"validation"`
	Database   DatabaseConfig   `yaml:"database"`
	Notify     NotifyConfig     `yaml:"notify"`
	Rate       RateLimitConfig  `yaml:"rate"`
	Security   SecurityConfig   `yaml:"security"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig names the buckets the pipeline and dashboards work against.
type StorageConfig struct {
	Region string `yaml:"region" env:"AWS_REGION" envAlt:"AWS_DEFAULT_REGION" default:"us-east-1" required:"true"`

	// Endpoint overrides the object-store endpoint (MinIO, LocalStack).
	Endpoint string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`

	// PathStyle addresses buckets as path segments instead of subdomains.
	PathStyle bool `yaml:"path_style" env:"STORAGE_PATH_STYLE" default:"false"`

	// SourceBucket is the only bucket whose events are validated.
	SourceBucket string `yaml:"source_bucket" env:"SOURCE_BUCKET" default:"dem-forcast-test" required:"true"`

	// ValidatedBucket receives promoted copies.
	ValidatedBucket string `yaml:"validated_bucket" env:"VALIDATED_BUCKET" default:"dem-forecast-validated" required:"true"`

	ReportBucket string `yaml:"report_bucket" env:"REPORT_BUCKET" default:"dem-forecast-report"`
	FinalBucket  string `yaml:"final_bucket" env:"FINAL_BUCKET" default:"dem-forecast-final"`
	LogsBucket   string `yaml:"logs_bucket" env:"LOGS_BUCKET" default:"ticket-final-reports"`
}

// ValidationConfig holds upload validation settings.
type ValidationConfig struct {
	// DateColumns lists the columns normalized to DD-MM-YYYY (default: createdDate)
	DateColumns []string `yaml:"date_columns" env:"VALIDATION_DATE_COLUMNS" default:"createdDate"`

	// MaxFileSize is the maximum accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// Inline runs the pipeline synchronously after an HTTP upload (default: false)
	Inline bool `yaml:"inline" env:"UPLOAD_VALIDATE_INLINE" default:"false"`

	// MaxConcurrentUploads caps simultaneous uploads (default: 5)
	MaxConcurrentUploads int `yaml:"max_concurrent_uploads" env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// UploadWait is how long an upload waits for a free slot (default: 30s)
	UploadWait time.Duration `yaml:"upload_wait" env:"UPLOAD_MAX_WAIT" default:"30s"`
}

// DatabaseConfig holds the optional run-history database settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Run history is disabled when empty.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// NotifyConfig holds promotion notification settings.
type NotifyConfig struct {
	// URL is the NATS server URL. Notifications are disabled when empty.
	URL string `yaml:"url" env:"NATS_URL"`

	// Subject receives one message per promoted file (default: forecast.validated)
	Subject string `yaml:"subject" env:"NOTIFY_SUBJECT" default:"forecast.validated"`

	// Timeout bounds the initial connection (default: 5s)
	Timeout time.Duration `yaml:"timeout" env:"NOTIFY_TIMEOUT" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `yaml:"upload_limit" env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// AllowedOrigins is a comma-separated list of origins allowed to call the API
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `yaml:"require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`

	// PrincipalHeader carries the signed-in user, set by the fronting identity proxy
	PrincipalHeader string `yaml:"principal_header" env:"SESSION_PRINCIPAL_HEADER" default:"X-Forwarded-User"`

	// RoleHeader carries the user's role ("admin" or "user")
	RoleHeader string `yaml:"role_header" env:"SESSION_ROLE_HEADER" default:"X-Forwarded-Role"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`

	// SeqURL additionally ships logs to a Seq server when set
	SeqURL string `yaml:"seq_url" env:"LOG_SEQ_URL"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
