package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the evidence service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"evidence-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"EVIDENCE_API_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database (required, no default)
	DatabaseDSN string `env:"DB_POSTGRESQL_DSN,notEmpty"`

	// Database Connection Pool
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Storage Backend Selection
	StorageBackend string `env:"EVIDENCE_STORAGE_BACKEND" envDefault:"local"` // Options: "local" or "s3"

	// Local Storage Configuration
	LocalStoragePath string `env:"EVIDENCE_LOCAL_STORAGE_PATH" envDefault:"./uploads"`

	// S3 Storage Configuration
	S3Endpoint     string `env:"EVIDENCE_S3_ENDPOINT"`
	S3Region       string `env:"EVIDENCE_S3_REGION" envDefault:"us-west-2"`
	S3Bucket       string `env:"EVIDENCE_S3_BUCKET"`
	S3AccessKeyID  string `env:"EVIDENCE_S3_ACCESS_KEY_ID"`
	S3SecretKey    string `env:"EVIDENCE_S3_SECRET_ACCESS_KEY"`
	S3UsePathStyle bool   `env:"EVIDENCE_S3_USE_PATH_STYLE" envDefault:"true"`

	// Evidence Configuration
	MaxFileBytes    int64         `env:"EVIDENCE_MAX_FILE_BYTES" envDefault:"10485760"`
	MaxBatchFiles   int           `env:"EVIDENCE_MAX_BATCH_FILES" envDefault:"10"`
	CleanupInterval time.Duration `env:"EVIDENCE_CLEANUP_INTERVAL" envDefault:"0"` // 0 disables the background sweep

	// AI Chat Proxy
	PiAPIURL          string        `env:"PI_API_URL"`
	PiAPIKey          string        `env:"PI_API_KEY"`
	PiModel           string        `env:"PI_MODEL" envDefault:"Pi-3.1"`
	PiTimeout         time.Duration `env:"PI_TIMEOUT" envDefault:"30s"`
	GeminiAPIURL      string        `env:"GEMINI_API_URL"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiTimeout     time.Duration `env:"GEMINI_TIMEOUT" envDefault:"15s"`
	ChatHistoryWindow int           `env:"CHAT_HISTORY_WINDOW" envDefault:"5"`

	// Authentication (admin routes)
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	cfg.S3Bucket = strings.TrimSpace(cfg.S3Bucket)
	cfg.S3AccessKeyID = strings.TrimSpace(cfg.S3AccessKeyID)
	cfg.S3SecretKey = strings.TrimSpace(cfg.S3SecretKey)
	cfg.S3Endpoint = strings.TrimSpace(cfg.S3Endpoint)
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10 * 1024 * 1024
	}
	if cfg.MaxBatchFiles <= 0 {
		cfg.MaxBatchFiles = 10
	}
	if cfg.IsS3Storage() && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("EVIDENCE_S3_BUCKET is required when EVIDENCE_STORAGE_BACKEND is s3")
	}
	if cfg.AuthEnabled {
		if strings.TrimSpace(cfg.AuthIssuer) == "" {
			return nil, fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(cfg.AuthJWKSURL) == "" {
			return nil, fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return cfg, nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// IsLocalStorage returns true if the local filesystem backend is configured.
func (c *Config) IsLocalStorage() bool {
	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	return backend == "" || backend == "local"
}

// IsS3Storage returns true if the S3 backend is configured.
func (c *Config) IsS3Storage() bool {
	return strings.ToLower(strings.TrimSpace(c.StorageBackend)) == "s3"
}
