// Package config defines all configuration structures for catalog-insight.
// No I/O or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// OpenSearchConfig holds document-store connection parameters and the
// index naming scheme.  Every index name is composed as IndexPrefix + base
// name, so a prefix of "dev_" yields "dev_products".
type OpenSearchConfig struct {
	Addresses          []string      `mapstructure:"addresses"`
	User               string        `mapstructure:"user"`
	Password           string        `mapstructure:"password"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	BulkBatchSize      int           `mapstructure:"bulk_batch_size"`
	IndexPrefix        string        `mapstructure:"index_prefix"`
	ProductsIndex      string        `mapstructure:"products_index"`
	DailyStatsIndex    string        `mapstructure:"daily_stats_index"`
	IncidentsIndex     string        `mapstructure:"incidents_index"`
}

// ProductsIndexName returns the fully-prefixed products index name.
func (c OpenSearchConfig) ProductsIndexName() string {
	return c.IndexPrefix + c.ProductsIndex
}

// DailyStatsIndexName returns the fully-prefixed daily-stats index name.
func (c OpenSearchConfig) DailyStatsIndexName() string {
	return c.IndexPrefix + c.DailyStatsIndex
}

// IncidentsIndexName returns the fully-prefixed incidents index name.
func (c OpenSearchConfig) IncidentsIndexName() string {
	return c.IndexPrefix + c.IncidentsIndex
}

// RedisConfig holds Redis connection parameters.  Redis backs the API
// rate limiter; the analytics paths never cache through it.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// MinIOConfig holds S3-compatible object-storage parameters for fetching
// export files during ingest.  The section is optional; ingest commands
// fall back to local paths when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// IngestConfig holds batch-import parameters.
type IngestConfig struct {
	DataDir            string `mapstructure:"data_dir"`
	BatchSize          int    `mapstructure:"batch_size"`
	ProductURLTemplate string `mapstructure:"product_url_template"`
}

// RateLimitConfig holds API rate-limiter parameters.  The limiter is a
// fixed window counter per client IP backed by Redis.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	RequestsPerWindow int           `mapstructure:"requests_per_window"`
	Window            time.Duration `mapstructure:"window"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level            string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format           string   `mapstructure:"format"` // "json" | "console"
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Config is the root configuration structure for the whole service.
// Infrastructure components receive the relevant sub-struct through their
// constructors; nothing reads configuration ambiently.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OpenSearch OpenSearchConfig `mapstructure:"opensearch"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MinIO      MinIOConfig      `mapstructure:"minio"`
	Ingest     IngestConfig     `mapstructure:"ingest"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error
// as fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// OpenSearch
	if len(c.OpenSearch.Addresses) == 0 {
		return fmt.Errorf("config: opensearch.addresses must contain at least one address")
	}
	if c.OpenSearch.ProductsIndex == "" {
		return fmt.Errorf("config: opensearch.products_index is required")
	}
	if c.OpenSearch.DailyStatsIndex == "" {
		return fmt.Errorf("config: opensearch.daily_stats_index is required")
	}
	if c.OpenSearch.IncidentsIndex == "" {
		return fmt.Errorf("config: opensearch.incidents_index is required")
	}
	if c.OpenSearch.BulkBatchSize < 1 {
		return fmt.Errorf("config: opensearch.bulk_batch_size must be ≥ 1, got %d", c.OpenSearch.BulkBatchSize)
	}

	// Rate limiter needs Redis when enabled.
	if c.RateLimit.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when rate_limit.enabled is true")
		}
		if c.RateLimit.RequestsPerWindow < 1 {
			return fmt.Errorf("config: rate_limit.requests_per_window must be ≥ 1, got %d", c.RateLimit.RequestsPerWindow)
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("config: rate_limit.window must be positive, got %s", c.RateLimit.Window)
		}
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Ingest
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("config: ingest.batch_size must be ≥ 1, got %d", c.Ingest.BatchSize)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
