package config

import "time"

// Default value constants.
const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "debug"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerMaxBodySize     = 8 << 20 // 8 MiB
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultOpenSearchAddress = "http://localhost:9200"
	DefaultRequestTimeout    = 10 * time.Second
	DefaultMaxRetries        = 3
	DefaultBulkBatchSize     = 500
	DefaultProductsIndex     = "products"
	DefaultDailyStatsIndex   = "sku_daily_stats"
	DefaultIncidentsIndex    = "supplier_incidents"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "insight:"

	DefaultIngestDataDir            = "./data"
	DefaultIngestBatchSize          = 500
	DefaultProductURLTemplate       = "https://magazin.example.ro/produs/{sku}"
	DefaultRateLimitRequestsPerWindow = 120
	DefaultRateLimitWindow            = time.Minute

	DefaultMetricsNamespace = "insight"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the service
// default.  Fields that have already been set by the caller are left
// unchanged so that explicit configuration always wins.  It must be called
// after unmarshalling raw config data and before Validate() so that
// optional-but-defaulted fields are never seen as missing.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// Server
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultServerMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	// OpenSearch
	if len(cfg.OpenSearch.Addresses) == 0 {
		cfg.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if cfg.OpenSearch.RequestTimeout == 0 {
		cfg.OpenSearch.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.OpenSearch.MaxRetries == 0 {
		cfg.OpenSearch.MaxRetries = DefaultMaxRetries
	}
	if cfg.OpenSearch.BulkBatchSize == 0 {
		cfg.OpenSearch.BulkBatchSize = DefaultBulkBatchSize
	}
	if cfg.OpenSearch.ProductsIndex == "" {
		cfg.OpenSearch.ProductsIndex = DefaultProductsIndex
	}
	if cfg.OpenSearch.DailyStatsIndex == "" {
		cfg.OpenSearch.DailyStatsIndex = DefaultDailyStatsIndex
	}
	if cfg.OpenSearch.IncidentsIndex == "" {
		cfg.OpenSearch.IncidentsIndex = DefaultIncidentsIndex
	}

	// Redis
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Ingest
	if cfg.Ingest.DataDir == "" {
		cfg.Ingest.DataDir = DefaultIngestDataDir
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = DefaultIngestBatchSize
	}
	if cfg.Ingest.ProductURLTemplate == "" {
		cfg.Ingest.ProductURLTemplate = DefaultProductURLTemplate
	}

	// Rate limit
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit.RequestsPerWindow = DefaultRateLimitRequestsPerWindow
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = DefaultRateLimitWindow
	}

	// Metrics
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
