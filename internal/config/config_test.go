package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrina-analytics/catalog-insight/internal/config"
)

// validConfig returns a config that passes Validate, for mutation in
// individual cases.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_ServerPort(t *testing.T) {
	for _, port := range []int{0, -1, 65536} {
		cfg := validConfig()
		cfg.Server.Port = port
		assert.Error(t, cfg.Validate(), "port %d should be rejected", port)
	}
}

func TestValidate_ServerMode(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Mode = "production"
	assert.Error(t, cfg.Validate())

	for _, mode := range []string{"debug", "release", "test"} {
		cfg := validConfig()
		cfg.Server.Mode = mode
		assert.NoError(t, cfg.Validate(), "mode %q should be accepted", mode)
	}
}

func TestValidate_OpenSearchAddressesRequired(t *testing.T) {
	cfg := validConfig()
	cfg.OpenSearch.Addresses = nil
	assert.Error(t, cfg.Validate())
}

func TestValidate_IndexNamesRequired(t *testing.T) {
	cfg := validConfig()
	cfg.OpenSearch.ProductsIndex = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OpenSearch.DailyStatsIndex = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.OpenSearch.IncidentsIndex = ""
	assert.Error(t, cfg.Validate())
}

func TestValidate_BulkBatchSize(t *testing.T) {
	cfg := validConfig()
	cfg.OpenSearch.BulkBatchSize = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RateLimitNeedsRedis(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Enabled = true
	cfg.Redis.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerWindow = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Window = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.RateLimit.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestValidate_LogLevelAndFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Log.Format = "text"
	assert.Error(t, cfg.Validate())
}

func TestIndexNameHelpers_ApplyPrefix(t *testing.T) {
	os := config.OpenSearchConfig{
		IndexPrefix:     "dev_",
		ProductsIndex:   "products",
		DailyStatsIndex: "sku_daily_stats",
		IncidentsIndex:  "supplier_incidents",
	}
	assert.Equal(t, "dev_products", os.ProductsIndexName())
	assert.Equal(t, "dev_sku_daily_stats", os.DailyStatsIndexName())
	assert.Equal(t, "dev_supplier_incidents", os.IncidentsIndexName())
}

func TestIndexNameHelpers_NoPrefix(t *testing.T) {
	os := config.OpenSearchConfig{
		ProductsIndex:   "products",
		DailyStatsIndex: "sku_daily_stats",
		IncidentsIndex:  "supplier_incidents",
	}
	assert.Equal(t, "products", os.ProductsIndexName())
	assert.Equal(t, "sku_daily_stats", os.DailyStatsIndexName())
	assert.Equal(t, "supplier_incidents", os.IncidentsIndexName())
}
