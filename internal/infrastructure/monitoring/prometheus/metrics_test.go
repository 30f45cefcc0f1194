package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	cfg := CollectorConfig{Namespace: "insight"}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_RegistersEverything(t *testing.T) {
	m, _ := newTestAppMetrics(t)

	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.HTTPRequestDuration)
	assert.NotNil(t, m.HTTPResponseSize)
	assert.NotNil(t, m.HTTPActiveRequests)
	assert.NotNil(t, m.StoreOperationsTotal)
	assert.NotNil(t, m.StoreOperationDuration)
	assert.NotNil(t, m.StoreErrorsTotal)
	assert.NotNil(t, m.StoreBulkDocsTotal)
	assert.NotNil(t, m.ExtractionsTotal)
	assert.NotNil(t, m.ExtractedAttributesTotal)
	assert.NotNil(t, m.ExtractionEmptyTotal)
	assert.NotNil(t, m.ProductsUpsertedTotal)
	assert.NotNil(t, m.IncidentsCreatedTotal)
	assert.NotNil(t, m.IncidentsRejectedTotal)
	assert.NotNil(t, m.IngestRowsTotal)
	assert.NotNil(t, m.IngestBatchesTotal)
	assert.NotNil(t, m.IngestDuration)
	assert.NotNil(t, m.RateLimitRejectedTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordHTTPRequest("GET", "/api/products/:sku", 200, 42*time.Millisecond, 1024)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_http_requests_total{method="GET",path="/api/products/:sku",status="200"} 1`)
	assert.Contains(t, output, "insight_http_request_duration_seconds_count")
	assert.Contains(t, output, "insight_http_response_size_bytes_count")
}

func TestRecordHTTPRequest_ZeroSizeSkipsSizeHistogram(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordHTTPRequest("HEAD", "/healthz", 200, time.Millisecond, 0)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_http_requests_total{method="HEAD",path="/healthz",status="200"} 1`)
	assert.NotContains(t, output, `insight_http_response_size_bytes_count{method="HEAD"`)
}

func TestRecordStoreOperation(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordStoreOperation("products", "search", 5*time.Millisecond, nil)
	m.RecordStoreOperation("products", "search", 5*time.Millisecond, errors.New("boom"))

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_store_operations_total{index="products",operation="search"} 2`)
	assert.Contains(t, output, `insight_store_errors_total{index="products",operation="search"} 1`)
}

func TestRecordExtraction(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordExtraction([]string{"attr_volume_ml", "attr_finish"})
	m.RecordExtraction(nil)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "insight_extractions_total 2")
	assert.Contains(t, output, `insight_extracted_attributes_total{attribute="attr_volume_ml"} 1`)
	assert.Contains(t, output, `insight_extracted_attributes_total{attribute="attr_finish"} 1`)
	assert.Contains(t, output, "insight_extraction_empty_total 1")
}

func TestRecordIncidentCreated_EmptyDamageType(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordIncidentCreated("")
	m.RecordIncidentCreated("zgariat")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_incidents_created_total{damage_type="unspecified"} 1`)
	assert.Contains(t, output, `insight_incidents_created_total{damage_type="zgariat"} 1`)
}

func TestRecordIncidentRejected(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordIncidentRejected("quantity_exceeds_total")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_incidents_rejected_total{reason="quantity_exceeds_total"} 1`)
}

func TestRecordIngestRows(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordIngestRows("products", "created", 12)
	m.RecordIngestRows("products", "skipped", 1)
	m.RecordIngestRows("orders", "created", 3)
	m.RecordIngestRows("orders", "noop", 0)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_ingest_rows_total{result="created",source="products"} 12`)
	assert.Contains(t, output, `insight_ingest_rows_total{result="skipped",source="products"} 1`)
	assert.Contains(t, output, `insight_ingest_rows_total{result="created",source="orders"} 3`)
	assert.NotContains(t, output, `result="noop"`)
}

func TestRecordRateLimitRejected(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordRateLimitRejected("/api/products")
	m.RecordRateLimitRejected("/api/products")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_rate_limit_rejected_total{path="/api/products"} 2`)
}

func TestRecordError(t *testing.T) {
	m, c := newTestAppMetrics(t)

	m.RecordError("STORE_002")

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `insight_errors_total{code="STORE_002"} 1`)
}

func TestAppMetrics_Collector(t *testing.T) {
	m, c := newTestAppMetrics(t)
	assert.Equal(t, c, m.Collector())
}
