package prometheus

import (
	"fmt"
	"time"
)

// Default bucket layouts shared across the application.
var (
	// DefaultHTTPDurationBuckets covers latencies from 5ms to 10s.
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

	// DefaultStoreDurationBuckets covers document-store round trips, which
	// include aggregation queries that can run into seconds.
	DefaultStoreDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}

	// DefaultSizeBuckets covers request/response body sizes from 100B to 10MB.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// AppMetrics groups every metric the application records.  Construct it once
// at startup with NewAppMetrics and share it; all fields are safe for
// concurrent use.
type AppMetrics struct {
	collector MetricsCollector

	// HTTP server metrics
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Document store metrics
	StoreOperationsTotal   CounterVec
	StoreOperationDuration HistogramVec
	StoreErrorsTotal       CounterVec
	StoreBulkDocsTotal     CounterVec

	// Attribute extraction metrics
	ExtractionsTotal         CounterVec
	ExtractedAttributesTotal CounterVec
	ExtractionEmptyTotal     CounterVec

	// Catalog metrics
	ProductsUpsertedTotal CounterVec

	// Incident metrics
	IncidentsCreatedTotal  CounterVec
	IncidentsRejectedTotal CounterVec

	// Ingestion metrics
	IngestRowsTotal    CounterVec
	IngestBatchesTotal CounterVec
	IngestDuration     HistogramVec

	// Rate limiting metrics
	RateLimitRejectedTotal CounterVec

	// Error metrics
	ErrorsTotal CounterVec
}

// NewAppMetrics registers every application metric against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{collector: collector}

	m.HTTPRequestsTotal = collector.RegisterCounter(
		"http_requests_total",
		"Total number of HTTP requests processed",
		"method", "path", "status",
	)
	m.HTTPRequestDuration = collector.RegisterHistogram(
		"http_request_duration_seconds",
		"HTTP request latency in seconds",
		DefaultHTTPDurationBuckets,
		"method", "path",
	)
	m.HTTPResponseSize = collector.RegisterHistogram(
		"http_response_size_bytes",
		"HTTP response body size in bytes",
		DefaultSizeBuckets,
		"method", "path",
	)
	m.HTTPActiveRequests = collector.RegisterGauge(
		"http_active_requests",
		"Number of HTTP requests currently being served",
		"method",
	)

	m.StoreOperationsTotal = collector.RegisterCounter(
		"store_operations_total",
		"Total number of document store operations",
		"index", "operation",
	)
	m.StoreOperationDuration = collector.RegisterHistogram(
		"store_operation_duration_seconds",
		"Document store operation latency in seconds",
		DefaultStoreDurationBuckets,
		"index", "operation",
	)
	m.StoreErrorsTotal = collector.RegisterCounter(
		"store_errors_total",
		"Total number of failed document store operations",
		"index", "operation",
	)
	m.StoreBulkDocsTotal = collector.RegisterCounter(
		"store_bulk_docs_total",
		"Total number of documents written through bulk requests",
		"index", "result",
	)

	m.ExtractionsTotal = collector.RegisterCounter(
		"extractions_total",
		"Total number of attribute extraction runs",
	)
	m.ExtractedAttributesTotal = collector.RegisterCounter(
		"extracted_attributes_total",
		"Total number of attributes produced by extraction runs",
		"attribute",
	)
	m.ExtractionEmptyTotal = collector.RegisterCounter(
		"extraction_empty_total",
		"Total number of extraction runs that produced no attributes",
	)

	m.ProductsUpsertedTotal = collector.RegisterCounter(
		"products_upserted_total",
		"Total number of product documents upserted",
		"source",
	)

	m.IncidentsCreatedTotal = collector.RegisterCounter(
		"incidents_created_total",
		"Total number of damage incidents accepted and stored",
		"damage_type",
	)
	m.IncidentsRejectedTotal = collector.RegisterCounter(
		"incidents_rejected_total",
		"Total number of damage incidents rejected by validation",
		"reason",
	)

	m.IngestRowsTotal = collector.RegisterCounter(
		"ingest_rows_total",
		"Total number of source rows processed during ingestion",
		"source", "result",
	)
	m.IngestBatchesTotal = collector.RegisterCounter(
		"ingest_batches_total",
		"Total number of bulk batches flushed during ingestion",
		"source",
	)
	m.IngestDuration = collector.RegisterHistogram(
		"ingest_duration_seconds",
		"Wall-clock duration of ingestion runs in seconds",
		[]float64{1, 5, 10, 30, 60, 120, 300, 600},
		"source",
	)

	m.RateLimitRejectedTotal = collector.RegisterCounter(
		"rate_limit_rejected_total",
		"Total number of requests rejected by the rate limiter",
		"path",
	)

	m.ErrorsTotal = collector.RegisterCounter(
		"errors_total",
		"Total number of application errors by code",
		"code",
	)

	return m
}

// Collector returns the underlying MetricsCollector.
func (m *AppMetrics) Collector() MetricsCollector {
	return m.collector
}

// RecordHTTPRequest records one completed request with its latency and
// response size.
func (m *AppMetrics) RecordHTTPRequest(method, path string, status int, duration time.Duration, responseSize int) {
	statusStr := fmt.Sprintf("%d", status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if responseSize > 0 {
		m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordStoreOperation records one document-store round trip.
func (m *AppMetrics) RecordStoreOperation(index, operation string, duration time.Duration, err error) {
	m.StoreOperationsTotal.WithLabelValues(index, operation).Inc()
	m.StoreOperationDuration.WithLabelValues(index, operation).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrorsTotal.WithLabelValues(index, operation).Inc()
	}
}

// RecordExtraction records one extraction run and the attributes it yielded.
func (m *AppMetrics) RecordExtraction(attributes []string) {
	m.ExtractionsTotal.WithLabelValues().Inc()
	if len(attributes) == 0 {
		m.ExtractionEmptyTotal.WithLabelValues().Inc()
		return
	}
	for _, attr := range attributes {
		m.ExtractedAttributesTotal.WithLabelValues(attr).Inc()
	}
}

// RecordProductUpserted records one product document write from the given
// source ("api" or an ingest source).
func (m *AppMetrics) RecordProductUpserted(source string) {
	m.ProductsUpsertedTotal.WithLabelValues(source).Inc()
}

// RecordIncidentCreated records one accepted incident.
func (m *AppMetrics) RecordIncidentCreated(damageType string) {
	if damageType == "" {
		damageType = "unspecified"
	}
	m.IncidentsCreatedTotal.WithLabelValues(damageType).Inc()
}

// RecordIncidentRejected records one incident refused by validation.
func (m *AppMetrics) RecordIncidentRejected(reason string) {
	m.IncidentsRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordIngestRows records the outcome of count source rows.  Result is
// one of created, updated, noop or skipped.
func (m *AppMetrics) RecordIngestRows(source, result string, count int) {
	if count <= 0 {
		return
	}
	m.IngestRowsTotal.WithLabelValues(source, result).Add(float64(count))
}

// RecordRateLimitRejected records one request turned away by the limiter.
func (m *AppMetrics) RecordRateLimitRejected(path string) {
	m.RateLimitRejectedTotal.WithLabelValues(path).Inc()
}

// RecordError records one application error by its code.
func (m *AppMetrics) RecordError(code string) {
	m.ErrorsTotal.WithLabelValues(code).Inc()
}
