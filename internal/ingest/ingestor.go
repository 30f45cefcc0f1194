// Package ingest loads the shop's export files into the document store:
// the product catalog with Romanian column headers, and the order and
// return CSVs that feed the per-day SKU counters.  Reruns merge by
// document id instead of duplicating.
package ingest

import (
	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
)

// Report counts the outcome of one ingest run.  The keys mirror the
// store's bulk item results; Skipped counts rows dropped before the
// write.
type Report struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Noops   int `json:"noop"`
	Skipped int `json:"skipped"`
}

// Ingestor reads export files and writes the parsed rows through the
// catalog repositories.
type Ingestor struct {
	products  domainCatalog.ProductRepository
	stats     domainCatalog.StatsRepository
	extractor *mining.Extractor
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewIngestor constructs an Ingestor.  Metrics may be nil.
func NewIngestor(
	products domainCatalog.ProductRepository,
	stats domainCatalog.StatsRepository,
	extractor *mining.Extractor,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) *Ingestor {
	if products == nil {
		panic("ingest: product repository must not be nil")
	}
	if stats == nil {
		panic("ingest: stats repository must not be nil")
	}
	if extractor == nil {
		panic("ingest: extractor must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Ingestor{
		products:  products,
		stats:     stats,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger.Named("ingest"),
	}
}

func reportFromBulk(rep *domainCatalog.BulkReport, skipped int) *Report {
	return &Report{
		Created: rep.Created,
		Updated: rep.Updated,
		Noops:   rep.Noops,
		Skipped: skipped,
	}
}

func (ing *Ingestor) record(source string, rep *Report) {
	if ing.metrics == nil {
		return
	}
	ing.metrics.RecordIngestRows(source, "created", rep.Created)
	ing.metrics.RecordIngestRows(source, "updated", rep.Updated)
	ing.metrics.RecordIngestRows(source, "noop", rep.Noops)
	ing.metrics.RecordIngestRows(source, "skipped", rep.Skipped)
}
