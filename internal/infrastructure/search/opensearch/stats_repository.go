package opensearch

import (
	"context"
	"encoding/json"

	"github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// StatsRepository implements catalog.StatsRepository on top of the
// store client.
type StatsRepository struct {
	searcher *Searcher
	indexer  *Indexer
	index    string
	logger   logging.Logger
}

// NewStatsRepository creates a daily-stats repository bound to one
// index.
func NewStatsRepository(searcher *Searcher, indexer *Indexer, indexName string, logger logging.Logger) *StatsRepository {
	return &StatsRepository{
		searcher: searcher,
		indexer:  indexer,
		index:    indexName,
		logger:   logger,
	}
}

// BulkUpsert merges partial counter documents by `{sku}_{date}`.
func (r *StatsRepository) BulkUpsert(ctx context.Context, stats []*catalog.DailyStat) (*catalog.BulkReport, error) {
	docs := make(map[string]interface{}, len(stats))
	for _, s := range stats {
		docs[s.DocumentID()] = s
	}
	res, err := r.indexer.BulkUpsert(ctx, r.index, docs)
	if err != nil {
		return nil, err
	}
	return newBulkReport(res), nil
}

// ListBySKU returns the daily rows for one SKU, newest date first.
func (r *StatsRepository) ListBySKU(ctx context.Context, q catalog.DailyStatsQuery) ([]*catalog.DailyStat, error) {
	filters := []Filter{
		{FilterType: "term", Field: "sku", Value: q.SKU},
	}
	if q.DateFrom != "" || q.DateTo != "" {
		f := Filter{FilterType: "range", Field: "date"}
		if q.DateFrom != "" {
			f.RangeFrom = q.DateFrom
		}
		if q.DateTo != "" {
			f.RangeTo = q.DateTo
		}
		filters = append(filters, f)
	}

	req := SearchRequest{
		IndexName: r.index,
		Filters:   filters,
		Sort:      []SortField{{Field: "date", Order: "desc"}},
	}
	if q.Size > 0 {
		req.Pagination = &Pagination{Limit: q.Size}
	}

	result, err := r.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	stats := make([]*catalog.DailyStat, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var s catalog.DailyStat
		if err := json.Unmarshal(hit.Source, &s); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode daily stat document")
		}
		stats = append(stats, &s)
	}
	return stats, nil
}
