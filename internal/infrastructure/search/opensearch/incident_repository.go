package opensearch

import (
	"context"
	"encoding/json"

	"github.com/vitrina-analytics/catalog-insight/internal/domain/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// IncidentRepository implements incident.Repository on top of the store
// client.
type IncidentRepository struct {
	searcher *Searcher
	indexer  *Indexer
	index    string
	logger   logging.Logger
}

// NewIncidentRepository creates an incident repository bound to one
// index.
func NewIncidentRepository(searcher *Searcher, indexer *Indexer, indexName string, logger logging.Logger) *IncidentRepository {
	return &IncidentRepository{
		searcher: searcher,
		indexer:  indexer,
		index:    indexName,
		logger:   logger,
	}
}

// Insert writes one incident and waits for it to become searchable, so
// the KPI endpoints see it immediately after the write returns.
func (r *IncidentRepository) Insert(ctx context.Context, rec *incident.Record) error {
	return r.indexer.IndexDocument(ctx, r.index, rec.DocumentID(), rec, "wait_for")
}

// BulkInsert writes many incidents in batches. Incidents are full
// documents, never partial merges.
func (r *IncidentRepository) BulkInsert(ctx context.Context, recs []*incident.Record) (int, error) {
	docs := make(map[string]interface{}, len(recs))
	for _, rec := range recs {
		docs[rec.DocumentID()] = rec
	}
	res, err := r.indexer.BulkIndex(ctx, r.index, docs)
	if err != nil {
		return res.Succeeded, err
	}
	if res.Failed > 0 {
		return res.Succeeded, errors.Newf(errors.ErrCodeStoreWrite,
			"bulk insert failed for %d of %d incidents", res.Failed, len(recs))
	}
	return res.Succeeded, nil
}

// List returns the incidents matching the query, newest date_reported
// first.
func (r *IncidentRepository) List(ctx context.Context, q incident.ListQuery) ([]*incident.Record, error) {
	var filters []Filter
	if q.SupplierID != "" {
		filters = append(filters, Filter{FilterType: "term", Field: "supplier_id", Value: q.SupplierID})
	}
	if q.Sku != "" {
		filters = append(filters, Filter{FilterType: "term", Field: "sku", Value: q.Sku})
	}
	if q.ProductType != "" {
		filters = append(filters, Filter{FilterType: "term", Field: "product_type", Value: q.ProductType})
	}
	if q.DateFrom != "" || q.DateTo != "" {
		f := Filter{FilterType: "range", Field: "date_reported"}
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
		Sort:      []SortField{{Field: "date_reported", Order: "desc"}},
	}
	if q.Size > 0 {
		req.Pagination = &Pagination{Limit: q.Size}
	}

	result, err := r.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	recs := make([]*incident.Record, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var rec incident.Record
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode incident document")
		}
		if rec.IncidentID == "" {
			rec.IncidentID = hit.ID
		}
		recs = append(recs, &rec)
	}
	return recs, nil
}
