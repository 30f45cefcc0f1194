package opensearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// ProductRepository implements catalog.ProductRepository on top of the
// store client.
type ProductRepository struct {
	indexer *Indexer
	index   string
	logger  logging.Logger
}

// NewProductRepository creates a product repository bound to one index.
func NewProductRepository(indexer *Indexer, indexName string, logger logging.Logger) *ProductRepository {
	return &ProductRepository{
		indexer: indexer,
		index:   indexName,
		logger:  logger,
	}
}

// Index writes the full product document and waits for the write to be
// searchable, so a caller can read back what it just stored.
func (r *ProductRepository) Index(ctx context.Context, p *catalog.Product) error {
	return r.indexer.IndexDocument(ctx, r.index, p.DocumentID(), p, "wait_for")
}

// BulkUpsert merges partial product documents by SKU.
func (r *ProductRepository) BulkUpsert(ctx context.Context, products []*catalog.Product) (*catalog.BulkReport, error) {
	docs := make(map[string]interface{}, len(products))
	for _, p := range products {
		docs[p.DocumentID()] = p
	}
	res, err := r.indexer.BulkUpsert(ctx, r.index, docs)
	if err != nil {
		return nil, err
	}
	return newBulkReport(res), nil
}

// GetBySKU fetches one product document.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	raw, err := r.indexer.GetDocument(ctx, r.index, sku)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, errors.Newf(errors.ErrCodeProductNotFound, "product %s was not found", sku)
		}
		return nil, err
	}

	var p catalog.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode product document")
	}
	if p.Sku == "" {
		p.Sku = sku
	}
	return &p, nil
}

// newBulkReport converts the store-level bulk outcome into the domain
// report shape.
func newBulkReport(res *BulkResult) *catalog.BulkReport {
	report := &catalog.BulkReport{
		Indexed: res.Succeeded,
		Created: res.Created,
		Updated: res.Updated,
		Noops:   res.Noops,
		Failed:  res.Failed,
	}
	for _, e := range res.Errors {
		report.Errors = append(report.Errors, fmt.Sprintf("%s: %s", e.DocID, e.Reason))
	}
	return report
}
