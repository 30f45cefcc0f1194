package catalog

import "context"

// BulkReport summarizes a batched write from the repository's point of
// view. Created, Updated and Noops partition Indexed.
type BulkReport struct {
	Indexed int
	Created int
	Updated int
	Noops   int
	Failed  int
	Errors  []string
}

// DailyStatsQuery selects the per-day rows for one SKU, newest first.
// DateFrom and DateTo are inclusive `YYYY-MM-DD` bounds; either may be
// empty.
type DailyStatsQuery struct {
	SKU      string
	DateFrom string
	DateTo   string
	Size     int
}

// ProductRepository is the persistence contract for product documents.
type ProductRepository interface {
	// Index writes the full document and waits for it to become
	// searchable.
	Index(ctx context.Context, p *Product) error

	// BulkUpsert merges partial documents by SKU in batches.
	BulkUpsert(ctx context.Context, products []*Product) (*BulkReport, error)

	// GetBySKU fetches one document. A missing SKU is reported with a
	// not-found error, never a nil product.
	GetBySKU(ctx context.Context, sku string) (*Product, error)
}

// StatsRepository is the persistence contract for daily SKU counters.
type StatsRepository interface {
	// BulkUpsert merges partial counter documents by `{sku}_{date}`.
	BulkUpsert(ctx context.Context, stats []*DailyStat) (*BulkReport, error)

	// ListBySKU returns the rows matching the query, newest date first.
	ListBySKU(ctx context.Context, q DailyStatsQuery) ([]*DailyStat, error)
}
