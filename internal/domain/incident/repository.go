package incident

import "context"

// ListQuery filters stored incidents. All filters are optional; zero
// values are ignored. DateFrom and DateTo bound date_reported
// inclusively.
type ListQuery struct {
	SupplierID  string
	Sku         string
	ProductType string
	DateFrom    string
	DateTo      string
	Size        int
}

// Repository is the persistence contract for incident records.
// Incidents are append-only, so the interface offers no update or
// delete.
type Repository interface {
	// Insert writes one record and waits for it to become searchable.
	Insert(ctx context.Context, rec *Record) error

	// BulkInsert writes many records in batches and returns how many
	// were accepted.
	BulkInsert(ctx context.Context, recs []*Record) (int, error)

	// List returns the records matching the query, newest
	// date_reported first.
	List(ctx context.Context, q ListQuery) ([]*Record, error)
}
