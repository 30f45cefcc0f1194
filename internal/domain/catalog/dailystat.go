package catalog

// DailyStat holds the per-day counters for one SKU. The document id is
// `{sku}_{date}` so order and return ingests can merge partial counters
// into the same row. Zero counters are omitted, keeping each source's
// partial document from clearing what the other wrote.
type DailyStat struct {
	Sku       string  `json:"sku"`
	Date      string  `json:"date"`
	Views     int     `json:"views,omitempty"`
	AddToCart int     `json:"add_to_cart,omitempty"`
	Purchases int     `json:"purchases,omitempty"`
	Returns   int     `json:"returns,omitempty"`
	Revenue   float64 `json:"revenue,omitempty"`
	UpdatedAt string  `json:"updated_at,omitempty"`
}

// DocumentID returns the store identifier `{sku}_{date}`.
func (s *DailyStat) DocumentID() string {
	return s.Sku + "_" + s.Date
}
