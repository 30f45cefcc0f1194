// Package analytics computes supplier and catalog KPIs from stored
// documents. Every operation is a stateless aggregation round trip: the
// store owns the data, this package owns the questions asked of it.
package analytics

import (
	"context"
	"encoding/json"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

const (
	supplierBucketSize    = 50
	productTypeBucketSize = 10
	damageTypeBucketSize  = 20
	categoryBucketSize    = 200

	// MinFixListSize and MaxFixListSize bound the fix-list limit.
	MinFixListSize = 1
	MaxFixListSize = 500

	damageRateScript = "params.total == 0 ? 0 : params.damaged / params.total"
	monthKeyFormat   = "yyyy-MM"
)

// ---------------------------------------------------------------------------
// Result rows
// ---------------------------------------------------------------------------

// SupplierKPI is one damage-rate row. ProductType is set only by the
// per-type breakdown.
type SupplierKPI struct {
	SupplierID  string  `json:"supplier_id"`
	ProductType string  `json:"product_type,omitempty"`
	QtyTotal    float64 `json:"qty_total"`
	QtyDamaged  float64 `json:"qty_damaged"`
	DamageRate  float64 `json:"damage_rate"`
}

// DamageTypeCount is one damage-type bucket. An incident tagged with N
// types contributes to N buckets.
type DamageTypeCount struct {
	DamageType string `json:"damage_type"`
	Count      int64  `json:"count"`
}

// SupplierDamageTypes lists the damage-type distribution of one supplier.
type SupplierDamageTypes struct {
	SupplierID  string            `json:"supplier_id"`
	DamageTypes []DamageTypeCount `json:"damage_types"`
}

// MonthlyPoint is one calendar-month bucket of a supplier's damage series.
type MonthlyPoint struct {
	Month      string  `json:"month"`
	QtyTotal   float64 `json:"qty_total"`
	QtyDamaged float64 `json:"qty_damaged"`
	DamageRate float64 `json:"damage_rate"`
}

// CoverageStat reports how many SKUs of one category carry an attribute.
type CoverageStat struct {
	CategoryMain  string  `json:"category_main"`
	TotalSkus     int64   `json:"total_skus"`
	WithAttribute int64   `json:"with_attribute"`
	CoverageRatio float64 `json:"coverage_ratio"`
}

// FixListItem is one product summary from the missing-attribute fix list.
type FixListItem struct {
	Sku          string   `json:"sku"`
	Name         string   `json:"name,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	PriceFinal   *float64 `json:"price_final,omitempty"`
	CategoryMain string   `json:"category_main,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
}

// RevenueSplit sums revenue over products with and without an attribute
// inside one category. Share follows the zero-denominator rule.
type RevenueSplit struct {
	CategoryMain   string  `json:"category_main"`
	Attribute      string  `json:"attribute"`
	RevenueWith    float64 `json:"with_attribute"`
	RevenueWithout float64 `json:"without_attribute"`
	Share          float64 `json:"share"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service answers KPI queries over the incident and product indices.
type Service interface {
	// DamageRatePerSupplier buckets incidents by supplier, optionally
	// narrowed to one product type first.
	DamageRatePerSupplier(ctx context.Context, productType string) ([]SupplierKPI, error)

	// DamageRatePerSupplierAndType breaks each supplier down by product
	// type, flattened to one row per pair.
	DamageRatePerSupplierAndType(ctx context.Context) ([]SupplierKPI, error)

	// DamageTypeDistribution counts incidents per damage-type tag for
	// every supplier.
	DamageTypeDistribution(ctx context.Context) ([]SupplierDamageTypes, error)

	// MonthlyDamageRate returns one supplier's damage series by calendar
	// month, oldest first.
	MonthlyDamageRate(ctx context.Context, supplierID string) ([]MonthlyPoint, error)

	// AttributeCoverageByCategory reports per-category coverage of one
	// attribute field.
	AttributeCoverageByCategory(ctx context.Context, attribute string) ([]CoverageStat, error)

	// MissingAttributeFixList lists products of one category lacking an
	// attribute, most valuable first.
	MissingAttributeFixList(ctx context.Context, attribute, category string, limit int) ([]FixListItem, error)

	// RevenueImportance splits one category's revenue by attribute
	// presence.
	RevenueImportance(ctx context.Context, attribute, category string) (*RevenueSplit, error)
}

type service struct {
	searcher       *opensearch.Searcher
	incidentsIndex string
	productsIndex  string
	logger         logging.Logger
}

// Config carries the index names the service queries.
type Config struct {
	IncidentsIndex string
	ProductsIndex  string
}

// NewService constructs the KPI service.
func NewService(searcher *opensearch.Searcher, cfg Config, logger logging.Logger) Service {
	if searcher == nil {
		panic("analytics: searcher must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		searcher:       searcher,
		incidentsIndex: cfg.IncidentsIndex,
		productsIndex:  cfg.ProductsIndex,
		logger:         logger.Named("analytics"),
	}
}

// damageAggs returns the shared per-bucket metric set: summed quantities
// plus the guarded ratio.
func damageAggs() map[string]opensearch.Aggregation {
	return map[string]opensearch.Aggregation{
		"total_qty":   {AggType: "sum", Field: "qty_total_in_shipment"},
		"damaged_qty": {AggType: "sum", Field: "qty_damaged"},
		"damage_rate": {
			AggType:     "bucket_script",
			BucketsPath: map[string]string{"damaged": "damaged_qty", "total": "total_qty"},
			Script:      damageRateScript,
		},
	}
}

func (s *service) DamageRatePerSupplier(ctx context.Context, productType string) ([]SupplierKPI, error) {
	req := opensearch.SearchRequest{
		IndexName: s.incidentsIndex,
		// Aggregation-only round trip, no hits.
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"suppliers": {
				AggType:         "terms",
				Field:           "supplier_id",
				Size:            supplierBucketSize,
				SubAggregations: damageAggs(),
			},
		},
	}
	if productType != "" {
		req.Query = &opensearch.Query{QueryType: "term", Field: "product_type", Value: productType}
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	buckets := result.Aggregations["suppliers"].Buckets
	kpis := make([]SupplierKPI, 0, len(buckets))
	for _, b := range buckets {
		kpis = append(kpis, SupplierKPI{
			SupplierID: b.KeyString(),
			QtyTotal:   b.SubValue("total_qty"),
			QtyDamaged: b.SubValue("damaged_qty"),
			DamageRate: b.SubValue("damage_rate"),
		})
	}
	s.logger.Debug("damage rate per supplier computed",
		logging.String("product_type", productType),
		logging.Int("suppliers", len(kpis)))
	return kpis, nil
}

func (s *service) DamageRatePerSupplierAndType(ctx context.Context) ([]SupplierKPI, error) {
	req := opensearch.SearchRequest{
		IndexName:  s.incidentsIndex,
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"suppliers": {
				AggType: "terms",
				Field:   "supplier_id",
				Size:    supplierBucketSize,
				SubAggregations: map[string]opensearch.Aggregation{
					"product_types": {
						AggType:         "terms",
						Field:           "product_type",
						Size:            productTypeBucketSize,
						SubAggregations: damageAggs(),
					},
				},
			},
		},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	var kpis []SupplierKPI
	for _, supplier := range result.Aggregations["suppliers"].Buckets {
		for _, typ := range supplier.Sub("product_types").Buckets {
			kpis = append(kpis, SupplierKPI{
				SupplierID:  supplier.KeyString(),
				ProductType: typ.KeyString(),
				QtyTotal:    typ.SubValue("total_qty"),
				QtyDamaged:  typ.SubValue("damaged_qty"),
				DamageRate:  typ.SubValue("damage_rate"),
			})
		}
	}
	if kpis == nil {
		kpis = []SupplierKPI{}
	}
	return kpis, nil
}

func (s *service) DamageTypeDistribution(ctx context.Context) ([]SupplierDamageTypes, error) {
	req := opensearch.SearchRequest{
		IndexName:  s.incidentsIndex,
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"suppliers": {
				AggType: "terms",
				Field:   "supplier_id",
				Size:    supplierBucketSize,
				SubAggregations: map[string]opensearch.Aggregation{
					"damage_types": {
						AggType: "terms",
						Field:   "damage_type",
						Size:    damageTypeBucketSize,
					},
				},
			},
		},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	suppliers := result.Aggregations["suppliers"].Buckets
	rows := make([]SupplierDamageTypes, 0, len(suppliers))
	for _, supplier := range suppliers {
		typeBuckets := supplier.Sub("damage_types").Buckets
		types := make([]DamageTypeCount, 0, len(typeBuckets))
		for _, b := range typeBuckets {
			types = append(types, DamageTypeCount{
				DamageType: b.KeyString(),
				Count:      b.DocCount,
			})
		}
		rows = append(rows, SupplierDamageTypes{
			SupplierID:  supplier.KeyString(),
			DamageTypes: types,
		})
	}
	return rows, nil
}

func (s *service) MonthlyDamageRate(ctx context.Context, supplierID string) ([]MonthlyPoint, error) {
	if supplierID == "" {
		return nil, errors.InvalidParam("supplier_id is required")
	}

	req := opensearch.SearchRequest{
		IndexName:  s.incidentsIndex,
		Query:      &opensearch.Query{QueryType: "term", Field: "supplier_id", Value: supplierID},
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"monthly": {
				AggType:         "date_histogram",
				Field:           "date_reported",
				Interval:        "month",
				Format:          monthKeyFormat,
				SubAggregations: damageAggs(),
			},
		},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	buckets := result.Aggregations["monthly"].Buckets
	points := make([]MonthlyPoint, 0, len(buckets))
	for _, b := range buckets {
		points = append(points, MonthlyPoint{
			Month:      b.KeyString(),
			QtyTotal:   b.SubValue("total_qty"),
			QtyDamaged: b.SubValue("damaged_qty"),
			DamageRate: b.SubValue("damage_rate"),
		})
	}
	return points, nil
}

func (s *service) AttributeCoverageByCategory(ctx context.Context, attribute string) ([]CoverageStat, error) {
	if attribute == "" {
		return nil, errors.InvalidParam("attribute is required")
	}

	req := opensearch.SearchRequest{
		IndexName:  s.productsIndex,
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"per_category": {
				AggType: "terms",
				Field:   "category_main",
				Size:    categoryBucketSize,
				SubAggregations: map[string]opensearch.Aggregation{
					"total_skus": {AggType: "value_count", Field: "sku"},
					"with_attr": {
						AggType: "filter",
						Filter:  &opensearch.Filter{FilterType: "exists", Field: attribute},
						SubAggregations: map[string]opensearch.Aggregation{
							"count": {AggType: "value_count", Field: "sku"},
						},
					},
				},
			},
		},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	buckets := result.Aggregations["per_category"].Buckets
	stats := make([]CoverageStat, 0, len(buckets))
	for _, b := range buckets {
		total := b.SubValue("total_skus")
		with := b.Sub("with_attr").Sub("count").ValueOrZero()
		ratio := 0.0
		if total > 0 {
			ratio = with / total
		}
		stats = append(stats, CoverageStat{
			CategoryMain:  b.KeyString(),
			TotalSkus:     int64(total),
			WithAttribute: int64(with),
			CoverageRatio: ratio,
		})
	}
	return stats, nil
}

func (s *service) MissingAttributeFixList(ctx context.Context, attribute, category string, limit int) ([]FixListItem, error) {
	if attribute == "" {
		return nil, errors.InvalidParam("attribute is required")
	}
	if category == "" {
		return nil, errors.InvalidParam("category_main is required")
	}
	if limit < MinFixListSize {
		limit = MinFixListSize
	}
	if limit > MaxFixListSize {
		limit = MaxFixListSize
	}

	req := opensearch.SearchRequest{
		IndexName: s.productsIndex,
		Filters: []opensearch.Filter{
			{FilterType: "term", Field: "category_main", Value: category},
			{FilterType: "missing", Field: attribute},
		},
		Sort: []opensearch.SortField{
			{Field: "price_final", Order: "desc", Missing: "_last"},
			{Field: "sku", Order: "asc"},
		},
		Pagination:     &opensearch.Pagination{Limit: limit},
		SourceIncludes: []string{"sku", "name", "brand", "price_final", "category_main", "image_url"},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	items := make([]FixListItem, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var item FixListItem
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode fix-list document")
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *service) RevenueImportance(ctx context.Context, attribute, category string) (*RevenueSplit, error) {
	if attribute == "" {
		return nil, errors.InvalidParam("attribute is required")
	}
	if category == "" {
		return nil, errors.InvalidParam("category_main is required")
	}

	revenueSum := map[string]opensearch.Aggregation{
		"revenue": {AggType: "sum", Field: "total_revenue"},
	}
	req := opensearch.SearchRequest{
		IndexName:  s.productsIndex,
		Query:      &opensearch.Query{QueryType: "term", Field: "category_main", Value: category},
		Pagination: &opensearch.Pagination{},
		Aggregations: map[string]opensearch.Aggregation{
			"with_attr": {
				AggType:         "filter",
				Filter:          &opensearch.Filter{FilterType: "exists", Field: attribute},
				SubAggregations: revenueSum,
			},
			"without_attr": {
				AggType:         "filter",
				Filter:          &opensearch.Filter{FilterType: "missing", Field: attribute},
				SubAggregations: revenueSum,
			},
		},
	}

	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	with := result.Aggregations["with_attr"].Sub("revenue").ValueOrZero()
	without := result.Aggregations["without_attr"].Sub("revenue").ValueOrZero()
	share := 0.0
	if with+without > 0 {
		share = with / (with + without)
	}
	return &RevenueSplit{
		CategoryMain:   category,
		Attribute:      attribute,
		RevenueWith:    with,
		RevenueWithout: without,
		Share:          share,
	}, nil
}
