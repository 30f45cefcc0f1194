// Package quality runs data sanity checks and sampling audits over the
// stored documents: incidents that slipped past validation, critical
// fields that are missing, and spot checks of derived attributes.
package quality

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	domainIncident "github.com/vitrina-analytics/catalog-insight/internal/domain/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/search/opensearch"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

const (
	offendingSampleSize = 50
	coverageTopSize     = 5

	// DefaultSampleSize is the per-category audit sample.
	DefaultSampleSize = 5

	quantityInvariantScript = "doc.containsKey('qty_damaged') && doc.containsKey('qty_total_in_shipment') " +
		"&& doc['qty_total_in_shipment'].value > 0 " +
		"&& doc['qty_damaged'].value > doc['qty_total_in_shipment'].value"
)

// CriticalIncidentFields are the incident fields every stored document
// should carry.
var CriticalIncidentFields = []string{"supplier_id", "sku", "date_reported", "product_type"}

// RequiredProductFields are the product fields checked for missing values.
var RequiredProductFields = []string{"brand", "category_main", "price_final"}

// PrincipalAttributes are the derived fields whose coverage the product
// report summarizes.
var PrincipalAttributes = []string{
	mining.AttrVolumeML,
	mining.AttrShadeCode,
	mining.AttrFinish,
	mining.AttrGrit,
	mining.AttrLiquidType,
}

// DefaultAuditCategories are sampled when the caller names none.
var DefaultAuditCategories = []string{"Manichiura", "Pedichiura", "Gel Polish"}

var usualGrits = map[string]bool{
	"80/80":   true,
	"100/180": true,
	"150/180": true,
	"180/240": true,
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// FieldCount pairs a field name with the number of documents missing it.
type FieldCount struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}

// IncidentReport summarizes the incident sanity checks.
type IncidentReport struct {
	Offending     []*domainIncident.Record `json:"offending"`
	MissingFields []FieldCount             `json:"missing_fields"`
	Clean         bool                     `json:"clean"`
}

// FieldRatio pairs a field name with the share of documents missing it.
type FieldRatio struct {
	Field        string  `json:"field"`
	MissingRatio float64 `json:"missing_ratio"`
}

// AttributeCoverage lists the best-covered categories for one attribute.
type AttributeCoverage struct {
	Attribute string                   `json:"attribute"`
	Top       []analytics.CoverageStat `json:"top"`
}

// ProductReport summarizes the product quality checks.
type ProductReport struct {
	TotalDocuments int64               `json:"total_documents"`
	MissingFields  []FieldRatio        `json:"missing_fields"`
	Coverage       []AttributeCoverage `json:"coverage"`
}

// AuditItem is one sampled product with its derived attributes and any
// heuristic flags.
type AuditItem struct {
	Sku        string         `json:"sku"`
	Name       string         `json:"name,omitempty"`
	Brand      string         `json:"brand,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Flags      []string       `json:"flags,omitempty"`
}

// CategorySample is the audit sample of one category.
type CategorySample struct {
	Category string      `json:"category"`
	Items    []AuditItem `json:"items"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service exposes the quality checks.
type Service interface {
	// ValidateIncidents finds stored incidents violating the quantity
	// invariant and counts documents missing critical fields.
	ValidateIncidents(ctx context.Context) (*IncidentReport, error)

	// ValidateProducts reports missing required fields and attribute
	// coverage over the product index.
	ValidateProducts(ctx context.Context) (*ProductReport, error)

	// Audit draws a seeded random sample per category and flags
	// implausible attribute values.
	Audit(ctx context.Context, categories []string, sampleSize int) ([]CategorySample, error)
}

type service struct {
	searcher       *opensearch.Searcher
	kpis           analytics.Service
	incidentsIndex string
	productsIndex  string
	logger         logging.Logger
}

// Config carries the index names the checks run against.
type Config struct {
	IncidentsIndex string
	ProductsIndex  string
}

// NewService constructs the quality service.
func NewService(searcher *opensearch.Searcher, kpis analytics.Service, cfg Config, logger logging.Logger) Service {
	if searcher == nil {
		panic("quality: searcher must not be nil")
	}
	if kpis == nil {
		panic("quality: analytics service must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		searcher:       searcher,
		kpis:           kpis,
		incidentsIndex: cfg.IncidentsIndex,
		productsIndex:  cfg.ProductsIndex,
		logger:         logger.Named("quality"),
	}
}

func (s *service) ValidateIncidents(ctx context.Context) (*IncidentReport, error) {
	req := opensearch.SearchRequest{
		IndexName:  s.incidentsIndex,
		Query:      &opensearch.Query{QueryType: "script", Value: quantityInvariantScript},
		Pagination: &opensearch.Pagination{Limit: offendingSampleSize},
	}
	result, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	offending := make([]*domainIncident.Record, 0, len(result.Hits))
	for _, hit := range result.Hits {
		var rec domainIncident.Record
		if err := json.Unmarshal(hit.Source, &rec); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode incident document")
		}
		if rec.IncidentID == "" {
			rec.IncidentID = hit.ID
		}
		offending = append(offending, &rec)
	}

	missing := make([]FieldCount, 0, len(CriticalIncidentFields))
	var totalMissing int64
	for _, field := range CriticalIncidentFields {
		count, err := s.searcher.Count(ctx, s.incidentsIndex, nil, []opensearch.Filter{
			{FilterType: "missing", Field: field},
		})
		if err != nil {
			return nil, err
		}
		missing = append(missing, FieldCount{Field: field, Count: count})
		totalMissing += count
	}

	report := &IncidentReport{
		Offending:     offending,
		MissingFields: missing,
		Clean:         len(offending) == 0 && totalMissing == 0,
	}
	s.logger.Info("incident validation finished",
		logging.Int("offending", len(offending)),
		logging.Int64("missing_fields", totalMissing))
	return report, nil
}

func (s *service) ValidateProducts(ctx context.Context) (*ProductReport, error) {
	total, err := s.searcher.Count(ctx, s.productsIndex, nil, nil)
	if err != nil {
		return nil, err
	}

	ratios := make([]FieldRatio, 0, len(RequiredProductFields))
	for _, field := range RequiredProductFields {
		ratio := 0.0
		if total > 0 {
			count, err := s.searcher.Count(ctx, s.productsIndex, nil, []opensearch.Filter{
				{FilterType: "missing", Field: field},
			})
			if err != nil {
				return nil, err
			}
			ratio = float64(count) / float64(total)
		}
		ratios = append(ratios, FieldRatio{Field: field, MissingRatio: ratio})
	}

	coverage := make([]AttributeCoverage, 0, len(PrincipalAttributes))
	for _, attr := range PrincipalAttributes {
		stats, err := s.kpis.AttributeCoverageByCategory(ctx, attr)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].CoverageRatio > stats[j].CoverageRatio
		})
		if len(stats) > coverageTopSize {
			stats = stats[:coverageTopSize]
		}
		coverage = append(coverage, AttributeCoverage{Attribute: attr, Top: stats})
	}

	return &ProductReport{
		TotalDocuments: total,
		MissingFields:  ratios,
		Coverage:       coverage,
	}, nil
}

func (s *service) Audit(ctx context.Context, categories []string, sampleSize int) ([]CategorySample, error) {
	if len(categories) == 0 {
		categories = DefaultAuditCategories
	}
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	seed := time.Now().UTC().Unix()

	sourceFields := append([]string{"sku", "name", "brand"}, PrincipalAttributes...)

	samples := make([]CategorySample, 0, len(categories))
	for _, category := range categories {
		hits, err := s.searcher.RandomSample(ctx, s.productsIndex, sampleSize, seed,
			[]opensearch.Filter{{FilterType: "term", Field: "category_main", Value: category}},
			sourceFields)
		if err != nil {
			return nil, err
		}

		items := make([]AuditItem, 0, len(hits))
		for _, hit := range hits {
			var p domainCatalog.Product
			if err := json.Unmarshal(hit.Source, &p); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeStoreDecode, "failed to decode sampled product")
			}
			items = append(items, AuditItem{
				Sku:        p.Sku,
				Name:       p.Name,
				Brand:      p.Brand,
				Attributes: p.Attributes,
				Flags:      flagAttributes(p.Attributes),
			})
		}
		samples = append(samples, CategorySample{Category: category, Items: items})
	}
	return samples, nil
}

// flagAttributes applies the plausibility heuristics to one sampled
// document.
func flagAttributes(attrs map[string]any) []string {
	var flags []string
	if v, ok := attrs[mining.AttrVolumeML].(float64); ok {
		if v == 0 {
			flags = append(flags, "volum 0 ml")
		} else if v > 200 {
			flags = append(flags, "volum > 200 ml")
		}
	}
	if g, ok := attrs[mining.AttrGrit].(string); ok && g != "" && !usualGrits[g] {
		flags = append(flags, "grit neuzual")
	}
	return flags
}
