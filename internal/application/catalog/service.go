// Package catalog implements product upsert and lookup. An upsert runs
// attribute derivation over the product text, merges caller overrides on
// top, and writes one full document.
package catalog

import (
	"context"
	"strings"
	"time"

	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/mining"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

const (
	// DefaultDailyStatsSize and MaxDailyStatsSize bound daily-stat reads.
	DefaultDailyStatsSize = 90
	MaxDailyStatsSize     = 365
)

// UpsertResult reports one indexed product. Attributes holds the derived
// values merged with the caller's overrides, not the whole document.
type UpsertResult struct {
	Sku        string         `json:"sku"`
	Indexed    bool           `json:"indexed"`
	Attributes map[string]any `json:"attributes"`
	URL        string         `json:"url,omitempty"`
}

// Service exposes the product catalog operations.
type Service interface {
	// UpsertProduct validates, derives attributes, merges overrides
	// (overrides win), stamps updated_at and indexes the full document.
	UpsertProduct(ctx context.Context, p *domainCatalog.Product, overrides map[string]any) (*UpsertResult, error)

	// GetProduct fetches one product by SKU.
	GetProduct(ctx context.Context, sku string) (*domainCatalog.Product, error)

	// DailyStats lists per-day counters for one SKU, newest first.
	DailyStats(ctx context.Context, q domainCatalog.DailyStatsQuery) ([]*domainCatalog.DailyStat, error)
}

// Config carries the catalog service settings.
type Config struct {
	// ProductURLTemplate builds shop URLs from SKUs; `{sku}` is replaced.
	// Empty disables URL generation.
	ProductURLTemplate string
}

type service struct {
	products  domainCatalog.ProductRepository
	stats     domainCatalog.StatsRepository
	extractor *mining.Extractor
	cfg       Config
	logger    logging.Logger
}

// NewService constructs the catalog service.
func NewService(
	products domainCatalog.ProductRepository,
	stats domainCatalog.StatsRepository,
	extractor *mining.Extractor,
	cfg Config,
	logger logging.Logger,
) Service {
	if products == nil {
		panic("catalog: product repository must not be nil")
	}
	if stats == nil {
		panic("catalog: stats repository must not be nil")
	}
	if extractor == nil {
		panic("catalog: extractor must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &service{
		products:  products,
		stats:     stats,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger.Named("catalog"),
	}
}

func (s *service) UpsertProduct(ctx context.Context, p *domainCatalog.Product, overrides map[string]any) (*UpsertResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	description := p.DescriptionHTML
	if description == "" {
		description = p.DescriptionShort
	}
	attrs := s.extractor.Extract(p.Name, description)

	for key, value := range overrides {
		if value == nil {
			continue
		}
		if !mining.IsKnownAttribute(key) {
			return nil, errors.Newf(errors.ErrCodeAttributeInvalid, "unknown attribute %s", key)
		}
		attrs[key] = value
	}

	if p.Attributes == nil {
		p.Attributes = make(map[string]any, len(attrs))
	}
	for key, value := range attrs {
		p.Attributes[key] = value
	}
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := s.products.Index(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info("product indexed",
		logging.String("sku", p.Sku),
		logging.Int("attributes", len(attrs)))

	return &UpsertResult{
		Sku:        p.Sku,
		Indexed:    true,
		Attributes: attrs,
		URL:        s.productURL(p.Sku),
	}, nil
}

func (s *service) GetProduct(ctx context.Context, sku string) (*domainCatalog.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, errors.InvalidParam("sku is required")
	}
	return s.products.GetBySKU(ctx, sku)
}

func (s *service) DailyStats(ctx context.Context, q domainCatalog.DailyStatsQuery) ([]*domainCatalog.DailyStat, error) {
	if strings.TrimSpace(q.SKU) == "" {
		return nil, errors.InvalidParam("sku is required")
	}
	if q.Size <= 0 {
		q.Size = DefaultDailyStatsSize
	}
	if q.Size > MaxDailyStatsSize {
		q.Size = MaxDailyStatsSize
	}
	return s.stats.ListBySKU(ctx, q)
}

func (s *service) productURL(sku string) string {
	if s.cfg.ProductURLTemplate == "" || sku == "" {
		return ""
	}
	return strings.ReplaceAll(s.cfg.ProductURLTemplate, "{sku}", sku)
}
