package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/application/catalog"
	domainCatalog "github.com/vitrina-analytics/catalog-insight/internal/domain/catalog"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
	BaseHandler
	catalog catalog.Service
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewProductHandler creates a ProductHandler.  Metrics may be nil.
func NewProductHandler(svc catalog.Service, metrics *prometheus.AppMetrics, logger logging.Logger) *ProductHandler {
	if svc == nil {
		panic("handlers: catalog service must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ProductHandler{catalog: svc, metrics: metrics, logger: logger.Named("handlers")}
}

// Upsert handles POST /api/products.  The body is one product document;
// top-level attr_* keys and the attributes object are explicit overrides
// that win over derived values.
func (h *ProductHandler) Upsert(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.Error(c, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read request body"))
		return
	}

	var product domainCatalog.Product
	if err := json.Unmarshal(body, &product); err != nil {
		h.Error(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid product payload"))
		return
	}

	// The attributes object is not part of the document itself, so it is
	// pulled out of the raw body separately.
	var overrides struct {
		Attributes map[string]any `json:"attributes"`
	}
	if err := json.Unmarshal(body, &overrides); err != nil {
		h.Error(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid product payload"))
		return
	}

	result, err := h.catalog.UpsertProduct(c.Request.Context(), &product, overrides.Attributes)
	if err != nil {
		h.Error(c, err)
		return
	}

	if h.metrics != nil {
		attrs := make([]string, 0, len(result.Attributes))
		for k := range result.Attributes {
			attrs = append(attrs, k)
		}
		h.metrics.RecordExtraction(attrs)
		h.metrics.RecordProductUpserted("api")
	}

	h.OK(c, result)
}

// Get handles GET /api/products/:sku.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("sku"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"sku": product.Sku, "document": product})
}

// DailyStats handles GET /api/stats/daily/:sku.
func (h *ProductHandler) DailyStats(c *gin.Context) {
	size, err := sizeParam(c, catalog.DefaultDailyStatsSize, catalog.MaxDailyStatsSize)
	if err != nil {
		h.Error(c, err)
		return
	}
	dateFrom, err := dateParam(c, "date_from")
	if err != nil {
		h.Error(c, err)
		return
	}
	dateTo, err := dateParam(c, "date_to")
	if err != nil {
		h.Error(c, err)
		return
	}

	sku := c.Param("sku")
	items, err := h.catalog.DailyStats(c.Request.Context(), domainCatalog.DailyStatsQuery{
		SKU:      sku,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Size:     size,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []*domainCatalog.DailyStat{}
	}
	h.OK(c, gin.H{"sku": sku, "items": items})
}
