package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/application/analytics"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
)

// AnalyticsHandler serves the supplier KPI and attribute-quality endpoints.
type AnalyticsHandler struct {
	BaseHandler
	kpis   analytics.Service
	logger logging.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc analytics.Service, logger logging.Logger) *AnalyticsHandler {
	if svc == nil {
		panic("handlers: analytics service must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AnalyticsHandler{kpis: svc, logger: logger.Named("handlers")}
}

// SupplierKPIs handles GET /api/incidents/kpis.
func (h *AnalyticsHandler) SupplierKPIs(c *gin.Context) {
	items, err := h.kpis.DamageRatePerSupplier(c.Request.Context(), c.Query("product_type"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.SupplierKPI{}
	}
	h.OK(c, gin.H{"items": items})
}

// SupplierKPIsByType handles GET /api/incidents/kpis/by-type.
func (h *AnalyticsHandler) SupplierKPIsByType(c *gin.Context) {
	items, err := h.kpis.DamageRatePerSupplierAndType(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.SupplierKPI{}
	}
	h.OK(c, items)
}

// MonthlyKPIs handles GET /api/incidents/kpis/:supplier_id/monthly.
func (h *AnalyticsHandler) MonthlyKPIs(c *gin.Context) {
	supplierID := c.Param("supplier_id")
	items, err := h.kpis.MonthlyDamageRate(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.MonthlyPoint{}
	}
	h.OK(c, gin.H{"supplier_id": supplierID, "items": items})
}

// DamageTypeSummary handles GET /api/incidents/summary/damage-types.
func (h *AnalyticsHandler) DamageTypeSummary(c *gin.Context) {
	items, err := h.kpis.DamageTypeDistribution(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.SupplierDamageTypes{}
	}
	h.OK(c, items)
}

// AttributeCoverage handles GET /api/products/attribute-coverage.
func (h *AnalyticsHandler) AttributeCoverage(c *gin.Context) {
	attribute, err := requiredParam(c, "attribute", 3)
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.kpis.AttributeCoverageByCategory(c.Request.Context(), attribute)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.CoverageStat{}
	}
	h.OK(c, gin.H{"attribute": attribute, "items": items})
}

// MissingAttributes handles GET /api/products/missing-attributes.
func (h *AnalyticsHandler) MissingAttributes(c *gin.Context) {
	attribute, err := requiredParam(c, "attribute", 3)
	if err != nil {
		h.Error(c, err)
		return
	}
	category, err := requiredParam(c, "category_main", 2)
	if err != nil {
		h.Error(c, err)
		return
	}
	size, err := sizeParam(c, 50, analytics.MaxFixListSize)
	if err != nil {
		h.Error(c, err)
		return
	}

	items, err := h.kpis.MissingAttributeFixList(c.Request.Context(), attribute, category, size)
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []analytics.FixListItem{}
	}
	h.OK(c, gin.H{
		"attribute":     attribute,
		"category_main": category,
		"size":          size,
		"items":         items,
	})
}

// RevenueImportance handles GET /api/products/revenue-importance.
func (h *AnalyticsHandler) RevenueImportance(c *gin.Context) {
	attribute, err := requiredParam(c, "attribute", 3)
	if err != nil {
		h.Error(c, err)
		return
	}
	category, err := requiredParam(c, "category_main", 2)
	if err != nil {
		h.Error(c, err)
		return
	}

	split, err := h.kpis.RevenueImportance(c.Request.Context(), attribute, category)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, split)
}
