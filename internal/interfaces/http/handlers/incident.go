package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/application/incident"
	domainIncident "github.com/vitrina-analytics/catalog-insight/internal/domain/incident"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// IncidentHandler serves shipment-damage incident intake and listing.
type IncidentHandler struct {
	BaseHandler
	incidents incident.Service
	metrics   *prometheus.AppMetrics
	logger    logging.Logger
}

// NewIncidentHandler creates an IncidentHandler.  Metrics may be nil.
func NewIncidentHandler(svc incident.Service, metrics *prometheus.AppMetrics, logger logging.Logger) *IncidentHandler {
	if svc == nil {
		panic("handlers: incident service must not be nil")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &IncidentHandler{incidents: svc, metrics: metrics, logger: logger.Named("handlers")}
}

// Create handles POST /api/incidents.  damage_type accepts either a string
// or a list of strings; a missing incident_id is generated.
func (h *IncidentHandler) Create(c *gin.Context) {
	var rec domainIncident.Record
	if err := c.ShouldBindJSON(&rec); err != nil {
		if h.metrics != nil {
			h.metrics.RecordIncidentRejected("invalid_body")
		}
		h.Error(c, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid incident payload"))
		return
	}

	result, err := h.incidents.Create(c.Request.Context(), &rec)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordIncidentRejected(errors.GetCode(err).String())
		}
		h.Error(c, err)
		return
	}

	if h.metrics != nil {
		damageType := ""
		if len(rec.DamageType) > 0 {
			damageType = rec.DamageType[0]
		}
		h.metrics.RecordIncidentCreated(damageType)
	}

	h.Created(c, result)
}

// List handles GET /api/incidents.
func (h *IncidentHandler) List(c *gin.Context) {
	size, err := sizeParam(c, incident.DefaultListSize, incident.MaxListSize)
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

	recs, err := h.incidents.List(c.Request.Context(), domainIncident.ListQuery{
		SupplierID:  c.Query("supplier_id"),
		Sku:         c.Query("sku"),
		ProductType: c.Query("product_type"),
		DateFrom:    dateFrom,
		DateTo:      dateTo,
		Size:        size,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]gin.H, 0, len(recs))
	for _, rec := range recs {
		items = append(items, gin.H{"incident_id": rec.IncidentID, "document": rec})
	}
	h.OK(c, items)
}
