// Package http assembles the catalog-insight HTTP surface: the gin route
// tree, the middleware chain and the server lifecycle around them.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/internal/interfaces/http/handlers"
	"github.com/vitrina-analytics/catalog-insight/internal/interfaces/http/middleware"
)

const defaultMetricsPath = "/metrics"

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.  Nil handlers leave their
// routes unregistered, which keeps partial wiring (tests, tools) cheap.
type RouterConfig struct {
	// Handlers
	ProductHandler   *handlers.ProductHandler
	IncidentHandler  *handlers.IncidentHandler
	AnalyticsHandler *handlers.AnalyticsHandler
	HealthHandler    *handlers.HealthHandler

	// RateLimiter guards the API routes when set.
	RateLimiter middleware.Limiter

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector

	// MetricsPath is where the exposition is mounted.  Empty means
	// /metrics.
	MetricsPath string

	// Mode is the gin mode: "debug", "release" or "test".  Empty means
	// release.
	Mode string
}

// NewRouter constructs the complete HTTP route tree from the given
// configuration: global middleware, the public probe endpoints, the
// Prometheus exposition and the /api resource groups.
func NewRouter(cfg RouterConfig) http.Handler {
	mode := cfg.Mode
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = defaultMetricsPath
	}

	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger, middleware.DefaultLoggingConfig()))
	r.Use(middleware.Recovery(logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		// Probes and scrapes never compete with API traffic for the budget.
		unthrottled := []string{"/healthz", "/readyz", metricsPath}
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.Metrics, logger, unthrottled))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsCollector != nil {
		r.GET(metricsPath, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api")
	registerProductRoutes(api, cfg.ProductHandler, cfg.AnalyticsHandler)
	registerIncidentRoutes(api, cfg.IncidentHandler, cfg.AnalyticsHandler)
	registerStatsRoutes(api, cfg.ProductHandler)

	return r
}

// registerProductRoutes mounts the catalog and attribute-quality endpoints
// under /api/products.  The static paths win over :sku on lookup.
func registerProductRoutes(api *gin.RouterGroup, products *handlers.ProductHandler, analytics *handlers.AnalyticsHandler) {
	if products != nil {
		api.POST("/products", products.Upsert)
		api.GET("/products/:sku", products.Get)
	}
	if analytics != nil {
		api.GET("/products/missing-attributes", analytics.MissingAttributes)
		api.GET("/products/attribute-coverage", analytics.AttributeCoverage)
		api.GET("/products/revenue-importance", analytics.RevenueImportance)
	}
}

// registerIncidentRoutes mounts incident intake, listing and the KPI
// endpoints under /api/incidents.
func registerIncidentRoutes(api *gin.RouterGroup, incidents *handlers.IncidentHandler, analytics *handlers.AnalyticsHandler) {
	if incidents != nil {
		api.POST("/incidents", incidents.Create)
		api.GET("/incidents", incidents.List)
	}
	if analytics != nil {
		api.GET("/incidents/kpis", analytics.SupplierKPIs)
		api.GET("/incidents/kpis/by-type", analytics.SupplierKPIsByType)
		api.GET("/incidents/kpis/:supplier_id/monthly", analytics.MonthlyKPIs)
		api.GET("/incidents/summary/damage-types", analytics.DamageTypeSummary)
	}
}

// registerStatsRoutes mounts the per-SKU daily counters under /api/stats.
func registerStatsRoutes(api *gin.RouterGroup, products *handlers.ProductHandler) {
	if products == nil {
		return
	}
	api.GET("/stats/daily/:sku", products.DailyStats)
}
