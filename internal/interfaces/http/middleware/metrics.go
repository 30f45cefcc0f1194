package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
)

// Metrics records one observation per request: counter, latency histogram
// and response size. The path label uses the route template so that
// /api/products/OJA-123 and /api/products/OJA-456 land in the same series.
func Metrics(metrics *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start),
			size,
		)
	}
}
