package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/database/redis"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/prometheus"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// Limiter decides whether the request identified by key may proceed.
// *redis.FixedWindowLimiter satisfies it.
type Limiter interface {
	Allow(ctx context.Context, key string) (*redis.Decision, error)
}

// RateLimit enforces a per-client-IP request budget. Every decided request
// carries X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset;
// a rejected one additionally gets Retry-After and a 429 envelope.
//
// When the limiter itself fails the request passes through without headers.
// Losing rate limiting for a moment is cheaper than serving errors because
// Redis restarted.
func RateLimit(limiter Limiter, metrics *prometheus.AppMetrics, logger logging.Logger, skipPaths []string) gin.HandlerFunc {
	logger = logger.Named("http")

	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		key := c.ClientIP()

		decision, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable, allowing request",
				logging.String("client_ip", key),
				logging.Err(err),
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.ResetAt).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			if metrics != nil {
				path := c.FullPath()
				if path == "" {
					path = c.Request.URL.Path
				}
				metrics.RecordRateLimitRejected(path)
			}

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    errors.ErrCodeTooManyRequests.String(),
				"message": "rate limit exceeded, please retry later",
			})
			return
		}

		c.Next()
	}
}
