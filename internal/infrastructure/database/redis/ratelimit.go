package redis

import (
	"context"
	"time"

	"github.com/vitrina-analytics/catalog-insight/internal/infrastructure/monitoring/logging"
	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

const limiterKeyPrefix = "ratelimit:"

// Decision is the outcome of a rate-limit check for one client key.
type Decision struct {
	// Allowed reports whether the request fits in the current window.
	Allowed bool
	// Limit is the maximum number of requests per window.
	Limit int
	// Remaining is how many requests the key has left in this window.
	Remaining int
	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// FixedWindowLimiter counts requests per client key in fixed windows backed
// by Redis.  The first request of a window creates the counter with INCR and
// arms its expiry; later requests only increment.  Counts above the limit
// are denied until the key expires.
type FixedWindowLimiter struct {
	client *Client
	limit  int
	window time.Duration
	logger logging.Logger
}

// NewFixedWindowLimiter creates a limiter allowing limit requests per key in
// each window.
func NewFixedWindowLimiter(client *Client, limit int, window time.Duration, log logging.Logger) *FixedWindowLimiter {
	if client == nil {
		panic("redis: client must not be nil")
	}
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &FixedWindowLimiter{
		client: client,
		limit:  limit,
		window: window,
		logger: log.Named("ratelimit"),
	}
}

// Allow records one request for key and reports whether it stays within the
// window limit.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) (*Decision, error) {
	counter := limiterKeyPrefix + key

	count, err := l.client.Incr(ctx, counter).Result()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit counter update failed")
	}
	if count == 1 {
		if err := l.client.Expire(ctx, counter, l.window).Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit window expiry failed")
		}
	}

	ttl := l.window
	if count > 1 {
		ttl, err = l.client.TTL(ctx, counter).Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit window lookup failed")
		}
		if ttl < 0 {
			// The counter lost its expiry, for example through a crash
			// between INCR and EXPIRE.  Re-arm it so it cannot live forever.
			ttl = l.window
			if err := l.client.Expire(ctx, counter, l.window).Err(); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit window expiry failed")
			}
		}
	}

	decision := &Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: l.limit - int(count),
		ResetAt:   time.Now().Add(ttl),
	}
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	if !decision.Allowed {
		l.logger.Warn("Rate limit exceeded",
			logging.String("key", key),
			logging.Int64("count", count),
			logging.Int("limit", l.limit),
		)
	}
	return decision, nil
}
