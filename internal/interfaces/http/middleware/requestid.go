// Package middleware provides the gin middleware chain for the HTTP API:
// request identification, structured request logging, panic recovery, metrics
// and the Redis-backed rate limit.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header carrying the request id in and out.
const RequestIDHeader = "X-Request-ID"

// requestIDKey is the gin context key the id is stored under.
const requestIDKey = "request_id"

// RequestID reuses the caller's X-Request-ID or assigns a fresh one, and
// echoes it on the response so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
