package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestRecovery_ConvertsPanicToInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger, recorded := observedLogger()
	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/panic", func(c *gin.Context) {
		panic("lost the plot")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "COMMON_001", body["code"])
	assert.Equal(t, "internal server error", body["message"])

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "Handler panicked", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "lost the plot", fields["panic"])
	assert.NotEmpty(t, fields["stack"])
}

func TestRecovery_PassesThroughNormalRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	logger, recorded := observedLogger()
	router := gin.New()
	router.Use(Recovery(logger))
	router.GET("/fine", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "fine"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fine", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, recorded.Len())
}
