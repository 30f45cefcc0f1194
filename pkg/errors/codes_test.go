package errors

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode_String(t *testing.T) {
	assert.Equal(t, "COMMON_001", ErrCodeInternal.String())
	assert.Equal(t, "INCIDENT_002", ErrCodeIncidentQuantity.String())
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeProductNotFound, http.StatusNotFound},
		{ErrCodeIncidentQuantity, http.StatusBadRequest},
		{ErrCodeIngestBadHeader, http.StatusUnprocessableEntity},
		{ErrCodeStoreUnavailable, http.StatusServiceUnavailable},
		{ErrorCode("UNKNOWN"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, HTTPStatusForCode(tt.code), "code %s", tt.code)
	}
}

func TestDefaultMessageForCode(t *testing.T) {
	assert.Equal(t, "internal server error", DefaultMessageForCode(ErrCodeInternal))
	assert.Equal(t, "qty_damaged cannot exceed qty_total_in_shipment", DefaultMessageForCode(ErrCodeIncidentQuantity))
	assert.Equal(t, "unknown error", DefaultMessageForCode(ErrorCode("NOPE_999")))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBadRequest))
	assert.True(t, IsClientError(ErrCodeIncidentQuantity))
	assert.False(t, IsClientError(ErrCodeInternal))
	assert.False(t, IsClientError(ErrCodeStoreQuery))
}

func TestIsServerError(t *testing.T) {
	assert.True(t, IsServerError(ErrCodeInternal))
	assert.True(t, IsServerError(ErrCodeStoreDecode))
	assert.False(t, IsServerError(ErrCodeBadRequest))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "COMMON", ModuleForCode(ErrCodeInternal))
	assert.Equal(t, "CATALOG", ModuleForCode(ErrCodeProductNotFound))
	assert.Equal(t, "INCIDENT", ModuleForCode(ErrCodeIncidentQuantity))
	assert.Equal(t, "INGEST", ModuleForCode(ErrCodeIngestNoRows))
	assert.Equal(t, "STORE", ModuleForCode(ErrCodeStoreWrite))
	assert.Equal(t, "UNKNOWN", ModuleForCode(ErrorCode("")))
}

func TestErrorCodeFormat_Convention(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z]+_\d{3}$`)
	for code := range ErrorCodeHTTPStatus {
		assert.Regexp(t, re, string(code))
	}
	for code := range ErrorCodeMessage {
		assert.Regexp(t, re, string(code))
	}
}

func TestErrorCodeMappings_Completeness(t *testing.T) {
	for code := range ErrorCodeHTTPStatus {
		_, hasMessage := ErrorCodeMessage[code]
		assert.True(t, hasMessage, "missing message for %s", code)
	}
	for code := range ErrorCodeMessage {
		_, hasStatus := ErrorCodeHTTPStatus[code]
		assert.True(t, hasStatus, "missing status for %s", code)
	}
}
