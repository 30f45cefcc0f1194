package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// The prefix names the owning module (COMMON, CATALOG, INCIDENT, INGEST,
// STORE) and the numeric suffix is stable: clients branch on codes, so
// they are never renumbered.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_012"
	ErrCodeExternalService    ErrorCode = "COMMON_013"
)

// Catalog Module Error Codes
const (
	ErrCodeProductNotFound  ErrorCode = "CATALOG_001"
	ErrCodeProductInvalid   ErrorCode = "CATALOG_002"
	ErrCodeAttributeInvalid ErrorCode = "CATALOG_003"
)

// Incident Module Error Codes
const (
	ErrCodeIncidentNotFound     ErrorCode = "INCIDENT_001"
	ErrCodeIncidentQuantity     ErrorCode = "INCIDENT_002"
	ErrCodeIncidentMissingField ErrorCode = "INCIDENT_003"
)

// Ingest Module Error Codes
const (
	ErrCodeIngestBadHeader ErrorCode = "INGEST_001"
	ErrCodeIngestNoRows    ErrorCode = "INGEST_002"
	ErrCodeIngestSource    ErrorCode = "INGEST_003"
)

// Store Error Codes (document store boundary)
const (
	ErrCodeStoreUnavailable ErrorCode = "STORE_001"
	ErrCodeStoreQuery       ErrorCode = "STORE_002"
	ErrCodeStoreWrite       ErrorCode = "STORE_003"
	ErrCodeStoreDecode      ErrorCode = "STORE_004"
)

// Short aliases used by the convenience constructors.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeInvalidState = ErrCodeConflict
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeTimeout      = ErrCodeTimeout
	CodeUnavailable  = ErrCodeServiceUnavailable
	CodeValidation   = ErrCodeValidation
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")

	// Domain specific aliases
	CodeProductNotFound  = ErrCodeProductNotFound
	CodeIncidentQuantity = ErrCodeIncidentQuantity
	CodeStoreQuery       = ErrCodeStoreQuery
	CodeStoreWrite       = ErrCodeStoreWrite
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,

	ErrCodeProductNotFound:  http.StatusNotFound,
	ErrCodeProductInvalid:   http.StatusUnprocessableEntity,
	ErrCodeAttributeInvalid: http.StatusBadRequest,

	ErrCodeIncidentNotFound:     http.StatusNotFound,
	ErrCodeIncidentQuantity:     http.StatusBadRequest,
	ErrCodeIncidentMissingField: http.StatusUnprocessableEntity,

	ErrCodeIngestBadHeader: http.StatusUnprocessableEntity,
	ErrCodeIngestNoRows:    http.StatusUnprocessableEntity,
	ErrCodeIngestSource:    http.StatusBadRequest,

	ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	ErrCodeStoreQuery:       http.StatusInternalServerError,
	ErrCodeStoreWrite:       http.StatusInternalServerError,
	ErrCodeStoreDecode:      http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timed out",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache operation failed",
	ErrCodeExternalService:    "external service error",

	ErrCodeProductNotFound:  "product not found",
	ErrCodeProductInvalid:   "product document is invalid",
	ErrCodeAttributeInvalid: "attribute name is invalid",

	ErrCodeIncidentNotFound:     "incident not found",
	ErrCodeIncidentQuantity:     "qty_damaged cannot exceed qty_total_in_shipment",
	ErrCodeIncidentMissingField: "incident is missing a required field",

	ErrCodeIngestBadHeader: "import file header does not match the expected layout",
	ErrCodeIngestNoRows:    "import file produced no valid rows",
	ErrCodeIngestSource:    "import source could not be read",

	ErrCodeStoreUnavailable: "document store unavailable",
	ErrCodeStoreQuery:       "document store query failed",
	ErrCodeStoreWrite:       "document store write failed",
	ErrCodeStoreDecode:      "document store response could not be decoded",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
// Unknown codes map to 500.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError reports whether the code maps to a 4xx status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError reports whether the code maps to a 5xx status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}

// ModuleForCode extracts the module prefix from an ErrorCode,
// e.g. "CATALOG" from "CATALOG_001". Returns "UNKNOWN" for codes
// without a prefix.
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	idx := strings.LastIndex(s, "_")
	if idx <= 0 {
		return "UNKNOWN"
	}
	return s[:idx]
}
