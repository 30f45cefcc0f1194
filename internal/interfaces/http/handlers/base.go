// Package handlers contains the gin handlers for the catalog-insight HTTP
// API.  Handlers bind and validate request input, call the application
// services and write the shared response envelope; everything heavier lives
// below the service interfaces.
package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vitrina-analytics/catalog-insight/pkg/errors"
)

// Response is the envelope every endpoint writes.  Code is "OK" on success
// and the application error code otherwise; Data is omitted when empty.
type Response struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler provides the response helpers shared by all handlers.
type BaseHandler struct{}

// OK writes a 200 envelope around data.
func (h *BaseHandler) OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: "OK", Message: "success", Data: data})
}

// Created writes a 201 envelope around data.
func (h *BaseHandler) Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: "OK", Message: "created", Data: data})
}

// Error writes the envelope for err with the status mapped from its code.
// Client errors keep their application message; server errors are masked
// with the code's default message, and the original error is attached to
// the gin context so the request logger records the real cause.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := errors.DefaultMessageForCode(code)
	if status < http.StatusInternalServerError {
		if ae, ok := errors.FromError(err); ok {
			message = ae.Message
		}
	} else {
		_ = c.Error(err)
	}

	c.JSON(status, Response{Code: code.String(), Message: message})
}

// sizeParam reads the size query parameter, returning def when absent.
// Values that are not integers or fall outside [1, max] are rejected.
func sizeParam(c *gin.Context, def, max int) (int, error) {
	raw := c.Query("size")
	if raw == "" {
		return def, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(errors.ErrCodeValidation, "size must be an integer")
	}
	if size < 1 || size > max {
		return 0, errors.Newf(errors.ErrCodeValidation, "size must be between 1 and %d", max)
	}
	return size, nil
}

// dateParam reads an optional date query parameter in YYYY-MM-DD form.
// An empty parameter returns "" without error.
func dateParam(c *gin.Context, name string) (string, error) {
	raw := c.Query(name)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", errors.Newf(errors.ErrCodeValidation, "%s must be a date in YYYY-MM-DD form", name)
	}
	return raw, nil
}

// requiredParam reads a mandatory query parameter of at least minLen
// characters.
func requiredParam(c *gin.Context, name string, minLen int) (string, error) {
	v := strings.TrimSpace(c.Query(name))
	if len(v) < minLen {
		return "", errors.Newf(errors.ErrCodeValidation, "%s is required and must be at least %d characters", name, minLen)
	}
	return v, nil
}
