// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers shared by every endpoint: the error
// envelope, the mapping from service errors to statuses, and the rendering
// of tier-gate denials.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "invalid_id",
//	  "message": "invalid bioguide id"
//	}
package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/http/middleware"
	"github.com/tbourn/civics-backend/internal/services"
	"github.com/tbourn/civics-backend/internal/upstream"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"official not found"`
}

// DenialResponse is returned for tier-gate refusals (401/403). Feature names
// the gated feature so clients can render an upgrade prompt.
type DenialResponse struct {
	RequestID string `json:"request_id,omitempty"`
	Code      string `json:"code" example:"forbidden"`
	Feature   string `json:"feature" example:"finance.summary"`
	Message   string `json:"message" example:"This feature requires a premium subscription"`
}

// fail aborts the request with a structured error. Server errors (>=500) are
// logged on the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail is the exported variant of fail() for the router's NoRoute/NoMethod
// handlers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, body any) {
	c.JSON(http.StatusOK, body)
}

// deny renders an access.Denial. Unknown features (404) are a wiring bug,
// not a caller error, so they are logged.
func deny(c *gin.Context, d *access.Denial) {
	code := ErrCodeForbidden
	switch d.Status {
	case http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case http.StatusNotFound:
		code = ErrCodeNotFound
		middleware.LoggerFrom(c).Error().Str("feature", d.Feature).Msg("route gated on unknown feature")
	}
	c.AbortWithStatusJSON(d.Status, DenialResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Feature:   d.Feature,
		Message:   d.Message,
	})
}

// serviceError maps an orchestrator error to a response. upstreamStatus is
// what a failed load-bearing fetch becomes on this route. Raw upstream
// details are logged, never returned.
func serviceError(c *gin.Context, err error, upstreamStatus int) {
	_ = c.Error(err)

	var circuit *upstream.CircuitOpenError
	switch {
	case errors.Is(err, services.ErrInvalidID):
		fail(c, http.StatusBadRequest, ErrCodeInvalidID, "invalid bioguide id")
	case errors.Is(err, services.ErrInvalidZip):
		fail(c, http.StatusBadRequest, ErrCodeInvalidZip, "invalid zip code")
	case errors.Is(err, services.ErrStateUnresolved):
		fail(c, http.StatusBadRequest, ErrCodeInvalidZip, services.ErrStateUnresolved.Error())
	case errors.Is(err, services.ErrSameOfficial):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrSameOfficial.Error())
	case errors.Is(err, services.ErrUnknownIssue):
		fail(c, http.StatusBadRequest, ErrCodeUnknownIssue, "unknown issue")
	case errors.Is(err, services.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "official not found")
	case errors.As(err, &circuit):
		secs := int(math.Ceil(time.Until(circuit.Until).Seconds()))
		c.Header("Retry-After", strconv.Itoa(max(secs, 1)))
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "a data provider is temporarily unavailable")
	case errors.Is(err, services.ErrUpstream):
		middleware.LoggerFrom(c).Warn().Err(err).Msg("upstream failure")
		fail(c, upstreamStatus, ErrCodeUpstreamFailed, "failed to fetch data from upstream providers")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}
