// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides the request ID injector, the request-scoped logger, a
// development access log and a panic-safe recovery handler. Install them as
// RequestID, Caller, Logger (or RedactingLogger), Recovery so the scoped
// logger already carries request_id, tier and user_id.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 2048
	maxRequestIDLen   = 128
)

// RequestID reuses a well-formed inbound X-Request-ID or generates a UUIDv4,
// stores it in the Gin context and echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// validRequestID rejects ids that would bloat or corrupt log lines.
func validRequestID(s string) bool {
	if s == "" || len(s) > maxRequestIDLen {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == '"' {
			return false
		}
	}
	return true
}

// RequestIDFrom returns the id set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// attachLogger builds the request-scoped logger and stores it in both the Gin
// context and the request context.
func attachLogger(c *gin.Context) zerolog.Logger {
	lc := log.With()
	if rid := RequestIDFrom(c); rid != "" {
		lc = lc.Str("request_id", rid)
	}
	if caller, ok := CallerFrom(c); ok {
		lc = lc.Str("tier", string(caller.Tier))
		if caller.UserID != "" {
			lc = lc.Str("user_id", caller.UserID)
		}
	}
	l := lc.Logger()
	c.Set(loggerKey, &l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
	return l
}

// levelFor picks the access-log level: error for 5xx or collected Gin
// errors, warn for 4xx, info otherwise.
func levelFor(c *gin.Context) zerolog.Level {
	switch status := c.Writer.Status(); {
	case status >= 500 || len(c.Errors) > 0:
		return zerolog.ErrorLevel
	case status >= 400:
		return zerolog.WarnLevel
	}
	return zerolog.InfoLevel
}

// routePath is the matched route pattern, or the raw path for 404s.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}

// Logger is the verbose development access log. It logs the raw query and
// client details; production uses RedactingLogger.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := routePath(c)
		l := attachLogger(c)

		c.Next()

		ev := l.WithLevel(levelFor(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", c.Writer.Status()).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start))
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Msg("request")
	}
}

// Recovery turns a panic into a logged stack trace and, when nothing was
// written yet, a JSON 500 carrying the request ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			rid := RequestIDFrom(c)
			ev := LoggerFrom(c).Error()
			if _, scoped := c.Get(loggerKey); !scoped {
				ev = ev.Str("request_id", rid)
			}
			ev.Interface("panic", rec).Bytes("stack", debug.Stack()).Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"request_id": rid,
				"code":       "internal_error",
				"message":    "internal server error",
			})
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or the global
// logger when none was attached.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if lg, ok := c.Value(loggerKey).(*zerolog.Logger); ok {
		return lg
	}
	l := log.With().Logger()
	return &l
}

// truncate caps s at max bytes and appends an ellipsis. A max <= 0 disables
// truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
