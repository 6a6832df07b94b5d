// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the production access log. It never
// logs bodies. Credential headers and credential query parameters are
// masked, and emails, phone numbers and UUIDs are scrubbed from whatever
// remains of the query string and headers.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-API-Key"},
//	}))
//
// Like Logger(), it attaches the request-scoped logger (request_id, tier,
// user_id) to the request context before the handler runs.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders names extra headers whose values are replaced with
// "[REDACTED]". Matching is case-insensitive and merged with the built-in
// set (Authorization, Cookie, Set-Cookie).
type RedactOptions struct {
	MaskHeaders []string
}

// UUIDs go first so the loose phone pattern cannot eat their digit groups.
var (
	secretParamRE = regexp.MustCompile(`(?i)(^|&)(api_key|apikey|key|token|access_token)=[^&]*`)
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// redactQuery masks credential parameters, then scrubs PII from the rest.
func redactQuery(raw string) string {
	return redactPII(secretParamRE.ReplaceAllString(raw, "${1}${2}=[REDACTED]"))
}

func redactPII(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

type headerScrubber map[string]struct{}

func newHeaderScrubber(extra []string) headerScrubber {
	hs := headerScrubber{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hs[h] = struct{}{}
		}
	}
	return hs
}

func (hs headerScrubber) scrub(h map[string][]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, masked := hs[strings.ToLower(k)]; masked {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = redactPII(strings.Join(vv, ", "))
	}
	return out
}

// RedactingLogger returns a Gin middleware that emits one "http_request"
// line per request at info, warn (4xx) or error (5xx) level.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	scrubber := newHeaderScrubber(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()
		path := routePath(c)
		query := redactQuery(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := scrubber.scrub(c.Request.Header)
		l := attachLogger(c)

		c.Next()

		ev := l.WithLevel(levelFor(c))
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		// Without RequestID() installed the scoped logger has no id; take
		// whatever an upstream hop put on the response or the request.
		if RequestIDFrom(c) == "" {
			rid := c.Writer.Header().Get(requestIDHeader)
			if rid == "" {
				rid = c.GetHeader(requestIDHeader)
			}
			ev = ev.Str("request_id", rid)
		}
		ev.Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
