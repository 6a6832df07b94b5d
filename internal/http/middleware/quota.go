// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file enforces the per-tier request budget (requests per minute and
// per day) on top of the edge token bucket in ratelimit.go. Where the edge
// limiter only protects the process, Quota is the product-level budget each
// tier pays for, and it tells the client about it through headers:
//
//	X-RateLimit-Limit:     budget of the deciding window
//	X-RateLimit-Remaining: requests left in the minute window
//	Retry-After:           seconds until the exhausted window resets (429 only)
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
)

// QuotaKey returns the identity a request is counted against: the user id
// when the auth proxy supplied one, else the client IP. The IP comes from
// c.ClientIP, so X-Forwarded-For is only read through the engine's trusted
// proxies and a client cannot pick its own key by rotating the header.
func QuotaKey(c *gin.Context) string {
	if caller, ok := CallerFrom(c); ok && caller.UserID != "" {
		return "user:" + caller.UserID
	}
	return "ip:" + c.ClientIP()
}

// Quota returns a middleware that checks every request against rl using the
// caller's tier. Rejections end the request with 429.
func Quota(rl *access.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := MustCaller(c)
		d := rl.CheckRateLimit(QuotaKey(c), caller.Tier)

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if d.Allowed {
			c.Next()
			return
		}

		secs := int(math.Ceil(d.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		observeQuotaRejection(caller.Tier, d.Window)
		LoggerFrom(c).Warn().
			Str("window", string(d.Window)).
			Int("retry_after_s", secs).
			Msg("tier quota exhausted")

		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "Rate limit exceeded. Please try again later.",
		})
	}
}
