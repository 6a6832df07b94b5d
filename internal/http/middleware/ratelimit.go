package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const (
	edgeMaxKeys = 10_000
	edgeIdleTTL = 10 * time.Minute
)

// EdgeLimiter smooths bursts per caller with a token bucket before the tier
// quota runs. Buckets live in a bounded LRU and are dropped after
// edgeIdleTTL without traffic, so a flood of distinct IPs cannot grow memory
// without limit. Process-local; safe for concurrent use.
type EdgeLimiter struct {
	rps     rate.Limit
	burst   int
	buckets *expirable.LRU[string, *rate.Limiter]
	now     func() time.Time
}

// NewEdgeLimiter returns a limiter refilling rps tokens per second up to
// burst. A burst below 1 is raised to 1.
func NewEdgeLimiter(rps float64, burst int) *EdgeLimiter {
	return &EdgeLimiter{
		rps:     rate.Limit(rps),
		burst:   max(burst, 1),
		buckets: expirable.NewLRU[string, *rate.Limiter](edgeMaxKeys, nil, edgeIdleTTL),
		now:     time.Now,
	}
}

// bucket returns the limiter for key, creating it on first sight. Each hit
// re-adds the bucket so its idle TTL restarts.
func (l *EdgeLimiter) bucket(key string) *rate.Limiter {
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(l.rps, l.burst)
	}
	l.buckets.Add(key, b)
	return b
}

// Handler keys requests with QuotaKey, so it must run after Caller.
// Rejections get 429 and a Retry-After sized to the next token.
func (l *EdgeLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := QuotaKey(c)
		r := l.bucket(key).ReserveN(l.now(), 1)
		delay := r.DelayFrom(l.now())
		if r.OK() && delay == 0 {
			c.Next()
			return
		}
		r.CancelAt(l.now())

		secs := 1
		if r.OK() {
			secs = max(int(math.Ceil(delay.Seconds())), 1)
		}
		observeEdgeRejection(key)
		LoggerFrom(c).Debug().Str("key", key).Msg("edge limiter rejected request")
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"message":    "Too many requests in a short period. Slow down.",
		})
	}
}
