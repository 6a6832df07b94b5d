package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tbourn/civics-backend/internal/access"
)

// Every label below comes from a bounded set: registered routes, HTTP
// methods and status codes, or the static feature and tier tables.
var (
	httpReqs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "path", "status"})

	// Full profiles fan out to several providers on a miss, hence the 30s
	// top bucket.
	httpLat = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method", "path"})

	httpInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "http_requests_inflight",
		Help: "HTTP requests currently being served.",
	})

	httpRespSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_response_size_bytes",
		Help:    "HTTP response body size by method and route.",
		Buckets: prometheus.ExponentialBuckets(256, 4, 7), // 256B .. 1MiB
	}, []string{"method", "path"})

	accessDenials = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civics_access_denials_total",
		Help: "Requests refused by the tier gate, by feature and caller tier.",
	}, []string{"feature", "tier", "status"})

	quotaRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civics_quota_rejections_total",
		Help: "Requests refused by the per-tier quota, by tier and window.",
	}, []string{"tier", "window"})

	edgeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "civics_edge_rejections_total",
		Help: "Requests refused by the burst limiter, by identity kind (user or ip).",
	}, []string{"kind"})
)

// ObserveDenial counts one tier-gate refusal.
func ObserveDenial(feature string, tier access.Tier, status int) {
	accessDenials.WithLabelValues(feature, string(tier), strconv.Itoa(status)).Inc()
}

func observeQuotaRejection(tier access.Tier, w access.Window) {
	quotaRejections.WithLabelValues(string(tier), string(w)).Inc()
}

// observeEdgeRejection labels by the prefix QuotaKey puts on the key.
func observeEdgeRejection(key string) {
	kind, _, _ := strings.Cut(key, ":")
	edgeRejections.WithLabelValues(kind).Inc()
}

// unmatchedPath labels requests that hit no registered route, so scanners
// probing random URLs cannot grow the label set.
const unmatchedPath = "unmatched"

func routeLabel(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return unmatchedPath
}

// Metrics records the http_* collectors for every request. Expose them with
//
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		method, path := c.Request.Method, routeLabel(c)
		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
