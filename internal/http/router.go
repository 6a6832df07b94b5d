// Package httpapi wires the HTTP transport (Gin) to the orchestrator, the
// access engine and the route handlers. It centralizes cross-cutting
// concerns: tracing, correlation IDs, caller resolution, logging/redaction,
// panic recovery, metrics, both rate limiters, compression, CORS and
// security headers.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/config"
	"github.com/tbourn/civics-backend/internal/http/docs"
	"github.com/tbourn/civics-backend/internal/http/handlers"
	"github.com/tbourn/civics-backend/internal/http/middleware"
)

const maxBodyBytes = 64 << 10

// Deps are the services the routes call. Usage and Health may be nil.
type Deps struct {
	Profiles handlers.ProfileService
	Analysis handlers.AnalysisService
	Usage    handlers.UsageTracker
	Health   handlers.Pinger
	Limiter  *access.RateLimiter
}

// RegisterRoutes attaches all middleware and endpoints to r and returns the
// handlers so the caller can flush pending usage writes on shutdown.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Caller: resolve tier and user id before anything logs
//  4. RedactingLogger (or the dev logger in debug mode)
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Edge token bucket per user/IP
//  9. Compression, CORS and security headers
//
// The tier quota runs on the API group only, so /metrics, /health and the
// docs never consume a caller's budget.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) *handlers.Handlers {
	r.HandleMethodNotAllowed = true

	// X-Forwarded-For is honoured only from the listed proxies; with none
	// listed the socket peer is the client.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warn().Err(err).Msg("invalid trusted proxies, trusting none")
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Caller(middleware.CallerOptions{
		ForceTier:   cfg.Access.ForceTier,
		DefaultTier: cfg.Access.DefaultTier,
	}))
	if cfg.GinMode == gin.DebugMode {
		r.Use(middleware.Logger())
	} else {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{"X-API-Key", "X-Goog-Api-Key"},
		}))
	}
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.RateRPS > 0 {
		edge := middleware.NewEdgeLimiter(cfg.RateRPS, cfg.RateBurst)
		r.Use(edge.Handler())
	}

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		CacheMaxAge:  cfg.Security.ClientCacheMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	limiter := deps.Limiter
	if limiter == nil {
		limiter = access.NewRateLimiter()
	}
	opts := []handlers.Option{handlers.WithRateLimiter(limiter)}
	if deps.Usage != nil {
		opts = append(opts, handlers.WithUsage(deps.Usage))
	}
	if deps.Health != nil {
		opts = append(opts, handlers.WithHealth(deps.Health))
	}
	h := handlers.New(deps.Profiles, deps.Analysis, opts...)

	// Liveness for load balancers, outside the quota.
	r.GET("/health", h.Health)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.Quota(limiter))
	{
		if api.BasePath() != "/" {
			api.GET("/health", h.Health)
		}
		api.GET("/features", h.ListFeatures)

		members := api.Group("/members/:id")
		members.GET("", h.GetMember)
		members.GET("/full", h.GetFullProfile)
		members.GET("/votes", h.GetVotes)
		members.GET("/committees", h.GetCommittees)
		members.GET("/finance", h.GetFinance)
		members.GET("/metrics", h.GetMetrics)
		members.GET("/news", h.GetNews)
		members.GET("/issues", h.GetIssueReports)
		members.GET("/bills/search", h.SearchBills)

		api.GET("/zip", h.LookupZip)
		api.GET("/compare", h.Compare)
		api.GET("/issues", h.ListIssues)
		api.GET("/issue-report", h.GetIssueReport)
	}
	return h
}

// corsMiddleware allows every origin when none are configured. Credentials
// are never allowed.
func corsMiddleware(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Accept", "Authorization", middleware.HeaderUserID, middleware.HeaderUserTier},
		ExposeHeaders: []string{
			"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After",
		},
		MaxAge: 12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// limitBody caps the request body at maxBytes using http.MaxBytesReader.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
