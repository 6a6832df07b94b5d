// Service metadata handlers: the caller's feature matrix and health.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/http/middleware"
)

const healthTimeout = 2 * time.Second

// FeatureView is one feature as seen by the calling tier.
type FeatureView struct {
	ID           string          `json:"id" example:"finance.summary"`
	Label        string          `json:"label" example:"Campaign Finance Summary"`
	RequiredTier access.Tier     `json:"required_tier" example:"premium"`
	Behavior     access.Behavior `json:"behavior" example:"hidden"`
	Accessible   bool            `json:"accessible"`
	Limit        int             `json:"limit,omitempty"`
}

// FeaturesResponse is the caller's tier, quota and feature matrix.
type FeaturesResponse struct {
	Tier      access.Tier      `json:"tier" example:"free"`
	RateLimit access.RateLimit `json:"rate_limit"`
	Features  []FeatureView    `json:"features"`
}

// HealthResponse reports process and durable-store health.
type HealthResponse struct {
	Status    string  `json:"status" example:"healthy"`
	Store     string  `json:"store" example:"ok"`
	LatencyMS float64 `json:"latency_ms"`
	Time      string  `json:"time" example:"2025-04-01T12:00:00Z"`
}

// ListFeatures godoc
// @Summary      Feature matrix
// @Description  Every feature with its required tier and how it renders for the caller (open, teaser, hidden, auth_required).
// @Tags         meta
// @Produce      json
// @Success      200  {object}  FeaturesResponse
// @Router       /features [get]
func (h *Handlers) ListFeatures(c *gin.Context) {
	caller := middleware.MustCaller(c)

	rl := access.RateLimitFor(caller.Tier)
	if h.limiter != nil {
		rl = h.limiter.Limits(caller.Tier)
	}
	out := FeaturesResponse{
		Tier:      caller.Tier,
		RateLimit: rl,
		Features:  make([]FeatureView, 0, len(access.Features)),
	}
	for _, f := range access.Features {
		v := FeatureView{
			ID:           f.ID,
			Label:        f.Label,
			RequiredTier: f.Tier,
			Behavior:     access.FeatureBehavior(f.ID, caller.Tier),
			Accessible:   access.CanAccess(f.ID, caller.Tier),
		}
		if n, limited := access.GetFeatureLimit(f.ID, caller.Tier); limited {
			v.Limit = n
		}
		out.Features = append(out.Features, v)
	}
	ok(c, out)
}

// Health godoc
// @Summary      Health check
// @Description  Pings the durable cache. A failing store reports degraded with 503.
// @Tags         meta
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Failure      503  {object}  HealthResponse
// @Router       /health [get]
func (h *Handlers) Health(c *gin.Context) {
	resp := HealthResponse{Status: "healthy", Store: "ok", Time: time.Now().UTC().Format(time.RFC3339)}
	if h.health == nil {
		resp.Store = "none"
		ok(c, resp)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()
	lat, err := h.health.Ping(ctx)
	resp.LatencyMS = float64(lat.Microseconds()) / 1000
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("health: store ping failed")
		resp.Status, resp.Store = "degraded", "unreachable"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	ok(c, resp)
}
