// Package handlers exposes the civic data API over HTTP.
//
// Handlers are transport-thin: they validate input, consult the access
// engine for the caller's tier, call the orchestrator, and translate results
// into JSON. Tier-gate refusals happen before any orchestration.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/engines"
	"github.com/tbourn/civics-backend/internal/http/middleware"
	"github.com/tbourn/civics-backend/internal/repo"
	"github.com/tbourn/civics-backend/internal/services"
	"github.com/tbourn/civics-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ProfileService resolves officials and their sub-resources.
//
// Implementations must be safe for concurrent use and honor ctx.
type ProfileService interface {
	GetMemberOverview(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error)
	GetFullProfile(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error)
	GetMemberVotes(ctx context.Context, bioguideID string, chamber domain.Chamber, limit int) ([]domain.VoteRecord, error)
	GetMemberCommittees(ctx context.Context, bioguideID string) ([]domain.CommitteeAssignment, error)
	GetMemberFinance(ctx context.Context, bioguideID, name string) (domain.FinanceResult, error)
	GetMemberNews(ctx context.Context, name string, limit int) ([]domain.NewsArticle, error)
	LookupByZipCode(ctx context.Context, zip string) (domain.ZipLookupResult, error)
}

// AnalysisService runs the domain engines over assembled profiles.
//
// Implementations must be safe for concurrent use and honor ctx.
type AnalysisService interface {
	Compare(ctx context.Context, a, b string) (engines.Comparison, error)
	IssueReport(ctx context.Context, bioguideID, issue string) (engines.IssueReport, error)
	IssueReports(ctx context.Context, bioguideID string) ([]engines.IssueReport, error)
	Scorecard(ctx context.Context, bioguideID string) (domain.Scorecard, error)
	SearchBills(ctx context.Context, bioguideID, query string, k int) ([]services.BillMatch, error)
}

// UsageTracker records one feature hit.
type UsageTracker interface {
	Track(ctx context.Context, feature, tier, action string) error
}

// Pinger reports durable-store health for /health.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

//
// Handler wiring
//

const usageTimeout = 2 * time.Second

// Handlers groups the API endpoints.
type Handlers struct {
	profiles ProfileService
	analysis AnalysisService
	usage    UsageTracker
	health   Pinger
	limiter  *access.RateLimiter

	wg sync.WaitGroup
}

// Option configures optional Handlers dependencies.
type Option func(*Handlers)

// WithUsage records feature hits through t.
func WithUsage(t UsageTracker) Option { return func(h *Handlers) { h.usage = t } }

// WithHealth reports p's latency on /health.
func WithHealth(p Pinger) Option { return func(h *Handlers) { h.health = p } }

// WithRateLimiter reports rl's budgets on /features instead of the defaults.
func WithRateLimiter(rl *access.RateLimiter) Option { return func(h *Handlers) { h.limiter = rl } }

// New constructs Handlers bound to the given services. The orchestrator
// satisfies both interfaces.
func New(profiles ProfileService, analysis AnalysisService, opts ...Option) *Handlers {
	h := &Handlers{profiles: profiles, analysis: analysis}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Wait blocks until in-flight usage writes finish. Call it after the HTTP
// server has shut down.
func (h *Handlers) Wait() { h.wg.Wait() }

// track records a usage hit in the background. Failures are logged and
// never affect the response.
func (h *Handlers) track(c *gin.Context, feature string, tier access.Tier, action string) {
	if h.usage == nil {
		return
	}
	ctx := context.WithoutCancel(c.Request.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, usageTimeout)
		defer cancel()
		if err := h.usage.Track(ctx, feature, string(tier), action); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("feature", feature).Msg("usage tracking failed")
		}
	}()
}

// require gates the request on feature. It renders the denial and returns
// false when the caller may not proceed.
func (h *Handlers) require(c *gin.Context, feature string) (access.Caller, bool) {
	caller := middleware.MustCaller(c)
	if d := access.RequireFeature(feature, caller); d != nil {
		middleware.ObserveDenial(feature, caller.Tier, d.Status)
		h.track(c, feature, caller.Tier, repo.ActionDenied)
		deny(c, d)
		return caller, false
	}
	return caller, true
}

// bioguideParam returns the :id path parameter, upper-cased. It renders a
// 400 and returns false when the id is malformed.
func bioguideParam(c *gin.Context) (string, bool) {
	id := strings.ToUpper(strings.TrimSpace(c.Param("id")))
	if !services.ValidBioguideID(id) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidID, "invalid bioguide id")
		return "", false
	}
	return id, true
}

// queryLimit parses ?limit= with a default and an upper bound.
func queryLimit(c *gin.Context, def, max int) int {
	return utils.BoundedAtoi(c.Query("limit"), def, max)
}
