// Member HTTP handlers.
//
// This file exposes the per-official endpoints:
//   - GET /members/{id}                 (overview)
//   - GET /members/{id}/full            (full aggregate, tier-gated)
//   - GET /members/{id}/votes           (recent roll calls, truncated below premium)
//   - GET /members/{id}/committees      (committee assignments)
//   - GET /members/{id}/finance         (campaign finance, premium)
//   - GET /members/{id}/metrics         (scorecard, premium)
//   - GET /members/{id}/news            (recent articles, truncated below premium)
//   - GET /members/{id}/issues          (every non-empty issue report, premium)
//   - GET /members/{id}/bills/search    (ranked sponsored bills, premium)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/engines"
	"github.com/tbourn/civics-backend/internal/repo"
	"github.com/tbourn/civics-backend/internal/services"
)

const (
	defaultSearchResults = 10
	maxSearchResults     = 20
)

//
// DTOs
//

// VotesResponse wraps a member's recent votes. Limited is true when the
// caller's tier cut the list short.
type VotesResponse struct {
	BioguideID string              `json:"bioguide_id" example:"A000360"`
	Votes      []domain.VoteRecord `json:"votes"`
	Limited    bool                `json:"limited"`
}

// CommitteesResponse wraps a member's committee assignments.
type CommitteesResponse struct {
	BioguideID string                       `json:"bioguide_id" example:"A000360"`
	Committees []domain.CommitteeAssignment `json:"committees"`
}

// NewsResponse wraps recent articles about a member.
type NewsResponse struct {
	BioguideID string               `json:"bioguide_id" example:"A000360"`
	Articles   []domain.NewsArticle `json:"articles"`
	Limited    bool                 `json:"limited"`
}

// IssueReportsResponse wraps every issue the member has a record on.
type IssueReportsResponse struct {
	BioguideID string                `json:"bioguide_id" example:"A000360"`
	Reports    []engines.IssueReport `json:"reports"`
}

// BillSearchResponse wraps ranked bill-search hits.
type BillSearchResponse struct {
	BioguideID string               `json:"bioguide_id" example:"A000360"`
	Query      string               `json:"query" example:"veterans health"`
	Results    []services.BillMatch `json:"results"`
}

//
// Handlers
//

// GetMember godoc
// @Summary      Member overview
// @Description  Member detail, sponsored bills and biography. Supplementary provider failures leave fields empty.
// @Tags         members
// @Produce      json
// @Param        id   path      string  true  "Bioguide id"  example(A000360)
// @Success      200  {object}  domain.OfficialProfile
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id} [get]
func (h *Handlers) GetMember(c *gin.Context) {
	caller, allowed := h.require(c, access.ProfileOverview)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	p, err := h.profiles.GetMemberOverview(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.ProfileOverview, caller.Tier, repo.ActionView)
	ok(c, p)
}

// GetFullProfile godoc
// @Summary      Full official profile
// @Description  The complete aggregate, gated for the caller's tier: finance and scorecard are removed below premium and vote, bill and news lists are truncated with *_limited flags.
// @Tags         members
// @Produce      json
// @Param        id   path      string  true  "Bioguide id"
// @Param        X-User-Tier  header  string  false  "Tier set by the auth proxy"  Enums(free, premium, institutional)
// @Success      200  {object}  domain.OfficialProfile
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/full [get]
func (h *Handlers) GetFullProfile(c *gin.Context) {
	caller, allowed := h.require(c, access.ProfileOverview)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	p, err := h.profiles.GetFullProfile(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}

	gated := access.GateProfileResponse(p, caller.Tier)
	h.track(c, access.ProfileOverview, caller.Tier, repo.ActionView)
	for feature, cut := range map[string]bool{
		access.VotesRecent:    gated.VotesLimited,
		access.SponsoredBills: gated.BillsLimited,
		access.NewsRecent:     gated.NewsLimited,
	} {
		if cut {
			h.track(c, feature, caller.Tier, repo.ActionTruncated)
		}
	}
	ok(c, gated)
}

// GetVotes godoc
// @Summary      Recent votes
// @Description  Most recent roll-call positions. Callers without full voting history get the teaser count and limited=true.
// @Tags         members
// @Produce      json
// @Param        id       path   string  true   "Bioguide id"
// @Param        limit    query  int     false  "Max votes (1-50)"  default(20)
// @Param        chamber  query  string  false  "Chamber; resolved from the member when empty"  Enums(house, senate)
// @Success      200  {object}  VotesResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/votes [get]
func (h *Handlers) GetVotes(c *gin.Context) {
	caller, allowed := h.require(c, access.VotesRecent)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	chamber := domain.Chamber(strings.ToLower(strings.TrimSpace(c.Query("chamber"))))
	if chamber != "" && chamber != domain.ChamberHouse && chamber != domain.ChamberSenate {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chamber must be house or senate")
		return
	}

	limit := queryLimit(c, services.DefaultVoteLimit, services.MaxVoteLimit)
	votes, err := h.profiles.GetMemberVotes(c.Request.Context(), id, chamber, limit)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}

	resp := VotesResponse{BioguideID: id, Votes: votes}
	if !access.CanAccess(access.VotesFullHistory, caller.Tier) {
		if n, limited := access.GetFeatureLimit(access.VotesRecent, caller.Tier); limited && len(votes) > n {
			resp.Votes, resp.Limited = votes[:n:n], true
			h.track(c, access.VotesRecent, caller.Tier, repo.ActionTruncated)
		}
	}
	h.track(c, access.VotesRecent, caller.Tier, repo.ActionView)
	ok(c, resp)
}

// GetCommittees godoc
// @Summary      Committee assignments
// @Tags         members
// @Produce      json
// @Param        id   path      string  true  "Bioguide id"
// @Success      200  {object}  CommitteesResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/committees [get]
func (h *Handlers) GetCommittees(c *gin.Context) {
	caller, allowed := h.require(c, access.CommitteesList)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	cs, err := h.profiles.GetMemberCommittees(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.CommitteesList, caller.Tier, repo.ActionView)
	ok(c, CommitteesResponse{BioguideID: id, Committees: cs})
}

// GetFinance godoc
// @Summary      Campaign finance
// @Description  Totals and top individual contributors of the official's principal campaign committee. found=false when no candidate matches.
// @Tags         members
// @Produce      json
// @Param        id    path   string  true   "Bioguide id"
// @Param        name  query  string  false  "Candidate name; resolved from the member when empty"
// @Success      200  {object}  domain.FinanceResult
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  DenialResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/finance [get]
func (h *Handlers) GetFinance(c *gin.Context) {
	caller, allowed := h.require(c, access.FinanceSummary)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	r, err := h.profiles.GetMemberFinance(c.Request.Context(), id, strings.TrimSpace(c.Query("name")))
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.FinanceSummary, caller.Tier, repo.ActionView)
	ok(c, r)
}

// GetMetrics godoc
// @Summary      Metrics scorecard
// @Description  Six benchmarked dimensions of legislative activity.
// @Tags         members
// @Produce      json
// @Param        id   path      string  true  "Bioguide id"
// @Success      200  {object}  domain.Scorecard
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  DenialResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/metrics [get]
func (h *Handlers) GetMetrics(c *gin.Context) {
	caller, allowed := h.require(c, access.MetricsScorecard)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	sc, err := h.analysis.Scorecard(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.MetricsScorecard, caller.Tier, repo.ActionView)
	ok(c, sc)
}

// GetNews godoc
// @Summary      Recent news
// @Description  Recent articles mentioning the official. Callers without the archive get the teaser count and limited=true.
// @Tags         members
// @Produce      json
// @Param        id     path   string  true   "Bioguide id"
// @Param        name   query  string  true   "Official's name"
// @Param        limit  query  int     false  "Max articles (1-20)"  default(5)
// @Success      200  {object}  NewsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/news [get]
func (h *Handlers) GetNews(c *gin.Context) {
	caller, allowed := h.require(c, access.NewsRecent)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name is required")
		return
	}

	limit := queryLimit(c, services.DefaultNewsLimit, services.MaxNewsLimit)
	articles, err := h.profiles.GetMemberNews(c.Request.Context(), name, limit)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}

	resp := NewsResponse{BioguideID: id, Articles: articles}
	if !access.CanAccess(access.NewsArchive, caller.Tier) {
		if n, limited := access.GetFeatureLimit(access.NewsRecent, caller.Tier); limited && len(articles) > n {
			resp.Articles, resp.Limited = articles[:n:n], true
			h.track(c, access.NewsRecent, caller.Tier, repo.ActionTruncated)
		}
	}
	h.track(c, access.NewsRecent, caller.Tier, repo.ActionView)
	ok(c, resp)
}

// GetIssueReports godoc
// @Summary      All issue reports
// @Description  One report per issue the official has sponsored bills or votes on.
// @Tags         issues
// @Produce      json
// @Param        id   path      string  true  "Bioguide id"
// @Success      200  {object}  IssueReportsResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  DenialResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/issues [get]
func (h *Handlers) GetIssueReports(c *gin.Context) {
	caller, allowed := h.require(c, access.IssuesReport)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	rs, err := h.analysis.IssueReports(c.Request.Context(), id)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.IssuesReport, caller.Tier, repo.ActionView)
	ok(c, IssueReportsResponse{BioguideID: id, Reports: rs})
}

// SearchBills godoc
// @Summary      Search sponsored bills
// @Description  Ranks the official's sponsored bills by token overlap with q.
// @Tags         members
// @Produce      json
// @Param        id     path   string  true   "Bioguide id"
// @Param        q      query  string  true   "Search text"
// @Param        limit  query  int     false  "Max results (1-20)"  default(10)
// @Success      200  {object}  BillSearchResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  DenialResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /members/{id}/bills/search [get]
func (h *Handlers) SearchBills(c *gin.Context) {
	caller, allowed := h.require(c, access.BillSearch)
	if !allowed {
		return
	}
	id, valid := bioguideParam(c)
	if !valid {
		return
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "q is required")
		return
	}

	k := queryLimit(c, defaultSearchResults, maxSearchResults)
	hits, err := h.analysis.SearchBills(c.Request.Context(), id, q, k)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.BillSearch, caller.Tier, repo.ActionView)
	ok(c, BillSearchResponse{BioguideID: id, Query: q, Results: hits})
}
