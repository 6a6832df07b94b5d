// Lookup and analysis HTTP handlers.
//
//   - GET /zip?code=                       (officials for a postal code)
//   - GET /compare?a=&b=                   (side-by-side comparison, premium)
//   - GET /issues                          (issue catalogue)
//   - GET /issue-report?official=&issue=   (one official on one issue, premium)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/access"
	"github.com/tbourn/civics-backend/internal/engines"
	"github.com/tbourn/civics-backend/internal/repo"
	"github.com/tbourn/civics-backend/internal/services"
)

// IssuesResponse lists the issue catalogue.
type IssuesResponse struct {
	Issues []engines.IssueCategory `json:"issues"`
}

// LookupZip godoc
// @Summary      Officials by zip code
// @Description  House member and senators for a ZIP or ZIP+4. Falls back to the state's delegation when the representatives provider fails.
// @Tags         lookup
// @Produce      json
// @Param        code  query     string  true  "ZIP or ZIP+4"  example(90210)
// @Success      200   {object}  domain.ZipLookupResult
// @Failure      400   {object}  ErrorResponse  "malformed zip or unresolvable state"
// @Failure      429   {object}  ErrorResponse
// @Failure      502   {object}  ErrorResponse  "both provider paths failed"
// @Router       /zip [get]
func (h *Handlers) LookupZip(c *gin.Context) {
	caller, allowed := h.require(c, access.ZipLookup)
	if !allowed {
		return
	}
	zip := strings.TrimSpace(c.Query("code"))
	if !services.ValidZip(zip) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidZip, "invalid zip code")
		return
	}
	r, err := h.profiles.LookupByZipCode(c.Request.Context(), zip)
	if err != nil {
		serviceError(c, err, http.StatusBadGateway)
		return
	}
	h.track(c, access.ZipLookup, caller.Tier, repo.ActionView)
	ok(c, r)
}

// Compare godoc
// @Summary      Compare two officials
// @Description  Shared bills, voting alignment, funding and focus areas. Alignment is symmetric in a and b.
// @Tags         analysis
// @Produce      json
// @Param        a    query     string  true  "First bioguide id"
// @Param        b    query     string  true  "Second bioguide id"
// @Success      200  {object}  engines.Comparison
// @Failure      400  {object}  ErrorResponse  "malformed or identical ids"
// @Failure      403  {object}  DenialResponse
// @Failure      429  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /compare [get]
func (h *Handlers) Compare(c *gin.Context) {
	caller, allowed := h.require(c, access.CompareSideBySide)
	if !allowed {
		return
	}
	a := strings.ToUpper(strings.TrimSpace(c.Query("a")))
	b := strings.ToUpper(strings.TrimSpace(c.Query("b")))
	if !services.ValidBioguideID(a) || !services.ValidBioguideID(b) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidID, "a and b must be bioguide ids")
		return
	}
	if a == b {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, services.ErrSameOfficial.Error())
		return
	}
	cmp, err := h.analysis.Compare(c.Request.Context(), a, b)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.CompareSideBySide, caller.Tier, repo.ActionView)
	ok(c, cmp)
}

// ListIssues godoc
// @Summary      Issue catalogue
// @Tags         issues
// @Produce      json
// @Success      200  {object}  IssuesResponse
// @Failure      429  {object}  ErrorResponse
// @Router       /issues [get]
func (h *Handlers) ListIssues(c *gin.Context) {
	caller, allowed := h.require(c, access.IssuesList)
	if !allowed {
		return
	}
	h.track(c, access.IssuesList, caller.Tier, repo.ActionView)
	ok(c, IssuesResponse{Issues: engines.IssueCategories})
}

// GetIssueReport godoc
// @Summary      Issue report
// @Description  Related bills, related votes and yea/nay totals for one official on one issue.
// @Tags         issues
// @Produce      json
// @Param        official  query     string  true  "Bioguide id"
// @Param        issue     query     string  true  "Issue id"  example(healthcare)
// @Success      200       {object}  engines.IssueReport
// @Failure      400       {object}  ErrorResponse  "malformed id or unknown issue"
// @Failure      403       {object}  DenialResponse
// @Failure      429       {object}  ErrorResponse
// @Failure      500       {object}  ErrorResponse
// @Router       /issue-report [get]
func (h *Handlers) GetIssueReport(c *gin.Context) {
	caller, allowed := h.require(c, access.IssuesReport)
	if !allowed {
		return
	}
	id := strings.ToUpper(strings.TrimSpace(c.Query("official")))
	if !services.ValidBioguideID(id) {
		fail(c, http.StatusBadRequest, ErrCodeInvalidID, "invalid bioguide id")
		return
	}
	issue := strings.ToLower(strings.TrimSpace(c.Query("issue")))
	if _, known := engines.LookupIssue(issue); !known {
		fail(c, http.StatusBadRequest, ErrCodeUnknownIssue, "unknown issue")
		return
	}
	r, err := h.analysis.IssueReport(c.Request.Context(), id, issue)
	if err != nil {
		serviceError(c, err, http.StatusInternalServerError)
		return
	}
	h.track(c, access.IssuesReport, caller.Tier, repo.ActionView)
	ok(c, r)
}
