package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/engines"
	"github.com/tbourn/civics-backend/internal/http/middleware"
	"github.com/tbourn/civics-backend/internal/services"
)

// ---------- service fakes ----------

type fakeProfiles struct {
	profile    *domain.OfficialProfile
	votes      []domain.VoteRecord
	committees []domain.CommitteeAssignment
	finance    domain.FinanceResult
	news       []domain.NewsArticle
	zip        domain.ZipLookupResult
	err        error

	mu        sync.Mutex
	lastLimit int
	lastName  string
}

func (f *fakeProfiles) record(limit int, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit, f.lastName = limit, name
}

func (f *fakeProfiles) GetMemberOverview(_ context.Context, _ string) (*domain.OfficialProfile, error) {
	return f.profile, f.err
}

func (f *fakeProfiles) GetFullProfile(_ context.Context, _ string) (*domain.OfficialProfile, error) {
	return f.profile, f.err
}

func (f *fakeProfiles) GetMemberVotes(_ context.Context, _ string, _ domain.Chamber, limit int) ([]domain.VoteRecord, error) {
	f.record(limit, "")
	return f.votes, f.err
}

func (f *fakeProfiles) GetMemberCommittees(_ context.Context, _ string) ([]domain.CommitteeAssignment, error) {
	return f.committees, f.err
}

func (f *fakeProfiles) GetMemberFinance(_ context.Context, _, name string) (domain.FinanceResult, error) {
	f.record(0, name)
	return f.finance, f.err
}

func (f *fakeProfiles) GetMemberNews(_ context.Context, name string, limit int) ([]domain.NewsArticle, error) {
	f.record(limit, name)
	return f.news, f.err
}

func (f *fakeProfiles) LookupByZipCode(_ context.Context, _ string) (domain.ZipLookupResult, error) {
	return f.zip, f.err
}

type fakeAnalysis struct {
	cmp     engines.Comparison
	report  engines.IssueReport
	reports []engines.IssueReport
	card    domain.Scorecard
	hits    []services.BillMatch
	err     error

	mu    sync.Mutex
	calls int
	lastK int
}

func (f *fakeAnalysis) hit(k int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastK = k
}

func (f *fakeAnalysis) Compare(_ context.Context, _, _ string) (engines.Comparison, error) {
	f.hit(0)
	return f.cmp, f.err
}

func (f *fakeAnalysis) IssueReport(_ context.Context, _, _ string) (engines.IssueReport, error) {
	f.hit(0)
	return f.report, f.err
}

func (f *fakeAnalysis) IssueReports(_ context.Context, _ string) ([]engines.IssueReport, error) {
	f.hit(0)
	return f.reports, f.err
}

func (f *fakeAnalysis) Scorecard(_ context.Context, _ string) (domain.Scorecard, error) {
	f.hit(0)
	return f.card, f.err
}

func (f *fakeAnalysis) SearchBills(_ context.Context, _, _ string, k int) ([]services.BillMatch, error) {
	f.hit(k)
	return f.hits, f.err
}

type usageHit struct{ feature, tier, action string }

type fakeUsage struct {
	mu   sync.Mutex
	hits []usageHit
}

func (f *fakeUsage) Track(_ context.Context, feature, tier, action string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, usageHit{feature, tier, action})
	return nil
}

func (f *fakeUsage) count(feature, action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, h := range f.hits {
		if h.feature == feature && h.action == action {
			n++
		}
	}
	return n
}

type fakePinger struct {
	lat time.Duration
	err error
}

func (p fakePinger) Ping(context.Context) (time.Duration, error) { return p.lat, p.err }

// ---------- router + request helpers ----------

func newTestRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("X-Request-ID", "rid-test")
		c.Next()
	})
	r.Use(middleware.Caller(middleware.CallerOptions{DefaultTier: "free"}))

	r.GET("/members/:id", h.GetMember)
	r.GET("/members/:id/full", h.GetFullProfile)
	r.GET("/members/:id/votes", h.GetVotes)
	r.GET("/members/:id/committees", h.GetCommittees)
	r.GET("/members/:id/finance", h.GetFinance)
	r.GET("/members/:id/metrics", h.GetMetrics)
	r.GET("/members/:id/news", h.GetNews)
	r.GET("/members/:id/issues", h.GetIssueReports)
	r.GET("/members/:id/bills/search", h.SearchBills)
	r.GET("/zip", h.LookupZip)
	r.GET("/compare", h.Compare)
	r.GET("/issues", h.ListIssues)
	r.GET("/issue-report", h.GetIssueReport)
	r.GET("/features", h.ListFeatures)
	r.GET("/health", h.Health)
	return r
}

// get performs a request as tier (empty = anonymous).
func get(t *testing.T, r http.Handler, path, tier string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if tier != "" {
		req.Header.Set(middleware.HeaderUserID, "u-1")
		req.Header.Set(middleware.HeaderUserTier, tier)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("json: %v body=%s", err, w.Body.String())
	}
	return v
}

func sampleProfile() *domain.OfficialProfile {
	p := &domain.OfficialProfile{
		Member: domain.MemberDetail{MemberSummary: domain.MemberSummary{
			BioguideID: "A000360", Name: "Lamar Alexander", State: "TN", Chamber: domain.ChamberSenate,
		}},
		Finance:   &domain.FinanceResult{Found: true},
		Scorecard: &domain.Scorecard{BioguideID: "A000360"},
	}
	for i := range 8 {
		p.Bills = append(p.Bills, domain.BillSummary{Congress: 118, Type: "S", Number: i + 1})
		p.Votes = append(p.Votes, domain.VoteRecord{Question: "On Passage", MemberPosition: domain.PositionYea})
	}
	for range 4 {
		p.News = append(p.News, domain.NewsArticle{Title: "headline", URL: "https://news.example"})
	}
	return p
}
