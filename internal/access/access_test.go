package access

import (
	"fmt"
	"net/http"
	"testing"

	"go.uber.org/goleak"

	"github.com/tbourn/civics-backend/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseTier(t *testing.T) {
	if tier, ok := ParseTier(" Premium "); !ok || tier != TierPremium {
		t.Fatalf("ParseTier = %q %v", tier, ok)
	}
	if _, ok := ParseTier("gold"); ok {
		t.Fatalf("unknown tier should not parse")
	}
	if Tier("gold").AtLeast(TierFree) {
		t.Fatalf("unknown tier must not rank")
	}
}

func TestFeatureTable_UniqueAndKnownTiers(t *testing.T) {
	if len(Features) != 37 || len(featureByID) != len(Features) {
		t.Fatalf("features=%d unique=%d", len(Features), len(featureByID))
	}
	for _, f := range Features {
		if f.Tier.Rank() < 0 || f.Label == "" {
			t.Fatalf("bad feature %+v", f)
		}
	}
}

func TestCanAccess_TierMonotonic(t *testing.T) {
	for _, f := range Features {
		for i, lo := range Tiers {
			for _, hi := range Tiers[i:] {
				if CanAccess(f.ID, lo) && !CanAccess(f.ID, hi) {
					t.Fatalf("%s: %s allowed but %s denied", f.ID, lo, hi)
				}
			}
		}
	}
	if CanAccess("nope.nothing", TierInstitutional) {
		t.Fatalf("unknown feature must be denied")
	}
	if !CanAccess(FinanceExpenditure, TierInstitutional) || CanAccess(FinanceExpenditure, TierPremium) {
		t.Fatalf("institutional gate broken")
	}
}

func TestGetFeatureLimit(t *testing.T) {
	if n, ok := GetFeatureLimit(VotesRecent, TierFree); !ok || n != 5 {
		t.Fatalf("free votes.recent = %d %v", n, ok)
	}
	if _, ok := GetFeatureLimit(VotesRecent, TierPremium); ok {
		t.Fatalf("premium should be unlimited")
	}
	if n, ok := GetFeatureLimit(NewsRecent, TierFree); !ok || n != 3 {
		t.Fatalf("free news.recent = %d %v", n, ok)
	}
	if _, ok := GetFeatureLimit(MetricsScorecard, TierFree); ok {
		t.Fatalf("scorecard has no limit")
	}
	if _, ok := GetFeatureLimit("nope", TierFree); ok {
		t.Fatalf("unknown feature has no limit")
	}
}

func TestFeatureBehavior(t *testing.T) {
	cases := []struct {
		id   string
		tier Tier
		want Behavior
	}{
		{FinanceSummary, TierFree, BehaviorHidden},
		{FinanceSummary, TierPremium, BehaviorOpen},
		{MetricsScorecard, TierFree, BehaviorTeaser},
		{ProfileOverview, TierFree, BehaviorOpen},
		{"nope", TierInstitutional, BehaviorHidden},
	}
	for _, tc := range cases {
		if got := FeatureBehavior(tc.id, tc.tier); got != tc.want {
			t.Fatalf("FeatureBehavior(%s,%s) = %s, want %s", tc.id, tc.tier, got, tc.want)
		}
	}
}

func TestRequireFeature(t *testing.T) {
	anon := Caller{Tier: TierFree}
	user := Caller{Tier: TierFree, UserID: "u1"}

	if d := RequireFeature(ZipLookup, anon); d != nil {
		t.Fatalf("open feature denied: %+v", d)
	}
	if d := RequireFeature(UserSavedOfficials, anon); d == nil || d.Status != http.StatusUnauthorized {
		t.Fatalf("want 401, got %+v", d)
	}
	if d := RequireFeature(UserSavedOfficials, user); d != nil {
		t.Fatalf("signed-in free user denied: %+v", d)
	}
	d := RequireFeature(CompareSideBySide, user)
	if d == nil || d.Status != http.StatusForbidden || d.Message != "This feature requires a premium subscription" {
		t.Fatalf("want 403 premium, got %+v", d)
	}
	if d := RequireFeature(ExportCSV, Caller{Tier: TierPremium, UserID: "u"}); d == nil || d.Message != "This feature requires a institutional subscription" {
		t.Fatalf("want 403 institutional, got %+v", d)
	}
	if d := RequireFeature("x.y", user); d == nil || d.Status != http.StatusNotFound {
		t.Fatalf("want 404, got %+v", d)
	}
}

func profileWith(votes, bills, news int) *domain.OfficialProfile {
	p := &domain.OfficialProfile{
		Finance:   &domain.FinanceResult{Found: true},
		Scorecard: &domain.Scorecard{BioguideID: "A000001"},
	}
	for i := 0; i < votes; i++ {
		p.Votes = append(p.Votes, domain.VoteRecord{Question: fmt.Sprint("q", i)})
	}
	for i := 0; i < bills; i++ {
		p.Bills = append(p.Bills, domain.BillSummary{Number: i})
	}
	for i := 0; i < news; i++ {
		p.News = append(p.News, domain.NewsArticle{})
	}
	return p
}

func TestGateProfileResponse_Free(t *testing.T) {
	p := profileWith(30, 8, 6)
	g := GateProfileResponse(p, TierFree)

	if g.Finance != nil || g.Scorecard != nil {
		t.Fatalf("premium sections should be removed")
	}
	if len(g.Votes) != 5 || !g.VotesLimited {
		t.Fatalf("votes = %d limited=%v", len(g.Votes), g.VotesLimited)
	}
	if len(g.Bills) != 5 || !g.BillsLimited {
		t.Fatalf("bills = %d limited=%v", len(g.Bills), g.BillsLimited)
	}
	if len(g.News) != 3 || !g.NewsLimited {
		t.Fatalf("news = %d limited=%v", len(g.News), g.NewsLimited)
	}
	if len(p.Votes) != 30 || p.Finance == nil {
		t.Fatalf("input profile was modified")
	}
}

func TestGateProfileResponse_ShortListsNotFlagged(t *testing.T) {
	g := GateProfileResponse(profileWith(2, 1, 0), TierFree)
	if g.VotesLimited || g.BillsLimited || g.NewsLimited {
		t.Fatalf("nothing was cut: %+v", g)
	}
}

func TestGateProfileResponse_Premium(t *testing.T) {
	g := GateProfileResponse(profileWith(30, 8, 6), TierPremium)
	if len(g.Votes) != 30 || g.VotesLimited || len(g.Bills) != 8 || len(g.News) != 6 {
		t.Fatalf("premium profile should be untouched: votes=%d bills=%d news=%d", len(g.Votes), len(g.Bills), len(g.News))
	}
	if g.Finance == nil || g.Scorecard == nil {
		t.Fatalf("premium sections missing")
	}
	if GateProfileResponse(nil, TierFree) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestRateLimitFor(t *testing.T) {
	if l := RateLimitFor(TierInstitutional); l.PerDay != Unlimited || l.PerMinute != 200 {
		t.Fatalf("institutional = %+v", l)
	}
	if l := RateLimitFor("gold"); l != DefaultRateLimits[TierFree] {
		t.Fatalf("unknown tier should get free limits, got %+v", l)
	}
}
