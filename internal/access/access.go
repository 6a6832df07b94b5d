package access

import (
	"fmt"
	"net/http"

	"github.com/tbourn/civics-backend/internal/domain"
)

// Caller is the identity a request is evaluated for. UserID is empty for
// anonymous callers.
type Caller struct {
	Tier   Tier
	UserID string
}

// Anonymous reports whether the caller carries no user identity.
func (c Caller) Anonymous() bool { return c.UserID == "" }

// CanAccess reports whether tier t unlocks feature id. Unknown features are
// never accessible.
func CanAccess(id string, t Tier) bool {
	f, ok := featureByID[id]
	if !ok {
		return false
	}
	return t.AtLeast(f.Tier)
}

// GetFeatureLimit returns the truncation limit that applies to tier t, and
// false when no limit applies. Callers who unlock the feature on a paid tier
// are never limited.
func GetFeatureLimit(id string, t Tier) (int, bool) {
	f, ok := featureByID[id]
	if !ok {
		return 0, false
	}
	if CanAccess(id, t) && t != TierFree {
		return 0, false
	}
	if f.Limit <= 0 {
		return 0, false
	}
	return f.Limit, true
}

// FeatureBehavior returns how the feature renders for tier t.
func FeatureBehavior(id string, t Tier) Behavior {
	f, ok := featureByID[id]
	if !ok {
		return BehaviorHidden
	}
	if CanAccess(id, t) {
		return BehaviorOpen
	}
	return f.Behavior
}

// Denial is a structured refusal for the HTTP boundary.
type Denial struct {
	Status  int    `json:"-"`
	Feature string `json:"feature"`
	Message string `json:"message"`
}

func (d *Denial) Error() string { return d.Message }

// RequireFeature returns nil when the caller may use feature id.
//
// Features whose ungated behavior is auth_required refuse anonymous callers
// with 401 regardless of tier. Unknown features are 404. Everything else below
// the feature's tier is 403 naming the required tier.
func RequireFeature(id string, c Caller) *Denial {
	f, ok := featureByID[id]
	if !ok {
		return &Denial{Status: http.StatusNotFound, Feature: id, Message: "Unknown feature"}
	}
	if f.Behavior == BehaviorAuthRequired && c.Anonymous() {
		return &Denial{Status: http.StatusUnauthorized, Feature: id, Message: "Authentication required"}
	}
	if CanAccess(id, c.Tier) {
		return nil
	}
	return &Denial{
		Status:  http.StatusForbidden,
		Feature: id,
		Message: fmt.Sprintf("This feature requires a %s subscription", f.Tier),
	}
}

// GateProfileResponse returns a copy of p with everything tier t may not see
// removed. Premium-only sections are dropped entirely; teaser lists are cut
// to the tier's limit and flagged so the client can offer an upgrade. p is
// not modified.
func GateProfileResponse(p *domain.OfficialProfile, t Tier) *domain.OfficialProfile {
	if p == nil {
		return nil
	}
	out := *p

	if !CanAccess(FinanceSummary, t) {
		out.Finance = nil
	}
	if !CanAccess(MetricsScorecard, t) {
		out.Scorecard = nil
	}
	if !CanAccess(VotesFullHistory, t) {
		out.Votes, out.VotesLimited = truncate(p.Votes, limitOr(VotesRecent, t, 5))
	}
	if !CanAccess(BillDetails, t) {
		out.Bills, out.BillsLimited = truncate(p.Bills, limitOr(SponsoredBills, t, 5))
	}
	if !CanAccess(NewsArchive, t) {
		out.News, out.NewsLimited = truncate(p.News, limitOr(NewsRecent, t, 3))
	}
	return &out
}

func limitOr(id string, t Tier, fallback int) int {
	if n, ok := GetFeatureLimit(id, t); ok {
		return n
	}
	return fallback
}

// truncate cuts s to n items and reports whether anything was dropped.
func truncate[T any](s []T, n int) ([]T, bool) {
	if len(s) <= n {
		return s, false
	}
	return s[:n:n], true
}
