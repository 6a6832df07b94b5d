// Package access decides what a caller may see. It holds the static feature
// table, tier comparisons, profile gating and the per-caller request limiter.
package access

import "strings"

// Tier is a subscription level. Tiers are totally ordered by rank.
type Tier string

const (
	TierFree          Tier = "free"
	TierPremium       Tier = "premium"
	TierInstitutional Tier = "institutional"
)

var tierRank = map[Tier]int{
	TierFree:          0,
	TierPremium:       1,
	TierInstitutional: 2,
}

// Tiers lists every tier from lowest to highest.
var Tiers = []Tier{TierFree, TierPremium, TierInstitutional}

// ParseTier normalizes s and reports whether it names a known tier.
func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	_, ok := tierRank[t]
	return t, ok
}

// Rank returns the tier's position in the ordering, or -1 if unknown.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether t ranks at or above floor.
func (t Tier) AtLeast(floor Tier) bool {
	return t.Rank() >= 0 && t.Rank() >= floor.Rank()
}

// Behavior says how a feature renders for callers below its tier.
type Behavior string

const (
	BehaviorOpen         Behavior = "open"
	BehaviorTeaser       Behavior = "teaser"
	BehaviorHidden       Behavior = "hidden"
	BehaviorAuthRequired Behavior = "auth_required"
)

// Feature is one gated capability of the API.
//
// Limit is the number of items a teaser shows to callers below Tier.
// Zero means the feature has no truncation limit.
type Feature struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Tier     Tier     `json:"tier"`
	Behavior Behavior `json:"behavior"`
	Limit    int      `json:"limit,omitempty"`
}

// Feature ids referenced by the HTTP layer and the profile gate.
const (
	ProfileOverview  = "profile.overview"
	ProfileBiography = "profile.biography"
	ProfileContact   = "profile.contact"

	SponsoredBills   = "legislation.sponsored_bills"
	CosponsoredBills = "legislation.cosponsored_bills"
	BillDetails      = "legislation.bill_details"
	BillSearch       = "legislation.bill_search"

	FinanceSummary     = "finance.summary"
	FinanceTopDonors   = "finance.top_contributors"
	FinancePAC         = "finance.pac_contributions"
	FinanceExpenditure = "finance.expenditures"

	VotesRecent         = "votes.recent"
	VotesFullHistory    = "votes.full_history"
	VotesPartyAlignment = "votes.party_alignment"

	CommitteesList    = "committees.list"
	CommitteesDetails = "committees.details"

	MetricsScorecard  = "metrics.scorecard"
	MetricsBenchmarks = "metrics.benchmarks"

	NewsRecent  = "news.recent"
	NewsArchive = "news.archive"

	CompareSideBySide = "compare.side_by_side"
	CompareVoting     = "compare.voting_alignment"
	CompareFunding    = "compare.funding_comparison"

	IssuesList         = "issues.list"
	IssuesReport       = "issues.report"
	IssuesVotingRecord = "issues.voting_record"

	UserSavedOfficials   = "user.saved_officials"
	UserAlerts           = "user.alerts"
	UserIssuePreferences = "user.issue_preferences"
	UserSearchHistory    = "user.search_history"

	ExportPDF = "export.pdf"
	ExportCSV = "export.csv"
	ExportAPI = "export.api"

	SearchBasic    = "search.basic"
	SearchAdvanced = "search.advanced"

	ZipLookup  = "zip.lookup"
	ZipHistory = "zip.history"
)

// Features is the static feature table in display order. It is never
// mutated at runtime.
var Features = []Feature{
	{ProfileOverview, "Profile Overview", TierFree, BehaviorOpen, 0},
	{ProfileBiography, "Biography", TierFree, BehaviorOpen, 0},
	{ProfileContact, "Contact Information", TierFree, BehaviorOpen, 0},

	{SponsoredBills, "Sponsored Bills", TierFree, BehaviorTeaser, 5},
	{CosponsoredBills, "Cosponsored Bills", TierPremium, BehaviorHidden, 0},
	{BillDetails, "Bill Details", TierPremium, BehaviorHidden, 0},
	{BillSearch, "Bill Search", TierPremium, BehaviorHidden, 0},

	{FinanceSummary, "Campaign Finance Summary", TierPremium, BehaviorHidden, 0},
	{FinanceTopDonors, "Top Contributors", TierPremium, BehaviorHidden, 0},
	{FinancePAC, "PAC Contributions", TierPremium, BehaviorHidden, 0},
	{FinanceExpenditure, "Expenditures", TierInstitutional, BehaviorHidden, 0},

	{VotesRecent, "Recent Votes", TierFree, BehaviorTeaser, 5},
	{VotesFullHistory, "Full Voting History", TierPremium, BehaviorHidden, 0},
	{VotesPartyAlignment, "Party Alignment", TierPremium, BehaviorHidden, 0},

	{CommitteesList, "Committee Assignments", TierFree, BehaviorOpen, 0},
	{CommitteesDetails, "Committee Details", TierPremium, BehaviorHidden, 0},

	{MetricsScorecard, "Metrics Dashboard", TierPremium, BehaviorTeaser, 0},
	{MetricsBenchmarks, "Chamber Benchmarks", TierPremium, BehaviorHidden, 0},

	{NewsRecent, "Recent News", TierFree, BehaviorTeaser, 3},
	{NewsArchive, "News Archive", TierPremium, BehaviorHidden, 0},

	{CompareSideBySide, "Side-by-Side Comparison", TierPremium, BehaviorHidden, 0},
	{CompareVoting, "Voting Alignment", TierPremium, BehaviorHidden, 0},
	{CompareFunding, "Funding Comparison", TierPremium, BehaviorHidden, 0},

	{IssuesList, "Issue Categories", TierFree, BehaviorOpen, 0},
	{IssuesReport, "Issue Reports", TierPremium, BehaviorHidden, 0},
	{IssuesVotingRecord, "Issue Voting Record", TierPremium, BehaviorHidden, 0},

	{UserSavedOfficials, "Saved Officials", TierFree, BehaviorAuthRequired, 0},
	{UserAlerts, "Alerts", TierPremium, BehaviorHidden, 0},
	{UserIssuePreferences, "Issue Preferences", TierFree, BehaviorAuthRequired, 0},
	{UserSearchHistory, "Search History", TierFree, BehaviorAuthRequired, 0},

	{ExportPDF, "PDF Export", TierPremium, BehaviorHidden, 0},
	{ExportCSV, "CSV Export", TierInstitutional, BehaviorHidden, 0},
	{ExportAPI, "API Access", TierInstitutional, BehaviorHidden, 0},

	{SearchBasic, "Basic Search", TierFree, BehaviorOpen, 0},
	{SearchAdvanced, "Advanced Search", TierPremium, BehaviorHidden, 0},

	{ZipLookup, "Find Representatives", TierFree, BehaviorOpen, 0},
	{ZipHistory, "Lookup History", TierFree, BehaviorAuthRequired, 0},
}

var featureByID = func() map[string]Feature {
	m := make(map[string]Feature, len(Features))
	for _, f := range Features {
		m[f.ID] = f
	}
	return m
}()

// LookupFeature returns the definition of id.
func LookupFeature(id string) (Feature, bool) {
	f, ok := featureByID[id]
	return f, ok
}

// RateLimit is the request budget of one tier. A negative PerDay means the
// daily window is not enforced.
type RateLimit struct {
	PerMinute int `json:"per_minute"`
	PerDay    int `json:"per_day"`
}

// Unlimited marks a window that is never enforced.
const Unlimited = -1

// DefaultRateLimits is the per-tier request budget.
var DefaultRateLimits = map[Tier]RateLimit{
	TierFree:          {PerMinute: 20, PerDay: 500},
	TierPremium:       {PerMinute: 60, PerDay: 5000},
	TierInstitutional: {PerMinute: 200, PerDay: Unlimited},
}

// RateLimitFor returns the default budget of t. Unknown tiers get the free
// budget.
func RateLimitFor(t Tier) RateLimit {
	if l, ok := DefaultRateLimits[t]; ok {
		return l
	}
	return DefaultRateLimits[TierFree]
}
