// Package domain defines the civic records assembled from upstream providers
// and the persistence models backing the durable cache and usage metrics.
package domain

import (
	"strconv"
	"time"
)

// Chamber identifies a legislative chamber.
type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// VotePosition is a member's recorded position on a roll-call vote.
type VotePosition string

const (
	PositionYea       VotePosition = "Yea"
	PositionNay       VotePosition = "Nay"
	PositionNotVoting VotePosition = "Not Voting"
	PositionPresent   VotePosition = "Present"
)

// NormalizePosition maps provider spellings onto the four positions.
// Anything unrecognized is treated as not voting.
func NormalizePosition(raw string) VotePosition {
	switch raw {
	case "Yea", "Aye", "Yes", "yea", "aye", "yes":
		return PositionYea
	case "Nay", "No", "nay", "no":
		return PositionNay
	case "Present", "present":
		return PositionPresent
	default:
		return PositionNotVoting
	}
}

// CommitteeRole is a member's role on a committee.
type CommitteeRole string

const (
	RoleChair         CommitteeRole = "Chair"
	RoleRankingMember CommitteeRole = "Ranking Member"
	RoleMember        CommitteeRole = "Member"
)

// MemberSummary identifies one elected official.
type MemberSummary struct {
	BioguideID    string  `json:"bioguide_id"`
	Name          string  `json:"name"`
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	Party         string  `json:"party"`
	State         string  `json:"state"`
	District      string  `json:"district,omitempty"`
	Chamber       Chamber `json:"chamber"`
	Depiction     string  `json:"depiction,omitempty"`
	OfficialURL   string  `json:"official_url,omitempty"`
	CurrentMember bool    `json:"current_member"`
}

// Term is one congressional term served.
type Term struct {
	Chamber   string `json:"chamber"`
	Congress  int    `json:"congress"`
	StartYear int    `json:"start_year"`
}

// MemberDetail extends MemberSummary with service history.
type MemberDetail struct {
	MemberSummary
	BirthYear        string `json:"birth_year,omitempty"`
	Terms            []Term `json:"terms"`
	SponsoredCount   int    `json:"sponsored_count"`
	CosponsoredCount int    `json:"cosponsored_count"`
}

// BillSummary is a piece of legislation. (Type, Number) is unique within a Congress.
type BillSummary struct {
	Congress       int    `json:"congress"`
	Type           string `json:"type"`
	Number         int    `json:"number"`
	Title          string `json:"title"`
	IntroducedDate string `json:"introduced_date"`
	LatestAction   string `json:"latest_action"`
	PolicyArea     string `json:"policy_area,omitempty"`
	URL            string `json:"url"`
}

// Key returns the bill's natural key, e.g. "HR1234".
func (b BillSummary) Key() string { return b.Type + strconv.Itoa(b.Number) }

// PartyTally counts positions cast by one party on a vote.
type PartyTally struct {
	Yea       int `json:"yea"`
	Nay       int `json:"nay"`
	NotVoting int `json:"not_voting"`
}

// PartyBreakdown is the per-party tally of a roll-call vote.
type PartyBreakdown struct {
	Democratic PartyTally `json:"democratic"`
	Republican PartyTally `json:"republican"`
}

// VoteRecord is one roll-call vote joined with the tracked member's position.
type VoteRecord struct {
	Date           string         `json:"date"`
	Question       string         `json:"question"`
	Result         string         `json:"result"`
	MemberPosition VotePosition   `json:"member_position"`
	PartyBreakdown PartyBreakdown `json:"party_breakdown"`
	BillNumber     string         `json:"bill_number,omitempty"`
	URL            string         `json:"url,omitempty"`
}

// Subcommittee is a sub-assignment under a committee.
type Subcommittee struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// CommitteeAssignment is a member's seat on a committee.
type CommitteeAssignment struct {
	Name          string         `json:"name"`
	Code          string         `json:"code"`
	Role          CommitteeRole  `json:"role"`
	Chamber       string         `json:"chamber"`
	URL           string         `json:"url"`
	Subcommittees []Subcommittee `json:"subcommittees,omitempty"`
}

// FinanceSummary is one funding-cycle snapshot for a candidate.
type FinanceSummary struct {
	CandidateID             string  `json:"candidate_id"`
	Name                    string  `json:"name"`
	Party                   string  `json:"party"`
	Office                  string  `json:"office"`
	Cycle                   int     `json:"cycle"`
	TotalReceipts           float64 `json:"total_receipts"`
	TotalDisbursements      float64 `json:"total_disbursements"`
	CashOnHand              float64 `json:"cash_on_hand"`
	IndividualContributions float64 `json:"individual_contributions"`
	PACContributions        float64 `json:"pac_contributions"`
	LastReportDate          string  `json:"last_report_date,omitempty"`
	FECURL                  string  `json:"fec_url"`
}

// ContributorRecord is a single contribution line item.
type ContributorRecord struct {
	Name     string  `json:"name"`
	Employer string  `json:"employer,omitempty"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
}

// Candidate is a campaign-finance search hit.
type Candidate struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Party       string `json:"party"`
	Office      string `json:"office"`
	State       string `json:"state"`
	Cycles      []int  `json:"cycles,omitempty"`
}

// FinanceResult is the finance sub-resource of a profile. Found=false is a
// valid "no candidate on file" answer, not a failure.
type FinanceResult struct {
	Found           bool                `json:"found"`
	Candidate       *FinanceSummary     `json:"candidate,omitempty"`
	TopContributors []ContributorRecord `json:"top_contributors,omitempty"`
}

// Channel is a social or contact channel of a representative.
type Channel struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RepresentativeInfo is one official returned by a zip lookup.
type RepresentativeInfo struct {
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Party      string    `json:"party"`
	Chamber    string    `json:"chamber"`
	PhotoURL   string    `json:"photo_url,omitempty"`
	BioguideID string    `json:"bioguide_id,omitempty"`
	Phones     []string  `json:"phones"`
	URLs       []string  `json:"urls"`
	Channels   []Channel `json:"channels"`
}

// ZipLookupResult lists the officials representing a postal code.
type ZipLookupResult struct {
	ZipCode   string               `json:"zip_code"`
	State     string               `json:"state"`
	City      string               `json:"city,omitempty"`
	Officials []RepresentativeInfo `json:"officials"`
}

// WikipediaBio is an encyclopedic page summary.
type WikipediaBio struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	PageURL     string `json:"page_url"`
	Context     string `json:"context,omitempty"`
}

// WikidataFacts are structured biographical attributes.
type WikidataFacts struct {
	EntityID   string   `json:"entity_id"`
	BirthDate  string   `json:"birth_date,omitempty"`
	BirthPlace string   `json:"birth_place,omitempty"`
	Spouse     []string `json:"spouse,omitempty"`
	Religion   string   `json:"religion,omitempty"`
	Website    string   `json:"website,omitempty"`
	Education  []string `json:"education,omitempty"`
	Occupation []string `json:"occupation,omitempty"`
}

// NewsArticle is a single news search hit.
type NewsArticle struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"published_at"`
	ImageURL    string `json:"image_url,omitempty"`
}

// Biography pairs the free-text summary with structured facts. Either side
// may be nil when its provider had nothing.
type Biography struct {
	Wikipedia *WikipediaBio  `json:"biography,omitempty"`
	Wikidata  *WikidataFacts `json:"wikidata_facts,omitempty"`
}

// MemberProfile is the load-bearing core of every profile: detail plus bills.
type MemberProfile struct {
	Member MemberDetail  `json:"member"`
	Bills  []BillSummary `json:"bills"`
}

// OfficialProfile is the unified aggregate for one official. Supplementary
// fields are nil when their provider failed or had nothing.
type OfficialProfile struct {
	Member        MemberDetail          `json:"member"`
	Bills         []BillSummary         `json:"bills"`
	Finance       *FinanceResult        `json:"finance,omitempty"`
	Biography     *WikipediaBio         `json:"biography,omitempty"`
	WikidataFacts *WikidataFacts        `json:"wikidata_facts,omitempty"`
	News          []NewsArticle         `json:"news,omitempty"`
	Votes         []VoteRecord          `json:"votes,omitempty"`
	Committees    []CommitteeAssignment `json:"committees,omitempty"`
	Scorecard     *Scorecard            `json:"scorecard,omitempty"`

	// Set by tier gating when the matching list was cut short.
	VotesLimited bool `json:"votes_limited,omitempty"`
	BillsLimited bool `json:"bills_limited,omitempty"`
	NewsLimited  bool `json:"news_limited,omitempty"`
}

// MetricDimension is one benchmarked scorecard measurement.
type MetricDimension struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Value       float64 `json:"value"`
	Benchmark   float64 `json:"benchmark"`
	Unit        string  `json:"unit"`
	Context     string  `json:"context"`
}

// Scorecard is the metrics dashboard for one official.
type Scorecard struct {
	BioguideID  string            `json:"bioguide_id"`
	Name        string            `json:"name"`
	Chamber     Chamber           `json:"chamber"`
	Dimensions  []MetricDimension `json:"dimensions"`
	GeneratedAt time.Time         `json:"generated_at"`
}
