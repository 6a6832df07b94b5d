package engines

import (
	"math"
	"regexp"
	"sort"

	"github.com/tbourn/civics-backend/internal/domain"
)

// ComparedOfficial is the headline block for one side of a comparison.
type ComparedOfficial struct {
	BioguideID       string         `json:"bioguide_id"`
	Name             string         `json:"name"`
	Party            string         `json:"party"`
	State            string         `json:"state"`
	Chamber          domain.Chamber `json:"chamber"`
	SponsoredCount   int            `json:"sponsored_count"`
	CosponsoredCount int            `json:"cosponsored_count"`
}

// FundingShare is one official's funding mix, rounded to whole numbers.
type FundingShare struct {
	TotalReceipts float64 `json:"total_receipts"`
	IndividualPct float64 `json:"individual_pct"`
	PACPct        float64 `json:"pac_pct"`
}

// FundingComparison pairs the two funding mixes. An official without
// finance data contributes a zero share.
type FundingComparison struct {
	Official1 FundingShare `json:"official1"`
	Official2 FundingShare `json:"official2"`
}

// FocusArea compares bill counts in one policy area.
type FocusArea struct {
	IssueID   string `json:"issue_id"`
	Label     string `json:"label"`
	Official1 int    `json:"official1"`
	Official2 int    `json:"official2"`
}

// Comparison is the side-by-side result for two officials.
type Comparison struct {
	Officials        [2]ComparedOfficial  `json:"officials"`
	SharedBills      []domain.BillSummary `json:"shared_bills"`
	VotingAlignment  *int                 `json:"voting_alignment,omitempty"`
	Funding          FundingComparison    `json:"funding_comparison"`
	LegislativeFocus []FocusArea          `json:"legislative_focus"`
}

// Compare builds the comparison of two full profiles. It is pure and does
// not mutate either profile.
func Compare(p1, p2 *domain.OfficialProfile) Comparison {
	return Comparison{
		Officials:        [2]ComparedOfficial{compared(p1), compared(p2)},
		SharedBills:      SharedBills(p1.Bills, p2.Bills),
		VotingAlignment:  VotingAlignment(p1.Votes, p2.Votes),
		Funding:          fundingComparison(p1.Finance, p2.Finance),
		LegislativeFocus: focusComparison(p1.Bills, p2.Bills),
	}
}

func compared(p *domain.OfficialProfile) ComparedOfficial {
	m := p.Member
	return ComparedOfficial{
		BioguideID:       m.BioguideID,
		Name:             m.Name,
		Party:            m.Party,
		State:            m.State,
		Chamber:          m.Chamber,
		SponsoredCount:   m.SponsoredCount,
		CosponsoredCount: m.CosponsoredCount,
	}
}

// SharedBills returns the bills of a whose (type, number) also appears in b.
func SharedBills(a, b []domain.BillSummary) []domain.BillSummary {
	keys := make(map[string]bool, len(b))
	for _, bill := range b {
		keys[bill.Key()] = true
	}
	out := []domain.BillSummary{}
	for _, bill := range a {
		if keys[bill.Key()] {
			out = append(out, bill)
		}
	}
	return out
}

func voteKey(v domain.VoteRecord) string { return v.Date + ":" + v.Question }

// VotingAlignment is the rounded percentage of shared votes, keyed by date
// and question, on which both officials cast the same position. Votes where
// either side did not vote are ignored. Nil means no shared votes.
func VotingAlignment(a, b []domain.VoteRecord) *int {
	positions := func(vs []domain.VoteRecord) map[string]domain.VotePosition {
		m := make(map[string]domain.VotePosition, len(vs))
		for _, v := range vs {
			m[voteKey(v)] = v.MemberPosition
		}
		return m
	}
	pa, pb := positions(a), positions(b)

	shared, aligned := 0, 0
	for k, pos := range pa {
		other, ok := pb[k]
		if !ok || pos == domain.PositionNotVoting || other == domain.PositionNotVoting {
			continue
		}
		shared++
		if pos == other {
			aligned++
		}
	}
	if shared == 0 {
		return nil
	}
	pct := int(math.Round(float64(aligned) / float64(shared) * 100))
	return &pct
}

func fundingShare(r *domain.FinanceResult) FundingShare {
	if r == nil || r.Candidate == nil {
		return FundingShare{}
	}
	f := r.Candidate
	s := FundingShare{TotalReceipts: math.Round(f.TotalReceipts)}
	if f.TotalReceipts > 0 {
		s.IndividualPct = math.Round(f.IndividualContributions / f.TotalReceipts * 100)
		s.PACPct = math.Round(f.PACContributions / f.TotalReceipts * 100)
	}
	return s
}

func fundingComparison(a, b *domain.FinanceResult) FundingComparison {
	return FundingComparison{Official1: fundingShare(a), Official2: fundingShare(b)}
}

var spaces = regexp.MustCompile(`\s+`)

// IssueSlug turns a policy-area label into an id, e.g. "Health Care" -> "health-care".
func IssueSlug(area string) string {
	return spaces.ReplaceAllString(lower(area), "-")
}

func focusComparison(a, b []domain.BillSummary) []FocusArea {
	ca, cb := PolicyAreaCounts(a), PolicyAreaCounts(b)

	// first-seen order breaks ties in the sort below
	var areas []string
	seen := make(map[string]bool)
	for _, bills := range [][]domain.BillSummary{a, b} {
		for _, bill := range bills {
			if bill.PolicyArea != "" && !seen[bill.PolicyArea] {
				seen[bill.PolicyArea] = true
				areas = append(areas, bill.PolicyArea)
			}
		}
	}

	out := make([]FocusArea, 0, len(areas))
	for _, area := range areas {
		out = append(out, FocusArea{
			IssueID:   IssueSlug(area),
			Label:     area,
			Official1: ca[area],
			Official2: cb[area],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Official1+out[i].Official2 > out[j].Official1+out[j].Official2
	})
	return out
}
