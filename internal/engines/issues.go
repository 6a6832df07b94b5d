package engines

import (
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
)

// issueKeywords are matched against "question billNumber" of a vote.
var issueKeywords = map[IssueID][]string{
	IssueHealthcare:     {"health", "medicare", "medicaid", "hospital", "drug", "pharmaceutical"},
	IssueEconomy:        {"economy", "jobs", "employment", "labor", "wage", "business", "commerce", "trade"},
	IssueEducation:      {"education", "school", "student", "university", "college", "teacher"},
	IssueEnvironment:    {"climate", "environment", "energy", "emission", "pollution", "conservation"},
	IssueDefense:        {"defense", "military", "armed forces", "veteran", "national security"},
	IssueImmigration:    {"immigration", "border", "visa", "asylum", "refugee", "citizenship"},
	IssueCivilRights:    {"civil rights", "voting rights", "discrimination", "equality", "justice"},
	IssueTaxation:       {"tax", "revenue", "irs", "fiscal", "budget", "deficit"},
	IssueInfrastructure: {"infrastructure", "highway", "bridge", "broadband", "transportation", "water"},
	IssueTechnology:     {"technology", "privacy", "cyber", "data", "artificial intelligence", "internet"},
	IssueAgriculture:    {"farm", "agriculture", "food", "crop", "rural"},
	IssueForeignPolicy:  {"foreign", "international", "treaty", "diplomatic", "sanction", "nato"},
}

// VoteMatchesIssue reports whether a vote's question or bill number
// mentions one of the issue's keywords.
func VoteMatchesIssue(v domain.VoteRecord, id IssueID) bool {
	text := lower(v.Question + " " + v.BillNumber)
	for _, kw := range issueKeywords[id] {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// IssueVoteSummary totals an official's activity on one issue.
type IssueVoteSummary struct {
	TotalBills int `json:"total_bills"`
	TotalVotes int `json:"total_votes"`
	YeaVotes   int `json:"yea_votes"`
	NayVotes   int `json:"nay_votes"`
}

// IssueReport is an official's record on a single issue.
type IssueReport struct {
	IssueID      IssueID             `json:"issue_id"`
	Label        string              `json:"label"`
	OfficialName string              `json:"official_name"`
	RelatedBills []CategorizedBill   `json:"related_bills"`
	RelatedVotes []domain.VoteRecord `json:"related_votes"`
	Summary      IssueVoteSummary    `json:"summary"`
}

// Empty reports whether the report has neither bills nor votes.
func (r IssueReport) Empty() bool {
	return len(r.RelatedBills) == 0 && len(r.RelatedVotes) == 0
}

// GenerateIssueReport collects the profile's bills and the given votes that
// touch issue. Unknown issues produce an empty report labelled with the id.
func GenerateIssueReport(p *domain.OfficialProfile, votes []domain.VoteRecord, issue IssueID) IssueReport {
	label := string(issue)
	if c, ok := LookupIssue(string(issue)); ok {
		label = c.Label
	}
	r := IssueReport{
		IssueID:      issue,
		Label:        label,
		RelatedBills: []CategorizedBill{},
		RelatedVotes: []domain.VoteRecord{},
	}
	if p != nil {
		r.OfficialName = p.Member.Name
		r.RelatedBills = FilterByIssue(CategorizeBills(p.Bills), issue)
	}
	for _, v := range votes {
		if !VoteMatchesIssue(v, issue) {
			continue
		}
		r.RelatedVotes = append(r.RelatedVotes, v)
		switch v.MemberPosition {
		case domain.PositionYea:
			r.Summary.YeaVotes++
		case domain.PositionNay:
			r.Summary.NayVotes++
		}
	}
	r.Summary.TotalBills = len(r.RelatedBills)
	r.Summary.TotalVotes = len(r.RelatedVotes)
	return r
}

// GenerateAllReports builds one report per catalogue issue, dropping the
// empty ones.
func GenerateAllReports(p *domain.OfficialProfile, votes []domain.VoteRecord) []IssueReport {
	out := []IssueReport{}
	for _, c := range IssueCategories {
		if r := GenerateIssueReport(p, votes, c.ID); !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}
