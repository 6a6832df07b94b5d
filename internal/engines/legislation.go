// Package engines holds the pure analysis functions run over assembled
// profiles: bill categorization, issue reports, side-by-side comparison
// and the metrics scorecard. Nothing here performs I/O.
package engines

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/civics-backend/internal/domain"
)

// IssueID names one of the issue categories.
type IssueID string

const (
	IssueHealthcare     IssueID = "healthcare"
	IssueEconomy        IssueID = "economy"
	IssueEducation      IssueID = "education"
	IssueEnvironment    IssueID = "environment"
	IssueDefense        IssueID = "defense"
	IssueImmigration    IssueID = "immigration"
	IssueCivilRights    IssueID = "civil-rights"
	IssueTaxation       IssueID = "taxation"
	IssueInfrastructure IssueID = "infrastructure"
	IssueTechnology     IssueID = "technology"
	IssueAgriculture    IssueID = "agriculture"
	IssueForeignPolicy  IssueID = "foreign-policy"
)

// IssueCategory is a display entry of the issue catalogue.
type IssueCategory struct {
	ID    IssueID `json:"id"`
	Label string  `json:"label"`
}

// IssueCategories is the fixed catalogue, in display order.
var IssueCategories = []IssueCategory{
	{IssueHealthcare, "Healthcare"},
	{IssueEconomy, "Economy & Jobs"},
	{IssueEducation, "Education"},
	{IssueEnvironment, "Environment & Climate"},
	{IssueDefense, "Defense & Security"},
	{IssueImmigration, "Immigration"},
	{IssueCivilRights, "Civil Rights"},
	{IssueTaxation, "Taxation"},
	{IssueInfrastructure, "Infrastructure"},
	{IssueTechnology, "Technology & Privacy"},
	{IssueAgriculture, "Agriculture"},
	{IssueForeignPolicy, "Foreign Policy"},
}

// LookupIssue returns the catalogue entry for id.
func LookupIssue(id string) (IssueCategory, bool) {
	for _, c := range IssueCategories {
		if string(c.ID) == id {
			return c, true
		}
	}
	return IssueCategory{}, false
}

// policyAreaIssues maps provider policy-area labels onto issues.
var policyAreaIssues = map[string][]IssueID{
	"Health":                                      {IssueHealthcare},
	"Economics and Public Finance":                {IssueEconomy, IssueTaxation},
	"Education":                                   {IssueEducation},
	"Environmental Protection":                    {IssueEnvironment},
	"Energy":                                      {IssueEnvironment, IssueInfrastructure},
	"Armed Forces and National Security":          {IssueDefense},
	"Immigration":                                 {IssueImmigration},
	"Civil Rights and Liberties, Minority Issues": {IssueCivilRights},
	"Taxation":                                    {IssueTaxation},
	"Transportation and Public Works":             {IssueInfrastructure},
	"Science, Technology, Communications":         {IssueTechnology},
	"Agriculture and Food":                        {IssueAgriculture},
	"International Affairs":                       {IssueForeignPolicy},
	"Crime and Law Enforcement":                   {IssueCivilRights},
	"Labor and Employment":                        {IssueEconomy},
	"Housing and Community Development":           {IssueEconomy, IssueInfrastructure},
	"Social Welfare":                              {IssueHealthcare, IssueEconomy},
	"Finance and Financial Sector":                {IssueEconomy},
	"Commerce":                                    {IssueEconomy, IssueTechnology},
	"Government Operations and Politics":          {IssueCivilRights},
	"Native Americans":                            {IssueCivilRights},
	"Public Lands and Natural Resources":          {IssueEnvironment},
	"Water Resources Development":                 {IssueEnvironment, IssueInfrastructure},
	"Emergency Management":                        {IssueDefense},
}

// titleKeywords are substring rules applied to lower-cased bill titles.
// Plain substring matching is deliberate and over-matches ("tax" in
// "taxi"); keep it that way unless the rules are revisited as a whole.
var titleKeywords = []struct {
	word  string
	issue IssueID
}{
	{"health", IssueHealthcare}, {"medicare", IssueHealthcare}, {"medicaid", IssueHealthcare},
	{"tax", IssueTaxation}, {"revenue", IssueTaxation},
	{"education", IssueEducation}, {"school", IssueEducation}, {"student", IssueEducation},
	{"climate", IssueEnvironment}, {"energy", IssueEnvironment}, {"emissions", IssueEnvironment},
	{"defense", IssueDefense}, {"military", IssueDefense}, {"veterans", IssueDefense},
	{"immigra", IssueImmigration}, {"border", IssueImmigration}, {"visa", IssueImmigration},
	{"civil rights", IssueCivilRights}, {"voting rights", IssueCivilRights},
	{"infrastructure", IssueInfrastructure}, {"highway", IssueInfrastructure}, {"broadband", IssueInfrastructure},
	{"technology", IssueTechnology}, {"privacy", IssueTechnology}, {"cyber", IssueTechnology},
	{"farm", IssueAgriculture}, {"agriculture", IssueAgriculture},
	{"foreign", IssueForeignPolicy}, {"international", IssueForeignPolicy}, {"treaty", IssueForeignPolicy},
}

// CategorizedBill is a bill tagged with the issues it touches.
type CategorizedBill struct {
	domain.BillSummary
	Categories []IssueID `json:"categories"`
	Summary    string    `json:"summary,omitempty"`
}

// lower folds s for keyword matching. A Caser is not safe for concurrent
// use, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.English).String(s)
}

// CategorizeBill tags b from its policy area and title keywords. A bill
// may land in several issues or none; policy-area issues come first.
func CategorizeBill(b domain.BillSummary) CategorizedBill {
	seen := make(map[IssueID]bool)
	cats := []IssueID{}
	add := func(id IssueID) {
		if !seen[id] {
			seen[id] = true
			cats = append(cats, id)
		}
	}
	for _, id := range policyAreaIssues[b.PolicyArea] {
		add(id)
	}
	title := lower(b.Title)
	for _, kw := range titleKeywords {
		if strings.Contains(title, kw.word) {
			add(kw.issue)
		}
	}
	return CategorizedBill{BillSummary: b, Categories: cats}
}

// CategorizeBills tags every bill, preserving order.
func CategorizeBills(bills []domain.BillSummary) []CategorizedBill {
	out := make([]CategorizedBill, 0, len(bills))
	for _, b := range bills {
		out = append(out, CategorizeBill(b))
	}
	return out
}

// FilterByIssue keeps the bills tagged with id.
func FilterByIssue(bills []CategorizedBill, id IssueID) []CategorizedBill {
	out := []CategorizedBill{}
	for _, b := range bills {
		for _, c := range b.Categories {
			if c == id {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// IssueSummary counts tagged bills per catalogue issue, zeros included.
func IssueSummary(bills []CategorizedBill) map[IssueID]int {
	counts := make(map[IssueID]int, len(IssueCategories))
	for _, c := range IssueCategories {
		counts[c.ID] = len(FilterByIssue(bills, c.ID))
	}
	return counts
}

// BillsByIssue groups bills under every issue they are tagged with.
// Issues without bills are absent from the map.
func BillsByIssue(bills []domain.BillSummary) map[IssueID][]CategorizedBill {
	out := make(map[IssueID][]CategorizedBill)
	for _, cb := range CategorizeBills(bills) {
		for _, id := range cb.Categories {
			out[id] = append(out[id], cb)
		}
	}
	return out
}

// PolicyAreaCounts counts bills per provider policy area; bills without
// one are skipped.
func PolicyAreaCounts(bills []domain.BillSummary) map[string]int {
	out := make(map[string]int)
	for _, b := range bills {
		if b.PolicyArea != "" {
			out[b.PolicyArea]++
		}
	}
	return out
}
