package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/civics-backend/internal/upstream"
)

func newTestFinance(f upstream.Fetcher) *Finance {
	return NewFinance(f, "fec", WithBaseURL("http://fec.test"))
}

func TestFinance_FindCandidate_PrefersNameMatch(t *testing.T) {
	f := newFake().on("/candidates/search", `{"results":[
		{"candidate_id":"H0XX00001","name":"JOHNSON, MIKE","party_full":"REPUBLICAN PARTY","office_full":"House","state":"LA"},
		{"candidate_id":"H8IL06123","name":"CASTEN, SEAN","party_full":"DEMOCRATIC PARTY","office_full":"House","state":"IL","cycles":[2018,2020]}
	]}`)
	c, err := newTestFinance(f).FindCandidate(context.Background(), "Sean Casten", "IL")
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if c == nil || c.CandidateID != "H8IL06123" || c.Party != "DEMOCRATIC PARTY" || len(c.Cycles) != 2 {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	q := f.query(t, "/candidates/search")
	if q.Get("state") != "IL" || q.Get("sort") != "-election_year" || q.Get("per_page") != "5" || q.Get("is_active_candidate") != "true" {
		t.Fatalf("unexpected params: %v", q)
	}
}

func TestFinance_FindCandidate_FallsBackToFirst(t *testing.T) {
	f := newFake().on("/candidates/search", `{"results":[
		{"name":"missing id"},
		{"candidate_id":"S2XX00002","name":"DOE, JOHN","party":"IND","office":"S"}
	]}`)
	c, err := newTestFinance(f).FindCandidate(context.Background(), "Pat Example", "")
	if err != nil || c == nil {
		t.Fatalf("FindCandidate: %v %v", c, err)
	}
	if c.CandidateID != "S2XX00002" || c.Party != "IND" || c.Office != "S" {
		t.Fatalf("unexpected: %+v", c)
	}
}

func TestFinance_FindCandidate_NoneFound(t *testing.T) {
	f := newFake().on("/candidates/search", `{"results":[]}`)
	c, err := newTestFinance(f).FindCandidate(context.Background(), "Nobody", "")
	if err != nil || c != nil {
		t.Fatalf("want (nil, nil), got %v %v", c, err)
	}
}

func TestFinance_GetFinanceTotals(t *testing.T) {
	f := newFake().
		on("/candidate/H8IL06123/totals", `{"results":[{"cycle":2024,"receipts":1000,"disbursements":400,
			"cash_on_hand_end_period":600,"individual_contributions":700,
			"other_political_committee_contributions":250,"coverage_end_date":"2024-12-31"}]}`).
		on("/candidate/H8IL06123", `{"results":[{"candidate_id":"H8IL06123","name":"CASTEN, SEAN","party_full":"DEMOCRATIC PARTY"}]}`)

	s, err := newTestFinance(f).GetFinanceTotals(context.Background(), "H8IL06123", 0)
	if err != nil || s == nil {
		t.Fatalf("GetFinanceTotals: %v %v", s, err)
	}
	if s.Cycle != 2024 || s.TotalReceipts != 1000 || s.PACContributions != 250 || s.CashOnHand != 600 {
		t.Fatalf("unexpected: %+v", s)
	}
	if s.Name != "CASTEN, SEAN" || s.FECURL != "https://www.fec.gov/data/candidate/H8IL06123/" {
		t.Fatalf("unexpected: %+v", s)
	}
}

func TestFinance_GetFinanceTotals_NoFilings(t *testing.T) {
	f := newFake().on("/candidate/X/totals", `{"results":[]}`)
	s, err := newTestFinance(f).GetFinanceTotals(context.Background(), "X", 2022)
	if err != nil || s != nil {
		t.Fatalf("want (nil, nil), got %v %v", s, err)
	}
	if q := f.query(t, "/candidate/X/totals"); q.Get("cycle") != "2022" {
		t.Fatalf("cycle param missing: %v", q)
	}
}

func TestFinance_GetTopContributors(t *testing.T) {
	f := newFake().
		on("/candidate/H1/committees", `{"results":[{"committee_id":"C001"}]}`).
		on("/schedules/schedule_a", `{"results":[
			{"contributor_name":"A","contributor_employer":"Acme","contribution_receipt_amount":3300,"contribution_receipt_date":"2024-01-02"},
			{"contributor_name":"B","contribution_receipt_amount":-5}
		]}`)
	got, err := newTestFinance(f).GetTopContributors(context.Background(), "H1", 0)
	if err != nil {
		t.Fatalf("GetTopContributors: %v", err)
	}
	if len(got) != 2 || got[0].Employer != "Acme" || got[0].Amount != 3300 {
		t.Fatalf("unexpected: %+v", got)
	}
	q := f.query(t, "/schedules/schedule_a")
	if q.Get("committee_id") != "C001" || q.Get("per_page") != "10" || q.Get("is_individual") != "true" {
		t.Fatalf("unexpected params: %v", q)
	}
	if q := f.query(t, "/candidate/H1/committees"); q.Get("designation") != "P" {
		t.Fatalf("should ask for the principal committee: %v", q)
	}
}

func TestFinance_GetTopContributors_NoCommittee(t *testing.T) {
	f := newFake().on("/candidate/H1/committees", `{"results":[]}`)
	got, err := newTestFinance(f).GetTopContributors(context.Background(), "H1", 5)
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("want empty list, got %v %v", got, err)
	}
}

func TestFinance_MissingKey(t *testing.T) {
	_, err := NewFinance(newFake(), "").FindCandidate(context.Background(), "x", "")
	var ce *upstream.ConfigurationError
	if !errors.As(err, &ce) || ce.Provider != "fec" {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
}
