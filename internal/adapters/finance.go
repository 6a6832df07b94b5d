package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/sysutil"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const fecBaseURL = "https://api.open.fec.gov/v1"

// Finance reads candidates, totals and itemized receipts from the
// campaign-finance API.
type Finance struct {
	fetch  upstream.Fetcher
	apiKey string
	ep     endpoint
}

// NewFinance returns a Finance adapter.
func NewFinance(f upstream.Fetcher, apiKey string, opts ...Option) *Finance {
	return &Finance{fetch: f, apiKey: apiKey, ep: newEndpoint(fecBaseURL, "", opts)}
}

func (f *Finance) get(ctx context.Context, path string, params url.Values, out any) error {
	if f.apiKey == "" {
		return missingKey("fec", "FEC_API_KEY")
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", f.apiKey)
	return f.fetch.FetchJSON(ctx, upstream.Get(f.ep.baseURL+path+"?"+params.Encode()), out)
}

type rawCandidate struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Name        string `json:"name"`
	PartyFull   string `json:"party_full"`
	Party       string `json:"party"`
	OfficeFull  string `json:"office_full"`
	Office      string `json:"office"`
	State       string `json:"state" validate:"omitempty,len=2"`
	Cycles      []int  `json:"cycles"`
}

type rawTotals struct {
	Cycle                   int     `json:"cycle" validate:"required"`
	Receipts                float64 `json:"receipts"`
	Disbursements           float64 `json:"disbursements"`
	CashOnHandEndPeriod     float64 `json:"cash_on_hand_end_period"`
	IndividualContributions float64 `json:"individual_contributions"`
	OtherCommitteeContribs  float64 `json:"other_political_committee_contributions"`
	CoverageEndDate         string  `json:"coverage_end_date"`
}

type rawReceipt struct {
	ContributorName     string  `json:"contributor_name"`
	ContributorEmployer string  `json:"contributor_employer"`
	Amount              float64 `json:"contribution_receipt_amount" validate:"gte=0"`
	Date                string  `json:"contribution_receipt_date"`
}

// FindCandidate searches active candidates by name, newest election first,
// and keeps the first result whose name contains the query or whose
// surname (the part before the comma) is contained in it. Without such a
// match the top result is used. (nil, nil) means nobody was found.
func (f *Finance) FindCandidate(ctx context.Context, name, state string) (*domain.Candidate, error) {
	params := url.Values{
		"q":                   {name},
		"sort":                {"-election_year"},
		"per_page":            {"5"},
		"is_active_candidate": {"true"},
	}
	if state != "" {
		params.Set("state", state)
	}
	var resp struct {
		Results []rawCandidate `json:"results"`
	}
	if err := f.get(ctx, "/candidates/search", params, &resp); err != nil {
		return nil, err
	}

	valid := resp.Results[:0]
	for _, c := range resp.Results {
		if checkShape(ctx, "fec.candidate", &c) == nil {
			valid = append(valid, c)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}

	match := valid[0]
	query := strings.ToLower(name)
	for _, c := range valid {
		lower := strings.ToLower(c.Name)
		surname, _, _ := strings.Cut(lower, ",")
		if strings.Contains(lower, query) || (surname != "" && strings.Contains(query, surname)) {
			match = c
			break
		}
	}
	return &domain.Candidate{
		CandidateID: match.CandidateID,
		Name:        match.Name,
		Party:       sysutil.FirstNonEmpty(match.PartyFull, match.Party),
		Office:      sysutil.FirstNonEmpty(match.OfficeFull, match.Office),
		State:       match.State,
		Cycles:      match.Cycles,
	}, nil
}

// GetFinanceTotals returns the latest (or the given) cycle's totals.
// (nil, nil) means the candidate has no filings.
func (f *Finance) GetFinanceTotals(ctx context.Context, candidateID string, cycle int) (*domain.FinanceSummary, error) {
	params := url.Values{"per_page": {"1"}, "sort": {"-cycle"}}
	if cycle > 0 {
		params.Set("cycle", strconv.Itoa(cycle))
	}
	var totals struct {
		Results []rawTotals `json:"results"`
	}
	id := url.PathEscape(candidateID)
	if err := f.get(ctx, "/candidate/"+id+"/totals", params, &totals); err != nil {
		return nil, err
	}
	if len(totals.Results) == 0 {
		return nil, nil
	}
	t := totals.Results[0]
	if err := checkShape(ctx, "fec.totals", &t); err != nil {
		return nil, nil
	}

	var info struct {
		Results []rawCandidate `json:"results"`
	}
	if err := f.get(ctx, "/candidate/"+id, nil, &info); err != nil {
		return nil, err
	}
	var c rawCandidate
	if len(info.Results) > 0 {
		c = info.Results[0]
	}

	return &domain.FinanceSummary{
		CandidateID:             candidateID,
		Name:                    c.Name,
		Party:                   sysutil.FirstNonEmpty(c.PartyFull, c.Party),
		Office:                  sysutil.FirstNonEmpty(c.OfficeFull, c.Office),
		Cycle:                   t.Cycle,
		TotalReceipts:           t.Receipts,
		TotalDisbursements:      t.Disbursements,
		CashOnHand:              t.CashOnHandEndPeriod,
		IndividualContributions: t.IndividualContributions,
		PACContributions:        t.OtherCommitteeContribs,
		LastReportDate:          t.CoverageEndDate,
		FECURL:                  fmt.Sprintf("https://www.fec.gov/data/candidate/%s/", candidateID),
	}, nil
}

// GetTopContributors returns the largest individual receipts of the
// candidate's principal campaign committee. limit <= 0 means 10.
func (f *Finance) GetTopContributors(ctx context.Context, candidateID string, limit int) ([]domain.ContributorRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	var cmte struct {
		Results []struct {
			CommitteeID string `json:"committee_id"`
		} `json:"results"`
	}
	params := url.Values{"per_page": {"1"}, "designation": {"P"}}
	if err := f.get(ctx, "/candidate/"+url.PathEscape(candidateID)+"/committees", params, &cmte); err != nil {
		return nil, err
	}
	if len(cmte.Results) == 0 || cmte.Results[0].CommitteeID == "" {
		return []domain.ContributorRecord{}, nil
	}

	var sched struct {
		Results []rawReceipt `json:"results"`
	}
	params = url.Values{
		"committee_id":  {cmte.Results[0].CommitteeID},
		"sort":          {"-contribution_receipt_amount"},
		"per_page":      {strconv.Itoa(limit)},
		"is_individual": {"true"},
	}
	if err := f.get(ctx, "/schedules/schedule_a", params, &sched); err != nil {
		return nil, err
	}
	out := make([]domain.ContributorRecord, 0, len(sched.Results))
	for _, r := range sched.Results {
		_ = checkShape(ctx, "fec.schedule_a", &r)
		out = append(out, domain.ContributorRecord{
			Name:     r.ContributorName,
			Employer: r.ContributorEmployer,
			Amount:   r.Amount,
			Date:     r.Date,
		})
	}
	return out, nil
}
