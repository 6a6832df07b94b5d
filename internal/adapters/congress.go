package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/sysutil"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const (
	congressBaseURL = "https://api.congress.gov/v3"

	// CurrentCongress is the session queried for votes and committees.
	CurrentCongress = 119

	// voteBatchSize bounds concurrent vote-detail fetches.
	voteBatchSize = 5
)

// Congress reads members, bills, votes and committees from the
// legislative data API.
type Congress struct {
	fetch    upstream.Fetcher
	apiKey   string
	ep       endpoint
	congress int
}

// NewCongress returns a Congress adapter. An empty apiKey is accepted here;
// every call then fails with *upstream.ConfigurationError.
func NewCongress(f upstream.Fetcher, apiKey string, opts ...Option) *Congress {
	return &Congress{
		fetch:    f,
		apiKey:   apiKey,
		ep:       newEndpoint(congressBaseURL, "", opts),
		congress: CurrentCongress,
	}
}

func (c *Congress) url(path string, params url.Values) (string, error) {
	if c.apiKey == "" {
		return "", missingKey("congress", "CONGRESS_API_KEY")
	}
	return withKey(c.ep.baseURL+path, params, c.apiKey)
}

// withKey appends api_key and format=json to raw, keeping any query the
// URL already carries.
func withKey(raw string, params url.Values, key string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", key)
	q.Set("format", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Congress) get(ctx context.Context, path string, params url.Values, out any) error {
	u, err := c.url(path, params)
	if err != nil {
		return err
	}
	return c.fetch.FetchJSON(ctx, upstream.Get(u), out)
}

// ---- raw shapes ----

type rawCount struct {
	Count int `json:"count"`
}

type rawTerm struct {
	Chamber   string  `json:"chamber"`
	Congress  flexInt `json:"congress"`
	StartYear flexInt `json:"startYear"`
}

// rawTerms accepts both the detail shape (a bare array) and the list shape
// ({"item": [...]}).
type rawTerms []rawTerm

func (t *rawTerms) UnmarshalJSON(b []byte) error {
	var arr []rawTerm
	if err := json.Unmarshal(b, &arr); err == nil {
		*t = arr
		return nil
	}
	var wrapped struct {
		Item []rawTerm `json:"item"`
	}
	if err := json.Unmarshal(b, &wrapped); err != nil {
		return err
	}
	*t = wrapped.Item
	return nil
}

type rawSubcommittee struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type rawCommittee struct {
	Name          string            `json:"name"`
	SystemCode    string            `json:"systemCode"`
	Code          string            `json:"code"`
	Role          string            `json:"role"`
	Chamber       string            `json:"chamber"`
	Subcommittees []rawSubcommittee `json:"subcommittees"`
}

type rawMember struct {
	BioguideID      string     `json:"bioguideId" validate:"required"`
	DirectOrderName string     `json:"directOrderName"`
	Name            string     `json:"name"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	PartyName       string     `json:"partyName"`
	Party           string     `json:"party"`
	State           string     `json:"state"`
	District        flexString `json:"district"`
	Terms           rawTerms   `json:"terms"`
	Depiction       struct {
		ImageURL string `json:"imageUrl" validate:"omitempty,url"`
	} `json:"depiction"`
	OfficialWebsiteURL     string         `json:"officialWebsiteUrl" validate:"omitempty,url"`
	CurrentMember          *bool          `json:"currentMember"`
	BirthYear              flexString     `json:"birthYear"`
	SponsoredLegislation   rawCount       `json:"sponsoredLegislation"`
	CosponsoredLegislation rawCount       `json:"cosponsoredLegislation"`
	Committees             []rawCommittee `json:"committees"`
}

type rawBill struct {
	Congress       flexInt    `json:"congress"`
	Type           string     `json:"type"`
	Number         flexString `json:"number" validate:"required"`
	Title          string     `json:"title"`
	IntroducedDate string     `json:"introducedDate"`
	LatestAction   struct {
		Text string `json:"text"`
	} `json:"latestAction"`
	PolicyArea struct {
		Name string `json:"name"`
	} `json:"policyArea"`
	URL string `json:"url"`
}

// RollCallBill is the bill a roll-call vote was taken on.
type RollCallBill struct {
	Type   string     `json:"type"`
	Number flexString `json:"number"`
}

// RollCall is one entry of a chamber's vote list.
type RollCall struct {
	URL        string        `json:"url"`
	RollNumber flexInt       `json:"rollNumber"`
	RollCall   flexInt       `json:"rollCallNumber"`
	Date       string        `json:"date"`
	Question   string        `json:"question"`
	Result     string        `json:"result"`
	Bill       *RollCallBill `json:"bill"`
}

type rawPosition struct {
	Member struct {
		BioguideID string `json:"bioguideId"`
		PartyName  string `json:"partyName"`
	} `json:"member"`
	VotePosition string `json:"votePosition"`
}

type rawVoteDetail struct {
	Date      string        `json:"date"`
	Question  string        `json:"question"`
	Result    string        `json:"result"`
	Bill      *RollCallBill `json:"bill"`
	Positions []rawPosition `json:"positions"`
}

// ---- members ----

// GetMember returns one member's detail record. A payload without a
// bioguide id yields ErrNotFound.
func (c *Congress) GetMember(ctx context.Context, bioguideID string) (domain.MemberDetail, error) {
	var resp struct {
		Member *rawMember `json:"member"`
	}
	if err := c.get(ctx, "/member/"+url.PathEscape(bioguideID), nil, &resp); err != nil {
		return domain.MemberDetail{}, err
	}
	if resp.Member == nil {
		return domain.MemberDetail{}, fmt.Errorf("member %s: %w", bioguideID, ErrNotFound)
	}
	if err := checkShape(ctx, "congress.member", resp.Member); err != nil {
		return domain.MemberDetail{}, fmt.Errorf("member %s: %w", bioguideID, ErrNotFound)
	}
	return toMemberDetail(resp.Member), nil
}

func toMemberDetail(m *rawMember) domain.MemberDetail {
	d := domain.MemberDetail{
		MemberSummary:    toMemberSummary(m),
		BirthYear:        string(m.BirthYear),
		SponsoredCount:   m.SponsoredLegislation.Count,
		CosponsoredCount: m.CosponsoredLegislation.Count,
		Terms:            make([]domain.Term, 0, len(m.Terms)),
	}
	for _, t := range m.Terms {
		d.Terms = append(d.Terms, domain.Term{
			Chamber:   t.Chamber,
			Congress:  int(t.Congress),
			StartYear: int(t.StartYear),
		})
	}
	return d
}

func toMemberSummary(m *rawMember) domain.MemberSummary {
	name := m.DirectOrderName
	if name == "" {
		name = strings.TrimSpace(m.FirstName + " " + m.LastName)
	}
	if name == "" {
		name = flipListName(m.Name)
	}
	current := true
	if m.CurrentMember != nil {
		current = *m.CurrentMember
	}
	chamber := domain.ChamberHouse
	if n := len(m.Terms); n > 0 && strings.EqualFold(m.Terms[n-1].Chamber, "senate") {
		chamber = domain.ChamberSenate
	}
	return domain.MemberSummary{
		BioguideID:    m.BioguideID,
		Name:          name,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Party:         sysutil.FirstNonEmpty(m.PartyName, m.Party),
		State:         m.State,
		District:      string(m.District),
		Chamber:       chamber,
		Depiction:     m.Depiction.ImageURL,
		OfficialURL:   m.OfficialWebsiteURL,
		CurrentMember: current,
	}
}

// flipListName turns the list endpoint's "Last, First" into "First Last".
func flipListName(s string) string {
	last, first, ok := strings.Cut(s, ",")
	if !ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// GetMembersByState lists the current members for a two-letter state code.
// Records missing a bioguide id are dropped.
func (c *Congress) GetMembersByState(ctx context.Context, state string) ([]domain.MemberSummary, error) {
	var resp struct {
		Members []rawMember `json:"members"`
	}
	params := url.Values{"currentMember": {"true"}, "limit": {"250"}}
	if err := c.get(ctx, "/member/"+url.PathEscape(strings.ToUpper(state)), params, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.MemberSummary, 0, len(resp.Members))
	for i := range resp.Members {
		m := &resp.Members[i]
		if err := checkShape(ctx, "congress.members", m); err != nil {
			continue
		}
		out = append(out, toMemberSummary(m))
	}
	return out, nil
}

// ---- bills ----

// GetSponsoredBills returns the member's most recently updated sponsored
// bills. limit <= 0 means 20.
func (c *Congress) GetSponsoredBills(ctx context.Context, bioguideID string, limit int) ([]domain.BillSummary, error) {
	var resp struct {
		Bills []rawBill `json:"sponsoredLegislation"`
	}
	if err := c.listBills(ctx, bioguideID, "sponsored-legislation", limit, &resp); err != nil {
		return nil, err
	}
	return c.toBills(ctx, resp.Bills), nil
}

// GetCosponsoredBills mirrors GetSponsoredBills for cosponsored legislation.
func (c *Congress) GetCosponsoredBills(ctx context.Context, bioguideID string, limit int) ([]domain.BillSummary, error) {
	var resp struct {
		Bills []rawBill `json:"cosponsoredLegislation"`
	}
	if err := c.listBills(ctx, bioguideID, "cosponsored-legislation", limit, &resp); err != nil {
		return nil, err
	}
	return c.toBills(ctx, resp.Bills), nil
}

func (c *Congress) listBills(ctx context.Context, id, kind string, limit int, out any) error {
	if limit <= 0 {
		limit = 20
	}
	params := url.Values{
		"limit": {strconv.Itoa(limit)},
		"sort":  {"updateDate+desc"},
	}
	return c.get(ctx, "/member/"+url.PathEscape(id)+"/"+kind, params, out)
}

func (c *Congress) toBills(ctx context.Context, raw []rawBill) []domain.BillSummary {
	out := make([]domain.BillSummary, 0, len(raw))
	for i := range raw {
		b := &raw[i]
		if err := checkShape(ctx, "congress.bill", b); err != nil {
			// amendments show up in the same list without a bill number
			continue
		}
		n, _ := strconv.Atoi(string(b.Number))
		bill := domain.BillSummary{
			Congress:       int(b.Congress),
			Type:           b.Type,
			Number:         n,
			Title:          sysutil.FirstNonEmpty(b.Title, "Untitled"),
			IntroducedDate: b.IntroducedDate,
			LatestAction:   b.LatestAction.Text,
			PolicyArea:     b.PolicyArea.Name,
			URL:            b.URL,
		}
		if bill.URL == "" {
			bill.URL = billURL(bill)
		}
		out = append(out, bill)
	}
	return out
}

func billURL(b domain.BillSummary) string {
	return fmt.Sprintf("https://congress.gov/bill/%dth-congress/%s-bill/%d",
		b.Congress, strings.ToLower(b.Type), b.Number)
}

// ---- votes ----

// GetRecentVotes lists the chamber's latest roll-call votes in the current
// Congress, newest first.
func (c *Congress) GetRecentVotes(ctx context.Context, chamber domain.Chamber, limit int) ([]RollCall, error) {
	if limit <= 0 {
		limit = 20
	}
	var resp struct {
		Votes []RollCall `json:"votes"`
	}
	params := url.Values{
		"congress": {strconv.Itoa(c.congress)},
		"limit":    {strconv.Itoa(limit)},
		"sort":     {"date+desc"},
	}
	if err := c.get(ctx, "/"+voteChamber(chamber)+"-vote", params, &resp); err != nil {
		return nil, err
	}
	return resp.Votes, nil
}

func voteChamber(ch domain.Chamber) string {
	if ch == domain.ChamberSenate {
		return "senate"
	}
	return "house"
}

// GetMemberVotes joins the chamber's recent votes with the member's
// position on each. There is no bulk endpoint, so every vote's detail is
// fetched; detail calls run voteBatchSize at a time. A failed detail, or
// one the member does not appear in, is skipped. Results follow completion
// order, not roll-call order.
func (c *Congress) GetMemberVotes(ctx context.Context, bioguideID string, chamber domain.Chamber, limit int) ([]domain.VoteRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	list, err := c.GetRecentVotes(ctx, chamber, limit*2)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx)
	out := make([]domain.VoteRecord, 0, limit)
	var mu sync.Mutex

	for start := 0; start < len(list) && len(out) < limit; start += voteBatchSize {
		end := min(start+voteBatchSize, len(list))

		var g errgroup.Group
		for _, v := range list[start:end] {
			g.Go(func() error {
				rec, err := c.voteRecord(ctx, bioguideID, chamber, v)
				if err != nil {
					logger.Debug().Err(err).Int("roll", rollOf(v)).Msg("vote detail skipped")
					return nil
				}
				mu.Lock()
				out = append(out, rec)
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func rollOf(v RollCall) int {
	if v.RollNumber != 0 {
		return int(v.RollNumber)
	}
	return int(v.RollCall)
}

// errNotOnRoll marks a vote the member took no recorded part in.
var errNotOnRoll = errors.New("member not on roll call")

func memberPosition(positions []rawPosition, bioguideID string) (domain.VotePosition, bool) {
	for _, p := range positions {
		if p.Member.BioguideID == bioguideID {
			return domain.NormalizePosition(p.VotePosition), true
		}
	}
	return "", false
}

func (c *Congress) voteRecord(ctx context.Context, bioguideID string, chamber domain.Chamber, v RollCall) (domain.VoteRecord, error) {
	if c.apiKey == "" {
		return domain.VoteRecord{}, missingKey("congress", "CONGRESS_API_KEY")
	}
	raw := v.URL
	if raw == "" {
		raw = fmt.Sprintf("%s/%s-vote/%d/%d", c.ep.baseURL, voteChamber(chamber), c.congress, rollOf(v))
	}
	u, err := withKey(raw, nil, c.apiKey)
	if err != nil {
		return domain.VoteRecord{}, err
	}

	var body json.RawMessage
	if err := c.fetch.FetchJSON(ctx, upstream.Get(u), &body); err != nil {
		return domain.VoteRecord{}, err
	}
	detail, err := decodeVoteDetail(body)
	if err != nil {
		return domain.VoteRecord{}, err
	}

	position, ok := memberPosition(detail.Positions, bioguideID)
	if !ok {
		return domain.VoteRecord{}, errNotOnRoll
	}

	rec := domain.VoteRecord{
		Date:           sysutil.FirstNonEmpty(detail.Date, v.Date),
		Question:       sysutil.FirstNonEmpty(detail.Question, v.Question),
		Result:         sysutil.FirstNonEmpty(detail.Result, v.Result),
		MemberPosition: position,
		PartyBreakdown: partyBreakdown(detail.Positions),
		URL:            v.URL,
	}
	bill := detail.Bill
	if bill == nil {
		bill = v.Bill
	}
	if bill != nil && bill.Type != "" {
		rec.BillNumber = bill.Type + string(bill.Number)
	}
	return rec, nil
}

// decodeVoteDetail accepts either {"vote": {...}} or the bare vote object.
func decodeVoteDetail(body []byte) (rawVoteDetail, error) {
	var wrapped struct {
		Vote *rawVoteDetail `json:"vote"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return rawVoteDetail{}, fmt.Errorf("decode vote detail: %w", err)
	}
	if wrapped.Vote != nil {
		return *wrapped.Vote, nil
	}
	var flat rawVoteDetail
	if err := json.Unmarshal(body, &flat); err != nil {
		return rawVoteDetail{}, fmt.Errorf("decode vote detail: %w", err)
	}
	return flat, nil
}

// partyBreakdown tallies positions into the two major-party buckets;
// members of other parties are left out.
func partyBreakdown(positions []rawPosition) domain.PartyBreakdown {
	var pb domain.PartyBreakdown
	for _, p := range positions {
		party := strings.ToLower(p.Member.PartyName)
		var t *domain.PartyTally
		switch {
		case strings.Contains(party, "democrat"):
			t = &pb.Democratic
		case strings.Contains(party, "republican"):
			t = &pb.Republican
		default:
			continue
		}
		switch strings.ToLower(p.VotePosition) {
		case "yea", "aye":
			t.Yea++
		case "nay", "no":
			t.Nay++
		default:
			t.NotVoting++
		}
	}
	return pb
}

// ---- committees ----

// GetMemberCommittees returns the member's committee seats. The member
// record is tried first; when it carries no committee list the current
// committees are scanned for the member. A failed scan yields an empty
// list, not an error.
func (c *Congress) GetMemberCommittees(ctx context.Context, bioguideID string) ([]domain.CommitteeAssignment, error) {
	var resp struct {
		Member *rawMember `json:"member"`
	}
	err := c.get(ctx, "/member/"+url.PathEscape(bioguideID), nil, &resp)
	var cfgErr *upstream.ConfigurationError
	if errors.As(err, &cfgErr) {
		return nil, err
	}
	if err == nil && resp.Member != nil && resp.Member.Committees != nil {
		_ = checkShape(ctx, "congress.member.committees", resp.Member)
		return toAssignments(resp.Member.Committees), nil
	}
	return c.scanCommittees(ctx, bioguideID), nil
}

func toAssignments(raw []rawCommittee) []domain.CommitteeAssignment {
	out := make([]domain.CommitteeAssignment, 0, len(raw))
	for _, rc := range raw {
		if rc.Name == "" {
			continue
		}
		code := sysutil.FirstNonEmpty(rc.SystemCode, rc.Code)
		a := domain.CommitteeAssignment{
			Name:    rc.Name,
			Code:    code,
			Role:    committeeRole(rc.Role),
			Chamber: rc.Chamber,
			URL:     "https://congress.gov/committee/" + code,
		}
		for _, sc := range rc.Subcommittees {
			a.Subcommittees = append(a.Subcommittees, domain.Subcommittee{
				Name: sc.Name,
				Role: string(committeeRole(sc.Role)),
			})
		}
		out = append(out, a)
	}
	return out
}

func committeeRole(raw string) domain.CommitteeRole {
	r := strings.ToLower(raw)
	switch {
	case strings.Contains(r, "ranking"):
		return domain.RoleRankingMember
	case strings.Contains(r, "chair") && !strings.Contains(r, "vice"):
		return domain.RoleChair
	default:
		return domain.RoleMember
	}
}

func (c *Congress) scanCommittees(ctx context.Context, bioguideID string) []domain.CommitteeAssignment {
	var list struct {
		Committees []rawCommittee `json:"committees"`
	}
	params := url.Values{"congress": {strconv.Itoa(c.congress)}, "limit": {"250"}}
	if err := c.get(ctx, "/committee", params, &list); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("committee listing failed")
		return []domain.CommitteeAssignment{}
	}

	var (
		mu  sync.Mutex
		out = []domain.CommitteeAssignment{}
		g   errgroup.Group
	)
	g.SetLimit(voteBatchSize)
	for _, cm := range list.Committees {
		if cm.SystemCode == "" {
			continue
		}
		g.Go(func() error {
			var detail struct {
				Committee struct {
					Members []struct {
						BioguideID string `json:"bioguideId"`
						Role       string `json:"role"`
					} `json:"members"`
				} `json:"committee"`
			}
			p := url.Values{"congress": {strconv.Itoa(c.congress)}}
			if err := c.get(ctx, "/committee/"+url.PathEscape(cm.SystemCode), p, &detail); err != nil {
				return nil
			}
			for _, m := range detail.Committee.Members {
				if m.BioguideID != bioguideID {
					continue
				}
				mu.Lock()
				out = append(out, domain.CommitteeAssignment{
					Name:    cm.Name,
					Code:    cm.SystemCode,
					Role:    committeeRole(m.Role),
					Chamber: cm.Chamber,
					URL:     "https://congress.gov/committee/" + cm.SystemCode,
				})
				mu.Unlock()
				break
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
