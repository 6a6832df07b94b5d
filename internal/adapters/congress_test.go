package adapters

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"
)

const memberJSON = `{"member":{
	"bioguideId":"S000001","directOrderName":"Jane Q. Smith","firstName":"Jane","lastName":"Smith",
	"partyName":"Democratic","state":"Illinois","district":6,"birthYear":"1971",
	"terms":[{"chamber":"House of Representatives","congress":117,"startYear":2021},
	         {"chamber":"Senate","congress":119,"startYear":2025}],
	"depiction":{"imageUrl":"https://www.congress.gov/img/member/s000001.jpg"},
	"officialWebsiteUrl":"not a url",
	"sponsoredLegislation":{"count":41},"cosponsoredLegislation":{"count":310}
}}`

func newTestCongress(f upstream.Fetcher) *Congress {
	return NewCongress(f, "k3y", WithBaseURL("http://congress.test"))
}

func TestCongress_GetMember_Maps(t *testing.T) {
	f := newFake().on("/member/S000001", memberJSON)
	m, err := newTestCongress(f).GetMember(context.Background(), "S000001")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.Name != "Jane Q. Smith" || m.Party != "Democratic" || m.District != "6" {
		t.Fatalf("unexpected summary: %+v", m.MemberSummary)
	}
	if m.Chamber != domain.ChamberSenate {
		t.Fatalf("chamber should follow the last term, got %q", m.Chamber)
	}
	if !m.CurrentMember {
		t.Fatalf("current member should default to true")
	}
	if m.SponsoredCount != 41 || m.CosponsoredCount != 310 || len(m.Terms) != 2 || m.BirthYear != "1971" {
		t.Fatalf("unexpected detail: %+v", m)
	}
	// invalid optional URL is logged, not fatal
	if m.OfficialURL != "not a url" {
		t.Fatalf("optional field should pass through, got %q", m.OfficialURL)
	}

	q := f.query(t, "/member/S000001")
	if q.Get("api_key") != "k3y" || q.Get("format") != "json" {
		t.Fatalf("missing auth/format params: %v", q)
	}
}

func TestCongress_GetMember_NameFallback(t *testing.T) {
	f := newFake().on("/member/A000002", `{"member":{"bioguideId":"A000002","firstName":"Al","lastName":"Adams","party":"R","currentMember":false}}`)
	m, err := newTestCongress(f).GetMember(context.Background(), "A000002")
	if err != nil {
		t.Fatalf("GetMember: %v", err)
	}
	if m.Name != "Al Adams" || m.Party != "R" || m.CurrentMember || m.Chamber != domain.ChamberHouse {
		t.Fatalf("unexpected: %+v", m.MemberSummary)
	}
}

func TestCongress_GetMember_RequiredFieldMissing(t *testing.T) {
	f := newFake().on("/member/B000003", `{"member":{"firstName":"No","lastName":"Id"}}`)
	_, err := newTestCongress(f).GetMember(context.Background(), "B000003")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCongress_MissingKey(t *testing.T) {
	f := newFake()
	c := NewCongress(f, "")
	_, err := c.GetMember(context.Background(), "S000001")
	var ce *upstream.ConfigurationError
	if !errors.As(err, &ce) || ce.Setting != "CONGRESS_API_KEY" {
		t.Fatalf("want ConfigurationError, got %v", err)
	}
	if len(f.requests()) != 0 {
		t.Fatalf("no request should be made without a key")
	}
}

func TestCongress_GetSponsoredBills(t *testing.T) {
	f := newFake().on("/member/S000001/sponsored-legislation", `{"sponsoredLegislation":[
		{"congress":119,"type":"HR","number":"1234","title":"Clean Water Act","introducedDate":"2025-02-01",
		 "latestAction":{"text":"Referred"},"policyArea":{"name":"Environmental Protection"}},
		{"congress":119,"amendmentNumber":"7"},
		{"congress":119,"type":"S","number":88,"url":"https://api.congress.gov/v3/bill/119/s/88"}
	]}`)
	bills, err := newTestCongress(f).GetSponsoredBills(context.Background(), "S000001", 0)
	if err != nil {
		t.Fatalf("GetSponsoredBills: %v", err)
	}
	if len(bills) != 2 {
		t.Fatalf("amendment without a number should be skipped, got %d bills", len(bills))
	}
	if bills[0].Key() != "HR1234" || bills[0].URL != "https://congress.gov/bill/119th-congress/hr-bill/1234" {
		t.Fatalf("unexpected first bill: %+v", bills[0])
	}
	if bills[0].PolicyArea != "Environmental Protection" || bills[0].LatestAction != "Referred" {
		t.Fatalf("unexpected first bill: %+v", bills[0])
	}
	if bills[1].Title != "Untitled" || bills[1].Number != 88 || !strings.HasPrefix(bills[1].URL, "https://api.congress.gov") {
		t.Fatalf("unexpected second bill: %+v", bills[1])
	}
	q := f.query(t, "/member/S000001/sponsored-legislation")
	if q.Get("limit") != "20" || q.Get("sort") != "updateDate+desc" {
		t.Fatalf("unexpected params: %v", q)
	}
}

func TestCongress_GetMembersByState(t *testing.T) {
	f := newFake().on("/member/IL", `{"members":[
		{"bioguideId":"D000096","name":"Davis, Danny K.","partyName":"Democratic","state":"Illinois","district":7,
		 "terms":{"item":[{"chamber":"House of Representatives","startYear":1997}]}},
		{"name":"Nobody"}
	]}`)
	got, err := newTestCongress(f).GetMembersByState(context.Background(), "il")
	if err != nil {
		t.Fatalf("GetMembersByState: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Danny K. Davis" || got[0].District != "7" {
		t.Fatalf("unexpected: %+v", got)
	}
	if q := f.query(t, "/member/IL"); q.Get("currentMember") != "true" {
		t.Fatalf("expected currentMember filter: %v", q)
	}
}

func voteDetailJSON(member, position string) string {
	return fmt.Sprintf(`{"vote":{"date":"2025-03-01","question":"On Passage","result":"Passed",
		"bill":{"type":"HR","number":"1"},
		"positions":[
			{"member":{"bioguideId":%q,"partyName":"Democratic"},"votePosition":%q},
			{"member":{"bioguideId":"X000001","partyName":"Democratic"},"votePosition":"Yea"},
			{"member":{"bioguideId":"X000002","partyName":"Republican"},"votePosition":"No"},
			{"member":{"bioguideId":"X000003","partyName":"Republican"},"votePosition":"Not Voting"},
			{"member":{"bioguideId":"X000004","partyName":"Independent"},"votePosition":"Yea"}
		]}}`, member, position)
}

func TestCongress_GetMemberVotes_BatchesAndSkipsFailures(t *testing.T) {
	f := newFake()
	var list []string
	for i := 1; i <= 12; i++ {
		list = append(list, fmt.Sprintf(`{"rollNumber":%d,"date":"2025-03-%02d","question":"Q%d"}`, i, i, i))
		f.on(fmt.Sprintf("/house-vote/119/%d", i), voteDetailJSON("S000001", "Aye"))
	}
	f.on("/house-vote", `{"votes":[`+strings.Join(list, ",")+`]}`)
	f.fail("/house-vote/119/2", &upstream.UpstreamError{Host: "congress.test", Status: 500})

	var inFlight, peak int32
	f.hook = func(path string) {
		if path == "/house-vote" {
			return
		}
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}

	votes, err := newTestCongress(f).GetMemberVotes(context.Background(), "S000001", domain.ChamberHouse, 6)
	if err != nil {
		t.Fatalf("GetMemberVotes: %v", err)
	}
	if len(votes) != 6 {
		t.Fatalf("want 6 votes, got %d", len(votes))
	}
	if peak > voteBatchSize {
		t.Fatalf("detail fetches exceeded batch size: peak %d", peak)
	}
	if q := f.query(t, "/house-vote"); q.Get("limit") != "12" || q.Get("congress") != "119" {
		t.Fatalf("vote list should request limit*2: %v", q)
	}

	v := votes[0]
	if v.MemberPosition != domain.PositionYea || v.BillNumber != "HR1" || v.Question != "On Passage" {
		t.Fatalf("unexpected record: %+v", v)
	}
	want := domain.PartyBreakdown{
		Democratic: domain.PartyTally{Yea: 2},
		Republican: domain.PartyTally{Nay: 1, NotVoting: 1},
	}
	if v.PartyBreakdown != want {
		t.Fatalf("breakdown = %+v; want %+v", v.PartyBreakdown, want)
	}

	// two batches of 5 cover the 6 needed; roll 2 failed and was skipped
	for _, r := range f.requests() {
		if strings.HasSuffix(r.URL, "/119/11") || strings.Contains(r.URL, "/119/11?") {
			t.Fatalf("third batch should not be fetched once the limit is met")
		}
	}
}

func TestCongress_GetMemberVotes_SkipsVotesWithoutMember(t *testing.T) {
	f := newFake().
		on("/senate-vote", `{"votes":[
			{"rollNumber":8,"url":"http://congress.test/senate-vote/119/8","question":"Motion"},
			{"rollNumber":9,"url":"http://congress.test/senate-vote/119/9","question":"Cloture"}
		]}`).
		on("/senate-vote/119/8", voteDetailJSON("Z999999", "Yea")).
		on("/senate-vote/119/9", voteDetailJSON("S000001", "Not Voting"))
	votes, err := newTestCongress(f).GetMemberVotes(context.Background(), "S000001", domain.ChamberSenate, 2)
	if err != nil {
		t.Fatalf("GetMemberVotes: %v", err)
	}
	if len(votes) != 1 || votes[0].MemberPosition != domain.PositionNotVoting {
		t.Fatalf("only the roll call listing the member should remain: %+v", votes)
	}
	if votes[0].URL != "http://congress.test/senate-vote/119/9" {
		t.Fatalf("url should come from the vote list: %q", votes[0].URL)
	}
	if q := f.query(t, "/senate-vote/119/9"); q.Get("api_key") != "k3y" {
		t.Fatalf("detail url must carry the key: %v", q)
	}
}

func TestCongress_GetMemberCommittees_FromMember(t *testing.T) {
	f := newFake().on("/member/S000001", `{"member":{"bioguideId":"S000001","committees":[
		{"name":"Finance","systemCode":"ssfi00","role":"Ranking Member","chamber":"Senate",
		 "subcommittees":[{"name":"Taxation","role":"Chairman"}]},
		{"name":"Budget","code":"ssbu00"}
	]}}`)
	got, err := newTestCongress(f).GetMemberCommittees(context.Background(), "S000001")
	if err != nil {
		t.Fatalf("GetMemberCommittees: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2, got %d", len(got))
	}
	if got[0].Role != domain.RoleRankingMember || got[0].URL != "https://congress.gov/committee/ssfi00" {
		t.Fatalf("unexpected: %+v", got[0])
	}
	if len(got[0].Subcommittees) != 1 || got[0].Subcommittees[0].Role != string(domain.RoleChair) {
		t.Fatalf("unexpected subcommittees: %+v", got[0].Subcommittees)
	}
	if got[1].Role != domain.RoleMember || got[1].Code != "ssbu00" {
		t.Fatalf("unexpected: %+v", got[1])
	}
}

func TestCongress_GetMemberCommittees_ScanFallback(t *testing.T) {
	f := newFake().
		on("/member/S000001", `{"member":{"bioguideId":"S000001"}}`).
		on("/committee", `{"committees":[{"name":"Agriculture","systemCode":"hsag00","chamber":"House"},
		                                   {"name":"Rules","systemCode":"hsru00","chamber":"House"},
		                                   {"name":"Ethics","systemCode":"hsso00","chamber":"House"}]}`).
		on("/committee/hsag00", `{"committee":{"members":[{"bioguideId":"S000001","role":"Chair"}]}}`).
		on("/committee/hsru00", `{"committee":{"members":[{"bioguideId":"Q000001"}]}}`).
		fail("/committee/hsso00", errors.New("boom"))

	got, err := newTestCongress(f).GetMemberCommittees(context.Background(), "S000001")
	if err != nil {
		t.Fatalf("GetMemberCommittees: %v", err)
	}
	if len(got) != 1 || got[0].Code != "hsag00" || got[0].Role != domain.RoleChair {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestCongress_GetMemberCommittees_ScanFailureIsEmpty(t *testing.T) {
	f := newFake().fail("/committee", errors.New("down"))
	got, err := newTestCongress(f).GetMemberCommittees(context.Background(), "S000001")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil list and no error, got %v %v", got, err)
	}
}

func TestCommitteeRole(t *testing.T) {
	cases := map[string]domain.CommitteeRole{
		"Chairman":       domain.RoleChair,
		"Chair":          domain.RoleChair,
		"Vice Chair":     domain.RoleMember,
		"Ranking Member": domain.RoleRankingMember,
		"":               domain.RoleMember,
	}
	for in, want := range cases {
		if got := committeeRole(in); got != want {
			t.Fatalf("committeeRole(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestCongress_ConcurrentUse(t *testing.T) {
	f := newFake().on("/member/S000001", memberJSON)
	c := newTestCongress(f)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetMember(context.Background(), "S000001"); err != nil {
				t.Errorf("GetMember: %v", err)
			}
		}()
	}
	wg.Wait()
}
