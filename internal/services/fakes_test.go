package services

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/civics-backend/internal/adapters"
	"github.com/tbourn/civics-backend/internal/domain"
)

// ---------- counting helper ----------

type counter struct {
	mu    sync.Mutex
	calls map[string]int
}

func (c *counter) hit(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[name]++
}

func (c *counter) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

// ---------- members ----------

type fakeMembers struct {
	counter
	delay time.Duration

	member     domain.MemberDetail
	bills      []domain.BillSummary
	votes      []domain.VoteRecord
	committees []domain.CommitteeAssignment
	roster     []domain.MemberSummary

	memberErr, billsErr, votesErr, committeesErr, rosterErr error

	lastChamber domain.Chamber
}

func (f *fakeMembers) GetMember(ctx context.Context, id string) (domain.MemberDetail, error) {
	f.hit("GetMember")
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.MemberDetail{}, ctx.Err()
		}
	}
	if f.memberErr != nil {
		return domain.MemberDetail{}, f.memberErr
	}
	m := f.member
	m.BioguideID = id
	return m, nil
}

func (f *fakeMembers) GetSponsoredBills(ctx context.Context, id string, limit int) ([]domain.BillSummary, error) {
	f.hit("GetSponsoredBills")
	return f.bills, f.billsErr
}

func (f *fakeMembers) GetMembersByState(ctx context.Context, state string) ([]domain.MemberSummary, error) {
	f.hit("GetMembersByState:" + state)
	return f.roster, f.rosterErr
}

func (f *fakeMembers) GetMemberVotes(ctx context.Context, id string, ch domain.Chamber, limit int) ([]domain.VoteRecord, error) {
	f.hit("GetMemberVotes")
	f.mu.Lock()
	f.lastChamber = ch
	f.mu.Unlock()
	if len(f.votes) > limit {
		return f.votes[:limit], f.votesErr
	}
	return f.votes, f.votesErr
}

func (f *fakeMembers) GetMemberCommittees(ctx context.Context, id string) ([]domain.CommitteeAssignment, error) {
	f.hit("GetMemberCommittees")
	return f.committees, f.committeesErr
}

// ---------- finance ----------

type fakeFinance struct {
	counter
	candidate    *domain.Candidate
	totals       *domain.FinanceSummary
	contributors []domain.ContributorRecord
	err          error
}

func (f *fakeFinance) FindCandidate(ctx context.Context, name, state string) (*domain.Candidate, error) {
	f.hit("FindCandidate:" + name)
	return f.candidate, f.err
}

func (f *fakeFinance) GetFinanceTotals(ctx context.Context, id string, cycle int) (*domain.FinanceSummary, error) {
	f.hit("GetFinanceTotals")
	return f.totals, nil
}

func (f *fakeFinance) GetTopContributors(ctx context.Context, id string, limit int) ([]domain.ContributorRecord, error) {
	f.hit("GetTopContributors")
	return f.contributors, nil
}

// ---------- zip ----------

type fakeZip struct {
	counter
	result domain.ZipLookupResult
	err    error
}

func (f *fakeZip) LookupByZip(ctx context.Context, zip string) (domain.ZipLookupResult, error) {
	f.hit("LookupByZip")
	return f.result, f.err
}

// ---------- biography, facts, news ----------

type fakeBio struct {
	bio *domain.WikipediaBio
	err error
}

func (f *fakeBio) GetBiography(ctx context.Context, name string) (*domain.WikipediaBio, error) {
	return f.bio, f.err
}

type fakeFacts struct {
	facts *domain.WikidataFacts
	err   error
}

func (f *fakeFacts) GetFacts(ctx context.Context, name string) (*domain.WikidataFacts, error) {
	return f.facts, f.err
}

type fakeNews struct {
	articles []domain.NewsArticle
	err      error
}

func (f *fakeNews) GetArticlesAbout(ctx context.Context, name string, limit int) ([]domain.NewsArticle, error) {
	return f.articles, f.err
}

// ---------- synthesis ----------

type fakeSynth struct {
	counter
	on bool
}

func (f *fakeSynth) Available() bool { return f.on }

func (f *fakeSynth) SummarizeBill(ctx context.Context, b domain.BillSummary) string {
	f.hit("SummarizeBill")
	return "summary of " + b.Title
}

func (f *fakeSynth) GenerateBiographyContext(ctx context.Context, in adapters.BiographyInput) string {
	f.hit("GenerateBiographyContext")
	return "context for " + in.Name
}

// ---------- durable cache ----------

type fakeDurable struct {
	mu       sync.Mutex
	profiles map[string]*domain.OfficialProfile
	zips     map[string]*domain.ZipLookupResult
	ttls     []time.Duration
	readErr  error
}

func newFakeDurable() *fakeDurable {
	return &fakeDurable{profiles: map[string]*domain.OfficialProfile{}, zips: map[string]*domain.ZipLookupResult{}}
}

func (d *fakeDurable) GetProfile(ctx context.Context, id string) (*domain.OfficialProfile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, d.readErr
	}
	p, ok := d.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (d *fakeDurable) SetProfile(ctx context.Context, p *domain.OfficialProfile, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *p
	d.profiles[p.Member.BioguideID] = &cp
	d.ttls = append(d.ttls, ttl)
	return nil
}

func (d *fakeDurable) GetZip(ctx context.Context, zip string) (*domain.ZipLookupResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return nil, d.readErr
	}
	r, ok := d.zips[zip]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (d *fakeDurable) SetZip(ctx context.Context, r *domain.ZipLookupResult, ttl time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := *r
	d.zips[r.ZipCode] = &cp
	d.ttls = append(d.ttls, ttl)
	return nil
}

func (d *fakeDurable) profileCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.profiles)
}

// ---------- fixture ----------

type fixture struct {
	members *fakeMembers
	finance *fakeFinance
	zip     *fakeZip
	bio     *fakeBio
	facts   *fakeFacts
	news    *fakeNews
	synth   *fakeSynth
	durable *fakeDurable
}

func newFixture() *fixture {
	return &fixture{
		members: &fakeMembers{
			member: domain.MemberDetail{
				MemberSummary: domain.MemberSummary{
					Name: "Jane Smith", Party: "Democratic", State: "Illinois", Chamber: domain.ChamberSenate,
				},
				SponsoredCount: 14, CosponsoredCount: 180,
			},
			bills: []domain.BillSummary{
				{Congress: 119, Type: "S", Number: 10, Title: "Rural Hospital Health Act", PolicyArea: "Health"},
				{Congress: 119, Type: "S", Number: 11, Title: "Clean Water Infrastructure", PolicyArea: "Water Resources Development", LatestAction: "Became Public Law No: 119-2."},
			},
			votes: []domain.VoteRecord{
				{Date: "2025-02-01", Question: "On Passage of the Medicare Bill", MemberPosition: domain.PositionYea,
					PartyBreakdown: domain.PartyBreakdown{Democratic: domain.PartyTally{Yea: 40, Nay: 5}}},
				{Date: "2025-02-02", Question: "On Cloture", MemberPosition: domain.PositionNotVoting},
			},
			committees: []domain.CommitteeAssignment{{Name: "Finance", Subcommittees: []domain.Subcommittee{{Name: "Health"}}}},
		},
		finance: &fakeFinance{
			candidate: &domain.Candidate{CandidateID: "S0IL00001"},
			totals:    &domain.FinanceSummary{CandidateID: "S0IL00001", TotalReceipts: 1000},
		},
		zip:     &fakeZip{result: domain.ZipLookupResult{ZipCode: "60188", State: "IL", Officials: []domain.RepresentativeInfo{{Name: "Jane Smith"}}}},
		bio:     &fakeBio{bio: &domain.WikipediaBio{Title: "Jane Smith", Extract: "Jane Smith is a senator."}},
		facts:   &fakeFacts{facts: &domain.WikidataFacts{EntityID: "Q1", Education: []string{"Yale"}}},
		news:    &fakeNews{articles: []domain.NewsArticle{{Title: "Senator speaks"}}},
		synth:   &fakeSynth{},
		durable: newFakeDurable(),
	}
}

func (f *fixture) sources() Sources {
	return Sources{
		Members:   f.members,
		Finance:   f.finance,
		Zip:       f.zip,
		Bio:       f.bio,
		Facts:     f.facts,
		News:      f.news,
		Synthesis: f.synth,
	}
}

func (f *fixture) orchestrator(opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(f.sources(), append([]OrchestratorOption{WithDurableCache(f.durable)}, opts...)...)
}
