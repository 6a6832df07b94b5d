// Package services – Orchestrator
//
// This file implements Orchestrator, the application-level component that
// fans out to the source adapters and assembles per-official profiles. It
// owns the in-process caches for every sub-resource, coalesces identical
// concurrent loads with singleflight, and reads through the durable cache
// for full profiles and zip lookups.
//
// Failure policy: the member record and the sponsored bills are
// load-bearing, so a failure there fails the call. Every other branch of a
// full profile (finance, biography, news, votes, committees) degrades to an
// empty value and is logged at warn level.
//
// Observability: all public methods are OpenTelemetry-instrumented; spans
// carry the bioguide id or zip code being resolved.

package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/civics-backend/internal/adapters"
	"github.com/tbourn/civics-backend/internal/cache"
	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/upstream"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	profileTTL = 30 * time.Minute
	zipTTL     = 24 * time.Hour
	bioTTL     = 24 * time.Hour

	DefaultVoteLimit = 20
	MaxVoteLimit     = 50
	DefaultNewsLimit = 5
	MaxNewsLimit     = 20

	profileBillLimit      = 20
	contributorLimit      = 10
	profileCacheSize      = 200
	zipCacheSize          = 1000
	financeCacheSize      = 200
	biographyCacheSize    = 200
	defaultSweepThreshold = 500

	// sharedLoadTimeout bounds a coalesced load; it stays under the
	// server's write timeout.
	sharedLoadTimeout = 45 * time.Second
)

var (
	bioguidePattern = regexp.MustCompile(`^[A-Z]\d{6}$`)
	zipPattern      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// ValidBioguideID reports whether id has the one-letter, six-digit form.
func ValidBioguideID(id string) bool { return bioguidePattern.MatchString(id) }

// ValidZip accepts ZIP and ZIP+4.
func ValidZip(zip string) bool { return zipPattern.MatchString(zip) }

// MemberSource is the legislative data provider.
type MemberSource interface {
	GetMember(ctx context.Context, bioguideID string) (domain.MemberDetail, error)
	GetSponsoredBills(ctx context.Context, bioguideID string, limit int) ([]domain.BillSummary, error)
	GetMembersByState(ctx context.Context, state string) ([]domain.MemberSummary, error)
	GetMemberVotes(ctx context.Context, bioguideID string, chamber domain.Chamber, limit int) ([]domain.VoteRecord, error)
	GetMemberCommittees(ctx context.Context, bioguideID string) ([]domain.CommitteeAssignment, error)
}

// FinanceSource is the campaign-finance provider.
type FinanceSource interface {
	FindCandidate(ctx context.Context, name, state string) (*domain.Candidate, error)
	GetFinanceTotals(ctx context.Context, candidateID string, cycle int) (*domain.FinanceSummary, error)
	GetTopContributors(ctx context.Context, candidateID string, limit int) ([]domain.ContributorRecord, error)
}

// ZipSource resolves a postal code to its representatives.
type ZipSource interface {
	LookupByZip(ctx context.Context, zip string) (domain.ZipLookupResult, error)
}

// BioSource returns an encyclopedic summary.
type BioSource interface {
	GetBiography(ctx context.Context, name string) (*domain.WikipediaBio, error)
}

// FactsSource returns structured biographical facts.
type FactsSource interface {
	GetFacts(ctx context.Context, name string) (*domain.WikidataFacts, error)
}

// NewsSource returns recent coverage of a person.
type NewsSource interface {
	GetArticlesAbout(ctx context.Context, name string, limit int) ([]domain.NewsArticle, error)
}

// Synthesizer produces generated text. It never fails; without a backend
// it passes its input through.
type Synthesizer interface {
	Available() bool
	SummarizeBill(ctx context.Context, bill domain.BillSummary) string
	GenerateBiographyContext(ctx context.Context, in adapters.BiographyInput) string
}

// DurableCache persists full profiles and zip lookups across restarts.
// A miss is (nil, nil).
type DurableCache interface {
	GetProfile(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error)
	SetProfile(ctx context.Context, p *domain.OfficialProfile, ttl time.Duration) error
	GetZip(ctx context.Context, zip string) (*domain.ZipLookupResult, error)
	SetZip(ctx context.Context, r *domain.ZipLookupResult, ttl time.Duration) error
}

// Sources bundles the adapters an Orchestrator composes.
type Sources struct {
	Members   MemberSource
	Finance   FinanceSource
	Zip       ZipSource
	Bio       BioSource
	Facts     FactsSource
	News      NewsSource
	Synthesis Synthesizer
}

// Orchestrator assembles profiles from Sources. All caches are owned by the
// instance; construct one per process with NewOrchestrator.
type Orchestrator struct {
	src     Sources
	durable DurableCache

	profiles *cache.TTLCache[domain.MemberProfile]
	zips     *cache.TTLCache[domain.ZipLookupResult]
	finance  *cache.TTLCache[domain.FinanceResult]
	bios     *cache.TTLCache[domain.Biography]
	store    *cache.Store

	group singleflight.Group
	now   func() time.Time
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithDurableCache enables the persistent read-through tier.
func WithDurableCache(d DurableCache) OrchestratorOption {
	return func(o *Orchestrator) { o.durable = d }
}

// WithStore shares a category store with the caller.
func WithStore(s *cache.Store) OrchestratorOption {
	return func(o *Orchestrator) { o.store = s }
}

// WithClock overrides the time source used for generated timestamps.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator builds an Orchestrator over src with fresh caches.
func NewOrchestrator(src Sources, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		src:      src,
		profiles: cache.NewTTLCache[domain.MemberProfile]("profile", profileCacheSize, profileTTL),
		zips:     cache.NewTTLCache[domain.ZipLookupResult]("zip", zipCacheSize, zipTTL),
		finance:  cache.NewTTLCache[domain.FinanceResult]("finance", financeCacheSize, cache.TTLFor(cache.CategoryFinance)),
		bios:     cache.NewTTLCache[domain.Biography]("biography", biographyCacheSize, bioTTL),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.store == nil {
		o.store = cache.NewStore(defaultSweepThreshold)
	}
	return o
}

// Store exposes the category store shared by the analysis operations.
func (o *Orchestrator) Store() *cache.Store { return o.store }

func (o *Orchestrator) tracer() trace.Tracer { return otel.Tracer("services/Orchestrator") }

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// sourceErr maps an adapter failure onto the service sentinels while keeping
// the typed upstream error in the chain.
func sourceErr(op string, err error) error {
	if errors.Is(err, adapters.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var ue *upstream.UpstreamError
	if errors.As(err, &ue) && ue.Status == 404 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}

// load returns the cached value under key, or runs fn once across
// concurrent callers and caches its result under category c.
func load[T any](ctx context.Context, o *Orchestrator, key string, c cache.Category, fn func(context.Context) (T, error)) (T, error) {
	if v, ok := cache.GetAs[T](o.store, key); ok {
		return v, nil
	}
	v, err := o.share(ctx, key, func(ctx context.Context) (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		o.store.Set(key, v, c)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// share runs fn once across concurrent callers of key. fn gets a context
// that keeps ctx's values but not its cancellation, bounded by
// sharedLoadTimeout, so a caller that goes away never fails the others
// waiting on the same key. Each caller still returns as soon as its own
// ctx is done.
func (o *Orchestrator) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := o.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return fn(sctx)
	})
	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func clampLimit(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// LookupByZipCode lists the officials for a postal code. The representatives
// provider is tried first; when it fails, the static prefix table resolves
// the state and the state's current delegation is returned instead.
func (o *Orchestrator) LookupByZipCode(ctx context.Context, zip string) (domain.ZipLookupResult, error) {
	ctx, span := o.tracer().Start(ctx, "LookupByZipCode",
		trace.WithAttributes(attribute.String("zip", zip)),
	)
	defer span.End()

	if !ValidZip(zip) {
		return domain.ZipLookupResult{}, ErrInvalidZip
	}
	key := "zip:" + zip
	if r, ok := o.zips.Get(key); ok {
		return r, nil
	}
	if r := o.durableZip(ctx, zip); r != nil {
		o.zips.Set(key, *r)
		return *r, nil
	}

	v, err := o.share(ctx, key, func(ctx context.Context) (any, error) {
		r, err := o.resolveZip(ctx, zip)
		if err != nil {
			return nil, err
		}
		o.zips.Set(key, r)
		if o.durable != nil {
			if err := o.durable.SetZip(ctx, &r, zipTTL); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("zip", zip).Msg("durable cache write failed")
			}
		}
		return r, nil
	})
	if err != nil {
		fail(span, err)
		return domain.ZipLookupResult{}, err
	}
	return v.(domain.ZipLookupResult), nil
}

func (o *Orchestrator) resolveZip(ctx context.Context, zip string) (domain.ZipLookupResult, error) {
	r, primary := o.src.Zip.LookupByZip(ctx, zip)
	if primary == nil {
		return r, nil
	}
	zerolog.Ctx(ctx).Warn().Err(primary).Str("zip", zip).Msg("zip provider failed, using state table")

	state, ok := adapters.StateForZip(zip)
	if !ok {
		return domain.ZipLookupResult{}, fmt.Errorf("%w %s (provider: %v)", ErrStateUnresolved, zip, primary)
	}
	members, err := o.src.Members.GetMembersByState(ctx, state)
	if err != nil {
		return domain.ZipLookupResult{}, fmt.Errorf("%w: zip %s: provider: %v; %s roster: %w", ErrUpstream, zip, primary, state, err)
	}
	return domain.ZipLookupResult{ZipCode: zip, State: state, Officials: representatives(members)}, nil
}

// representatives converts a state roster, senators first.
func representatives(members []domain.MemberSummary) []domain.RepresentativeInfo {
	out := make([]domain.RepresentativeInfo, 0, len(members))
	for _, m := range members {
		title := "U.S. Representative"
		if m.Chamber == domain.ChamberSenate {
			title = "U.S. Senator"
		}
		urls := []string{}
		if m.OfficialURL != "" {
			urls = append(urls, m.OfficialURL)
		}
		out = append(out, domain.RepresentativeInfo{
			Name:       m.Name,
			Title:      title,
			Party:      m.Party,
			Chamber:    string(m.Chamber),
			PhotoURL:   m.Depiction,
			BioguideID: m.BioguideID,
			Phones:     []string{},
			URLs:       urls,
			Channels:   []domain.Channel{},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Chamber == string(domain.ChamberSenate) && out[j].Chamber != string(domain.ChamberSenate)
	})
	return out
}

// GetMemberProfile fetches the member record and sponsored bills
// concurrently. Either failure fails the call.
func (o *Orchestrator) GetMemberProfile(ctx context.Context, bioguideID string) (domain.MemberProfile, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberProfile",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return domain.MemberProfile{}, ErrInvalidID
	}
	key := "member:" + bioguideID
	if p, ok := o.profiles.Get(key); ok {
		return p, nil
	}

	v, err := o.share(ctx, key, func(ctx context.Context) (any, error) {
		var (
			member domain.MemberDetail
			bills  []domain.BillSummary
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			m, err := o.src.Members.GetMember(gctx, bioguideID)
			member = m
			return err
		})
		g.Go(func() error {
			b, err := o.src.Members.GetSponsoredBills(gctx, bioguideID, profileBillLimit)
			bills = b
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, sourceErr("member "+bioguideID, err)
		}
		if bills == nil {
			bills = []domain.BillSummary{}
		}
		p := domain.MemberProfile{Member: member, Bills: bills}
		o.profiles.Set(key, p)
		return p, nil
	})
	if err != nil {
		fail(span, err)
		return domain.MemberProfile{}, err
	}
	return v.(domain.MemberProfile), nil
}

// GetMemberFinance resolves the official's campaign committee by name and
// returns its totals and top contributors. Found is false when no candidate
// matches. An empty name is resolved from the member record.
func (o *Orchestrator) GetMemberFinance(ctx context.Context, bioguideID, name string) (domain.FinanceResult, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberFinance",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	key := "finance:" + bioguideID
	if r, ok := o.finance.Get(key); ok {
		return r, nil
	}
	if strings.TrimSpace(name) == "" {
		p, err := o.GetMemberProfile(ctx, bioguideID)
		if err != nil {
			return domain.FinanceResult{}, err
		}
		name = p.Member.Name
	}

	v, err := o.share(ctx, key, func(ctx context.Context) (any, error) {
		cand, err := o.src.Finance.FindCandidate(ctx, name, "")
		if err != nil {
			return nil, sourceErr("finance search", err)
		}
		if cand == nil {
			r := domain.FinanceResult{Found: false}
			o.finance.Set(key, r)
			return r, nil
		}

		var (
			totals *domain.FinanceSummary
			top    []domain.ContributorRecord
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			t, err := o.src.Finance.GetFinanceTotals(gctx, cand.CandidateID, 0)
			totals = t
			return err
		})
		g.Go(func() error {
			c, err := o.src.Finance.GetTopContributors(gctx, cand.CandidateID, contributorLimit)
			top = c
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, sourceErr("finance "+cand.CandidateID, err)
		}
		r := domain.FinanceResult{Found: true, Candidate: totals, TopContributors: top}
		o.finance.Set(key, r)
		return r, nil
	})
	if err != nil {
		fail(span, err)
		return domain.FinanceResult{}, err
	}
	return v.(domain.FinanceResult), nil
}

// GetMemberBiography fetches the encyclopedic summary and the structured
// facts concurrently. A failure on one side leaves it nil; only a failure
// on both sides is an error.
func (o *Orchestrator) GetMemberBiography(ctx context.Context, name string) (domain.Biography, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberBiography",
		trace.WithAttributes(attribute.String("official.name", name)),
	)
	defer span.End()

	key := "bio:" + strings.ToLower(strings.TrimSpace(name))
	if b, ok := o.bios.Get(key); ok {
		return b, nil
	}

	v, err := o.share(ctx, key, func(ctx context.Context) (any, error) {
		var (
			bio              domain.Biography
			wikiErr, factErr error
			g                errgroup.Group
		)
		g.Go(func() error {
			bio.Wikipedia, wikiErr = o.src.Bio.GetBiography(ctx, name)
			return nil
		})
		g.Go(func() error {
			bio.Wikidata, factErr = o.src.Facts.GetFacts(ctx, name)
			return nil
		})
		_ = g.Wait()

		logger := zerolog.Ctx(ctx)
		if wikiErr != nil {
			logger.Warn().Err(wikiErr).Str("official", name).Msg("encyclopedia summary unavailable")
		}
		if factErr != nil {
			logger.Warn().Err(factErr).Str("official", name).Msg("structured facts unavailable")
		}
		if wikiErr != nil && factErr != nil {
			return nil, fmt.Errorf("biography %q: %w: %w", name, ErrUpstream, errors.Join(wikiErr, factErr))
		}
		if wikiErr == nil && factErr == nil {
			o.bios.Set(key, bio)
		}
		return bio, nil
	})
	if err != nil {
		fail(span, err)
		return domain.Biography{}, err
	}
	return v.(domain.Biography), nil
}

// GetMemberVotes returns the member's most recent roll-call positions. An
// empty chamber is resolved from the member record.
func (o *Orchestrator) GetMemberVotes(ctx context.Context, bioguideID string, chamber domain.Chamber, limit int) ([]domain.VoteRecord, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberVotes",
		trace.WithAttributes(
			attribute.String("bioguide.id", bioguideID),
			attribute.Int("limit", limit),
		),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return nil, ErrInvalidID
	}
	limit = clampLimit(limit, DefaultVoteLimit, MaxVoteLimit)
	if chamber == "" {
		p, err := o.GetMemberProfile(ctx, bioguideID)
		if err != nil {
			fail(span, err)
			return nil, err
		}
		chamber = p.Member.Chamber
	}

	key := fmt.Sprintf("votes:%s:%s:%d", bioguideID, chamber, limit)
	votes, err := load(ctx, o, key, cache.CategoryVotes, func(ctx context.Context) ([]domain.VoteRecord, error) {
		v, err := o.src.Members.GetMemberVotes(ctx, bioguideID, chamber, limit)
		if err != nil {
			return nil, sourceErr("votes "+bioguideID, err)
		}
		if v == nil {
			v = []domain.VoteRecord{}
		}
		return v, nil
	})
	if err != nil {
		fail(span, err)
	}
	return votes, err
}

// GetMemberCommittees returns the member's committee assignments.
func (o *Orchestrator) GetMemberCommittees(ctx context.Context, bioguideID string) ([]domain.CommitteeAssignment, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberCommittees",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return nil, ErrInvalidID
	}
	cs, err := load(ctx, o, "committees:"+bioguideID, cache.CategoryCommittees, func(ctx context.Context) ([]domain.CommitteeAssignment, error) {
		cs, err := o.src.Members.GetMemberCommittees(ctx, bioguideID)
		if err != nil {
			return nil, sourceErr("committees "+bioguideID, err)
		}
		if cs == nil {
			cs = []domain.CommitteeAssignment{}
		}
		return cs, nil
	})
	if err != nil {
		fail(span, err)
	}
	return cs, err
}

// GetMemberNews returns recent articles mentioning name.
func (o *Orchestrator) GetMemberNews(ctx context.Context, name string, limit int) ([]domain.NewsArticle, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberNews",
		trace.WithAttributes(attribute.String("official.name", name)),
	)
	defer span.End()

	limit = clampLimit(limit, DefaultNewsLimit, MaxNewsLimit)
	key := fmt.Sprintf("news:%s:%d", strings.ToLower(strings.TrimSpace(name)), limit)
	news, err := load(ctx, o, key, cache.CategoryNews, func(ctx context.Context) ([]domain.NewsArticle, error) {
		n, err := o.src.News.GetArticlesAbout(ctx, name, limit)
		if err != nil {
			return nil, sourceErr("news", err)
		}
		if n == nil {
			n = []domain.NewsArticle{}
		}
		return n, nil
	})
	if err != nil {
		fail(span, err)
	}
	return news, err
}

// GetFullProfile assembles the complete aggregate for one official: the
// core profile first, then finance, biography, news, votes and committees
// in parallel. A failed supplementary branch leaves its field empty. Only
// fully assembled profiles are written to the durable cache.
//
// Each call returns its own copy, so callers may gate or trim it.
func (o *Orchestrator) GetFullProfile(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error) {
	ctx, span := o.tracer().Start(ctx, "GetFullProfile",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return nil, ErrInvalidID
	}
	if p := o.durableProfile(ctx, bioguideID); p != nil {
		span.SetAttributes(attribute.Bool("cache.durable_hit", true))
		return p, nil
	}

	v, err := o.share(ctx, "full:"+bioguideID, func(ctx context.Context) (any, error) {
		return o.assemble(ctx, bioguideID)
	})
	if err != nil {
		fail(span, err)
		return nil, err
	}
	cp := *v.(*domain.OfficialProfile)
	return &cp, nil
}

func (o *Orchestrator) assemble(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error) {
	core, err := o.GetMemberProfile(ctx, bioguideID)
	if err != nil {
		return nil, err
	}
	m := core.Member
	p := &domain.OfficialProfile{
		Member:     m,
		Bills:      core.Bills,
		News:       []domain.NewsArticle{},
		Votes:      []domain.VoteRecord{},
		Committees: []domain.CommitteeAssignment{},
	}

	// Branches write disjoint fields of p and always return nil, so one
	// failure never cancels its siblings.
	var (
		g      errgroup.Group
		failed [5]bool
	)
	degrade := func(i int, branch string, err error) {
		failed[i] = true
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("bioguide_id", bioguideID).
			Str("branch", branch).
			Msg("profile branch degraded")
	}

	g.Go(func() error {
		fin, err := o.GetMemberFinance(ctx, bioguideID, m.Name)
		if err != nil {
			degrade(0, "finance", err)
			return nil
		}
		p.Finance = &fin
		return nil
	})
	g.Go(func() error {
		bio, err := o.GetMemberBiography(ctx, m.Name)
		if err != nil {
			degrade(1, "biography", err)
			return nil
		}
		p.WikidataFacts = bio.Wikidata
		if bio.Wikipedia != nil {
			wb := *bio.Wikipedia
			wb.Context = o.biographyContext(ctx, m, &wb, bio.Wikidata)
			p.Biography = &wb
		}
		return nil
	})
	g.Go(func() error {
		news, err := o.GetMemberNews(ctx, m.Name, DefaultNewsLimit)
		if err != nil {
			degrade(2, "news", err)
			return nil
		}
		p.News = news
		return nil
	})
	g.Go(func() error {
		votes, err := o.GetMemberVotes(ctx, bioguideID, m.Chamber, DefaultVoteLimit)
		if err != nil {
			degrade(3, "votes", err)
			return nil
		}
		p.Votes = votes
		return nil
	})
	g.Go(func() error {
		cs, err := o.GetMemberCommittees(ctx, bioguideID)
		if err != nil {
			degrade(4, "committees", err)
			return nil
		}
		p.Committees = cs
		return nil
	})
	_ = g.Wait()

	complete := true
	for _, f := range failed {
		complete = complete && !f
	}
	if complete && o.durable != nil {
		if err := o.durable.SetProfile(ctx, p, profileTTL); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("bioguide_id", bioguideID).Msg("durable cache write failed")
		}
	}
	return p, nil
}

// biographyContext returns a generated plain-language context paragraph,
// or "" when synthesis is not configured.
func (o *Orchestrator) biographyContext(ctx context.Context, m domain.MemberDetail, wb *domain.WikipediaBio, facts *domain.WikidataFacts) string {
	if o.src.Synthesis == nil || !o.src.Synthesis.Available() {
		return ""
	}
	in := adapters.BiographyInput{
		Name:      m.Name,
		Party:     m.Party,
		State:     m.State,
		Chamber:   string(m.Chamber),
		Wikipedia: wb.Extract,
	}
	if facts != nil {
		in.Education = facts.Education
		in.Career = facts.Occupation
	}
	return o.src.Synthesis.GenerateBiographyContext(ctx, in)
}

// GetMemberOverview is the lighter profile used by the member page: the
// core profile plus biography, without finance, news, votes or committees.
// A durable full profile is reused when present.
func (o *Orchestrator) GetMemberOverview(ctx context.Context, bioguideID string) (*domain.OfficialProfile, error) {
	ctx, span := o.tracer().Start(ctx, "GetMemberOverview",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return nil, ErrInvalidID
	}
	if full := o.durableProfile(ctx, bioguideID); full != nil {
		return &domain.OfficialProfile{
			Member:        full.Member,
			Bills:         full.Bills,
			Biography:     full.Biography,
			WikidataFacts: full.WikidataFacts,
		}, nil
	}

	core, err := o.GetMemberProfile(ctx, bioguideID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	p := &domain.OfficialProfile{Member: core.Member, Bills: core.Bills}
	if bio, err := o.GetMemberBiography(ctx, core.Member.Name); err == nil {
		p.Biography, p.WikidataFacts = bio.Wikipedia, bio.Wikidata
	}
	return p, nil
}

func (o *Orchestrator) durableProfile(ctx context.Context, bioguideID string) *domain.OfficialProfile {
	if o.durable == nil {
		return nil
	}
	p, err := o.durable.GetProfile(ctx, bioguideID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("bioguide_id", bioguideID).Msg("durable cache read failed")
		return nil
	}
	return p
}

func (o *Orchestrator) durableZip(ctx context.Context, zip string) *domain.ZipLookupResult {
	if o.durable == nil {
		return nil
	}
	r, err := o.durable.GetZip(ctx, zip)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("zip", zip).Msg("durable cache read failed")
		return nil
	}
	return r
}
