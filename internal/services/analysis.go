package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/civics-backend/internal/cache"
	"github.com/tbourn/civics-backend/internal/domain"
	"github.com/tbourn/civics-backend/internal/engines"
	"github.com/tbourn/civics-backend/internal/search"
)

// summarizedBills caps synthesis calls per issue report.
const summarizedBills = 3

// Compare fetches both full profiles in parallel and compares them. Either
// profile failing fails the comparison.
func (o *Orchestrator) Compare(ctx context.Context, a, b string) (engines.Comparison, error) {
	ctx, span := o.tracer().Start(ctx, "Compare",
		trace.WithAttributes(attribute.String("official1", a), attribute.String("official2", b)),
	)
	defer span.End()

	if !ValidBioguideID(a) || !ValidBioguideID(b) {
		return engines.Comparison{}, ErrInvalidID
	}
	if a == b {
		return engines.Comparison{}, ErrSameOfficial
	}

	c, err := load(ctx, o, "compare:"+a+":"+b, cache.CategoryCompare, func(ctx context.Context) (engines.Comparison, error) {
		var p1, p2 *domain.OfficialProfile
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() (err error) { p1, err = o.GetFullProfile(gctx, a); return })
		g.Go(func() (err error) { p2, err = o.GetFullProfile(gctx, b); return })
		if err := g.Wait(); err != nil {
			return engines.Comparison{}, err
		}
		return engines.Compare(p1, p2), nil
	})
	if err != nil {
		fail(span, err)
	}
	return c, err
}

// recentVotes fetches up to MaxVoteLimit votes; a failure yields none.
func (o *Orchestrator) recentVotes(ctx context.Context, p domain.MemberProfile) []domain.VoteRecord {
	votes, err := o.GetMemberVotes(ctx, p.Member.BioguideID, p.Member.Chamber, MaxVoteLimit)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("bioguide_id", p.Member.BioguideID).Msg("votes unavailable, continuing without")
		return []domain.VoteRecord{}
	}
	return votes
}

// IssueReport builds the official's record on one issue from their
// sponsored bills and recent votes. Vote failures are tolerated.
func (o *Orchestrator) IssueReport(ctx context.Context, bioguideID, issue string) (engines.IssueReport, error) {
	ctx, span := o.tracer().Start(ctx, "IssueReport",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID), attribute.String("issue", issue)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return engines.IssueReport{}, ErrInvalidID
	}
	cat, ok := engines.LookupIssue(issue)
	if !ok {
		return engines.IssueReport{}, fmt.Errorf("%w: %q", ErrUnknownIssue, issue)
	}

	r, err := load(ctx, o, "issues:"+bioguideID+":"+issue, cache.CategoryIssues, func(ctx context.Context) (engines.IssueReport, error) {
		core, err := o.GetMemberProfile(ctx, bioguideID)
		if err != nil {
			return engines.IssueReport{}, err
		}
		p := &domain.OfficialProfile{Member: core.Member, Bills: core.Bills}
		r := engines.GenerateIssueReport(p, o.recentVotes(ctx, core), cat.ID)
		o.summarize(ctx, r.RelatedBills)
		return r, nil
	})
	if err != nil {
		fail(span, err)
	}
	return r, err
}

// summarize fills plain-language summaries for the first few bills when a
// synthesis backend is configured.
func (o *Orchestrator) summarize(ctx context.Context, bills []engines.CategorizedBill) {
	if o.src.Synthesis == nil || !o.src.Synthesis.Available() {
		return
	}
	var g errgroup.Group
	for i := range bills[:min(len(bills), summarizedBills)] {
		g.Go(func() error {
			bills[i].Summary = o.src.Synthesis.SummarizeBill(ctx, bills[i].BillSummary)
			return nil
		})
	}
	_ = g.Wait()
}

// IssueReports builds a report for every issue the official has touched.
func (o *Orchestrator) IssueReports(ctx context.Context, bioguideID string) ([]engines.IssueReport, error) {
	ctx, span := o.tracer().Start(ctx, "IssueReports",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return nil, ErrInvalidID
	}
	rs, err := load(ctx, o, "issues:"+bioguideID, cache.CategoryIssues, func(ctx context.Context) ([]engines.IssueReport, error) {
		core, err := o.GetMemberProfile(ctx, bioguideID)
		if err != nil {
			return nil, err
		}
		p := &domain.OfficialProfile{Member: core.Member, Bills: core.Bills}
		return engines.GenerateAllReports(p, o.recentVotes(ctx, core)), nil
	})
	if err != nil {
		fail(span, err)
	}
	return rs, err
}

// Scorecard computes the benchmarked metrics dashboard for an official.
// Votes and committees are fetched alongside; their failures count as
// empty input rather than errors.
func (o *Orchestrator) Scorecard(ctx context.Context, bioguideID string) (domain.Scorecard, error) {
	ctx, span := o.tracer().Start(ctx, "Scorecard",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID)),
	)
	defer span.End()

	if !ValidBioguideID(bioguideID) {
		return domain.Scorecard{}, ErrInvalidID
	}
	sc, err := load(ctx, o, "metrics:"+bioguideID, cache.CategoryMetrics, func(ctx context.Context) (domain.Scorecard, error) {
		core, err := o.GetMemberProfile(ctx, bioguideID)
		if err != nil {
			return domain.Scorecard{}, err
		}
		var (
			votes      []domain.VoteRecord
			committees []domain.CommitteeAssignment
			g          errgroup.Group
		)
		g.Go(func() error {
			votes = o.recentVotes(ctx, core)
			return nil
		})
		g.Go(func() error {
			cs, err := o.GetMemberCommittees(ctx, bioguideID)
			if err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("bioguide_id", bioguideID).Msg("committees unavailable, continuing without")
			}
			committees = cs
			return nil
		})
		_ = g.Wait()

		m := core.Member
		with, against, missed := engines.PartyAlignment(votes, m.Party)
		return engines.ComputeScorecard(engines.ScorecardInput{
			BioguideID:           m.BioguideID,
			Name:                 m.Name,
			Chamber:              m.Chamber,
			SponsoredCount:       m.SponsoredCount,
			CosponsoredCount:     m.CosponsoredCount,
			TotalVotes:           len(votes),
			MissedVotes:          missed,
			VotesWithParty:       with,
			VotesAgainstParty:    against,
			BillsEnacted:         engines.EnactedCount(core.Bills),
			CommitteeMemberships: engines.CommitteeMemberships(committees),
		}, o.now()), nil
	})
	if err != nil {
		fail(span, err)
	}
	return sc, err
}

// BillMatch is one bill-search hit.
type BillMatch struct {
	Bill  domain.BillSummary `json:"bill"`
	Score float64            `json:"score"`
}

// SearchBills ranks the official's sponsored bills against query.
func (o *Orchestrator) SearchBills(ctx context.Context, bioguideID, query string, k int) ([]BillMatch, error) {
	ctx, span := o.tracer().Start(ctx, "SearchBills",
		trace.WithAttributes(attribute.String("bioguide.id", bioguideID), attribute.Int("k", k)),
	)
	defer span.End()

	core, err := o.GetMemberProfile(ctx, bioguideID)
	if err != nil {
		fail(span, err)
		return nil, err
	}
	byKey := make(map[string]domain.BillSummary, len(core.Bills))
	for _, b := range core.Bills {
		byKey[b.Key()] = b
	}

	out := []BillMatch{}
	for _, r := range search.NewBillIndex(core.Bills).TopK(query, k) {
		out = append(out, BillMatch{Bill: byKey[r.ID], Score: r.Score})
	}
	return out, nil
}
