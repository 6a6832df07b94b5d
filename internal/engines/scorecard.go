package engines

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tbourn/civics-backend/internal/domain"
)

// Benchmarks are the per-Congress chamber averages a member is scored against.
type Benchmarks struct {
	Sponsored         float64
	Cosponsored       float64
	ParticipationRate float64
	BipartisanRate    float64
	BillsEnacted      float64
	Committees        float64
}

// ChamberBenchmarks holds the reference averages. Unknown chambers use the
// house figures.
var ChamberBenchmarks = map[domain.Chamber]Benchmarks{
	domain.ChamberHouse:  {Sponsored: 12, Cosponsored: 300, ParticipationRate: 95, BipartisanRate: 15, BillsEnacted: 2, Committees: 2},
	domain.ChamberSenate: {Sponsored: 15, Cosponsored: 200, ParticipationRate: 96, BipartisanRate: 20, BillsEnacted: 3, Committees: 3},
}

// ScorecardInput carries the raw counts behind a scorecard.
type ScorecardInput struct {
	BioguideID           string
	Name                 string
	Chamber              domain.Chamber
	SponsoredCount       int
	CosponsoredCount     int
	TotalVotes           int
	MissedVotes          int
	VotesWithParty       int
	VotesAgainstParty    int
	BillsEnacted         int
	CommitteeMemberships int
}

// round1 rounds to one decimal place.
func round1(v float64) float64 { return math.Round(v*10) / 10 }

func pct(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}

// ComputeScorecard scores in against its chamber's benchmarks, producing
// the six dimensions in a fixed order.
func ComputeScorecard(in ScorecardInput, now time.Time) domain.Scorecard {
	chamber := in.Chamber
	bench, ok := ChamberBenchmarks[chamber]
	if !ok {
		chamber = domain.ChamberHouse
		bench = ChamberBenchmarks[chamber]
	}
	participation := pct(in.TotalVotes-in.MissedVotes, in.TotalVotes)
	bipartisan := pct(in.VotesAgainstParty, in.VotesWithParty+in.VotesAgainstParty)

	dim := func(id, label, desc string, value, benchmark float64, unit, context string) domain.MetricDimension {
		return domain.MetricDimension{
			ID: id, Label: label, Description: desc,
			Value: round1(value), Benchmark: benchmark, Unit: unit,
			Context: fmt.Sprintf(context, chamber, benchmark),
		}
	}

	return domain.Scorecard{
		BioguideID: in.BioguideID,
		Name:       in.Name,
		Chamber:    chamber,
		Dimensions: []domain.MetricDimension{
			dim("legislative_activity", "Legislative Activity", "Bills sponsored this Congress",
				float64(in.SponsoredCount), bench.Sponsored, "bills",
				"The average %s member sponsors %g bills per Congress."),
			dim("collaboration", "Collaboration", "Bills cosponsored this Congress",
				float64(in.CosponsoredCount), bench.Cosponsored, "bills",
				"The average %s member cosponsors %g bills per Congress."),
			dim("participation", "Vote Participation", "Percentage of roll call votes attended",
				participation, bench.ParticipationRate, "%",
				"The average %s member participates in %g%% of votes."),
			dim("bipartisan", "Cross-Party Voting", "Percentage of votes against party line",
				bipartisan, bench.BipartisanRate, "%",
				"The average %s member votes against their party %g%% of the time."),
			dim("effectiveness", "Legislative Effectiveness", "Sponsored bills signed into law",
				float64(in.BillsEnacted), bench.BillsEnacted, "laws",
				"The average %s member gets %g bills enacted per Congress."),
			dim("committee_engagement", "Committee Engagement", "Committee and subcommittee memberships",
				float64(in.CommitteeMemberships), bench.Committees, "committees",
				"The average %s member serves on %g committees."),
		},
		GeneratedAt: now.UTC(),
	}
}

// PartyAlignment counts how often the member voted with the majority of
// their own party. A party containing "democrat" is read against the
// Democratic tally, anything else against the Republican one. The party
// majority is Yea when yeas outnumber nays, otherwise Nay.
func PartyAlignment(votes []domain.VoteRecord, party string) (with, against, missed int) {
	democrat := strings.Contains(lower(party), "democrat")
	for _, v := range votes {
		if v.MemberPosition == domain.PositionNotVoting {
			missed++
			continue
		}
		tally := v.PartyBreakdown.Republican
		if democrat {
			tally = v.PartyBreakdown.Democratic
		}
		majority := domain.PositionNay
		if tally.Yea > tally.Nay {
			majority = domain.PositionYea
		}
		if v.MemberPosition == majority {
			with++
		} else {
			against++
		}
	}
	return with, against, missed
}

// EnactedCount counts bills whose latest action reports them as law.
func EnactedCount(bills []domain.BillSummary) int {
	n := 0
	for _, b := range bills {
		a := lower(b.LatestAction)
		if strings.Contains(a, "became public law") || strings.Contains(a, "became private law") {
			n++
		}
	}
	return n
}

// CommitteeMemberships counts committees plus their subcommittees.
func CommitteeMemberships(cs []domain.CommitteeAssignment) int {
	n := len(cs)
	for _, c := range cs {
		n += len(c.Subcommittees)
	}
	return n
}
