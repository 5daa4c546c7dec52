// Package scoring turns a session's event ledger into an integrity score,
// a qualitative tier, and a list of advisory recommendations. Everything in
// this package is a pure function of its inputs.
package scoring

import (
	"github.com/candidwatch/go-proctor/pkg/event"
)

// Deduction weights per event severity.
const (
	WeightLow    = 2
	WeightMedium = 5
	WeightHigh   = 10
)

// Weight returns the score deduction for a severity. Unknown severities
// weigh nothing rather than corrupting the score.
func Weight(s event.Severity) int {
	switch s {
	case event.SeverityLow:
		return WeightLow
	case event.SeverityMedium:
		return WeightMedium
	case event.SeverityHigh:
		return WeightHigh
	}
	return 0
}

// Score computes the integrity score for a set of events: 100 minus the
// summed severity weights, floored at 0. The sum is commutative, so the
// result is independent of event order and of when it is recomputed.
func Score(events []event.Event) int {
	deduction := 0
	for _, e := range events {
		deduction += Weight(e.Severity)
	}
	score := 100 - deduction
	if score < 0 {
		return 0
	}
	return score
}

// Tier is the qualitative band a score falls into.
type Tier string

const (
	TierExcellent   Tier = "Excellent"
	TierGood        Tier = "Good"
	TierModerate    Tier = "Moderate Concerns"
	TierSignificant Tier = "Significant Issues"
)

// TierFor maps a score to its display tier.
func TierFor(score int) Tier {
	switch {
	case score >= 90:
		return TierExcellent
	case score >= 70:
		return TierGood
	case score >= 50:
		return TierModerate
	default:
		return TierSignificant
	}
}
