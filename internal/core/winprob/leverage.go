package winprob

import (
	"math"

	"github.com/samber/lo"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// OutcomeWeight pairs a plate-appearance outcome with its league frequency.
type OutcomeWeight struct {
	Outcome     Outcome
	Probability float64
}

// OutcomeDistribution is the representative plate appearance. Sums to 1.
var OutcomeDistribution = []OutcomeWeight{
	{Strikeout, 0.22},
	{Groundout, 0.20},
	{Flyout, 0.12},
	{Single, 0.16},
	{Walk, 0.09},
	{Double, 0.05},
	{HomeRun, 0.03},
	{DoublePlay, 0.03},
	{OtherOut, 0.10},
}

// LeagueAvgWPSwing is the average |dWP| of a plate appearance across all
// situations. An LI of 1.0 means an average-importance PA.
const LeagueAvgWPSwing = 0.035

// Leverage returns the leverage index of the next plate appearance: the
// expected absolute WP swing over OutcomeDistribution, relative to
// LeagueAvgWPSwing, rounded to 2 places.
func Leverage(gs baseball.GameState) float64 {
	base := WinProbability(gs)
	swing := lo.SumBy(OutcomeDistribution, func(ow OutcomeWeight) float64 {
		return ow.Probability * math.Abs(WinProbability(afterOutcome(gs, ow.Outcome))-base)
	})
	return round(swing/LeagueAvgWPSwing, 2)
}

// afterOutcome is the game state once o has been applied. Three outs flip
// to the next half with the bases cleared; runs scored on the play are
// carried into the score differential either way.
func afterOutcome(gs baseball.GameState, o Outcome) baseball.GameState {
	r, outs, runs := Apply(gs.Runners, gs.Outs, o)
	next := gs.ScoreRuns(runs)
	if outs >= 3 {
		return next.NextHalf()
	}
	return next.WithBaseOut(r, outs)
}

// Leverage labels.
const (
	LeverageLow      = "Low"
	LeverageMedium   = "Medium"
	LeverageHigh     = "High"
	LeverageVeryHigh = "Very High"
)

// LeverageLabel buckets an LI value for display.
func LeverageLabel(li float64) string {
	switch {
	case li < 0.5:
		return LeverageLow
	case li < 1.5:
		return LeverageMedium
	case li < 3.0:
		return LeverageHigh
	default:
		return LeverageVeryHigh
	}
}
