package winprob

import (
	"math"

	"github.com/samber/lo"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// ReferenceRunsPerGame is the scoring environment re24 was measured in.
const ReferenceRunsPerGame = baseball.DefaultRunsPerGame

// re24 holds MLB 2010-2019 average run expectancy, indexed by
// Runners.Index() then outs. Row order matches the natural key order
// (first, second, third) so FullTable can walk it directly.
var re24 = [8][3]float64{
	{0.481, 0.254, 0.098}, // ---
	{1.350, 0.950, 0.353}, // --3
	{1.100, 0.664, 0.319}, // -2-
	{1.964, 1.376, 0.580}, // -23
	{0.859, 0.509, 0.224}, // 1--
	{1.784, 1.130, 0.478}, // 1-3
	{1.437, 0.884, 0.429}, // 12-
	{2.292, 1.541, 0.752}, // 123
}

// ExpectedRuns returns the run expectancy for the rest of the half-inning,
// linearly rescaled from the reference environment to rpg.
//
// Keys outside the 24 table states (outs of 3 after a transition, negative
// outs) return 0. Leverage and the tactic deltas are calibrated with that.
func ExpectedRuns(r baseball.Runners, outs int, rpg float64) float64 {
	if outs < 0 || outs > 2 {
		return 0
	}
	return re24[r.Index()][outs] * (rpg / ReferenceRunsPerGame)
}

// TableEntry is one row of the rendered RE24 table.
type TableEntry struct {
	Runners      string  `json:"runners"`
	Runner1      int     `json:"runner1"`
	Runner2      int     `json:"runner2"`
	Runner3      int     `json:"runner3"`
	Outs         int     `json:"outs"`
	ExpectedRuns float64 `json:"expected_runs"`
}

// FullTable renders all 24 states in key order (runner pattern, then outs).
func FullTable(rpg float64) []TableEntry {
	keys := lo.Range(len(re24) * 3)
	return lo.Map(keys, func(k int, _ int) TableEntry {
		r := baseball.RunnersFromIndex(k / 3)
		outs := k % 3
		r1, r2, r3 := r.Ints()
		return TableEntry{
			Runners:      r.Label(),
			Runner1:      r1,
			Runner2:      r2,
			Runner3:      r3,
			Outs:         outs,
			ExpectedRuns: round(ExpectedRuns(r, outs, rpg), 3),
		}
	})
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, minV, maxV float64) float64 {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
