package winprob

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// Model constants calibrated against historical WP tables. Do not re-derive.
//
//	halvesPerGame   = rpg is spread over 18 half-innings
//	varianceInflate = empirical inflation of per-half run variance
//	varianceFloor   = keeps sigma positive in the final half-inning
//	walkoffScoring  = P(score >= 1) = 1 - exp(-re * walkoffScoring)
//	extrasWinPct    = home win share once a tie reaches extra innings
//	trailLambda     = Poisson multiplier on RE for a trailing home team in the bottom
//	leadLambda      = Poisson multiplier on RE for the visitor facing a deficit in the top
//	tieLossShare    = visitor's chance to win once it ties in the top half
const (
	halvesPerGame   = 18.0
	varianceInflate = 1.3
	varianceFloor   = 0.01
	minSigma        = 0.1
	walkoffScoring  = 1.8
	extrasWinPct    = 0.50
	trailLambda     = 1.5
	leadLambda      = 1.3
	tieLossShare    = 0.45
	regulation      = 9

	minWP = 0.01
	maxWP = 0.99
)

// WinProbability returns the home team's chance of winning from gs,
// clamped to [0.01, 0.99].
//
// Early and mid game the final run differential is treated as normal: the
// current half's run expectancy goes to the batting side and every remaining
// half-inning contributes rpg/18 runs with inflated variance. From the 9th on,
// when near-term scoring decides the game, closed-form Poisson endgames take
// over for the situations the normal model handles badly.
func WinProbability(gs baseball.GameState) float64 {
	rpg := gs.RPG()
	re := ExpectedRuns(gs.Runners, gs.Outs, rpg)

	if gs.Inning >= regulation {
		if wp, ok := endgame(gs, re); ok {
			return clamp(wp, minWP, maxWP)
		}
	}

	var homeExtra, awayExtra float64
	var homeHalves, awayHalves int
	if gs.HomeBatting() {
		homeExtra = re
		awayHalves = max(regulation-gs.Inning, 0)
		homeHalves = max(regulation-gs.Inning, 0)
	} else {
		awayExtra = re
		awayHalves = max(regulation-gs.Inning, 0)
		// home still has its turn in this inning
		homeHalves = max(regulation-gs.Inning+1, 1)
	}

	perHalf := rpg / halvesPerGame
	mean := float64(gs.ScoreDiff) + homeExtra - awayExtra + float64(homeHalves-awayHalves)*perHalf
	sigma := math.Sqrt(float64(homeHalves+awayHalves)*perHalf*varianceInflate + varianceFloor)

	wp := distuv.UnitNormal.CDF(mean / math.Max(sigma, minSigma))
	return clamp(wp, minWP, maxWP)
}

// endgame covers the 9th inning and later. ok is false when the situation
// falls through to the normal approximation (top half with the game tied or
// the home side trailing).
func endgame(gs baseball.GameState, re float64) (float64, bool) {
	d := gs.ScoreDiff

	if gs.HomeBatting() {
		switch {
		case d > 0:
			// walk-off already happened; the game should be over
			return maxWP, true
		case d == 0:
			pScore := 1 - math.Exp(-re*walkoffScoring)
			return pScore + (1-pScore)*extrasWinPct, true
		default:
			return poissonAtLeast(-d, re*trailLambda), true
		}
	}

	if d > 0 {
		lam := re * leadLambda
		pTieOrLead := poissonAtLeast(d, lam)
		pLead := poissonAtLeast(d+1, lam)
		pHomeLoses := pLead + (pTieOrLead-pLead)*tieLossShare
		return 1 - pHomeLoses, true
	}
	return 0, false
}

// poissonAtLeast returns P(X >= k) for X ~ Poisson(lambda).
func poissonAtLeast(k int, lambda float64) float64 {
	if k <= 0 {
		return 1
	}
	if lambda <= 0 {
		return 0
	}
	return 1 - distuv.Poisson{Lambda: lambda}.CDF(float64(k-1))
}
