package winprob

import "math"

const (
	leagueAvgOPS   = 0.750
	opsLogitWeight = 0.5
	leagueAvgERA   = 3.50
	eraLogitWeight = 0.15
)

// AdjustForMatchup shifts baseWP in log-odds space for the quality of the
// batter (OPS) and pitcher (ERA) involved. Either signal may be nil; with
// both nil baseWP is returned untouched.
func AdjustForMatchup(baseWP float64, batterOPS, pitcherERA *float64) float64 {
	if batterOPS == nil && pitcherERA == nil {
		return baseWP
	}

	p := clamp(baseWP, minWP, maxWP)
	logit := math.Log(p / (1 - p))

	if batterOPS != nil {
		logit += (*batterOPS - leagueAvgOPS) * opsLogitWeight
	}
	if pitcherERA != nil {
		// a pitcher better than average hurts the batting side
		logit -= (leagueAvgERA - *pitcherERA) * eraLogitWeight
	}

	wp := 1 / (1 + math.Exp(-logit))
	return round(clamp(wp, minWP, maxWP), 4)
}
