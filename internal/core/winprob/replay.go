package winprob

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// PlayState is one completed play: the situation when it started plus the
// score once it was over.
type PlayState struct {
	State       baseball.GameState `json:"state"`
	HomeScore   int                `json:"home_score"`
	AwayScore   int                `json:"away_score"`
	Event       string             `json:"event"`
	Description string             `json:"description"`
	Batter      string             `json:"batter"`
	Pitcher     string             `json:"pitcher"`
}

// PlayWPA is a replayed play with the home WP on either side of it.
type PlayWPA struct {
	PlayState
	WPBefore float64 `json:"wp_before"`
	WPAfter  float64 `json:"wp_after"`
	WPA      float64 `json:"wpa"`
	LI       float64 `json:"leverage_index"`
}

// Replay walks a play log in order. Each play's after-WP is the WP at the
// start of the next play. When final is set the last play is settled by its
// score: a lead pins it to the WP bounds, a tie leaves it where it started.
// Otherwise the last play is valued at its own situation with the score it
// ended on.
func Replay(plays []PlayState, rpg float64, final bool) []PlayWPA {
	before := lo.Map(plays, func(p PlayState, _ int) float64 {
		return WinProbability(p.State.WithRPG(rpg))
	})

	out := make([]PlayWPA, len(plays))
	for i, p := range plays {
		var after float64
		switch {
		case i+1 < len(plays):
			after = before[i+1]
		case !final:
			after = WinProbability(p.afterState().WithRPG(rpg))
		case p.HomeScore > p.AwayScore:
			after = maxWP
		case p.HomeScore < p.AwayScore:
			after = minWP
		default:
			after = before[i]
		}
		out[i] = PlayWPA{
			PlayState: p,
			WPBefore:  round(before[i], 4),
			WPAfter:   round(after, 4),
			WPA:       round(after-before[i], 4),
			LI:        Leverage(p.State.WithRPG(rpg)),
		}
	}
	return out
}

// afterState is the play's situation carrying the score it ended on.
func (p PlayState) afterState() baseball.GameState {
	gs := p.State
	gs.ScoreDiff = p.HomeScore - p.AwayScore
	return gs
}

// BiggestPlays returns the n plays with the largest |WPA|, largest first.
func BiggestPlays(replayed []PlayWPA, n int) []PlayWPA {
	sorted := append([]PlayWPA(nil), replayed...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].WPA) > math.Abs(sorted[j].WPA)
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
