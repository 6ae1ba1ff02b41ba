package winprob

import (
	"fmt"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// WPAResult is the win probability added by a single play.
type WPAResult struct {
	WPA      float64 `json:"wpa"`
	WPBefore float64 `json:"wp_before"`
	WPAfter  float64 `json:"wp_after"`
}

// WPA evaluates before and after independently and reports the change.
func WPA(before, after baseball.GameState) WPAResult {
	wb := WinProbability(before)
	wa := WinProbability(after)
	return WPAResult{
		WPA:      round(wa-wb, 4),
		WPBefore: round(wb, 4),
		WPAfter:  round(wa, 4),
	}
}

// AnalysisResult bundles everything the engine says about one game state.
type AnalysisResult struct {
	GameState         baseball.GameState `json:"game_state"`
	WinProbability    float64            `json:"win_probability"`
	WinProbabilityPct string             `json:"win_probability_pct"`
	AdjustedWP        *float64           `json:"adjusted_wp"`
	LeverageIndex     float64            `json:"leverage_index"`
	LeverageLabel     string             `json:"leverage_label"`
	Tactics           []Recommendation   `json:"tactics"`
}

// FullAnalysis runs win probability, leverage and tactics for gs. AdjustedWP
// is set only when a batter or pitcher quality signal is supplied.
func FullAnalysis(gs baseball.GameState, batterOPS, pitcherERA *float64) AnalysisResult {
	gs = gs.WithRPG(gs.RPG())
	wp := WinProbability(gs)
	li := Leverage(gs)

	res := AnalysisResult{
		GameState:         gs,
		WinProbability:    round(wp, 4),
		WinProbabilityPct: FormatPct(wp),
		LeverageIndex:     li,
		LeverageLabel:     LeverageLabel(li),
		Tactics:           Recommendations(gs),
	}
	if batterOPS != nil || pitcherERA != nil {
		adj := round(AdjustForMatchup(wp, batterOPS, pitcherERA), 4)
		res.AdjustedWP = &adj
	}
	return res
}

// FormatPct renders a probability as "87.1%".
func FormatPct(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
