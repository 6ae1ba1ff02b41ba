package winprob

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

func ptr(v float64) *float64 { return &v }

func TestAdjustForMatchup(t *testing.T) {
	is := is.New(t)
	is.Equal(AdjustForMatchup(0.5, nil, nil), 0.5)
	is.Equal(AdjustForMatchup(0.4321, nil, nil), 0.4321)

	is.Equal(AdjustForMatchup(0.5, ptr(0.950), nil), 0.525)
	is.Equal(AdjustForMatchup(0.5, nil, ptr(2.0)), 0.444)
	is.Equal(AdjustForMatchup(0.5, ptr(0.9), ptr(4.0)), 0.5374)

	// league-average inputs are a no-op
	is.Equal(AdjustForMatchup(0.5, ptr(0.750), ptr(3.50)), 0.5)

	is.Equal(AdjustForMatchup(0.999, ptr(2.0), nil), 0.99)
	is.Equal(AdjustForMatchup(0.001, ptr(0.0), nil), 0.01)
}

func TestWPAReflexive(t *testing.T) {
	is := is.New(t)
	allStates(func(gs baseball.GameState) {
		res := WPA(gs, gs)
		is.Equal(res.WPA, 0.0)
		is.Equal(res.WPBefore, res.WPAfter)
	})
}

func TestWPA(t *testing.T) {
	is := is.New(t)
	before := state(1, baseball.Top, 0, 0, 0, 0, 0)
	after := state(1, baseball.Top, 0, 0, 0, 0, -1)
	res := WPA(before, after)
	is.Equal(res.WPBefore, 0.4609)
	is.Equal(res.WPAfter, 0.3004)
	is.Equal(res.WPA, -0.1605)
}

func TestFullAnalysis(t *testing.T) {
	is := is.New(t)
	gs := state(9, baseball.Bottom, 2, 1, 1, 1, 0)

	res := FullAnalysis(gs, nil, nil)
	is.Equal(res.WinProbability, 0.8708)
	is.Equal(res.WinProbabilityPct, "87.1%")
	is.Equal(res.LeverageIndex, 11.19)
	is.Equal(res.LeverageLabel, LeverageVeryHigh)
	is.True(res.AdjustedWP == nil)
	is.Equal(res.Tactics[0].Tactic, "Hit and Run")
	is.Equal(res.Tactics[0].RE24Delta, 0.061)

	adj := FullAnalysis(gs, ptr(0.950), nil)
	is.True(adj.AdjustedWP != nil)
	is.True(*adj.AdjustedWP > adj.WinProbability)
	is.Equal(adj.WinProbability, res.WinProbability)
}

func TestFullAnalysisZeroRPGDefaults(t *testing.T) {
	is := is.New(t)
	gs := state(1, baseball.Top, 0, 0, 0, 0, 0)
	gs.RunsPerGame = 0
	res := FullAnalysis(gs, nil, nil)
	is.Equal(res.GameState.RunsPerGame, baseball.DefaultRunsPerGame)
	is.Equal(res.WinProbability, 0.4609)
}

func TestFullAnalysisJSON(t *testing.T) {
	is := is.New(t)
	b, err := json.Marshal(FullAnalysis(state(7, baseball.Bottom, 1, 1, 1, 0, -1), nil, nil))
	is.NoErr(err)

	var m map[string]any
	is.NoErr(json.Unmarshal(b, &m))
	is.Equal(m["adjusted_wp"], nil)
	is.Equal(m["leverage_label"], LeverageVeryHigh)
	gs := m["game_state"].(map[string]any)
	is.Equal(gs["top_bottom"], "bottom")
	is.Equal(gs["runners"], map[string]any{"1B": 1.0, "2B": 1.0, "3B": 0.0})
}

func TestFormatPct(t *testing.T) {
	is := is.New(t)
	is.Equal(FormatPct(0.8708), "87.1%")
	is.Equal(FormatPct(0.01), "1.0%")
}
