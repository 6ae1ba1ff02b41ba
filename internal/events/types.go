package events

import "github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"

// LiveUpdateEvent is published by the tracker whenever a live game's state
// changes between polls.
type LiveUpdateEvent struct {
	GamePk    int    `json:"game_pk"`
	AwayTeam  string `json:"away_team"`
	HomeTeam  string `json:"home_team"`
	Status    string `json:"status"`
	ScoreHome int    `json:"score_home"`
	ScoreAway int    `json:"score_away"`
	Batter    string `json:"batter_name,omitempty"`
	Pitcher   string `json:"pitcher_name,omitempty"`

	State baseball.GameState `json:"game_state"`

	WinProbability float64 `json:"win_probability"`
	LeverageIndex  float64 `json:"leverage_index"`
	LeverageLabel  string  `json:"leverage_label"`

	// WPDelta is the change since the previous stored snapshot; zero on the
	// first snapshot of a game.
	WPDelta float64 `json:"wp_delta"`

	// TopTactic is the first recommendation, empty when none applies.
	TopTactic string `json:"top_tactic,omitempty"`
}

// GameFinalEvent is published once when a tracked game goes final.
type GameFinalEvent struct {
	GamePk    int    `json:"game_pk"`
	AwayTeam  string `json:"away_team"`
	HomeTeam  string `json:"home_team"`
	ScoreHome int    `json:"score_home"`
	ScoreAway int    `json:"score_away"`
	HomeWon   bool   `json:"home_won"`
}
