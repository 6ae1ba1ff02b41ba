package mlbstats

import (
	"context"
	"fmt"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

// LiveState is the current situation of one game.
type LiveState struct {
	GamePk      int              `json:"gamePk"`
	Inning      int              `json:"inning"`
	TopBottom   baseball.Half    `json:"top_bottom"`
	Outs        int              `json:"outs"`
	Runners     baseball.Runners `json:"runners"`
	ScoreHome   int              `json:"score_home"`
	ScoreAway   int              `json:"score_away"`
	ScoreDiff   int              `json:"score_diff"`
	BatterName  string           `json:"batter_name"`
	PitcherName string           `json:"pitcher_name"`
	AwayTeam    string           `json:"away_team"`
	HomeTeam    string           `json:"home_team"`
	Status      string           `json:"status"`
}

// GameState converts the live situation into model input.
func (s *LiveState) GameState(rpg float64) baseball.GameState {
	return baseball.NewGameState(s.Inning, s.TopBottom, s.Outs, s.Runners, s.ScoreDiff, rpg)
}

// GetLiveState fetches the live feed for gamePk. Outs are clamped to 2: the
// feed briefly reports 3 between halves and the model has no such state.
func (c *Client) GetLiveState(ctx context.Context, gamePk int) (*LiveState, error) {
	feed, err := c.liveFeed(ctx, gamePk)
	if err != nil {
		return nil, fmt.Errorf("live state %d: %w", gamePk, err)
	}
	return liveStateFromFeed(gamePk, feed), nil
}

func liveStateFromFeed(gamePk int, feed *feedResponse) *LiveState {
	gd := feed.GameData
	ls := feed.LiveData.Linescore

	status := gd.Status.DetailedState
	if status == "" {
		status = "Unknown"
	}
	away := gd.Teams.Away.Name
	if away == "" {
		away = "Away"
	}
	home := gd.Teams.Home.Name
	if home == "" {
		home = "Home"
	}

	inning := 1
	if ls.CurrentInning != nil {
		inning = *ls.CurrentInning
	}
	half := baseball.Top
	if ls.IsTopInning != nil && !*ls.IsTopInning {
		half = baseball.Bottom
	}

	return &LiveState{
		GamePk:    gamePk,
		Inning:    inning,
		TopBottom: half,
		Outs:      min(ls.Outs, 2),
		Runners: baseball.Runners{
			First:  ls.Offense.First != nil,
			Second: ls.Offense.Second != nil,
			Third:  ls.Offense.Third != nil,
		},
		ScoreHome:   ls.Teams.Home.Runs,
		ScoreAway:   ls.Teams.Away.Runs,
		ScoreDiff:   ls.Teams.Home.Runs - ls.Teams.Away.Runs,
		BatterName:  ls.Offense.Batter.name(),
		PitcherName: ls.Defense.Pitcher.name(),
		AwayTeam:    away,
		HomeTeam:    home,
		Status:      status,
	}
}
