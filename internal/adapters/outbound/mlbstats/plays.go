package mlbstats

import (
	"context"
	"fmt"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
	"github.com/charleschow/mlb-winprob/internal/core/winprob"
)

// Play is one completed plate appearance. The situation fields describe the
// start of the play; HomeScore and AwayScore are the score once it ended.
type Play struct {
	Inning      int              `json:"inning"`
	TopBottom   baseball.Half    `json:"top_bottom"`
	Outs        int              `json:"outs"`
	Runners     baseball.Runners `json:"runners"`
	ScoreDiff   int              `json:"score_diff"`
	HomeScore   int              `json:"home_score"`
	AwayScore   int              `json:"away_score"`
	Description string           `json:"description"`
	Event       string           `json:"event"`
	Batter      string           `json:"batter"`
	Pitcher     string           `json:"pitcher"`
}

// GamePlays is a game's play log with the team names.
type GamePlays struct {
	GamePk   int    `json:"gamePk"`
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Status   string `json:"status"`
	Plays    []Play `json:"plays"`
}

// ReplayInput converts the log into the model's replay input.
func (g *GamePlays) ReplayInput(rpg float64) []winprob.PlayState {
	out := make([]winprob.PlayState, len(g.Plays))
	for i, p := range g.Plays {
		out[i] = winprob.PlayState{
			State:       baseball.NewGameState(p.Inning, p.TopBottom, p.Outs, p.Runners, p.ScoreDiff, rpg),
			HomeScore:   p.HomeScore,
			AwayScore:   p.AwayScore,
			Event:       p.Event,
			Description: p.Description,
			Batter:      p.Batter,
			Pitcher:     p.Pitcher,
		}
	}
	return out
}

// GetGamePlays returns every completed play of gamePk in order.
func (c *Client) GetGamePlays(ctx context.Context, gamePk int) (*GamePlays, error) {
	feed, err := c.liveFeed(ctx, gamePk)
	if err != nil {
		return nil, fmt.Errorf("game plays %d: %w", gamePk, err)
	}
	return playsFromFeed(gamePk, feed), nil
}

func playsFromFeed(gamePk int, feed *feedResponse) *GamePlays {
	gp := &GamePlays{
		GamePk:   gamePk,
		HomeTeam: feed.GameData.Teams.Home.Name,
		AwayTeam: feed.GameData.Teams.Away.Name,
		Status:   feed.GameData.Status.DetailedState,
	}

	var prevHome, prevAway int
	for _, fp := range feed.LiveData.Plays.AllPlays {
		if !fp.About.IsComplete {
			continue
		}

		var r baseball.Runners
		for _, rn := range fp.Runners {
			if rn.Movement.OriginBase == nil {
				continue
			}
			switch *rn.Movement.OriginBase {
			case "1B":
				r.First = true
			case "2B":
				r.Second = true
			case "3B":
				r.Third = true
			}
		}

		half := baseball.Top
		if !fp.About.IsTopInning {
			half = baseball.Bottom
		}
		inning := fp.About.Inning
		if inning < 1 {
			inning = 1
		}

		home, away := prevHome, prevAway
		if fp.Result.HomeScore != nil {
			home = *fp.Result.HomeScore
		}
		if fp.Result.AwayScore != nil {
			away = *fp.Result.AwayScore
		}

		gp.Plays = append(gp.Plays, Play{
			Inning:      inning,
			TopBottom:   half,
			Outs:        min(fp.About.Outs, 2),
			Runners:     r,
			ScoreDiff:   prevHome - prevAway,
			HomeScore:   home,
			AwayScore:   away,
			Description: fp.Result.Description,
			Event:       fp.Result.Event,
			Batter:      fp.Matchup.Batter.FullName,
			Pitcher:     fp.Matchup.Pitcher.FullName,
		})
		prevHome, prevAway = home, away
	}
	return gp
}
