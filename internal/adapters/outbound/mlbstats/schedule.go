package mlbstats

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// ScheduledGame is one entry of a day's schedule.
type ScheduledGame struct {
	GamePk       int    `json:"gamePk"`
	AwayTeam     string `json:"away_team"`
	HomeTeam     string `json:"home_team"`
	Status       string `json:"status"`
	StartTimeUTC string `json:"start_time_utc"`
}

// Game status strings as reported in detailedState.
const (
	StatusScheduled  = "Scheduled"
	StatusPreGame    = "Pre-Game"
	StatusWarmup     = "Warmup"
	StatusInProgress = "In Progress"
	StatusFinal      = "Final"
	StatusGameOver   = "Game Over"
)

// NotStarted reports whether a status means first pitch has not happened.
func NotStarted(status string) bool {
	switch status {
	case StatusScheduled, StatusPreGame, StatusWarmup:
		return true
	}
	return false
}

// IsFinal reports whether a status means the game is over.
func IsFinal(status string) bool {
	switch status {
	case StatusFinal, StatusGameOver, "Completed Early":
		return true
	}
	return false
}

// Today is the default schedule date, in UTC.
func Today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

// GetSchedule returns the MLB schedule for date (YYYY-MM-DD, empty for
// today UTC).
func (c *Client) GetSchedule(ctx context.Context, date string) ([]ScheduledGame, error) {
	if date == "" {
		date = Today()
	}
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("schedule date %q: %w", date, err)
	}

	q := url.Values{"date": {date}, "sportId": {"1"}}
	var resp scheduleResponse
	if err := c.getJSON(ctx, "/v1/schedule?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("get schedule %s: %w", date, err)
	}

	var games []ScheduledGame
	for _, d := range resp.Dates {
		for _, g := range d.Games {
			games = append(games, ScheduledGame{
				GamePk:       g.GamePk,
				AwayTeam:     g.Teams.Away.Team.Name,
				HomeTeam:     g.Teams.Home.Team.Name,
				Status:       g.Status.DetailedState,
				StartTimeUTC: g.GameDate,
			})
		}
	}
	return games, nil
}

// FilterTeam keeps games in which either side matches query.
func FilterTeam(games []ScheduledGame, query string) []ScheduledGame {
	if query == "" {
		return games
	}
	var out []ScheduledGame
	for _, g := range games {
		if MatchTeam(g.HomeTeam, query) || MatchTeam(g.AwayTeam, query) {
			out = append(out, g)
		}
	}
	return out
}
