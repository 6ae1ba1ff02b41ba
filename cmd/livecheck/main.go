// Command livecheck probes a running API once and prints one line per live
// game. It is meant for cron, e.g.
//
//	*/5 18-2 * * * livecheck >> livecheck.log 2>&1
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charleschow/mlb-winprob/internal/config"
)

type scheduleBody struct {
	Count int `json:"count"`
	Games []struct {
		GamePk   int    `json:"gamePk"`
		AwayTeam string `json:"away_team"`
		HomeTeam string `json:"home_team"`
		Status   string `json:"status"`
	} `json:"games"`
}

type liveBody struct {
	WinProbability *float64 `json:"win_probability"`
	StatusNote     string   `json:"status_note"`
	Inning         int      `json:"inning"`
	TopBottom      string   `json:"top_bottom"`
	Outs           int      `json:"outs"`
	LeverageIndex  float64  `json:"leverage_index"`
	LeverageLabel  string   `json:"leverage_label"`
	ScoreHome      int      `json:"score_home"`
	ScoreAway      int      `json:"score_away"`
	BatterName     string   `json:"batter_name"`
	PitcherName    string   `json:"pitcher_name"`
}

type checker struct {
	api    string
	client *http.Client
	out    io.Writer
	now    func() time.Time
}

func main() {
	cfg := config.Load()
	api := flag.String("api", cfg.LivecheckAPIURL, "base URL of the win probability API")
	timeout := flag.Duration("timeout", 15*time.Second, "per-request timeout")
	flag.Parse()

	c := &checker{
		api:    strings.TrimRight(*api, "/"),
		client: &http.Client{Timeout: *timeout},
		out:    os.Stdout,
		now:    time.Now,
	}
	c.run(context.Background())
}

func (c *checker) fetch(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.api+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *checker) run(ctx context.Context) {
	now := c.now().UTC().Format("2006-01-02 15:04 UTC")

	var sched scheduleBody
	if err := c.fetch(ctx, "/games/today", &sched); err != nil {
		fmt.Fprintf(c.out, "[%s] API ERROR: %v\n", now, err)
		return
	}

	live := 0
	for _, g := range sched.Games {
		if g.Status != "In Progress" {
			continue
		}
		live++
		matchup := fmt.Sprintf("%s @ %s", g.AwayTeam, g.HomeTeam)

		var lb liveBody
		if err := c.fetch(ctx, fmt.Sprintf("/wp/live/%d", g.GamePk), &lb); err != nil {
			fmt.Fprintf(c.out, "[%s] LIVE | %s | WP ERROR: %v\n", now, matchup, err)
			continue
		}
		if lb.WinProbability == nil {
			note := lb.StatusNote
			if note == "" {
				note = "unknown"
			}
			fmt.Fprintf(c.out, "[%s] LIVE | %s | %s\n", now, matchup, note)
			continue
		}

		half := "?"
		if lb.TopBottom != "" {
			half = strings.ToUpper(lb.TopBottom[:1])
		}
		fmt.Fprintf(c.out, "[%s] LIVE | %s | %d-%d | %s%d %dout | WP=%.1f%% LI=%.2f(%s) | AB:%s P:%s\n",
			now, matchup, lb.ScoreAway, lb.ScoreHome, half, lb.Inning, lb.Outs,
			*lb.WinProbability*100, lb.LeverageIndex, lb.LeverageLabel,
			lb.BatterName, lb.PitcherName)
	}

	if live == 0 {
		fmt.Fprintf(c.out, "[%s] No live games (today total: %d)\n", now, sched.Count)
	}
}
