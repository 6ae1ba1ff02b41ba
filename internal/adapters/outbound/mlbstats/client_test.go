package mlbstats

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
)

const scheduleFixture = `{
  "dates": [{
    "games": [
      {"gamePk": 745123, "gameDate": "2026-04-02T23:05:00Z",
       "status": {"detailedState": "In Progress"},
       "teams": {"away": {"team": {"name": "New York Yankees"}}, "home": {"team": {"name": "Boston Red Sox"}}}},
      {"gamePk": 745124, "gameDate": "2026-04-03T02:10:00Z",
       "status": {"detailedState": "Scheduled"},
       "teams": {"away": {"team": {"name": "St. Louis Cardinals"}}, "home": {"team": {"name": "San Diego Padres"}}}}
    ]
  }]
}`

const feedFixture = `{
  "gameData": {
    "status": {"detailedState": "In Progress"},
    "teams": {"away": {"name": "New York Yankees"}, "home": {"name": "Boston Red Sox"}}
  },
  "liveData": {
    "linescore": {
      "currentInning": 7,
      "isTopInning": false,
      "outs": 3,
      "teams": {"home": {"runs": 2}, "away": {"runs": 3}},
      "offense": {"batter": {"fullName": "Rafael Devers"}, "first": {"fullName": "Jarren Duran"}, "third": {"fullName": "Trevor Story"}},
      "defense": {"pitcher": {"fullName": "Gerrit Cole"}}
    },
    "plays": {
      "allPlays": [
        {"about": {"inning": 1, "isTopInning": true, "isComplete": true, "outs": 1},
         "result": {"event": "Home Run", "description": "Aaron Judge homers.", "homeScore": 0, "awayScore": 1},
         "matchup": {"batter": {"fullName": "Aaron Judge"}, "pitcher": {"fullName": "Brayan Bello"}},
         "runners": [{"movement": {"originBase": null}}]},
        {"about": {"inning": 1, "isTopInning": false, "isComplete": true, "outs": 3},
         "result": {"event": "Single", "description": "Duran singles.", "homeScore": 0, "awayScore": 1},
         "matchup": {"batter": {"fullName": "Jarren Duran"}, "pitcher": {"fullName": "Gerrit Cole"}},
         "runners": [{"movement": {"originBase": null}}, {"movement": {"originBase": "2B"}}]},
        {"about": {"inning": 2, "isTopInning": true, "isComplete": false, "outs": 0},
         "result": {}, "matchup": {"batter": {"fullName": "Juan Soto"}, "pitcher": {"fullName": "Brayan Bello"}},
         "runners": []}
      ]
    }
  }
}`

func newTestServer(t *testing.T, feedHits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/schedule", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("sportId"))
		if r.URL.Query().Get("date") == "1999-01-01" {
			w.Write([]byte(`{"dates": []}`))
			return
		}
		w.Write([]byte(scheduleFixture))
	})
	mux.HandleFunc("GET /v1.1/game/{pk}/feed/live", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("pk") != "745123" {
			http.NotFound(w, r)
			return
		}
		if feedHits != nil {
			feedHits.Add(1)
			time.Sleep(50 * time.Millisecond)
		}
		w.Write([]byte(feedFixture))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetSchedule(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 100, time.Second)

	games, err := c.GetSchedule(context.Background(), "2026-04-02")
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, ScheduledGame{
		GamePk:       745123,
		AwayTeam:     "New York Yankees",
		HomeTeam:     "Boston Red Sox",
		Status:       StatusInProgress,
		StartTimeUTC: "2026-04-02T23:05:00Z",
	}, games[0])

	empty, err := c.GetSchedule(context.Background(), "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = c.GetSchedule(context.Background(), "04/02/2026")
	assert.Error(t, err)
}

func TestGetLiveState(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 100, time.Second)

	st, err := c.GetLiveState(context.Background(), 745123)
	require.NoError(t, err)
	assert.Equal(t, 7, st.Inning)
	assert.Equal(t, baseball.Bottom, st.TopBottom)
	assert.Equal(t, 2, st.Outs, "three outs clamp to two")
	assert.Equal(t, baseball.Runners{First: true, Third: true}, st.Runners)
	assert.Equal(t, -1, st.ScoreDiff)
	assert.Equal(t, "Rafael Devers", st.BatterName)
	assert.Equal(t, "Gerrit Cole", st.PitcherName)
	assert.Equal(t, "Boston Red Sox", st.HomeTeam)

	gs := st.GameState(0)
	assert.Equal(t, baseball.DefaultRunsPerGame, gs.RunsPerGame)
	assert.Equal(t, -1, gs.ScoreDiff)
}

func TestGetLiveStateNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 100, time.Second)

	_, err := c.GetLiveState(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetGamePlays(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 100, time.Second)

	gp, err := c.GetGamePlays(context.Background(), 745123)
	require.NoError(t, err)
	require.Len(t, gp.Plays, 2, "incomplete plays are skipped")

	first := gp.Plays[0]
	assert.Equal(t, baseball.Top, first.TopBottom)
	assert.Equal(t, 0, first.ScoreDiff)
	assert.Equal(t, 1, first.AwayScore)
	assert.Equal(t, baseball.Empty, first.Runners)

	second := gp.Plays[1]
	assert.Equal(t, baseball.Bottom, second.TopBottom)
	assert.Equal(t, -1, second.ScoreDiff, "score at the start of the play")
	assert.Equal(t, 2, second.Outs)
	assert.Equal(t, baseball.Runners{Second: true}, second.Runners)

	in := gp.ReplayInput(4.5)
	require.Len(t, in, 2)
	assert.Equal(t, "Aaron Judge", in[0].Batter)
	assert.Equal(t, 4.5, in[1].State.RunsPerGame)
}

func TestLiveFeedSingleflight(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c := NewClient(srv.URL, 100, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetLiveState(context.Background(), 745123)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Less(t, hits.Load(), int32(5))
}

func TestLiveFeedSurvivesCancelledLeader(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	c := NewClient(srv.URL, 100, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	leaderErr := make(chan error, 1)
	go func() {
		_, err := c.GetLiveState(ctx, 745123)
		leaderErr <- err
	}()

	time.Sleep(10 * time.Millisecond)
	ls, err := c.GetLiveState(context.Background(), 745123)
	require.NoError(t, err)
	assert.Equal(t, 745123, ls.GamePk)

	assert.ErrorIs(t, <-leaderErr, context.DeadlineExceeded)
	assert.Equal(t, int32(1), hits.Load(), "the follower shares the leader's fetch")
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := newTestServer(t, nil)
	c := NewClient(srv.URL, 0.001, time.Second)

	_, err := c.GetSchedule(context.Background(), "2026-04-02")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.GetSchedule(ctx, "2026-04-02")
	assert.Error(t, err)
}
