package tracking

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/charleschow/mlb-winprob/internal/adapters/outbound/mlbstats"
	"github.com/charleschow/mlb-winprob/internal/core/winprob"
	"github.com/charleschow/mlb-winprob/internal/events"
	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

// maxConcurrentFetches bounds live-feed requests per poll.
const maxConcurrentFetches = 4

// LiveSource is satisfied by *mlbstats.Client.
type LiveSource interface {
	GetSchedule(ctx context.Context, date string) ([]mlbstats.ScheduledGame, error)
	GetLiveState(ctx context.Context, gamePk int) (*mlbstats.LiveState, error)
}

// SnapshotStore is satisfied by *Store.
type SnapshotStore interface {
	Insert(ctx context.Context, snap *Snapshot) (int64, error)
	Latest(ctx context.Context, gamePk int) (*Snapshot, error)
}

// Tracker polls today's schedule, evaluates every game in progress and
// records a snapshot whenever the situation changes. Each stored snapshot is
// published as a live_update; a tracked game going final publishes
// game_final once.
type Tracker struct {
	source   LiveSource
	store    SnapshotStore
	bus      *events.Bus
	interval time.Duration
	rpg      float64
	now      func() time.Time

	mu     sync.Mutex
	last   map[int]*Snapshot
	finals map[int]bool
}

func NewTracker(source LiveSource, store SnapshotStore, bus *events.Bus, interval time.Duration, rpg float64) *Tracker {
	return &Tracker{
		source:   source,
		store:    store,
		bus:      bus,
		interval: interval,
		rpg:      rpg,
		now:      time.Now,
		last:     make(map[int]*Snapshot),
		finals:   make(map[int]bool),
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	telemetry.Infof("[TRACKER] polling every %s", t.interval)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if _, err := t.Poll(ctx); err != nil && ctx.Err() == nil {
			telemetry.Warnf("[TRACKER] poll failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Poll runs one polling cycle and returns the number of snapshots stored.
// A failure for one game is logged and does not abort the others.
func (t *Tracker) Poll(ctx context.Context) (int, error) {
	telemetry.Metrics.LivePolls.Inc()

	games, err := t.source.GetSchedule(ctx, "")
	if err != nil {
		telemetry.Metrics.PollErrors.Inc()
		return 0, fmt.Errorf("tracker schedule: %w", err)
	}

	var live, finished []mlbstats.ScheduledGame
	for _, g := range games {
		switch {
		case g.Status == mlbstats.StatusInProgress:
			live = append(live, g)
		case mlbstats.IsFinal(g.Status) && t.needsFinal(g.GamePk):
			finished = append(finished, g)
		}
	}
	telemetry.Metrics.LiveGames.Set(int64(len(live)))

	var (
		storedMu sync.Mutex
		stored   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, game := range live {
		g.Go(func() error {
			ok, err := t.observe(gctx, game.GamePk)
			if err != nil {
				telemetry.Metrics.PollErrors.Inc()
				telemetry.Warnf("[TRACKER] game %d: %v", game.GamePk, err)
				return nil
			}
			if ok {
				storedMu.Lock()
				stored++
				storedMu.Unlock()
			}
			return nil
		})
	}
	for _, game := range finished {
		g.Go(func() error {
			if err := t.finalize(gctx, game.GamePk); err != nil {
				telemetry.Metrics.PollErrors.Inc()
				telemetry.Warnf("[TRACKER] final %d: %v", game.GamePk, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stored, err
	}

	telemetry.Debugf("[TRACKER] poll: %d live, %d final, %d stored", len(live), len(finished), stored)
	return stored, ctx.Err()
}

// needsFinal reports whether gamePk was tracked live and has not yet been
// announced as final.
func (t *Tracker) needsFinal(gamePk int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, tracked := t.last[gamePk]
	return tracked && !t.finals[gamePk]
}

// observe fetches one game, evaluates it and stores a snapshot if the
// situation changed. It reports whether a snapshot was stored.
func (t *Tracker) observe(ctx context.Context, gamePk int) (bool, error) {
	ls, err := t.source.GetLiveState(ctx, gamePk)
	if err != nil {
		return false, err
	}

	a := winprob.FullAnalysis(ls.GameState(t.rpg), nil, nil)
	snap := &Snapshot{
		GamePk:         gamePk,
		CapturedAt:     t.now().UTC(),
		Status:         ls.Status,
		AwayTeam:       ls.AwayTeam,
		HomeTeam:       ls.HomeTeam,
		Inning:         ls.Inning,
		TopBottom:      ls.TopBottom,
		Outs:           ls.Outs,
		Runners:        ls.Runners,
		ScoreHome:      ls.ScoreHome,
		ScoreAway:      ls.ScoreAway,
		Batter:         ls.BatterName,
		Pitcher:        ls.PitcherName,
		WinProbability: a.WinProbability,
		LeverageIndex:  a.LeverageIndex,
		LeverageLabel:  a.LeverageLabel,
	}
	if len(a.Tactics) > 0 {
		snap.TopTactic = a.Tactics[0].Tactic
	}

	prev, err := t.previous(ctx, gamePk)
	if err != nil {
		return false, err
	}
	if prev != nil && prev.sameSituation(snap) {
		t.mu.Lock()
		t.last[gamePk] = prev
		t.mu.Unlock()
		return false, nil
	}

	if _, err := t.store.Insert(ctx, snap); err != nil {
		return false, err
	}
	telemetry.Metrics.SnapshotsStored.Inc()

	t.mu.Lock()
	t.last[gamePk] = snap
	t.mu.Unlock()

	var delta float64
	if prev != nil {
		delta = snap.WinProbability - prev.WinProbability
	}
	t.bus.Publish(events.New(events.EventLiveUpdate, strconv.Itoa(gamePk), events.LiveUpdateEvent{
		GamePk:         gamePk,
		AwayTeam:       snap.AwayTeam,
		HomeTeam:       snap.HomeTeam,
		Status:         snap.Status,
		ScoreHome:      snap.ScoreHome,
		ScoreAway:      snap.ScoreAway,
		Batter:         snap.Batter,
		Pitcher:        snap.Pitcher,
		State:          a.GameState,
		WinProbability: snap.WinProbability,
		LeverageIndex:  snap.LeverageIndex,
		LeverageLabel:  snap.LeverageLabel,
		WPDelta:        delta,
		TopTactic:      snap.TopTactic,
	}))
	return true, nil
}

// previous returns the last snapshot seen for gamePk, falling back to the
// store so a restart does not duplicate the current situation.
func (t *Tracker) previous(ctx context.Context, gamePk int) (*Snapshot, error) {
	t.mu.Lock()
	prev, ok := t.last[gamePk]
	t.mu.Unlock()
	if ok {
		return prev, nil
	}
	return t.store.Latest(ctx, gamePk)
}

func (t *Tracker) finalize(ctx context.Context, gamePk int) error {
	ls, err := t.source.GetLiveState(ctx, gamePk)
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.finals[gamePk] {
		t.mu.Unlock()
		return nil
	}
	t.finals[gamePk] = true
	t.mu.Unlock()

	telemetry.Infof("[TRACKER] final: %s %d @ %s %d", ls.AwayTeam, ls.ScoreAway, ls.HomeTeam, ls.ScoreHome)
	t.bus.Publish(events.New(events.EventGameFinal, strconv.Itoa(gamePk), events.GameFinalEvent{
		GamePk:    gamePk,
		AwayTeam:  ls.AwayTeam,
		HomeTeam:  ls.HomeTeam,
		ScoreHome: ls.ScoreHome,
		ScoreAway: ls.ScoreAway,
		HomeWon:   ls.ScoreHome > ls.ScoreAway,
	}))
	return nil
}
