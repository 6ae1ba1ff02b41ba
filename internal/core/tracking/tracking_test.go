package tracking

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/mlb-winprob/internal/adapters/outbound/mlbstats"
	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
	"github.com/charleschow/mlb-winprob/internal/events"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "live.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(gamePk, inning, home, away int) *Snapshot {
	return &Snapshot{
		GamePk:         gamePk,
		CapturedAt:     time.Date(2026, 4, 2, 23, 30, 0, 0, time.UTC),
		Status:         mlbstats.StatusInProgress,
		AwayTeam:       "New York Yankees",
		HomeTeam:       "Boston Red Sox",
		Inning:         inning,
		TopBottom:      baseball.Bottom,
		Outs:           1,
		Runners:        baseball.Runners{First: true, Third: true},
		ScoreHome:      home,
		ScoreAway:      away,
		WinProbability: 0.55,
		LeverageIndex:  1.4,
		LeverageLabel:  "Medium",
		TopTactic:      "Squeeze",
	}
}

func TestStoreInsertAndHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		id, err := s.Insert(ctx, snapshot(745123, i, i, 0))
		require.NoError(t, err)
		assert.Positive(t, id)
	}
	_, err := s.Insert(ctx, snapshot(999, 1, 0, 0))
	require.NoError(t, err)

	all, err := s.History(ctx, 745123, 100)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, 1, all[0].Inning, "oldest first")
	assert.Equal(t, baseball.Runners{First: true, Third: true}, all[0].Runners)
	assert.Equal(t, baseball.Bottom, all[0].TopBottom)
	assert.Equal(t, "Squeeze", all[0].TopTactic)
	assert.True(t, all[0].CapturedAt.Equal(time.Date(2026, 4, 2, 23, 30, 0, 0, time.UTC)))

	recent, err := s.History(ctx, 745123, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 4, recent[0].Inning)
	assert.Equal(t, 5, recent[1].Inning)

	none, err := s.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStoreLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	got, err := s.Latest(ctx, 745123)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.Insert(ctx, snapshot(745123, 3, 1, 0))
	require.NoError(t, err)
	_, err = s.Insert(ctx, snapshot(745123, 4, 1, 2))
	require.NoError(t, err)

	got, err = s.Latest(ctx, 745123)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Inning)
	assert.Equal(t, 2, got.ScoreAway)
}

func TestStoreEvictsOldest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.maxBytes = 1

	for i := 1; i <= 3; i++ {
		_, err := s.Insert(ctx, snapshot(745123, i, 0, 0))
		require.NoError(t, err)
	}
	all, err := s.History(ctx, 745123, 100)
	require.NoError(t, err)
	assert.Empty(t, all, "every insert evicts at least one row when over budget")
}

type fakeSource struct {
	mu       sync.Mutex
	schedule []mlbstats.ScheduledGame
	live     map[int]*mlbstats.LiveState
	fail     map[int]error
}

func (f *fakeSource) GetSchedule(context.Context, string) ([]mlbstats.ScheduledGame, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mlbstats.ScheduledGame(nil), f.schedule...), nil
}

func (f *fakeSource) GetLiveState(_ context.Context, gamePk int) (*mlbstats.LiveState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[gamePk]; err != nil {
		return nil, err
	}
	ls := *f.live[gamePk]
	return &ls, nil
}

func (f *fakeSource) set(gamePk int, status string, ls mlbstats.LiveState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ls.GamePk = gamePk
	ls.Status = status
	f.live[gamePk] = &ls
	for i := range f.schedule {
		if f.schedule[i].GamePk == gamePk {
			f.schedule[i].Status = status
			return
		}
	}
	f.schedule = append(f.schedule, mlbstats.ScheduledGame{GamePk: gamePk, Status: status, HomeTeam: ls.HomeTeam, AwayTeam: ls.AwayTeam})
}

func liveState(inning int, half baseball.Half, outs, home, away int) mlbstats.LiveState {
	return mlbstats.LiveState{
		Inning:    inning,
		TopBottom: half,
		Outs:      outs,
		ScoreHome: home,
		ScoreAway: away,
		ScoreDiff: home - away,
		HomeTeam:  "Boston Red Sox",
		AwayTeam:  "New York Yankees",
	}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

func newTestTracker(t *testing.T) (*Tracker, *fakeSource, *Store, *recorder) {
	t.Helper()
	src := &fakeSource{live: map[int]*mlbstats.LiveState{}, fail: map[int]error{}}
	store := openTestStore(t)
	bus := events.NewBus()
	rec := &recorder{}
	bus.Subscribe(events.EventLiveUpdate, rec.handle)
	bus.Subscribe(events.EventGameFinal, rec.handle)
	return NewTracker(src, store, bus, time.Minute, 4.5), src, store, rec
}

func TestTrackerStoresOnlyChanges(t *testing.T) {
	tr, src, store, rec := newTestTracker(t)
	ctx := context.Background()

	src.set(745123, mlbstats.StatusInProgress, liveState(7, baseball.Top, 1, 3, 2))
	src.set(745124, mlbstats.StatusScheduled, liveState(1, baseball.Top, 0, 0, 0))

	n, err := tr.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "scheduled games are not observed")

	n, err = tr.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "unchanged situation is not stored again")

	src.set(745123, mlbstats.StatusInProgress, liveState(7, baseball.Top, 2, 3, 2))
	n, err = tr.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	hist, err := store.History(ctx, 745123, 10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 2, hist[1].Outs)

	evts := rec.snapshot()
	require.Len(t, evts, 2)
	first := evts[0].Payload.(events.LiveUpdateEvent)
	second := evts[1].Payload.(events.LiveUpdateEvent)
	assert.Equal(t, "745123", evts[0].GameID)
	assert.Zero(t, first.WPDelta)
	assert.Positive(t, second.WPDelta, "another out for the visitors helps the leading home side")
	assert.InDelta(t, second.WinProbability-first.WinProbability, second.WPDelta, 1e-12)
}

func TestTrackerResumesFromStore(t *testing.T) {
	tr, src, store, _ := newTestTracker(t)
	ctx := context.Background()

	src.set(745123, mlbstats.StatusInProgress, liveState(3, baseball.Bottom, 0, 0, 1))
	_, err := tr.Poll(ctx)
	require.NoError(t, err)

	restarted := NewTracker(src, store, events.NewBus(), time.Minute, 4.5)
	n, err := restarted.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestTrackerPublishesFinalOnce(t *testing.T) {
	tr, src, _, rec := newTestTracker(t)
	ctx := context.Background()

	src.set(745123, mlbstats.StatusInProgress, liveState(9, baseball.Bottom, 2, 2, 2))
	src.set(745200, mlbstats.StatusFinal, liveState(9, baseball.Bottom, 2, 1, 0))
	_, err := tr.Poll(ctx)
	require.NoError(t, err)

	src.set(745123, mlbstats.StatusFinal, liveState(9, baseball.Bottom, 2, 3, 2))
	_, err = tr.Poll(ctx)
	require.NoError(t, err)
	_, err = tr.Poll(ctx)
	require.NoError(t, err)

	var finals []events.GameFinalEvent
	for _, e := range rec.snapshot() {
		if e.Type == events.EventGameFinal {
			finals = append(finals, e.Payload.(events.GameFinalEvent))
		}
	}
	require.Len(t, finals, 1, "untracked finals are ignored and tracked ones fire once")
	assert.Equal(t, 745123, finals[0].GamePk)
	assert.True(t, finals[0].HomeWon)
	assert.Equal(t, 3, finals[0].ScoreHome)
}

func TestTrackerIsolatesGameErrors(t *testing.T) {
	tr, src, _, _ := newTestTracker(t)
	ctx := context.Background()

	src.set(1, mlbstats.StatusInProgress, liveState(2, baseball.Top, 0, 0, 0))
	src.set(2, mlbstats.StatusInProgress, liveState(2, baseball.Top, 0, 0, 0))
	src.fail[1] = errors.New("feed unavailable")

	n, err := tr.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
