package fanout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/mlb-winprob/internal/core/state/game/baseball"
	"github.com/charleschow/mlb-winprob/internal/events"
)

func liveUpdate(gamePk int, wp float64) events.Event {
	return events.New(events.EventLiveUpdate, "745123", events.LiveUpdateEvent{
		GamePk:         gamePk,
		AwayTeam:       "New York Yankees",
		HomeTeam:       "Boston Red Sox",
		Status:         "In Progress",
		ScoreHome:      3,
		ScoreAway:      2,
		State:          baseball.NewGameState(8, baseball.Top, 1, baseball.Runners{First: true}, 1, 4.5),
		WinProbability: wp,
		LeverageIndex:  2.1,
		LeverageLabel:  "High",
	})
}

func TestEnvelopeRoundTrip(t *testing.T) {
	evt := liveUpdate(745123, 0.7712)
	data, err := MarshalEvent(evt)
	require.NoError(t, err)

	back, err := UnmarshalEvent(data)
	require.NoError(t, err)
	assert.Equal(t, evt.ID, back.ID)
	assert.Equal(t, events.EventLiveUpdate, back.Type)
	assert.Equal(t, "745123", back.GameID)

	lu, ok := back.Payload.(events.LiveUpdateEvent)
	require.True(t, ok)
	assert.Equal(t, 0.7712, lu.WinProbability)
	assert.Equal(t, baseball.Runners{First: true}, lu.State.Runners)
	assert.Equal(t, baseball.Top, lu.State.Half)
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalEvent([]byte(`{"type":"order_intent","payload":{}}`))
	assert.Error(t, err)

	_, err = UnmarshalEvent([]byte(`not json`))
	assert.Error(t, err)
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/live" + query
}

func TestServerForwardsMatchingGame(t *testing.T) {
	bus := events.NewBus()
	s := NewServer(bus)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer srv.Close()

	all, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer all.Close()

	other, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?game=1"), nil)
	require.NoError(t, err)
	defer other.Close()

	require.Eventually(t, func() bool { return s.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	bus.Publish(liveUpdate(745123, 0.66))

	all.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := all.ReadMessage()
	require.NoError(t, err)
	evt, err := UnmarshalEvent(msg)
	require.NoError(t, err)
	assert.Equal(t, 0.66, evt.Payload.(events.LiveUpdateEvent).WinProbability)

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "filtered client should not receive another game's update")
}

func TestClientRepublishes(t *testing.T) {
	serverBus := events.NewBus()
	s := NewServer(serverBus)
	srv := httptest.NewServer(http.HandlerFunc(s.HandleWS))
	defer srv.Close()

	localBus := events.NewBus()
	var (
		mu  sync.Mutex
		got []events.Event
	)
	localBus.Subscribe(events.EventGameFinal, func(e events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewClient(wsURL(srv, ""), "745123", localBus)
	go c.ConnectWithRetry(ctx)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	serverBus.Publish(events.New(events.EventGameFinal, "745123", events.GameFinalEvent{
		GamePk: 745123, ScoreHome: 5, ScoreAway: 4, HomeWon: true,
	}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	gf := got[0].Payload.(events.GameFinalEvent)
	mu.Unlock()
	assert.True(t, gf.HomeWon)
	assert.Equal(t, 5, gf.ScoreHome)
}

func TestClientURL(t *testing.T) {
	c := NewClient("ws://localhost:8001/ws/live", "745123", events.NewBus())
	u, err := c.url()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8001/ws/live?game=745123", u)

	c = NewClient("ws://localhost:8001/ws/live", "", events.NewBus())
	u, err = c.url()
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8001/ws/live", u)
}
