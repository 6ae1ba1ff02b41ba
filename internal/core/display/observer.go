package display

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charleschow/mlb-winprob/internal/core/winprob"
	"github.com/charleschow/mlb-winprob/internal/events"
)

const (
	TagLive  = "LIVE"
	TagSwing = "SWING"
	TagFinal = "FINAL"
)

const (
	liveDisplayThrottle = 30 * time.Second
	swingThreshold      = 0.05
)

// Observer prints tracker events from a bus. Every game's first update,
// every swing of at least swingThreshold and every high-leverage spot are
// printed; other updates for a game are throttled to one per
// liveDisplayThrottle.
type Observer struct {
	w       io.Writer
	tracker *Tracker
	now     func() time.Time
	mu      sync.Mutex
}

func NewObserver(w io.Writer) *Observer {
	return &Observer{w: w, tracker: NewTracker(), now: time.Now}
}

// Subscribe registers the observer's handlers on bus.
func (o *Observer) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventLiveUpdate, o.onLiveUpdate)
	bus.Subscribe(events.EventGameFinal, o.onGameFinal)
}

func (o *Observer) onLiveUpdate(e events.Event) error {
	lu, ok := e.Payload.(events.LiveUpdateEvent)
	if !ok {
		return fmt.Errorf("display: unexpected payload %T", e.Payload)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.tracker.Get(lu.GamePk)
	now := o.now()
	tag := TagLive
	switch {
	case st.Updates > 0 && math.Abs(lu.WinProbability-st.LastWP) >= swingThreshold:
		tag = TagSwing
	case st.Updates == 0, lu.LeverageLabel == winprob.LeverageHigh, lu.LeverageLabel == winprob.LeverageVeryHigh:
	case now.Sub(st.LastPrinted) < liveDisplayThrottle:
		st.Updates++
		st.LastWP = lu.WinProbability
		return nil
	}

	PrintLiveUpdate(o.w, tag, lu, now)
	st.Updates++
	st.LastWP = lu.WinProbability
	st.LastPrinted = now
	return nil
}

func (o *Observer) onGameFinal(e events.Event) error {
	gf, ok := e.Payload.(events.GameFinalEvent)
	if !ok {
		return fmt.Errorf("display: unexpected payload %T", e.Payload)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.tracker.Get(gf.GamePk)
	if st.Finaled {
		return nil
	}
	st.Finaled = true
	PrintGameFinal(o.w, gf, o.now())
	return nil
}
