package display

import (
	"sync"
	"time"
)

// State holds per-game display flags. A *State is only touched from the
// bus handler of its own observer, which runs on the publisher's goroutine.
type State struct {
	Updates     int
	Finaled     bool
	LastPrinted time.Time
	LastWP      float64
}

// Tracker maps gamePks to their display state.
type Tracker struct {
	mu     sync.Mutex
	states map[int]*State
}

func NewTracker() *Tracker {
	return &Tracker{
		states: make(map[int]*State),
	}
}

// Get returns the display state for a game, creating one if it
// does not yet exist.
func (t *Tracker) Get(gamePk int) *State {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[gamePk]
	if !ok {
		s = &State{}
		t.states[gamePk] = s
	}
	return s
}
