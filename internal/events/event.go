package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every domain event (live update, game final) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	GameID    string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Tracker events
	EventLiveUpdate EventType = "live_update"
	EventGameFinal  EventType = "game_final"
)

// New wraps payload in an Event with a fresh ID and the current time.
func New(t EventType, gameID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		GameID:    gameID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
