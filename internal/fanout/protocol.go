package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/mlb-winprob/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	GameID    string          `json:"game_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		GameID:    evt.GameID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		GameID:    env.GameID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventLiveUpdate:
		var lu events.LiveUpdateEvent
		if err := json.Unmarshal(env.Payload, &lu); err != nil {
			return evt, fmt.Errorf("unmarshal live_update: %w", err)
		}
		evt.Payload = lu
	case events.EventGameFinal:
		var gf events.GameFinalEvent
		if err := json.Unmarshal(env.Payload, &gf); err != nil {
			return evt, fmt.Errorf("unmarshal game_final: %w", err)
		}
		evt.Payload = gf
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}
