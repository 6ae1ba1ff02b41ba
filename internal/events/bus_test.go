package events

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDispatchesInOrder(t *testing.T) {
	bus := NewBus()
	var calls []string
	bus.Subscribe(EventLiveUpdate, func(Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	bus.Subscribe(EventLiveUpdate, func(Event) error {
		calls = append(calls, "second")
		return nil
	})
	bus.Subscribe(EventGameFinal, func(Event) error {
		calls = append(calls, "final")
		return nil
	})

	bus.Publish(New(EventLiveUpdate, "745123", LiveUpdateEvent{GamePk: 745123}))
	assert.Equal(t, []string{"first", "second"}, calls, "a failing handler does not stop dispatch")
}

func TestNewStampsEvent(t *testing.T) {
	a := New(EventGameFinal, "1", GameFinalEvent{GamePk: 1, HomeWon: true})
	b := New(EventGameFinal, "1", GameFinalEvent{GamePk: 1})

	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "1", a.GameID)
	assert.False(t, a.Timestamp.IsZero())
	assert.True(t, a.Payload.(GameFinalEvent).HomeWon)
}
