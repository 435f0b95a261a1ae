package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	bus.Subscribe("test_event", func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	require.NoError(t, bus.PublishJSON("test_event", map[string]string{"foo": "bar"}))

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, "test_event", received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, "bar", decoded["foo"])
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

func TestEventBusUnsubscribe(t *testing.T) {
	bus := NewEventBus()
	var first, second int

	unsubscribe := bus.Subscribe("event", func(_ *Event) error { first++; return nil })
	bus.Subscribe("event", func(_ *Event) error { second++; return nil })

	bus.Publish(&Event{Type: "event"})
	unsubscribe()
	unsubscribe()
	bus.Publish(&Event{Type: "event"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestEventBusSubscribeMany(t *testing.T) {
	bus := NewEventBus()
	var seen []string

	unsubscribe := bus.SubscribeMany([]string{EventBookingCreated, EventBookingDeleted}, func(e *Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	bus.Publish(&Event{Type: EventBookingCreated})
	bus.Publish(&Event{Type: EventBookingEdited})
	bus.Publish(&Event{Type: EventBookingDeleted})
	unsubscribe()
	bus.Publish(&Event{Type: EventBookingCreated})

	assert.Equal(t, []string{EventBookingCreated, EventBookingDeleted}, seen)
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	assert.NotPanics(t, func() { bus.Publish(&Event{Type: "unknown"}) })
	assert.NoError(t, bus.PublishJSON("unknown", nil))

	var nilBus *EventBus
	assert.NoError(t, nilBus.PublishJSON("unknown", nil))
}

func TestNewJSONEvent(t *testing.T) {
	event, err := NewJSONEvent("type", BookingEventPayload{BookingID: "b-1", Duration: 2})
	require.NoError(t, err)
	assert.Equal(t, "type", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded BookingEventPayload
	require.NoError(t, event.Decode(&decoded))
	assert.Equal(t, "b-1", decoded.BookingID)
	assert.Equal(t, 2, decoded.Duration)

	_, err = NewJSONEvent("type", make(chan int))
	assert.Error(t, err)
}
