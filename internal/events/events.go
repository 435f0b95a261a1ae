package events

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventInstructorAssigned   = "booking_instructor_assigned"
	EventBookingEdited        = "booking_edited"
	EventBookingDeleted       = "booking_deleted"
	EventNotificationSent     = "booking_notification_sent"
	EventRosterUpdated        = "roster_updated"
)

// BookingEvents lists every event that carries a BookingEventPayload.
var BookingEvents = []string{
	EventBookingCreated,
	EventBookingStatusChanged,
	EventInstructorAssigned,
	EventBookingEdited,
	EventBookingDeleted,
	EventNotificationSent,
}

// BookingEventPayload describes the minimal booking snapshot for event consumers.
type BookingEventPayload struct {
	BookingID      string `json:"booking_id"`
	CustomerName   string `json:"customer_name"`
	Phone          string `json:"phone,omitempty"`
	Activity       string `json:"activity"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration"`
	Status         string `json:"status"`
	InstructorName string `json:"instructor_name,omitempty"`
	ChangedBy      string `json:"changed_by,omitempty"`
	Channel        string `json:"channel,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the JSON payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

type subscription struct {
	id      uint64
	handler EventHandler
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]subscription
	nextID      uint64
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]subscription)}
}

// Subscribe registers a handler for a given event type and returns a func
// that removes it again.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, id) })
	}
}

// SubscribeMany registers one handler for several event types.
func (b *EventBus) SubscribeMany(eventTypes []string, handler EventHandler) (unsubscribe func()) {
	cancels := make([]func(), 0, len(eventTypes))
	for _, t := range eventTypes {
		cancels = append(cancels, b.Subscribe(t, handler))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (b *EventBus) remove(eventType string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, s := range subs {
		// Handlers run synchronously; caller decides concurrency model.
		_ = s.handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}
