package service

import "sync"

// EventType defines the type of event
type EventType string

const (
	EventObjectAdded       EventType = "object_added"
	EventVertexRemoved     EventType = "vertex_removed"
	EventEdgeAdded         EventType = "edge_added"
	EventEdgeRemoved       EventType = "edge_removed"
	EventSelectionChanged  EventType = "selection_changed"
	EventViewOpened        EventType = "view_opened"
	EventViewClosed        EventType = "view_closed"
	EventViewSaved         EventType = "view_saved"
	EventViewImported      EventType = "view_imported"
	EventViewDeleted       EventType = "view_deleted"
	EventObjectsDiscovered EventType = "objects_discovered"
)

// Event represents an event that occurred in the system
type Event struct {
	Type    EventType `json:"type"`
	View    string    `json:"view,omitempty"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	if eb == nil {
		return
	}
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// Topic returns the view the event belongs to
func (e Event) Topic() string {
	return e.View
}
