// Package notify distributes diagram change events to subscribed editors and
// debounces diagram writes.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event announces a persisted diagram change of one service.
type Event struct {
	ServiceKey string    `json:"serviceKey"`
	Origin     string    `json:"origin"`
	SavedAt    time.Time `json:"savedAt"`
}

// NewOrigin returns an identifier distinguishing one editor session from
// another, so that a session can ignore its own echo.
func NewOrigin() string {
	return uuid.NewString()
}

func NewHub() *Hub {
	return &Hub{
		subscriptions: make(map[string]map[chan Event]string),
	}
}

// Hub fans diagram change events out to subscribers, per service key.
type Hub struct {
	mutex         sync.Mutex
	subscriptions map[string]map[chan Event]string
}

// Subscribe registers a subscriber for one service. Events originating from
// the given origin are suppressed. The returned cancel function must be
// called to release the subscription.
func (h *Hub) Subscribe(serviceKey string, origin string) (<-chan Event, func()) {
	events := make(chan Event, 8)

	h.mutex.Lock()
	subscribers := h.subscriptions[serviceKey]
	if subscribers == nil {
		subscribers = make(map[chan Event]string)
		h.subscriptions[serviceKey] = subscribers
	}
	subscribers[events] = origin
	h.mutex.Unlock()

	cancel := func() {
		h.mutex.Lock()
		defer h.mutex.Unlock()

		if subscribers, ok := h.subscriptions[serviceKey]; ok {
			if _, subscribed := subscribers[events]; subscribed {
				delete(subscribers, events)
				close(events)
			}
			if len(subscribers) == 0 {
				delete(h.subscriptions, serviceKey)
			}
		}
	}

	return events, cancel
}

// Publish delivers an event to all subscribers of the service, except the
// one it originated from. A slow subscriber's event is dropped, not awaited.
func (h *Hub) Publish(event Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for events, origin := range h.subscriptions[event.ServiceKey] {
		if origin != "" && origin == event.Origin {
			continue
		}

		select {
		case events <- event:
		default:
		}
	}
}
