// Package bus implements the in-process publish/subscribe registry that
// decouples the capture pipeline from the widgets reacting to it.
package bus

import (
	"log"
	"sync"
	"time"

	"github.com/daypulse/capture/internal/domain"
)

// DefaultHistorySize bounds the diagnostics ring buffer.
const DefaultHistorySize = 100

// Handler receives the payload of a published event.
type Handler func(payload interface{})

type subscription struct {
	id int64
	fn Handler
}

// Bus is an explicitly constructed pub/sub registry keyed by event type.
// Delivery is synchronous and in registration order. Subscribers registered
// after a publish never see that event; the history ring is diagnostics only,
// never replayed.
type Bus struct {
	mu          sync.Mutex
	nextID      int64
	subscribers map[domain.EventType][]subscription

	history     []domain.BusEvent
	historyCap  int
	historyNext int
	historyFull bool
}

// New creates a bus with the given history capacity. Capacity <= 0 falls back
// to DefaultHistorySize.
func New(historySize int) *Bus {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Bus{
		subscribers: make(map[domain.EventType][]subscription),
		history:     make([]domain.BusEvent, historySize),
		historyCap:  historySize,
	}
}

// Subscribe registers fn under eventType and returns a function that removes
// exactly this registration. Subscribing the same handler twice registers it
// twice; deduplication is the caller's responsibility.
func (b *Bus) Subscribe(eventType domain.EventType, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subscribers[eventType] = append(b.subscribers[eventType], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subscribers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
		if len(b.subscribers[eventType]) == 0 {
			delete(b.subscribers, eventType)
		}
	}
}

// Publish synchronously invokes every handler currently registered for
// eventType, in registration order. A panicking handler is recovered and
// logged; later handlers and the caller still complete.
func (b *Bus) Publish(eventType domain.EventType, payload interface{}) {
	b.mu.Lock()
	subs := make([]subscription, len(b.subscribers[eventType]))
	copy(subs, b.subscribers[eventType])
	b.append(domain.BusEvent{Type: eventType, Payload: payload, Timestamp: time.Now()})
	b.mu.Unlock()

	for _, s := range subs {
		b.deliver(eventType, s, payload)
	}
}

func (b *Bus) deliver(eventType domain.EventType, s subscription, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("WARN: subscriber panic on %s: %v", eventType, r)
		}
	}()
	s.fn(payload)
}

// append assumes b.mu is held.
func (b *Bus) append(ev domain.BusEvent) {
	b.history[b.historyNext] = ev
	b.historyNext = (b.historyNext + 1) % b.historyCap
	if b.historyNext == 0 {
		b.historyFull = true
	}
}

// History returns the retained publishes, oldest first.
func (b *Bus) History() []domain.BusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []domain.BusEvent
	if b.historyFull {
		out = append(out, b.history[b.historyNext:]...)
	}
	out = append(out, b.history[:b.historyNext]...)
	return out
}

// SubscriberCount returns the number of registrations for eventType.
func (b *Bus) SubscriberCount(eventType domain.EventType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[eventType])
}
