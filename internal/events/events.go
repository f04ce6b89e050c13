package events

import (
	"sync"

	"github.com/google/uuid"

	"media-browser/internal/logging"
	"media-browser/internal/metrics"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber that
// falls further behind than this loses events rather than blocking the
// publisher.
const subscriberBuffer = 16

// ThumbCompletedEvent is broadcast once per successfully generated
// thumbnail. DirPath carries the parent directory of the file.
type ThumbCompletedEvent struct {
	DirPath  string `json:"dirPath,omitempty"`
	FilePath string `json:"filePath,omitempty"`
}

// Subscription is one listener's handle on the bus. Events arrives events
// in publish order; Close releases the slot and must be called exactly once.
type Subscription struct {
	id     string
	ch     chan ThumbCompletedEvent
	bus    *Bus
	closed sync.Once
}

// Events returns the receive channel. It is closed when the subscription
// or the bus shuts down.
func (s *Subscription) Events() <-chan ThumbCompletedEvent {
	return s.ch
}

// Close unsubscribes and closes the event channel.
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.bus.unsubscribe(s.id)
	})
}

// Bus fans ThumbCompletedEvents out to all current subscribers. Delivery is
// independent per subscriber: a slow consumer drops events but never delays
// the others.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]chan ThumbCompletedEvent
	shutdown    bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]chan ThumbCompletedEvent),
	}
}

// Subscribe registers a new listener. Events published before this call are
// not delivered.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		id:  uuid.New().String(),
		ch:  make(chan ThumbCompletedEvent, subscriberBuffer),
		bus: b,
	}
	if b.shutdown {
		close(sub.ch)
		return sub
	}

	b.subscribers[sub.id] = sub.ch
	metrics.EventSubscribers.Set(float64(len(b.subscribers)))
	return sub
}

func (b *Bus) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[id]
	if !ok {
		return
	}
	delete(b.subscribers, id)
	close(ch)
	metrics.EventSubscribers.Set(float64(len(b.subscribers)))
}

// Publish broadcasts an event to every subscriber. Never blocks: a
// subscriber whose buffer is full misses this event.
func (b *Bus) Publish(event ThumbCompletedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.shutdown {
		return
	}

	metrics.EventsPublishedTotal.Inc()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			metrics.EventsDroppedTotal.Inc()
			logging.Debug("Dropping event for slow subscriber %s", id)
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close shuts the bus down, closing every subscriber channel. Subsequent
// publishes are dropped and new subscriptions arrive pre-closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shutdown {
		return
	}
	b.shutdown = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
	metrics.EventSubscribers.Set(0)
}
