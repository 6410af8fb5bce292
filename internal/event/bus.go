package event

import (
	"sync"

	"github.com/Garsondee/tactical-overlays/internal/logging"
)

// Handler receives a published event.
type Handler func(Event)

// Subscription identifies a registered handler for Unsubscribe.
type Subscription struct {
	typ Type
	id  uint64
}

type subscriber struct {
	id   uint64
	fn   Handler
	once bool
}

// Bus is a synchronous publish/subscribe hub.
//
// Thread-Safety:
//   - Subscribe, Unsubscribe, Publish, Drain: owner goroutine only
//   - Post: any goroutine; events wait in the queue until the owner drains
type Bus struct {
	handlers map[Type][]subscriber
	nextID   uint64
	log      *logging.Logger

	mu    sync.Mutex
	queue []Event
}

// NewBus creates an empty bus. log may be nil.
func NewBus(log *logging.Logger) *Bus {
	return &Bus{
		handlers: make(map[Type][]subscriber),
		log:      log.With("event"),
	}
}

// Subscribe registers fn for every event of type t.
func (b *Bus) Subscribe(t Type, fn Handler) Subscription {
	return b.add(t, fn, false)
}

// Once registers fn for the next event of type t only.
func (b *Bus) Once(t Type, fn Handler) Subscription {
	return b.add(t, fn, true)
}

func (b *Bus) add(t Type, fn Handler, once bool) Subscription {
	b.nextID++
	b.handlers[t] = append(b.handlers[t], subscriber{id: b.nextID, fn: fn, once: once})
	return Subscription{typ: t, id: b.nextID}
}

// Unsubscribe removes a handler. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	subs := b.handlers[s.typ]
	for i, sub := range subs {
		if sub.id == s.id {
			b.handlers[s.typ] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to its handlers in subscription order before returning.
// Handlers added or removed during delivery take effect for the next event.
func (b *Bus) Publish(e Event) {
	subs := b.handlers[e.Type]
	if len(subs) == 0 {
		b.log.Debugf("no handlers for %s", e.Type)
		return
	}
	snapshot := make([]subscriber, len(subs))
	copy(snapshot, subs)
	for _, sub := range snapshot {
		if sub.once {
			b.Unsubscribe(Subscription{typ: e.Type, id: sub.id})
		}
		sub.fn(e)
	}
}

// Post queues e for the owner goroutine. Safe for concurrent producers.
func (b *Bus) Post(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

// Drain publishes every queued event in FIFO order and returns how many were
// delivered. Events posted by handlers during the drain wait for the next call.
func (b *Bus) Drain() int {
	b.mu.Lock()
	pending := b.queue
	b.queue = nil
	b.mu.Unlock()

	for _, e := range pending {
		b.Publish(e)
	}
	return len(pending)
}

// Pending returns the approximate queued event count.
func (b *Bus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Handlers returns how many handlers are registered for t.
func (b *Bus) Handlers(t Type) int {
	return len(b.handlers[t])
}
