package tapestry

import (
	"sync"
	"time"

	"github.com/mesh-intelligence/tapestry/pkg/types"
)

// Event describes one completed mutation: a create, update, delete, or a
// performed custom verb.
type Event struct {
	Type     string         // entity type name
	Action   string         // verb action (create, update, delete, launch, ...)
	ID       string         // instance identifier
	Instance types.Instance // finalized instance; nil for delete
	At       time.Time
}

// EventFilter narrows a subscription. Zero fields match everything.
type EventFilter struct {
	Type   string
	Action string
}

func (f *EventFilter) matches(e Event) bool {
	if f == nil {
		return true
	}
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	if f.Action != "" && f.Action != e.Action {
		return false
	}
	return true
}

type subscriber struct {
	id     int
	filter *EventFilter
	fn     func(Event)
}

// Bus delivers mutation events to subscribers in registration order.
// A panicking subscriber is isolated: delivery continues to the rest and
// the triggering operation is unaffected.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

// NewBus returns an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a listener for every mutation event, optionally
// narrowed by filter. The returned function removes exactly this listener;
// calling it more than once is harmless.
func (b *Bus) Subscribe(filter *EventFilter, fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscriber{id: id, filter: filter, fn: fn})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers e to every matching subscriber, swallowing panics so
// one faulty listener cannot break delivery to others.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		if !s.filter.matches(e) {
			continue
		}
		deliver(s.fn, e)
	}
}

func deliver(fn func(Event), e Event) {
	defer func() {
		_ = recover()
	}()
	fn(e)
}

// Reset drops every subscription.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = nil
}
