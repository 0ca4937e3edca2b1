// ABOUTME: Change notifications published by the cache store
// ABOUTME: Observers subscribe per entry or per resource and close their subscription when done
package cache

import (
	"sync/atomic"

	"github.com/harperreed/crmlink/objects"
)

// EventType identifies what happened to an entry.
type EventType int

const (
	// EventUpdated carries the new visible value.
	EventUpdated EventType = iota
	// EventHidden means a pending delete hid the entry.
	EventHidden
	// EventRemoved means the entry was evicted.
	EventRemoved
	// EventInvalidated means the resource's lists went stale. Key.ID is empty.
	EventInvalidated
)

func (t EventType) String() string {
	switch t {
	case EventUpdated:
		return "updated"
	case EventHidden:
		return "hidden"
	case EventRemoved:
		return "removed"
	case EventInvalidated:
		return "invalidated"
	}
	return "unknown"
}

// Event is one notification. Record is a private copy.
type Event struct {
	Type   EventType
	Key    Key
	Record objects.Record
}

// Observer receives events.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Notify(e Event) { f(e) }

// Subscription is a live registration. Close stops delivery.
type Subscription struct {
	store  *Store
	id     uint64
	closed atomic.Bool
}

// Close unregisters the observer. It is safe to call more than once and from
// inside Notify.
func (s *Subscription) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.store.unsubscribe(s.id)
}

type subscriber struct {
	sub      *Subscription
	key      Key
	resource string
	obs      Observer
}

func (s subscriber) wants(e Event) bool {
	if s.key != (Key{}) {
		return e.Type != EventInvalidated && s.key == e.Key
	}
	return s.resource == "" || e.Key.Resource == "" || s.resource == e.Key.Resource
}
