// ABOUTME: Shared record cache with optimistic overlays, ordered list views and observers
// ABOUTME: Passed by reference to every consumer instead of living in global state
package cache

import (
	"sort"
	"sync"

	"github.com/harperreed/crmlink/objects"
)

// Key identifies one cached entity.
type Key struct {
	Resource string
	ID       string
}

func (k Key) String() string {
	return k.Resource + "/" + k.ID
}

type entry struct {
	confirmed    objects.Record
	hasConfirmed bool
	overlay      objects.Record
	hasOverlay   bool
	hidden       bool
}

func (e *entry) visible() (objects.Record, bool) {
	if e.hidden {
		return nil, false
	}
	if e.hasOverlay {
		return e.overlay, true
	}
	return e.confirmed, e.hasConfirmed
}

type listView struct {
	resource string
	ids      []string
	stale    bool
}

// Store holds confirmed snapshots, overlays and list views.
type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	lists   map[string]*listView
	subs    map[uint64]subscriber
	nextSub uint64
}

// New creates an empty store.
func New() *Store {
	return &Store{
		entries: make(map[Key]*entry),
		lists:   make(map[string]*listView),
		subs:    make(map[uint64]subscriber),
	}
}

// Get returns a copy of the visible value. It is false when absent or hidden.
func (s *Store) Get(key Key) (objects.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	rec, ok := e.visible()
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Confirmed returns a copy of the last server-confirmed value.
func (s *Store) Confirmed(key Key) (objects.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.hasConfirmed {
		return nil, false
	}
	return e.confirmed.Clone(), true
}

// HasOverlay reports whether key carries a working copy or is hidden.
func (s *Store) HasOverlay(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	return ok && (e.hasOverlay || e.hidden)
}

// Put stores rec as the confirmed value. Observers hear about it only when it
// changes what is visible.
func (s *Store) Put(key Key, rec objects.Record) {
	s.mu.Lock()
	e := s.entry(key)
	e.confirmed = rec.Clone()
	e.hasConfirmed = true
	var events []Event
	if !e.hasOverlay && !e.hidden {
		events = append(events, Event{Type: EventUpdated, Key: key, Record: e.confirmed.Clone()})
	}
	s.mu.Unlock()

	s.publish(events)
}

// SetOverlay publishes rec as a tentative working copy.
func (s *Store) SetOverlay(key Key, rec objects.Record) {
	s.mu.Lock()
	e := s.entry(key)
	e.overlay = rec.Clone()
	e.hasOverlay = true
	e.hidden = false
	events := []Event{{Type: EventUpdated, Key: key, Record: e.overlay.Clone()}}
	s.mu.Unlock()

	s.publish(events)
}

// Hide removes the entry from Get and List results without evicting it.
func (s *Store) Hide(key Key) {
	s.mu.Lock()
	e := s.entry(key)
	if e.hidden {
		s.mu.Unlock()
		return
	}
	e.hidden = true
	events := []Event{{Type: EventHidden, Key: key}}
	s.mu.Unlock()

	s.publish(events)
}

// ClearOverlay drops any working copy or hidden flag and republishes the
// confirmed value. An entry with nothing confirmed is evicted.
func (s *Store) ClearOverlay(key Key) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || (!e.hasOverlay && !e.hidden) {
		s.mu.Unlock()
		return
	}
	e.overlay = nil
	e.hasOverlay = false
	e.hidden = false

	var events []Event
	if e.hasConfirmed {
		events = append(events, Event{Type: EventUpdated, Key: key, Record: e.confirmed.Clone()})
	} else {
		s.removeLocked(key)
		events = append(events, Event{Type: EventRemoved, Key: key})
	}
	s.mu.Unlock()

	s.publish(events)
}

// Remove evicts the entry and drops it from every list.
func (s *Store) Remove(key Key) {
	s.mu.Lock()
	_, existed := s.entries[key]
	s.removeLocked(key)
	s.mu.Unlock()

	if existed {
		s.publish([]Event{{Type: EventRemoved, Key: key}})
	}
}

func (s *Store) removeLocked(key Key) {
	delete(s.entries, key)
	for _, l := range s.lists {
		if l.resource != key.Resource {
			continue
		}
		kept := l.ids[:0]
		for _, id := range l.ids {
			if id != key.ID {
				kept = append(kept, id)
			}
		}
		l.ids = kept
	}
}

func (s *Store) entry(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// SetList records an ordered view of ids for resource and marks it fresh.
func (s *Store) SetList(listKey, resource string, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]string, len(ids))
	copy(cp, ids)
	s.lists[listKey] = &listView{resource: resource, ids: cp}
}

// AppendToList adds id at the end of a list when it is not already there.
func (s *Store) AppendToList(listKey, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listKey]
	if !ok {
		return
	}
	for _, existing := range l.ids {
		if existing == id {
			return
		}
	}
	l.ids = append(l.ids, id)
}

// List returns copies of the visible records of a list view in order.
// Hidden and missing entries are skipped but keep their slot, so an entry
// revealed again returns to its original position.
func (s *Store) List(listKey string) ([]objects.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listKey]
	if !ok {
		return nil, false
	}
	out := make([]objects.Record, 0, len(l.ids))
	for _, id := range l.ids {
		e, ok := s.entries[Key{Resource: l.resource, ID: id}]
		if !ok {
			continue
		}
		if rec, ok := e.visible(); ok {
			out = append(out, rec.Clone())
		}
	}
	return out, true
}

// ListKeys returns the names of every list view, sorted.
func (s *Store) ListKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.lists))
	for k := range s.lists {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Invalidate marks lists of resource stale. An empty resource marks every list.
func (s *Store) Invalidate(resource string) {
	s.mu.Lock()
	for _, l := range s.lists {
		if resource == "" || l.resource == resource {
			l.stale = true
		}
	}
	s.mu.Unlock()

	s.publish([]Event{{Type: EventInvalidated, Key: Key{Resource: resource}}})
}

// Stale reports whether a list must be refetched. Unknown lists are stale.
func (s *Store) Stale(listKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lists[listKey]
	return !ok || l.stale
}

// Keys returns every cached key of resource, sorted by id.
func (s *Store) Keys(resource string) []Key {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []Key
	for k := range s.entries {
		if k.Resource == resource {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ID < keys[j].ID })
	return keys
}

// Hydrate loads persisted snapshots as confirmed values without replacing
// anything already cached. It returns how many records were added.
func (s *Store) Hydrate(resource string, records []objects.Record) int {
	s.mu.Lock()
	var events []Event
	for _, rec := range records {
		id := rec.ID()
		if id == "" {
			continue
		}
		key := Key{Resource: resource, ID: id}
		if _, ok := s.entries[key]; ok {
			continue
		}
		s.entries[key] = &entry{confirmed: rec.Clone(), hasConfirmed: true}
		events = append(events, Event{Type: EventUpdated, Key: key, Record: rec.Clone()})
	}
	s.mu.Unlock()

	s.publish(events)
	return len(events)
}

// Subscribe observes a single entry.
func (s *Store) Subscribe(key Key, obs Observer) *Subscription {
	return s.subscribe(subscriber{key: key, obs: obs})
}

// SubscribeResource observes every entry of resource plus its invalidations.
// An empty resource observes everything.
func (s *Store) SubscribeResource(resource string, obs Observer) *Subscription {
	return s.subscribe(subscriber{resource: resource, obs: obs})
}

func (s *Store) subscribe(sub subscriber) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSub++
	sub.sub = &Subscription{store: s, id: s.nextSub}
	s.subs[s.nextSub] = sub
	return sub.sub
}

func (s *Store) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// publish delivers events outside the store lock so observers may read the store.
func (s *Store) publish(events []Event) {
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	subs := make([]subscriber, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.mu.Unlock()

	for _, e := range events {
		for _, sub := range subs {
			if sub.sub.closed.Load() || !sub.wants(e) {
				continue
			}
			sub.obs.Notify(Event{Type: e.Type, Key: e.Key, Record: e.Record.Clone()})
		}
	}
}
