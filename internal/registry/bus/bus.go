package bus

import (
	"sync"

	"fieldregistry-server/internal/registry/domain"

	"github.com/google/uuid"
)

// Event announces that the registry document for a key changed somewhere in
// the process. Listeners self-filter: the bus broadcasts to everyone.
type Event struct {
	Module string
	Entity string
}

func (e Event) Key() domain.Key {
	return domain.Key{Module: e.Module, Entity: e.Entity}
}

type Listener func(Event)

// Bus is a constructible broadcast channel for schema invalidations. It is
// deliberately dumb: no topic filtering at subscribe time, because the
// listener count is one per open screen and broadcast is cheaper than
// per-topic bookkeeping.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string]Listener
}

func New() *Bus {
	return &Bus{
		listeners: make(map[string]Listener),
	}
}

// Subscribe registers a listener and returns its subscription handle.
// Cancel on the handle is idempotent on every exit path.
func (b *Bus) Subscribe(listener Listener) *Subscription {
	id := uuid.NewString()

	b.mu.Lock()
	b.listeners[id] = listener
	b.mu.Unlock()

	sub := &Subscription{id: id, bus: b}
	return sub
}

// Publish synchronously invokes every currently subscribed listener.
// Iteration runs over a snapshot so a listener canceling itself (or
// subscribing another) mid-publish cannot corrupt the set.
func (b *Bus) Publish(module, entity string) {
	b.mu.RLock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, listener := range b.listeners {
		snapshot = append(snapshot, listener)
	}
	b.mu.RUnlock()

	event := Event{Module: module, Entity: entity}
	for _, listener := range snapshot {
		listener(event)
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	delete(b.listeners, id)
	b.mu.Unlock()
}

// Len reports the current number of subscribed listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Subscription is the scoped handle for one bus listener.
type Subscription struct {
	id   string
	bus  *Bus
	once sync.Once
}

func (s *Subscription) ID() string {
	return s.id
}

// Cancel removes the listener. Double-cancel is not an error.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.bus.remove(s.id)
	})
}
