package store

import (
	"context"
	"log/slog"
	"sync"

	"fieldregistry-server/internal/registry/bus"
	"fieldregistry-server/internal/registry/domain"
	"fieldregistry-server/internal/registry/fetch"
)

// State models the store lifecycle: idle -> loading -> {ready, error}.
// Any invalidation for the active key forces ready|error -> loading again.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

func New(fetcher fetch.Fetcher, invalidations *bus.Bus) *Store {
	return &Store{
		fetcher:       fetcher,
		invalidations: invalidations,
		state:         StateIdle,
	}
}

// Store owns one live registry config for a key and re-derives every
// dependent view whenever it changes. Multiple stores may share a key; each
// holds its own copy and converges through the invalidation bus.
type Store struct {
	fetcher       fetch.Fetcher
	invalidations *bus.Bus

	mu         sync.Mutex
	key        domain.Key
	active     bool
	generation uint64
	state      State
	config     domain.Config
	err        error
	sub        *bus.Subscription
	onChange   func()
}

// OnChange registers a hook invoked after every state transition. Intended
// for consumers that need to re-render; called outside the store lock.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Activate begins loading the config for key. Re-activating with a new key
// while a previous fetch is in flight discards the stale response when it
// arrives: only the most recent activation may apply its result.
func (s *Store) Activate(ctx context.Context, key domain.Key) {
	s.mu.Lock()
	s.key = key
	s.active = true
	s.generation++
	generation := s.generation
	s.state = StateLoading
	s.err = nil
	if s.sub == nil && s.invalidations != nil {
		s.sub = s.invalidations.Subscribe(s.handleInvalidation)
	}
	s.mu.Unlock()

	s.notify()
	go s.load(ctx, key, generation)
}

// Refetch discards the current config and loads it again for the active key.
// No-op when the store is idle.
func (s *Store) Refetch(ctx context.Context) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	key := s.key
	s.generation++
	generation := s.generation
	s.state = StateLoading
	s.err = nil
	s.mu.Unlock()

	s.notify()
	go s.load(ctx, key, generation)
}

// Deactivate releases the store: the bus subscription is cancelled so no
// invalidation can reach an unmounted consumer, and any in-flight fetch is
// orphaned by the generation bump.
func (s *Store) Deactivate() {
	s.mu.Lock()
	s.active = false
	s.generation++
	s.state = StateIdle
	s.config = domain.Config{}
	s.err = nil
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	s.notify()
}

func (s *Store) load(ctx context.Context, key domain.Key, generation uint64) {
	config, err := s.fetcher.Fetch(ctx, key)

	s.mu.Lock()
	if !s.active || generation != s.generation {
		// A newer activation superseded this fetch; drop the response.
		s.mu.Unlock()
		return
	}
	if err != nil {
		slog.Warn("registry fetch failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()))
		s.state = StateError
		s.err = err
	} else {
		// Replace wholesale: derived views always come from a single fetch.
		s.config = config
		s.state = StateReady
		s.err = nil
	}
	s.mu.Unlock()

	s.notify()
}

func (s *Store) handleInvalidation(event bus.Event) {
	s.mu.Lock()
	matches := s.active && event.Key() == s.key
	s.mu.Unlock()

	if !matches {
		return
	}

	slog.Debug("registry invalidated, refetching", slog.String("key", event.Key().String()))
	s.Refetch(context.Background())
}

func (s *Store) notify() {
	s.mu.Lock()
	hook := s.onChange
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Loading() bool {
	return s.State() == StateLoading
}

func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) Key() domain.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Config returns a snapshot of the current registry config.
func (s *Store) Config() domain.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Store) Fields() []domain.FieldDescriptor {
	return s.Config().Fields
}

func (s *Store) Stages() []domain.StageDescriptor {
	return s.Config().KanbanStages
}

func (s *Store) ActiveStages() []domain.StageDescriptor {
	return s.Config().ActiveStages()
}

func (s *Store) FormFields() []domain.FieldDescriptor {
	return s.Config().FormFields()
}

func (s *Store) ListFields() []domain.FieldDescriptor {
	return s.Config().ListFields()
}

func (s *Store) RequiredFields() []domain.FieldDescriptor {
	return s.Config().RequiredFields()
}

func (s *Store) FieldsBySection() map[string][]domain.FieldDescriptor {
	return s.Config().FieldsBySection()
}

func (s *Store) ListDisplayFields() []string {
	return s.Config().ListDisplayFields
}

func (s *Store) EntityLabel() string {
	return s.Config().EntityLabel
}

func (s *Store) InitialValues() domain.FormValues {
	return s.Config().InitialValues()
}

func (s *Store) ValidateRequired(values domain.FormValues) map[string]string {
	return s.Config().ValidateRequired(values)
}

func (s *Store) FieldConfig(name string) (domain.FieldDescriptor, bool) {
	return s.Config().Field(name)
}

func (s *Store) FieldOptions(name string) []domain.Option {
	return s.Config().FieldOptions(name)
}

func (s *Store) StageConfig(value string) (domain.StageDescriptor, bool) {
	return s.Config().Stage(value)
}
