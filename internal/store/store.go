package store

import (
	"errors"
	"slices"
	"sync"
	"time"

	"kalender/internal/model"
)

// ErrNotFound is returned when no event has the requested ID.
var ErrNotFound = errors.New("event not found")

// Store is the in-memory ordered event collection. It only supports
// append and remove; an edit is a remove plus an add of a new event.
// Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	events []model.Event
}

// New returns an empty Store.
func New() *Store {
	return &Store{events: make([]model.Event, 0)}
}

// Add appends events in the given order. Events without an ID get one.
func (s *Store) Add(events ...model.Event) []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.ID == "" || s.indexLocked(ev.ID) >= 0 {
			ev.ID = model.NewID()
		}
		s.events = append(s.events, ev)
		added = append(added, ev)
	}
	return added
}

// Remove deletes the event with the given id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	s.events = slices.Delete(s.events, i, i+1)
	return nil
}

// Get returns the event with the given id.
func (s *Store) Get(id string) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return model.Event{}, ErrNotFound
	}
	return s.events[i], nil
}

// Len reports the number of stored events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Snapshot returns the events in insertion order.
func (s *Store) Snapshot() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events)
}

// List returns the events sorted ascending by date (then time of day).
// Events on the same instant keep insertion order.
func (s *Store) List() []model.Event {
	out := s.Snapshot()
	sortEvents(out)
	return out
}

// OnDay returns the events of one calendar day, sorted.
func (s *Store) OnDay(day time.Time) []model.Event {
	s.mu.RLock()
	out := make([]model.Event, 0)
	for _, ev := range s.events {
		if ev.StartsOn(day) {
			out = append(out, ev)
		}
	}
	s.mu.RUnlock()

	sortEvents(out)
	return out
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.events, func(ev model.Event) bool { return ev.ID == id })
}

func sortEvents(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		switch {
		case a.Before(&b):
			return -1
		case b.Before(&a):
			return 1
		default:
			return 0
		}
	})
}
