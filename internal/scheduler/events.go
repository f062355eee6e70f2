package scheduler

import (
	"github.com/google/uuid"

	"github.com/lawnchairsociety/combatsim/internal/results"
)

// EventKind identifies a batch event.
type EventKind string

const (
	EventStarted   EventKind = "started"
	EventProgress  EventKind = "progress"
	EventCompleted EventKind = "completed"
	EventCancelled EventKind = "cancelled"
)

// Event reports batch progress. Progress events carry the monster result
// just recorded, or the error that left its slot at the default.
type Event struct {
	Kind      EventKind      `json:"kind"`
	Batch     uuid.UUID      `json:"batch"`
	Done      int            `json:"done"`
	Total     int            `json:"total"`
	MonsterID int            `json:"monster_id,omitempty"`
	Result    results.Result `json:"-"`
	Err       string         `json:"error,omitempty"`
}

// Listener receives events on the scheduler's coordinator goroutine. It
// must not block; it may call Cancel.
type Listener func(Event)

// Subscribe registers a listener and returns a function that removes it.
func (s *Scheduler) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Scheduler) emit(ev Event) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()
	for _, l := range ls {
		l(ev)
	}
}
