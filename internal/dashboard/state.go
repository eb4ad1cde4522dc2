// Package dashboard owns the dashboard's mutable state and wires the live
// feed to the history fetcher.
package dashboard

import (
	"sync"
	"time"

	"github.com/ttracx/deepboreai/internal/models"
)

// State holds the current reading and the history list. Both are replaced
// wholesale; history updates are ordered by request token.
type State struct {
	mu       sync.RWMutex
	reading  *models.Reading
	history  []models.HistoryEntry
	status   models.Status
	errToken uint64

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan struct{}
	now    func() time.Time
}

// NewState creates an empty state: no reading, empty history.
func NewState() *State {
	return &State{
		history: []models.HistoryEntry{},
		status:  models.Status{Connection: models.ConnectionIdle},
		subs:    make(map[int]chan struct{}),
		now:     time.Now,
	}
}

// SetReading replaces the current reading.
func (s *State) SetReading(r models.Reading) {
	s.mu.Lock()
	s.reading = &r
	s.status.UpdatedAt = s.now()
	s.mu.Unlock()
	s.notify()
}

// ApplyHistory replaces the history list if token is newer than every token
// applied so far. It reports whether the list was replaced.
func (s *State) ApplyHistory(token uint64, entries []models.HistoryEntry) bool {
	s.mu.Lock()
	if token <= s.status.LastFetchToken {
		s.mu.Unlock()
		return false
	}
	list := make([]models.HistoryEntry, len(entries))
	copy(list, entries)
	s.history = list
	s.status.LastFetchToken = token
	if token > s.errToken {
		s.status.LastFetchErr = ""
	}
	s.status.UpdatedAt = s.now()
	s.mu.Unlock()
	s.notify()
	return true
}

// RecordFetchError surfaces a failed fetch unless a newer fetch already
// succeeded. The history list is left untouched.
func (s *State) RecordFetchError(token uint64, err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if token <= s.status.LastFetchToken || token < s.errToken {
		s.mu.Unlock()
		return
	}
	s.errToken = token
	s.status.LastFetchErr = err.Error()
	s.status.UpdatedAt = s.now()
	s.mu.Unlock()
	s.notify()
}

// SetConnection records the live feed connection state.
func (s *State) SetConnection(state models.ConnectionState, err error) {
	s.mu.Lock()
	s.status.Connection = state
	s.status.ConnectionErr = ""
	if err != nil {
		s.status.ConnectionErr = err.Error()
	}
	s.status.UpdatedAt = s.now()
	s.mu.Unlock()
	s.notify()
}

// Reading returns a copy of the current reading, or nil before the first one.
func (s *State) Reading() *models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.reading == nil {
		return nil
	}
	r := *s.reading
	return &r
}

// History returns a copy of the history list.
func (s *State) History() []models.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]models.HistoryEntry, len(s.history))
	copy(list, s.history)
	return list
}

// Snapshot returns a consistent copy of everything.
func (s *State) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := models.Snapshot{
		History: make([]models.HistoryEntry, len(s.history)),
		Status:  s.status,
	}
	copy(snap.History, s.history)
	if s.reading != nil {
		r := *s.reading
		snap.Reading = &r
	}
	return snap
}

// Subscribe returns a channel that receives a signal after every change,
// and a function that cancels the subscription. Signals coalesce: a slow
// subscriber sees at most one pending signal.
func (s *State) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *State) notify() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
