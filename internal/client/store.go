// Package client holds the client-side projection of the authoritative
// state: a disposable in-memory store reconciled by a full fetch on every
// (re)connect plus the ordered event stream. There is no replay or
// gap-filling; the refetch is the whole recovery contract.
package client

import (
	"sync"

	"fieldnet/internal/observation"
)

// Store is the local observation projection plus connection state. All
// methods are safe for concurrent use; readers get snapshots.
type Store struct {
	mu           sync.RWMutex
	observations []*observation.Observation
	selectedID   string
	connected    bool
	clientCount  int
	limit        int
}

// NewStore builds a store. limit > 0 caps the projection at the fetch bound;
// 0 means unbounded.
func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// ReplaceAll discards the prior projection in favor of a fresh full fetch.
// The selection survives only if the selected observation is still present.
func (s *Store) ReplaceAll(observations []*observation.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append([]*observation.Observation(nil), observations...)
	if s.selectedID != "" && s.findLocked(s.selectedID) == nil {
		s.selectedID = ""
	}
}

// ApplyInsert prepends a new observation (the projection is newest-first).
func (s *Store) ApplyInsert(o *observation.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append([]*observation.Observation{o}, s.observations...)
	if s.limit > 0 && len(s.observations) > s.limit {
		s.observations = s.observations[:s.limit]
	}
}

// ApplyUpdate replaces the observation with the same identifier, if present.
func (s *Store) ApplyUpdate(o *observation.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.observations {
		if have.ID == o.ID {
			s.observations[i] = o
			return
		}
	}
}

// ApplyRemove drops the observation by identifier. Removing the currently
// selected observation clears the selection.
func (s *Store) ApplyRemove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observations {
		if o.ID == id {
			s.observations = append(s.observations[:i], s.observations[i+1:]...)
			break
		}
	}
	if s.selectedID == id {
		s.selectedID = ""
	}
}

// Select marks an observation as the current selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
}

// Selected returns the selected observation, or nil when nothing is selected.
func (s *Store) Selected() *observation.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(s.selectedID)
}

// Observations returns a snapshot of the projection, newest first.
func (s *Store) Observations() []*observation.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*observation.Observation(nil), s.observations...)
}

// SetConnected records connection state, independent of the projection.
func (s *Store) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// Connected reports the last known connection state.
func (s *Store) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// SetClientCount records the authority's live session count.
func (s *Store) SetClientCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clientCount = n
}

// ClientCount returns the last broadcast session count.
func (s *Store) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCount
}

func (s *Store) findLocked(id string) *observation.Observation {
	if id == "" {
		return nil
	}
	for _, o := range s.observations {
		if o.ID == id {
			return o
		}
	}
	return nil
}
