package observation

import (
	"context"
	"sync"

	"fieldnet/pkg/platform/sentinel"
)

// InMemory keeps observations in process memory. It favors clarity over
// performance and backs the dev server and unit tests.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[string]*Observation
	order []string // insertion order, oldest first
}

// NewInMemory builds an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[string]*Observation)}
}

func (s *InMemory) Insert(_ context.Context, o *Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; ok {
		return sentinel.ErrConflict
	}
	// CreatedAt must be non-decreasing with insertion order so the feed's
	// newest-first contract holds even across clock hiccups.
	if n := len(s.order); n > 0 {
		if last := s.byID[s.order[n-1]]; o.CreatedAt.Before(last.CreatedAt) {
			o.CreatedAt = last.CreatedAt
		}
	}
	cp := *o
	s.byID[o.ID] = &cp
	s.order = append(s.order, o.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id string) (*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *InMemory) FindRecent(_ context.Context, limit int) ([]*Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Observation, 0, min(limit, len(s.order)))
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.byID[s.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemory) SetVerified(_ context.Context, id string, verified bool) (*Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	o.Verified = verified
	cp := *o
	return &cp, nil
}
