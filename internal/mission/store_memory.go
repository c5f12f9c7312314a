package mission

import (
	"context"
	"sync"
	"time"

	"fieldnet/pkg/platform/sentinel"
)

// InMemory keeps missions and claims in process memory. The single mutex is
// the atomicity domain: check-and-insert for claims runs under one lock,
// matching what the unique constraint gives the postgres store.
type InMemory struct {
	mu       sync.RWMutex
	missions map[string]*Mission
	order    []string // insertion order, oldest first
	claims   map[claimKey]*UserMission
}

type claimKey struct {
	missionID string
	userName  string
}

// NewInMemory builds an empty in-memory mission store.
func NewInMemory() *InMemory {
	return &InMemory{
		missions: make(map[string]*Mission),
		claims:   make(map[claimKey]*UserMission),
	}
}

func (s *InMemory) Insert(_ context.Context, m *Mission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[m.ID]; ok {
		return sentinel.ErrConflict
	}
	if n := len(s.order); n > 0 {
		if last := s.missions[s.order[n-1]]; m.CreatedAt.Before(last.CreatedAt) {
			m.CreatedAt = last.CreatedAt
		}
	}
	cp := *m
	s.missions[m.ID] = &cp
	s.order = append(s.order, m.ID)
	return nil
}

func (s *InMemory) ListActive(_ context.Context) ([]*Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rosters := make(map[string][]ClaimSummary)
	for _, c := range s.claims {
		rosters[c.MissionID] = append(rosters[c.MissionID], ClaimSummary{
			UserName: c.UserName,
			Status:   c.Status,
		})
	}

	var out []*Mission
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.missions[s.order[i]]
		if !m.Active {
			continue
		}
		cp := *m
		cp.UserMissions = rosters[m.ID]
		if cp.UserMissions == nil {
			cp.UserMissions = []ClaimSummary{}
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemory) CreateClaimIfAbsent(_ context.Context, c *UserMission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.missions[c.MissionID]; !ok {
		return sentinel.ErrNotFound
	}
	key := claimKey{missionID: c.MissionID, userName: c.UserName}
	if _, ok := s.claims[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *c
	s.claims[key] = &cp
	return nil
}

func (s *InMemory) CompleteClaim(_ context.Context, missionID, userName string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.claims[claimKey{missionID: missionID, userName: userName}]
	if !ok || c.Status != ClaimAccepted {
		return false, nil
	}
	c.Status = ClaimCompleted
	c.CompletedAt = &at
	return true, nil
}
