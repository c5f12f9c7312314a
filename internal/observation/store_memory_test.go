package observation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fieldnet/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newObservation(category Category, at time.Time) *Observation {
	return &Observation{
		ID:        uuid.NewString(),
		Category:  category,
		Latitude:  28.6,
		Longitude: 77.2,
		UserName:  "alice",
		CreatedAt: at,
	}
}

func (s *MemoryStoreSuite) TestInsertAndFind() {
	o := s.newObservation(CategoryBird, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, o))

	found, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(o.ID, found.ID)
	s.Equal(CategoryBird, found.Category)

	_, err = s.store.FindByID(s.ctx, uuid.NewString())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFeedIsNewestFirstAndBounded() {
	base := time.Now()
	for i := 0; i < 5; i++ {
		o := s.newObservation(CategoryPlant, base.Add(time.Duration(i)*time.Second))
		s.Require().NoError(s.store.Insert(s.ctx, o))
	}

	recent, err := s.store.FindRecent(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(recent, 3)
	for i := 1; i < len(recent); i++ {
		s.False(recent[i-1].CreatedAt.Before(recent[i].CreatedAt))
	}
}

func (s *MemoryStoreSuite) TestTimestampsNeverRegress() {
	base := time.Now()
	first := s.newObservation(CategoryBird, base)
	s.Require().NoError(s.store.Insert(s.ctx, first))

	// Simulated clock going backwards: insertion order still wins.
	second := s.newObservation(CategoryBird, base.Add(-time.Minute))
	s.Require().NoError(s.store.Insert(s.ctx, second))

	stored, err := s.store.FindByID(s.ctx, second.ID)
	s.Require().NoError(err)
	s.False(stored.CreatedAt.Before(first.CreatedAt))
}

func (s *MemoryStoreSuite) TestDelete() {
	o := s.newObservation(CategoryFish, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, o))
	s.Require().NoError(s.store.Delete(s.ctx, o.ID))

	s.Require().ErrorIs(s.store.Delete(s.ctx, o.ID), sentinel.ErrNotFound)
	_, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestSetVerified() {
	o := s.newObservation(CategoryInsect, time.Now())
	s.Require().NoError(s.store.Insert(s.ctx, o))

	updated, err := s.store.SetVerified(s.ctx, o.ID, true)
	s.Require().NoError(err)
	s.True(updated.Verified)

	_, err = s.store.SetVerified(s.ctx, uuid.NewString(), true)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
