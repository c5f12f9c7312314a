//go:build integration

package observation_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"fieldnet/internal/observation"
	"fieldnet/pkg/platform/sentinel"
	"fieldnet/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *containers.PostgresContainer
	store     *observation.PostgresStore
	ctx       context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.container = containers.NewPostgresContainer(s.T())
	s.store = observation.NewPostgres(s.container.Pool)
	s.Require().NoError(s.store.EnsureSchema(s.ctx))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.container.TruncateTables(s.ctx, "observations"))
}

func (s *PostgresStoreSuite) newObservation(createdAt time.Time) *observation.Observation {
	return &observation.Observation{
		ID:        uuid.NewString(),
		Category:  observation.CategoryBird,
		Latitude:  28.6139,
		Longitude: 77.209,
		UserName:  "alice",
		CreatedAt: createdAt,
	}
}

func (s *PostgresStoreSuite) TestInsertAndFindRoundTrip() {
	confidence := 0.87
	o := s.newObservation(time.Now().UTC().Truncate(time.Millisecond))
	o.ImageURL = "https://img.example/parakeet.jpg"
	o.AILabel = "Psittacula krameri"
	o.ConfidenceScore = &confidence
	o.Notes = "rose-ringed parakeet"
	s.Require().NoError(s.store.Insert(s.ctx, o))

	found, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(o.Category, found.Category)
	s.Equal(o.ImageURL, found.ImageURL)
	s.Equal(o.AILabel, found.AILabel)
	s.Require().NotNil(found.ConfidenceScore)
	s.InDelta(confidence, *found.ConfidenceScore, 1e-9)
	s.Equal(o.Notes, found.Notes)
	s.False(found.Verified)
}

func (s *PostgresStoreSuite) TestOptionalFieldsSurviveEmpty() {
	o := s.newObservation(time.Now().UTC().Truncate(time.Millisecond))
	s.Require().NoError(s.store.Insert(s.ctx, o))

	found, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Empty(found.ImageURL)
	s.Empty(found.AILabel)
	s.Nil(found.ConfidenceScore)
	s.Empty(found.Notes)
}

func (s *PostgresStoreSuite) TestFindRecentNewestFirstBounded() {
	base := time.Now().UTC().Truncate(time.Millisecond)
	var ids []string
	for i := 0; i < 5; i++ {
		o := s.newObservation(base.Add(time.Duration(i) * time.Second))
		s.Require().NoError(s.store.Insert(s.ctx, o))
		ids = append(ids, o.ID)
	}

	recent, err := s.store.FindRecent(s.ctx, 3)
	s.Require().NoError(err)
	s.Require().Len(recent, 3)
	s.Equal(ids[4], recent[0].ID)
	s.Equal(ids[3], recent[1].ID)
	s.Equal(ids[2], recent[2].ID)
}

func (s *PostgresStoreSuite) TestDelete() {
	o := s.newObservation(time.Now().UTC())
	s.Require().NoError(s.store.Insert(s.ctx, o))

	s.Require().NoError(s.store.Delete(s.ctx, o.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, o.ID), sentinel.ErrNotFound)

	_, err := s.store.FindByID(s.ctx, o.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestSetVerified() {
	o := s.newObservation(time.Now().UTC())
	s.Require().NoError(s.store.Insert(s.ctx, o))

	updated, err := s.store.SetVerified(s.ctx, o.ID, true)
	s.Require().NoError(err)
	s.True(updated.Verified)

	_, err = s.store.SetVerified(s.ctx, uuid.NewString(), true)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}
