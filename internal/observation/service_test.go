package observation_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"fieldnet/internal/observation"
	"fieldnet/internal/platform/logger"
	"fieldnet/internal/platform/metrics"
	"fieldnet/internal/realtime"
	dErrors "fieldnet/pkg/domain-errors"
)

// capturingPublisher records broadcasts for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	event   string
	payload any
}

func (p *capturingPublisher) Broadcast(event string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{event: event, payload: payload})
}

func (p *capturingPublisher) all() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedEvent(nil), p.events...)
}

type ServiceSuite struct {
	suite.Suite
	store     *observation.InMemory
	publisher *capturingPublisher
	service   *observation.Service
	ctx       context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = observation.NewInMemory()
	s.publisher = &capturingPublisher{}
	s.service = observation.NewService(s.store, s.publisher, logger.Discard(), metrics.NewForTest(), 200)
	s.ctx = context.Background()
}

func ptr[T any](v T) *T { return &v }

func validDraft() observation.Draft {
	return observation.Draft{
		Category:  "Bird",
		Latitude:  ptr(28.6),
		Longitude: ptr(77.2),
		UserName:  "alice",
	}
}

func (s *ServiceSuite) TestSubmitPersistsAndBroadcasts() {
	o, err := s.service.Submit(s.ctx, validDraft())
	s.Require().NoError(err)
	s.NotEmpty(o.ID)
	s.False(o.Verified)
	s.Equal("alice", o.UserName)

	events := s.publisher.all()
	s.Require().Len(events, 1)
	s.Equal(realtime.EventNewObservation, events[0].event)
	s.Same(o, events[0].payload)
}

func (s *ServiceSuite) TestSubmitValidation() {
	s.Run("all required fields missing yields one combined error", func() {
		_, err := s.service.Submit(s.ctx, observation.Draft{})
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "latitude, longitude, and category are required")
	})

	s.Run("single missing field yields the same combined error", func() {
		draft := validDraft()
		draft.Category = ""
		_, err := s.service.Submit(s.ctx, draft)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(err.Error(), "latitude, longitude, and category are required")
	})

	s.Run("latitude out of range", func() {
		draft := validDraft()
		draft.Latitude = ptr(91.0)
		_, err := s.service.Submit(s.ctx, draft)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("longitude out of range", func() {
		draft := validDraft()
		draft.Longitude = ptr(-180.5)
		_, err := s.service.Submit(s.ctx, draft)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown category", func() {
		draft := validDraft()
		draft.Category = "Dragon"
		_, err := s.service.Submit(s.ctx, draft)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("confidence outside 0..1", func() {
		draft := validDraft()
		draft.ConfidenceScore = ptr(1.2)
		_, err := s.service.Submit(s.ctx, draft)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("no event for a rejected draft", func() {
		s.Empty(s.publisher.all())
	})
}

func (s *ServiceSuite) TestSubmitDefaultsAnonymous() {
	draft := validDraft()
	draft.UserName = "  "
	o, err := s.service.Submit(s.ctx, draft)
	s.Require().NoError(err)
	s.Equal("Anonymous", o.UserName)
}

func (s *ServiceSuite) TestIdentifiersAreUnique() {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		o, err := s.service.Submit(s.ctx, validDraft())
		s.Require().NoError(err)
		s.False(seen[o.ID], "identifier %s issued twice", o.ID)
		seen[o.ID] = true
	}
}

func (s *ServiceSuite) TestSubmitFailedWriteEmitsNothing() {
	svc := observation.NewService(failingStore{}, s.publisher, logger.Discard(), metrics.NewForTest(), 200)
	_, err := svc.Submit(s.ctx, validDraft())
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Empty(s.publisher.all())
}

func (s *ServiceSuite) TestRemove() {
	o, err := s.service.Submit(s.ctx, validDraft())
	s.Require().NoError(err)

	s.Require().NoError(s.service.Remove(s.ctx, o.ID))

	events := s.publisher.all()
	s.Require().Len(events, 2)
	s.Equal(realtime.EventDeleteObservation, events[1].event)
	// Delete events carry the identifier only; consumers reconcile by id.
	s.Equal(o.ID, events[1].payload)

	err = s.service.Remove(s.ctx, o.ID)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSetVerified() {
	o, err := s.service.Submit(s.ctx, validDraft())
	s.Require().NoError(err)

	updated, err := s.service.SetVerified(s.ctx, o.ID, true)
	s.Require().NoError(err)
	s.True(updated.Verified)

	events := s.publisher.all()
	s.Require().Len(events, 2)
	s.Equal(realtime.EventObservationUpdated, events[1].event)

	_, err = s.service.SetVerified(s.ctx, "missing", true)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestFeedNeverNil() {
	feed, err := s.service.Feed(s.ctx)
	s.Require().NoError(err)
	s.NotNil(feed)
	s.Empty(feed)
}

func (s *ServiceSuite) TestStoreFailuresAreLogged() {
	recorder := &logRecorder{}
	svc := observation.NewService(failingStore{}, s.publisher, slog.New(recorder), metrics.NewForTest(), 200)

	_, err := svc.Submit(s.ctx, validDraft())
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(1, recorder.errorCount())

	_, err = svc.Feed(s.ctx)
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(2, recorder.errorCount())
}

// logRecorder captures slog records for assertions.
type logRecorder struct {
	mu      sync.Mutex
	records []slog.Record
}

func (r *logRecorder) Enabled(context.Context, slog.Level) bool { return true }

func (r *logRecorder) Handle(_ context.Context, rec slog.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return nil
}

func (r *logRecorder) WithAttrs([]slog.Attr) slog.Handler { return r }
func (r *logRecorder) WithGroup(string) slog.Handler      { return r }

func (r *logRecorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, rec := range r.records {
		if rec.Level == slog.LevelError {
			n++
		}
	}
	return n
}

// failingStore simulates a durable-store outage.
type failingStore struct{}

func (failingStore) Insert(context.Context, *observation.Observation) error {
	return errors.New("store down")
}
func (failingStore) FindByID(context.Context, string) (*observation.Observation, error) {
	return nil, errors.New("store down")
}
func (failingStore) FindRecent(context.Context, int) ([]*observation.Observation, error) {
	return nil, errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }
func (failingStore) SetVerified(context.Context, string, bool) (*observation.Observation, error) {
	return nil, errors.New("store down")
}
