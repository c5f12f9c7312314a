package observation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fieldnet/internal/platform/metrics"
	"fieldnet/internal/realtime"
	dErrors "fieldnet/pkg/domain-errors"
	"fieldnet/pkg/platform/sentinel"
	"fieldnet/pkg/requestcontext"
)

// Publisher is the slice of the broadcast hub the service needs.
type Publisher interface {
	Broadcast(event string, payload any)
}

// Service validates and persists observations, then publishes committed
// changes. Events are published only after the durable write succeeds; a
// failed write emits nothing.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	feedLimit int
}

// NewService wires the observation ingest service.
func NewService(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics, feedLimit int) *Service {
	if feedLimit <= 0 {
		feedLimit = 200
	}
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		feedLimit: feedLimit,
	}
}

// Submit validates a draft, persists it with a fresh identifier and the
// request timestamp, and broadcasts new-observation.
//
// Presence of category, latitude, and longitude is checked together before
// any numeric validation: a draft missing all three reports one combined
// error, not three failures. This order is the documented contract.
func (s *Service) Submit(ctx context.Context, draft Draft) (*Observation, error) {
	if draft.Category == "" || draft.Latitude == nil || draft.Longitude == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "latitude, longitude, and category are required")
	}
	category := Category(strings.TrimSpace(draft.Category))
	if !ValidCategory(category) {
		return nil, dErrors.New(dErrors.CodeValidation, "category must be one of the fixed taxonomy")
	}
	if *draft.Latitude < -90 || *draft.Latitude > 90 {
		return nil, dErrors.New(dErrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if *draft.Longitude < -180 || *draft.Longitude > 180 {
		return nil, dErrors.New(dErrors.CodeValidation, "longitude must be between -180 and 180")
	}
	if draft.ConfidenceScore != nil && (*draft.ConfidenceScore < 0 || *draft.ConfidenceScore > 1) {
		return nil, dErrors.New(dErrors.CodeValidation, "confidenceScore must be between 0 and 1")
	}

	userName := strings.TrimSpace(draft.UserName)
	if userName == "" {
		userName = "Anonymous"
	}

	o := &Observation{
		ID:              uuid.NewString(),
		Category:        category,
		Latitude:        *draft.Latitude,
		Longitude:       *draft.Longitude,
		ImageURL:        draft.ImageURL,
		AILabel:         draft.AILabel,
		ConfidenceScore: draft.ConfidenceScore,
		UserName:        userName,
		Notes:           draft.Notes,
		CreatedAt:       requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.Insert(ctx, o); err != nil {
		s.logger.Error("observation insert failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create observation")
	}

	s.metrics.ObservationsCreated.Inc()
	s.publisher.Broadcast(realtime.EventNewObservation, o)
	return o, nil
}

// Remove deletes an observation and broadcasts delete-observation carrying
// only the identifier; consumers reconcile deletes by id alone.
func (s *Service) Remove(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "observation not found")
		}
		s.logger.Error("observation delete failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete observation")
	}
	s.metrics.ObservationsDeleted.Inc()
	s.publisher.Broadcast(realtime.EventDeleteObservation, id)
	return nil
}

// SetVerified flips the verified flag and broadcasts the updated record.
func (s *Service) SetVerified(ctx context.Context, id string, verified bool) (*Observation, error) {
	o, err := s.store.SetVerified(ctx, id, verified)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "observation not found")
		}
		s.logger.Error("observation verify update failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update observation")
	}
	s.publisher.Broadcast(realtime.EventObservationUpdated, o)
	return o, nil
}

// Feed returns the bounded, newest-first observation list clients use for
// full reconciliation on connect.
func (s *Service) Feed(ctx context.Context) ([]*Observation, error) {
	out, err := s.store.FindRecent(ctx, s.feedLimit)
	if err != nil {
		s.logger.Error("observation feed query failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch observations")
	}
	if out == nil {
		out = []*Observation{}
	}
	return out, nil
}
