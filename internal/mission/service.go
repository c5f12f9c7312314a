package mission

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

// Service owns the mission and claim lifecycle. All claims go through here;
// nothing writes a UserMission directly.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewService wires the mission claim service.
func NewService(store Store, publisher Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{store: store, publisher: publisher, logger: logger, metrics: m}
}

// Create validates a mission draft, persists it active, and broadcasts
// new-mission.
func (s *Service) Create(ctx context.Context, draft Draft) (*Mission, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" || draft.Geometry == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "title and geometry are required")
	}
	bounty := DefaultBountyPoints
	if draft.BountyPoints != nil {
		if *draft.BountyPoints <= 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "bountyPoints must be a positive integer")
		}
		bounty = *draft.BountyPoints
	}
	createdBy := strings.TrimSpace(draft.CreatedBy)
	if createdBy == "" {
		createdBy = "Researcher"
	}

	m := &Mission{
		ID:           uuid.NewString(),
		Title:        title,
		Description:  draft.Description,
		BountyPoints: bounty,
		Geometry:     draft.Geometry,
		CreatedBy:    createdBy,
		Active:       true,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
		UserMissions: []ClaimSummary{},
	}
	if err := s.store.Insert(ctx, m); err != nil {
		s.logger.Error("mission insert failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create mission")
	}

	s.metrics.MissionsCreated.Inc()
	s.publisher.Broadcast(realtime.EventNewMission, m)
	return m, nil
}

// Accept records the contributor's claim on a mission. Insertion is atomic
// with the uniqueness check at the store, so two concurrent accepts for the
// same (mission, user) pair resolve to exactly one success.
func (s *Service) Accept(ctx context.Context, missionID, userName string) (*UserMission, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "userName is required")
	}

	claim := &UserMission{
		ID:         uuid.NewString(),
		MissionID:  missionID,
		UserName:   userName,
		Status:     ClaimAccepted,
		AcceptedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.store.CreateClaimIfAbsent(ctx, claim); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, dErrors.New(dErrors.CodeConflict, "mission already accepted by this user")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "mission not found")
		default:
			s.logger.Error("claim insert failed",
				"request_id", requestcontext.RequestID(ctx), "error", err)
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept mission")
		}
	}

	s.metrics.ClaimsAccepted.Inc()
	return claim, nil
}

// Complete transitions the contributor's accepted claim to completed and
// broadcasts mission-completed. The transition is one conditional update:
// completing twice, or without having accepted, finds no matching row.
func (s *Service) Complete(ctx context.Context, missionID, userName string) error {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return dErrors.New(dErrors.CodeValidation, "userName is required")
	}

	matched, err := s.store.CompleteClaim(ctx, missionID, userName, requestcontext.Now(ctx).UTC())
	if err != nil {
		s.logger.Error("claim completion failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete mission")
	}
	if !matched {
		return dErrors.New(dErrors.CodeNotFound, "no accepted mission found for this user")
	}

	s.metrics.MissionsCompleted.Inc()
	s.publisher.Broadcast(realtime.EventMissionCompleted, CompletedEvent{
		MissionID: missionID,
		UserName:  userName,
	})
	return nil
}

// ListActive returns active missions newest-first with their claim rosters.
func (s *Service) ListActive(ctx context.Context) ([]*Mission, error) {
	out, err := s.store.ListActive(ctx)
	if err != nil {
		s.logger.Error("mission list query failed",
			"request_id", requestcontext.RequestID(ctx), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to fetch missions")
	}
	if out == nil {
		out = []*Mission{}
	}
	return out, nil
}
