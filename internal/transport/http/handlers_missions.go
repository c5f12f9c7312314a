package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldnet/internal/mission"
	"fieldnet/internal/transport/http/shared"
	dErrors "fieldnet/pkg/domain-errors"
	"fieldnet/pkg/requestcontext"
)

// MissionService is the slice of the claim service the handler needs.
type MissionService interface {
	Create(ctx context.Context, draft mission.Draft) (*mission.Mission, error)
	Accept(ctx context.Context, missionID, userName string) (*mission.UserMission, error)
	Complete(ctx context.Context, missionID, userName string) error
	ListActive(ctx context.Context) ([]*mission.Mission, error)
}

// MissionHandler handles the mission and claim endpoints.
type MissionHandler struct {
	service MissionService
	logger  *slog.Logger
}

// NewMissionHandler builds a mission handler.
func NewMissionHandler(service MissionService, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{service: service, logger: logger}
}

// Register mounts the mission routes.
func (h *MissionHandler) Register(r chi.Router) {
	r.Get("/api/missions", h.handleList)
	r.Post("/api/missions", h.handleCreate)
	r.Post("/api/missions/{id}/accept", h.handleAccept)
	r.Post("/api/missions/{id}/complete", h.handleComplete)
}

func (h *MissionHandler) handleList(w http.ResponseWriter, r *http.Request) {
	missions, err := h.service.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch missions",
			"request_id", requestcontext.RequestID(r.Context()), "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, missions)
}

func (h *MissionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft mission.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if handle := requestcontext.UserHandle(ctx); handle != "" {
		draft.CreatedBy = handle
	}

	m, err := h.service.Create(ctx, draft)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.Error("failed to create mission",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, m)
}

type claimRequest struct {
	UserName string `json:"userName"`
}

// userName resolves the contributor handle: authenticated identity first,
// then the request body.
func (c claimRequest) userName(ctx context.Context) string {
	if handle := requestcontext.UserHandle(ctx); handle != "" {
		return handle
	}
	return c.UserName
}

func (h *MissionHandler) handleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	missionID := chi.URLParam(r, "id")

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	claim, err := h.service.Accept(ctx, missionID, req.userName(ctx))
	if err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.Error("failed to accept mission",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, claim)
}

func (h *MissionHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	missionID := chi.URLParam(r, "id")

	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.Complete(ctx, missionID, req.userName(ctx)); err != nil {
		if dErrors.Is(err, dErrors.CodeInternal) {
			h.logger.Error("failed to complete mission",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Mission completed!",
	})
}
