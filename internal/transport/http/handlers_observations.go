package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fieldnet/internal/observation"
	"fieldnet/internal/transport/http/shared"
	dErrors "fieldnet/pkg/domain-errors"
	"fieldnet/pkg/requestcontext"
)

// ObservationService is the slice of the ingest service the handler needs.
type ObservationService interface {
	Submit(ctx context.Context, draft observation.Draft) (*observation.Observation, error)
	Remove(ctx context.Context, id string) error
	SetVerified(ctx context.Context, id string, verified bool) (*observation.Observation, error)
	Feed(ctx context.Context) ([]*observation.Observation, error)
}

// ObservationHandler handles the observation endpoints.
type ObservationHandler struct {
	service ObservationService
	logger  *slog.Logger
}

// NewObservationHandler builds an observation handler.
func NewObservationHandler(service ObservationService, logger *slog.Logger) *ObservationHandler {
	return &ObservationHandler{service: service, logger: logger}
}

// Register mounts the observation routes.
func (h *ObservationHandler) Register(r chi.Router) {
	r.Get("/api/observations", h.handleFeed)
	r.Post("/api/observations", h.handleSubmit)
	r.Delete("/api/observations/{id}", h.handleRemove)
	r.Patch("/api/observations/{id}/verify", h.handleVerify)
}

func (h *ObservationHandler) handleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.Feed(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch observations",
			"request_id", requestcontext.RequestID(r.Context()), "error", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, feed)
}

func (h *ObservationHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var draft observation.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	// An authenticated identity overrides whatever handle the body carried.
	if handle := requestcontext.UserHandle(ctx); handle != "" {
		draft.UserName = handle
	}

	o, err := h.service.Submit(ctx, draft)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeValidation) {
			h.logger.Error("failed to create observation",
				"request_id", requestcontext.RequestID(ctx), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, o)
}

func (h *ObservationHandler) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Remove(r.Context(), id); err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.Error("failed to delete observation",
				"request_id", requestcontext.RequestID(r.Context()), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type verifyRequest struct {
	Verified *bool `json:"verified"`
}

func (h *ObservationHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Verified == nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "verified flag is required"))
		return
	}

	o, err := h.service.SetVerified(r.Context(), id, *req.Verified)
	if err != nil {
		if !dErrors.Is(err, dErrors.CodeNotFound) {
			h.logger.Error("failed to update observation",
				"request_id", requestcontext.RequestID(r.Context()), "error", err)
		}
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, o)
}
