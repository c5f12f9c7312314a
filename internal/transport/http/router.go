// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services; transport concerns stay isolated here.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldnet/internal/platform/middleware"
	"fieldnet/internal/transport/http/shared"
)

// Hub is the realtime endpoint the router mounts at /ws.
type Hub interface {
	http.Handler
	ConnectedClients() int
}

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Observations  *ObservationHandler
	Missions      *MissionHandler
	Hub           Hub
	Logger        *slog.Logger
	Gatherer      prometheus.Gatherer
	JWTSigningKey string
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Identity(cfg.JWTSigningKey, cfg.Logger))

	start := time.Now()
	r.Get("/api/health", func(w http.ResponseWriter, req *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"uptime":           time.Since(start).Seconds(),
			"connectedClients": cfg.Hub.ConnectedClients(),
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
		})
	})

	cfg.Observations.Register(r)
	cfg.Missions.Register(r)

	r.Get("/ws", cfg.Hub.ServeHTTP)

	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
