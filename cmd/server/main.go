package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"fieldnet/internal/mission"
	"fieldnet/internal/observation"
	"fieldnet/internal/platform/config"
	"fieldnet/internal/platform/httpserver"
	"fieldnet/internal/platform/logger"
	"fieldnet/internal/platform/metrics"
	platformredis "fieldnet/internal/platform/redis"
	"fieldnet/internal/realtime"
	httptransport "fieldnet/internal/transport/http"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	obsStore, missionStore, cleanup, err := buildStores(ctx, cfg)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var relay *realtime.Relay
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis setup failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		relay = realtime.NewRelay(redisClient, "", log)
	}

	hub := realtime.NewHub(log, m, relay)
	obsService := observation.NewService(obsStore, hub, log, m, cfg.FeedLimit)
	missionService := mission.NewService(missionStore, hub, log, m)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Observations:  httptransport.NewObservationHandler(obsService, log),
		Missions:      httptransport.NewMissionHandler(missionService, log),
		Hub:           hub,
		Logger:        log,
		Gatherer:      registry,
		JWTSigningKey: cfg.JWTSigningKey,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("fieldnet server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if relay != nil {
		g.Go(func() error {
			err := relay.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildStores selects postgres when DATABASE_URL is set and falls back to
// in-memory stores for development.
func buildStores(ctx context.Context, cfg config.Config) (observation.Store, mission.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		return observation.NewInMemory(), mission.NewInMemory(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	obsStore := observation.NewPostgres(pool)
	missionStore := mission.NewPostgres(pool)
	if err := obsStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	if err := missionStore.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return obsStore, missionStore, pool.Close, nil
}
