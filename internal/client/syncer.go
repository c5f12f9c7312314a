package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fieldnet/internal/observation"
	"fieldnet/internal/realtime"
)

const (
	// DefaultReconnectAttempts bounds the reconnect loop before giving up.
	DefaultReconnectAttempts = 10
	// DefaultReconnectDelay is the fixed delay between attempts.
	DefaultReconnectDelay = time.Second
)

// Syncer keeps a Store reconciled with the authority: on every (re)connect it
// performs a full feed fetch, then applies the ordered event stream. A
// dropped session silently misses events until the next reconnect; the
// refetch absorbs the gap.
type Syncer struct {
	baseURL string
	wsURL   string
	store   *Store
	logger  *slog.Logger

	httpClient *http.Client
	dialer     *websocket.Dialer

	attempts int
	delay    time.Duration
}

// NewSyncer builds a syncer against baseURL (http[s]://host) and wsURL
// (ws[s]://host/ws).
func NewSyncer(baseURL, wsURL string, store *Store, logger *slog.Logger) *Syncer {
	return &Syncer{
		baseURL:    baseURL,
		wsURL:      wsURL,
		store:      store,
		logger:     logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		dialer:     websocket.DefaultDialer,
		attempts:   DefaultReconnectAttempts,
		delay:      DefaultReconnectDelay,
	}
}

// Run connects and syncs until ctx is cancelled or the bounded reconnect
// policy is exhausted. The attempt counter resets after every successful
// connection.
func (s *Syncer) Run(ctx context.Context) error {
	failures := 0
	for {
		established, err := s.connectAndSync(ctx)
		s.store.SetConnected(false)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if established {
			// The retry budget applies to consecutive failed attempts only;
			// a session that connected and later dropped resets it.
			failures = 0
		}
		failures++
		if failures >= s.attempts {
			return fmt.Errorf("sync: giving up after %d attempts: %w", failures, err)
		}
		s.logger.Warn("connection lost, retrying", "attempt", failures, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.delay):
		}
	}
}

func (s *Syncer) connectAndSync(ctx context.Context) (established bool, err error) {
	conn, _, err := s.dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	s.store.SetConnected(true)

	// Full fetch after the socket is open so no committed event between
	// fetch and subscribe can be missed: anything newer than the snapshot
	// arrives on the already-open stream.
	if err := s.refetch(ctx); err != nil {
		return false, err
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var env realtime.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return true, fmt.Errorf("read: %w", err)
		}
		s.apply(env)
	}
}

func (s *Syncer) refetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/observations", nil)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch observations: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch observations: status %d", resp.StatusCode)
	}

	var observations []*observation.Observation
	if err := json.NewDecoder(resp.Body).Decode(&observations); err != nil {
		return fmt.Errorf("decode observations: %w", err)
	}
	s.store.ReplaceAll(observations)
	return nil
}

func (s *Syncer) apply(env realtime.Envelope) {
	switch env.Event {
	case realtime.EventNewObservation:
		var o observation.Observation
		if err := json.Unmarshal(env.Data, &o); err != nil {
			s.logger.Warn("bad new-observation payload", "error", err)
			return
		}
		s.store.ApplyInsert(&o)
	case realtime.EventObservationUpdated:
		var o observation.Observation
		if err := json.Unmarshal(env.Data, &o); err != nil {
			s.logger.Warn("bad observation-updated payload", "error", err)
			return
		}
		s.store.ApplyUpdate(&o)
	case realtime.EventDeleteObservation:
		var id string
		if err := json.Unmarshal(env.Data, &id); err != nil {
			s.logger.Warn("bad delete-observation payload", "error", err)
			return
		}
		s.store.ApplyRemove(id)
	case realtime.EventClientCount:
		var count int
		if err := json.Unmarshal(env.Data, &count); err != nil {
			s.logger.Warn("bad client-count payload", "error", err)
			return
		}
		s.store.SetClientCount(count)
	default:
		// Mission events carry no observation-projection changes; clients
		// refetch missions through the HTTP API.
	}
}
