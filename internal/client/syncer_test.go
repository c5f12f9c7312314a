package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fieldnet/internal/mission"
	"fieldnet/internal/observation"
	"fieldnet/internal/platform/logger"
	"fieldnet/internal/platform/metrics"
	"fieldnet/internal/realtime"
	httptransport "fieldnet/internal/transport/http"
)

// testAuthority runs the real router and hub so the syncer exercises the
// same wire surface as production.
type testAuthority struct {
	server       *httptest.Server
	observations *observation.Service
}

func newTestAuthority(t *testing.T) *testAuthority {
	t.Helper()
	log := logger.Discard()
	m := metrics.NewForTest()
	hub := realtime.NewHub(log, m, nil)
	observations := observation.NewService(observation.NewInMemory(), hub, log, m, 200)
	missions := mission.NewService(mission.NewInMemory(), hub, log, m)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Observations: httptransport.NewObservationHandler(observations, log),
		Missions:     httptransport.NewMissionHandler(missions, log),
		Hub:          hub,
		Logger:       log,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testAuthority{server: server, observations: observations}
}

func (a *testAuthority) baseURL() string { return a.server.URL }

func (a *testAuthority) wsURL() string {
	return "ws" + strings.TrimPrefix(a.server.URL, "http") + "/ws"
}

func coord(v float64) *float64 { return &v }

func submitDraft(t *testing.T, a *testAuthority, userName string) *observation.Observation {
	t.Helper()
	o, err := a.observations.Submit(context.Background(), observation.Draft{
		Category:  "Bird",
		Latitude:  coord(28.6),
		Longitude: coord(77.2),
		UserName:  userName,
	})
	require.NoError(t, err)
	return o
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal(msg)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSyncerRefetchesThenAppliesStream(t *testing.T) {
	authority := newTestAuthority(t)
	preexisting := submitDraft(t, authority, "alice")

	store := NewStore(200)
	syncer := NewSyncer(authority.baseURL(), authority.wsURL(), store, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- syncer.Run(ctx) }()

	eventually(t, store.Connected, "syncer never connected")
	eventually(t, func() bool { return len(store.Observations()) == 1 },
		"initial fetch never landed")
	require.Equal(t, preexisting.ID, store.Observations()[0].ID)
	eventually(t, func() bool { return store.ClientCount() == 1 },
		"client count never arrived")

	// Live events land on top of the snapshot, newest first.
	streamed := submitDraft(t, authority, "bob")
	eventually(t, func() bool { return len(store.Observations()) == 2 },
		"streamed observation never applied")
	require.Equal(t, streamed.ID, store.Observations()[0].ID)

	require.NoError(t, authority.observations.Remove(context.Background(), preexisting.ID))
	eventually(t, func() bool { return len(store.Observations()) == 1 },
		"delete event never applied")
	require.Equal(t, streamed.ID, store.Observations()[0].ID)

	updated, err := authority.observations.SetVerified(context.Background(), streamed.ID, true)
	require.NoError(t, err)
	eventually(t, func() bool {
		snapshot := store.Observations()
		return len(snapshot) == 1 && snapshot[0].Verified
	}, "update event never applied")
	require.Equal(t, updated.ID, store.Observations()[0].ID)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("syncer did not stop on cancel")
	}
	require.False(t, store.Connected())
}

func TestSyncerGivesUpAfterConsecutiveFailures(t *testing.T) {
	// Grab a port nobody is listening on.
	dead := httptest.NewServer(nil)
	wsURL := "ws" + strings.TrimPrefix(dead.URL, "http") + "/ws"
	dead.Close()

	store := NewStore(0)
	syncer := NewSyncer("http://unreachable.invalid", wsURL, store, logger.Discard())
	syncer.attempts = 3
	syncer.delay = 10 * time.Millisecond

	err := syncer.Run(context.Background())
	require.Error(t, err)
	require.False(t, errors.Is(err, context.Canceled))
	require.Contains(t, err.Error(), "giving up")
	require.False(t, store.Connected())
}
