package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ObservationsCreated prometheus.Counter
	ObservationsDeleted prometheus.Counter
	MissionsCreated     prometheus.Counter
	MissionsCompleted   prometheus.Counter
	ClaimsAccepted      prometheus.Counter
	ConnectedClients    prometheus.Gauge
	EventsBroadcast     *prometheus.CounterVec
	BroadcastDrops      prometheus.Counter
}

// New creates all metrics and registers them with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ObservationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_observations_created_total",
			Help: "Total number of observations persisted",
		}),
		ObservationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_observations_deleted_total",
			Help: "Total number of observations deleted",
		}),
		MissionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_missions_created_total",
			Help: "Total number of missions created",
		}),
		MissionsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_missions_completed_total",
			Help: "Total number of mission claims completed",
		}),
		ClaimsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_claims_accepted_total",
			Help: "Total number of mission claims accepted",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fieldnet_connected_clients",
			Help: "Currently connected realtime sessions",
		}),
		EventsBroadcast: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldnet_events_broadcast_total",
			Help: "Events fanned out to sessions, labeled by event name",
		}, []string{"event"}),
		BroadcastDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fieldnet_broadcast_drops_total",
			Help: "Sessions dropped for falling behind the broadcast stream",
		}),
	}
	reg.MustRegister(
		m.ObservationsCreated,
		m.ObservationsDeleted,
		m.MissionsCreated,
		m.MissionsCompleted,
		m.ClaimsAccepted,
		m.ConnectedClients,
		m.EventsBroadcast,
		m.BroadcastDrops,
	)
	return m
}

// NewForTest creates unregistered metrics backed by a private registry.
func NewForTest() *Metrics {
	return New(prometheus.NewRegistry())
}
