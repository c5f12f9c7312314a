package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// relayQueueSize bounds frames awaiting publication. Overflow drops the
// frame rather than block the writer that committed the event.
const relayQueueSize = 256

// Broker is the pub/sub slice of the redis client the relay needs.
type Broker interface {
	PublishEvent(ctx context.Context, channel string, payload []byte) error
	SubscribeEvents(ctx context.Context, channel string) (<-chan []byte, func() error)
}

// Relay bridges hubs across server instances over a shared channel so every
// instance fans out every instance's committed events. client-count is never
// relayed: the counter is process-scoped by contract.
//
// Publishes drain through a single queue in submission order, so peer
// instances observe the same per-resource event order local sessions do.
type Relay struct {
	broker  Broker
	channel string
	origin  string
	logger  *slog.Logger
	frames  chan []byte

	hub *Hub
}

type relayFrame struct {
	Origin string          `json:"origin"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

// NewRelay builds a relay on the given channel.
func NewRelay(broker Broker, channel string, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = "fieldnet:events"
	}
	return &Relay{
		broker:  broker,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logger,
		frames:  make(chan []byte, relayQueueSize),
	}
}

func (r *Relay) attach(h *Hub) { r.hub = h }

// publish queues an event for peer instances. Fire-and-forget for the
// caller: Run drains the queue serially, and a full queue drops the frame
// with a warning rather than block.
func (r *Relay) publish(event string, data json.RawMessage) {
	frame, err := json.Marshal(relayFrame{Origin: r.origin, Event: event, Data: data})
	if err != nil {
		r.logger.Error("relay frame marshal failed", "event", event, "error", err)
		return
	}
	select {
	case r.frames <- frame:
	default:
		r.logger.Warn("relay queue full, dropping event", "event", event)
	}
}

// Run publishes queued frames and re-broadcasts peer events locally until
// ctx is cancelled. Own events are skipped by origin.
func (r *Relay) Run(ctx context.Context) error {
	incoming, closeSub := r.broker.SubscribeEvents(ctx, r.channel)
	defer closeSub()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-r.frames:
			pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := r.broker.PublishEvent(pubCtx, r.channel, frame)
			cancel()
			if err != nil {
				r.logger.Warn("relay publish failed", "error", err)
			}
		case payload, ok := <-incoming:
			if !ok {
				return nil
			}
			var frame relayFrame
			if err := json.Unmarshal(payload, &frame); err != nil {
				r.logger.Warn("relay frame decode failed", "error", err)
				continue
			}
			if frame.Origin == r.origin {
				continue
			}
			r.hub.broadcastLocal(frame.Event, frame.Data)
		}
	}
}
