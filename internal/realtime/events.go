package realtime

import "encoding/json"

// Named events pushed to connected sessions. The hub delivers events for a
// single resource in the order their causing writes committed; at-least-once,
// to currently connected sessions only. Late joiners reconcile with a full
// fetch, never a replay.
const (
	EventNewObservation     = "new-observation"
	EventDeleteObservation  = "delete-observation"
	EventObservationUpdated = "observation-updated"
	EventNewMission         = "new-mission"
	EventMissionCompleted   = "mission-completed"
	EventClientCount        = "client-count"
)

// Envelope is the wire frame for every event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}
