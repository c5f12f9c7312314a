package mission

import (
	"time"

	"fieldnet/internal/geofence"
)

// ClaimStatus is the forward-only claim lifecycle: accepted, then completed.
type ClaimStatus string

const (
	ClaimAccepted  ClaimStatus = "accepted"
	ClaimCompleted ClaimStatus = "completed"
)

// DefaultBountyPoints is awarded when a mission draft omits a bounty.
const DefaultBountyPoints = 10

// Mission is a bounty-bearing task bound to a geographic polygon.
type Mission struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	BountyPoints int                `json:"bountyPoints"`
	Geometry     *geofence.Geometry `json:"geometry"`
	CreatedBy    string             `json:"createdBy"`
	Active       bool               `json:"active"`
	CreatedAt    time.Time          `json:"createdAt"`
	// UserMissions is the claim roster, populated on listing so clients can
	// run "already joined" checks locally.
	UserMissions []ClaimSummary `json:"userMissions"`
}

// ZoneActive implements geofence.Zone.
func (m *Mission) ZoneActive() bool { return m.Active }

// ZoneGeometry implements geofence.Zone.
func (m *Mission) ZoneGeometry() *geofence.Geometry { return m.Geometry }

// ClaimSummary is the roster entry shipped with a listed mission.
type ClaimSummary struct {
	UserName string      `json:"userName"`
	Status   ClaimStatus `json:"status"`
}

// UserMission records one contributor's relationship to one mission.
// The (MissionID, UserName) pair is unique for the row's lifetime.
type UserMission struct {
	ID          string      `json:"id"`
	MissionID   string      `json:"missionId"`
	UserName    string      `json:"userName"`
	Status      ClaimStatus `json:"status"`
	AcceptedAt  time.Time   `json:"acceptedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

// Draft is the validated-at-the-boundary mission creation shape.
type Draft struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	BountyPoints *int               `json:"bountyPoints"`
	Geometry     *geofence.Geometry `json:"geometry"`
	CreatedBy    string             `json:"createdBy"`
}

// CompletedEvent is the mission-completed broadcast payload.
type CompletedEvent struct {
	MissionID string `json:"missionId"`
	UserName  string `json:"userName"`
}
