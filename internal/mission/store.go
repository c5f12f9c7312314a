package mission

import (
	"context"
	"time"
)

// Store persists missions and claims. Claim uniqueness and the conditional
// completion transition are enforced here, at the store's atomic-operation
// level, never by a service-layer read-then-write.
type Store interface {
	// Insert persists a new mission.
	Insert(ctx context.Context, m *Mission) error
	// ListActive returns active missions newest-first, rosters populated.
	ListActive(ctx context.Context) ([]*Mission, error)
	// CreateClaimIfAbsent atomically inserts the claim unless one already
	// exists for (MissionID, UserName), in which case it returns
	// sentinel.ErrAlreadyUsed. An unknown mission returns
	// sentinel.ErrNotFound.
	CreateClaimIfAbsent(ctx context.Context, c *UserMission) error
	// CompleteClaim transitions the accepted claim for (missionID, userName)
	// to completed in a single conditional update. It reports whether a row
	// matched; false means no accepted claim existed.
	CompleteClaim(ctx context.Context, missionID, userName string, at time.Time) (bool, error)
}
