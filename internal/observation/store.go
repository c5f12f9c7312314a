package observation

import "context"

// Store persists observations. Implementations return sentinel errors for
// infrastructure facts; the service translates them into domain errors.
type Store interface {
	// Insert persists a fully-populated observation. The store guarantees
	// CreatedAt is non-decreasing with insertion order for feed purposes.
	Insert(ctx context.Context, o *Observation) error
	// FindByID returns the observation or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id string) (*Observation, error)
	// FindRecent returns up to limit observations, newest first.
	FindRecent(ctx context.Context, limit int) ([]*Observation, error)
	// Delete removes the observation or returns sentinel.ErrNotFound.
	Delete(ctx context.Context, id string) error
	// SetVerified flips the verified flag and returns the updated record,
	// or sentinel.ErrNotFound.
	SetVerified(ctx context.Context, id string, verified bool) (*Observation, error)
}
