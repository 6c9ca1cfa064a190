package authstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no grant exists for the given id, or that it has
// expired.
var ErrNotFound = errors.New("authstore: grant not found")

// Store persists identity grants across restarts and across the
// transport instances of a clustered server. Implementations must be
// safe for concurrent use.
type Store interface {
	// Put inserts or replaces a grant, applying the store's configured
	// TTLs to any unset expiry field.
	Put(ctx context.Context, g *Grant) error

	// Get retrieves a grant by id, returning ErrNotFound if missing or
	// expired.
	Get(ctx context.Context, id string) (*Grant, error)

	// Touch records activity at the given time and slides the idle
	// expiry forward, capped at MaxExpiresAt.
	Touch(ctx context.Context, id string, at time.Time) error

	// Rotate replaces oldID with a new grant in the same family,
	// returning the new id. Implementations may keep oldID valid for a
	// short grace window to tolerate in-flight requests.
	Rotate(ctx context.Context, oldID string, newGrant *Grant) (string, error)

	// Revoke deletes a single grant immediately.
	Revoke(ctx context.Context, id string) error

	// RevokeFamily deletes every grant descended from the same original
	// grant, for a logout-everywhere action.
	RevokeFamily(ctx context.Context, familyID string) error
}
