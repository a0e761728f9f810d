package session

import (
	"context"
	"time"
)

// TTL is the fixed server-side lifetime of a session record. The cookie
// may outlive it (see cookie.go); such a cookie simply reads as absent.
const TTL = 24 * time.Hour

// Record is the server-side session state referenced by an opaque
// client-held identifier. It stores identity facts, not auth decisions.
type Record struct {
	UserID string         `json:"user_id"`
	Email  string         `json:"email"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// Store defines how session records are stored and retrieved.
// Implementations must rely on the backing store's own atomicity for
// single-key operations; no client-side locking.
type Store interface {
	// Create generates a cryptographically random identifier, persists
	// the record under it with the fixed TTL, and returns the identifier.
	Create(ctx context.Context, userID, email string, extra map[string]any) (string, error)

	// Get returns the record, or nil when the session is absent, expired,
	// or its stored form is malformed.
	Get(ctx context.Context, id string) (*Record, error)

	// Refresh resets the TTL without reading or rewriting the record.
	Refresh(ctx context.Context, id string) error

	// Delete removes the record. Idempotent on a missing id.
	Delete(ctx context.Context, id string) error
}
