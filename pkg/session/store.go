package session

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrNotFound is returned by Get for unknown, expired or deleted records.
	ErrNotFound = errors.New("session: record not found")

	// ErrStoreUnavailable wraps backend failures (connection, IO).
	ErrStoreUnavailable = errors.New("session: store unavailable")
)

// Store persists the authoritative session records.
//
// Records expire on their own at Credential.ExpiresAt. Implementations must
// be safe for concurrent use, including concurrent writes for the same ID.
type Store interface {
	// Put creates or replaces the record for c.ID.
	Put(ctx context.Context, c *Credential) error

	// Renew replaces the record for c.ID only while it still exists. A
	// missing, expired or deleted record yields ErrNotFound and nothing is
	// written, so a renewal racing a revocation cannot recreate the record.
	Renew(ctx context.Context, c *Credential) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Credential, error)

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Healthcheck verifies the backend is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
