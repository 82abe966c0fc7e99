// ABOUTME: Store interface and errors for session key-value persistence
// ABOUTME: Sessions are addressed by external identity and hold opaque per-key values

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// Store defines the interface for session key-value persistence
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, sessionID, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, sessionID, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, sessionID, key string) error

	// Prune removes every session not written since cutoff and returns
	// the number of sessions removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases any resources held by the store
	Close() error
}
