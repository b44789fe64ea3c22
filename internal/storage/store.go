// Package storage defines the key-value blob store contract used for
// persistent game state.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates no blob exists under the requested key.
var ErrNotFound = errors.New("storage: key not found")

// Store persists one serialized JSON blob per key. Writes are
// write-through: a successful Save is durable before it returns.
type Store interface {
	// Load returns the blob stored under key, or ErrNotFound.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save stores the blob under key, replacing any previous value.
	Save(ctx context.Context, key string, value []byte) error
}
