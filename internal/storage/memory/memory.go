// Package memory provides an in-memory Store for tests and local
// development. Contents are lost on process exit.
package memory

import (
	"context"
	"sync"

	"github.com/parlorbot/parlor/internal/storage"
)

// Store is an in-memory implementation of storage.Store.
// All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty in-memory Store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Load returns the blob stored under key, or storage.ErrNotFound.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Save stores a copy of value under key.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.blobs[key] = stored
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
