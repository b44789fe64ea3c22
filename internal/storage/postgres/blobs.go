package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parlorbot/parlor/internal/storage"
)

// BlobStore persists one JSON blob per key in the blobs table,
// implementing storage.Store.
type BlobStore struct {
	db *pgxpool.Pool
}

// NewBlobStore creates a BlobStore backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewBlobStore(db *pgxpool.Pool) *BlobStore {
	return &BlobStore{db: db}
}

// Load returns the blob stored under key.
//
// Precondition: key must be non-empty.
// Postcondition: Returns the stored bytes, or storage.ErrNotFound if the
// key has never been saved.
func (s *BlobStore) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRow(ctx,
		`SELECT value FROM blobs WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying blob %q: %w", key, err)
	}
	return value, nil
}

// Save upserts the blob under key.
//
// Precondition: key must be non-empty; value must be valid JSON (the
// column is jsonb).
// Postcondition: A subsequent Load of key returns value.
func (s *BlobStore) Save(ctx context.Context, key string, value []byte) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO blobs (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upserting blob %q: %w", key, err)
	}
	return nil
}
