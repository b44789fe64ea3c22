package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorbot/parlor/internal/storage"
	"github.com/parlorbot/parlor/internal/storage/postgres"
	"github.com/parlorbot/parlor/internal/testutil"
)

func TestBlobStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)

	store := postgres.NewBlobStore(pc.RawPool)
	ctx := context.Background()

	t.Run("load missing key", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		value := []byte(`{"alice@example.org":{"full_name":"Alice","stats":{"games_won":1,"games_lost":0,"games_drawn":0,"total_games":1}}}`)
		require.NoError(t, store.Save(ctx, "parlor:players", value))

		got, err := store.Load(ctx, "parlor:players")
		require.NoError(t, err)
		assert.JSONEq(t, string(value), string(got))
	})

	t.Run("save overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "k", []byte(`{"v":1}`)))
		require.NoError(t, store.Save(ctx, "k", []byte(`{"v":2}`)))

		got, err := store.Load(ctx, "k")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(got))
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "a", []byte(`{"v":"a"}`)))
		require.NoError(t, store.Save(ctx, "b", []byte(`{"v":"b"}`)))

		got, err := store.Load(ctx, "a")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":"a"}`, string(got))
	})
}
