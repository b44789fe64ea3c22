package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorbot/parlor/internal/storage"
)

func TestLoadMissingKey(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "k", []byte(`{"a":1}`)))
	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), got)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Save(ctx, "k", []byte(`{"a":2}`)))
	got, err = s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), got)
	assert.Equal(t, 1, s.Len())
}

func TestCopySemantics(t *testing.T) {
	s := New()
	ctx := context.Background()

	in := []byte("original")
	require.NoError(t, s.Save(ctx, "k", in))
	in[0] = 'X'

	got, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), got)

	// mutating the loaded copy does not affect the stored value
	got[0] = 'Y'
	again, err := s.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), again)
}
