package blockstore

import (
	"context"
	"testing"

	"coinbridge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	block := domain.BlockIdentifier{Index: 12, Hash: "0xhead", EndVersion: 1000}
	require.NoError(t, store.SaveBlock(ctx, block))

	byIndex, ok, err := store.BlockByIndex(ctx, 12)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, block, byIndex)

	byHash, ok, err := store.BlockByHash(ctx, "0xhead")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, block, byHash)
}

func TestStoreMissingBlock(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, ok, err := store.BlockByIndex(ctx, 99)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.BlockByHash(ctx, "0xmissing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreSaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	block := domain.BlockIdentifier{Index: 5, Hash: "0x555", EndVersion: 550}
	require.NoError(t, store.SaveBlock(ctx, block))

	// A concurrent resolver may save the same block again; the first row wins.
	rewrite := block
	rewrite.Hash = "0xother"
	require.NoError(t, store.SaveBlock(ctx, rewrite))

	loaded, ok, err := store.BlockByIndex(ctx, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0x555", loaded.Hash)
}

func TestNewStoreValidatesConfig(t *testing.T) {
	_, err := NewStore(Config{Driver: "sqlite"})
	assert.Error(t, err)

	_, err = NewStore(Config{Driver: "postgres", DSN: "x"})
	assert.Error(t, err)
}
