package blockchain

import (
	"context"
	"testing"
	"time"

	blockchain_store "github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/memory"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/tests"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCachingStorage(t *testing.T) *CachingBlockchainStorage {
	t.Helper()

	store := NewCachingBlockchainStorage(ulogger.TestLogger{}, memory.New(ulogger.TestLogger{}), 100, time.Minute)

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestCachingBlockchainStorage(t *testing.T) {
	tests.All(t, func(t *testing.T) blockchain_store.Store {
		return newCachingStorage(t)
	})
}

func TestCachingBlockchainStorage_PublishOnCommit(t *testing.T) {
	ctx := context.Background()
	store := newCachingStorage(t)
	chain := tests.Chain(2)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.AddBlock(ctx, chain[0]))
	require.NoError(t, tx.AddBlock(ctx, chain[1]))

	// staged blocks are visible inside the transaction only
	found, err := tx.FindBlockByHash(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.True(t, chain[1].Equal(found))
	assert.Equal(t, 0, store.cache.Len())

	require.NoError(t, tx.Commit())
	assert.Equal(t, 2, store.cache.Len())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)

	found, err = tx.FindBlockByHash(ctx, chain[0].Hash())
	require.NoError(t, err)
	assert.True(t, chain[0].Equal(found))

	require.NoError(t, tx.Commit())
}

func TestCachingBlockchainStorage_RollbackResetsCache(t *testing.T) {
	ctx := context.Background()
	store := newCachingStorage(t)
	chain := tests.Chain(2)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AddBlock(ctx, chain[0]))
	require.NoError(t, tx.Commit())
	require.Equal(t, 1, store.cache.Len())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)

	updated := chain[0].Builder().SetHasContent(true).Build()
	require.NoError(t, tx.UpdateBlock(ctx, updated))
	require.NoError(t, tx.AddBlock(ctx, chain[1]))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 0, store.cache.Len())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)

	defer func() {
		_ = tx.Rollback()
	}()

	found, err := tx.FindBlockByHash(ctx, chain[0].Hash())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.False(t, found.HasContent())

	found, err = tx.FindBlockByHash(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestCachingBlockchainStorage_ContentUpdatesCache(t *testing.T) {
	ctx := context.Background()
	store := newCachingStorage(t)
	chain := tests.Chain(1)

	tx, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AddBlock(ctx, chain[0]))
	require.NoError(t, tx.Commit())

	tx, err = store.Begin(ctx)
	require.NoError(t, err)

	stored, err := tx.AddBlockContent(ctx, chain[0].Hash(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, stored.HasContent())
	require.NoError(t, tx.Commit())

	cached := store.cache.Begin(*chain[0].Hash()).Get()
	require.NotNil(t, cached)
	assert.True(t, cached.HasContent())
}
