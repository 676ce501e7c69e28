// Package tests holds the behaviour every blockchain.Store implementation shares.
package tests

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	utxotests "github.com/bsv-blockchain/chainstate/stores/utxo/tests"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const regtestBits = 0x207fffff

// Header returns a header on top of prev. The proof of work is not solved.
func Header(prev *chainhash.Hash, nonce uint32) *model.BlockHeader {
	return &model.BlockHeader{
		Version:        1,
		HashPrevBlock:  prev,
		HashMerkleRoot: &chainhash.Hash{},
		Timestamp:      1296688602 + nonce,
		Bits:           model.NewNBitFromUint32(regtestBits),
		Nonce:          nonce,
	}
}

// Chain returns n linked blocks from height 0, all on the best header chain.
func Chain(n int) []*model.StoredBlock {
	blocks := make([]*model.StoredBlock, 0, n)

	genesis := model.NewStoredBlock(Header(&chainhash.Hash{}, 0))
	genesis = genesis.Builder().
		SetHeight(0).
		SetTotalWork(genesis.Header().Bits.CalculateWork()).
		SetInBestHeaderChain(true).
		Build()

	blocks = append(blocks, genesis)

	for i := 1; i < n; i++ {
		parent := blocks[i-1]
		block := model.NewStoredBlock(Header(parent.Hash(), uint32(i))).Link(parent)
		blocks = append(blocks, block.Builder().SetInBestHeaderChain(true).Build())
	}

	return blocks
}

func begin(t *testing.T, store blockchain.Store) blockchain.Transaction {
	t.Helper()

	tx, err := store.Begin(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	return tx
}

func addAll(t *testing.T, tx blockchain.Transaction, blocks []*model.StoredBlock) {
	t.Helper()

	for _, block := range blocks {
		require.NoError(t, tx.AddBlock(context.Background(), block))
	}
}

func AddAndFind(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(5)

	tx := begin(t, store)
	addAll(t, tx, chain)

	for _, expected := range chain {
		block, err := tx.FindBlockByHash(ctx, expected.Hash())
		require.NoError(t, err)
		require.NotNil(t, block)

		assert.Equal(t, expected.Hash(), block.Hash())
		assert.Equal(t, expected.Height(), block.Height())
		assert.Equal(t, 0, expected.TotalWork().Cmp(block.TotalWork()))
		assert.True(t, block.IsInBestHeaderChain())
		assert.False(t, block.IsInBestBlockChain())
		assert.False(t, block.HasContent())

		block, err = tx.FindBlockByHeight(ctx, expected.Height())
		require.NoError(t, err)
		require.NotNil(t, block)
		assert.Equal(t, expected.Hash(), block.Hash())
	}

	unknown := chainhash.HashH([]byte("unknown"))

	block, err := tx.FindBlockByHash(ctx, &unknown)
	require.NoError(t, err)
	assert.Nil(t, block)

	block, err = tx.FindBlockByHeight(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, block)

	err = tx.AddBlock(ctx, chain[2])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBlockExists))

	orphan := model.NewStoredBlock(Header(&unknown, 77))

	err = tx.UpdateBlock(ctx, orphan)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBlockNotFound))

	// unlinked blocks keep the unknown height
	require.NoError(t, tx.AddBlock(ctx, orphan))

	block, err = tx.FindBlockByHash(ctx, orphan.Hash())
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.False(t, block.IsLinked())

	require.NoError(t, tx.Commit())
}

func Find(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(4)

	// a competing block at height 2, not on the best header chain
	fork := model.NewStoredBlock(Header(chain[1].Hash(), 100)).Link(chain[1])

	tx := begin(t, store)
	addAll(t, tx, chain)
	require.NoError(t, tx.AddBlock(ctx, fork))

	tip, err := tx.FindFirst(ctx, options.InBestHeaderChain())
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.Equal(t, chain[3].Hash(), tip.Hash())

	best, err := tx.FindFirst(ctx, options.InBestBlockChain())
	require.NoError(t, err)
	assert.Nil(t, best)

	all, err := tx.Find(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, int32(3), all[0].Height())
	assert.Equal(t, int32(0), all[4].Height())

	limited, err := tx.Find(ctx, 2, options.InBestHeaderChain())
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, chain[3].Hash(), limited[0].Hash())
	assert.Equal(t, chain[2].Hash(), limited[1].Hash())

	applied := chain[0].Builder().SetInBestBlockChain(true).Build()
	require.NoError(t, tx.UpdateBlock(ctx, applied))

	best, err = tx.FindFirst(ctx, options.InBestBlockChain())
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, chain[0].Hash(), best.Hash())

	withoutContent, err := tx.Find(ctx, 0, options.WithContent(false), options.InBestHeaderChain())
	require.NoError(t, err)
	assert.Len(t, withoutContent, 4)

	require.NoError(t, tx.Commit())
}

func Subchain(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(6)

	tx := begin(t, store)
	addAll(t, tx, chain)

	subchain, err := tx.FindSubchain(ctx, chain[4].Hash(), 3)
	require.NoError(t, err)
	require.NotNil(t, subchain)
	require.Equal(t, 3, subchain.Len())
	assert.Equal(t, chain[2].Hash(), subchain.Oldest().Hash())
	assert.Equal(t, chain[4].Hash(), subchain.Tip().Hash())

	subchain, err = tx.FindSubchain(ctx, chain[5].Hash(), 100)
	require.NoError(t, err)
	require.NotNil(t, subchain)
	assert.Equal(t, 6, subchain.Len())
	assert.Equal(t, chain[0].Hash(), subchain.Oldest().Hash())

	unknown := chainhash.HashH([]byte("unknown"))

	subchain, err = tx.FindSubchain(ctx, &unknown, 10)
	require.NoError(t, err)
	assert.Nil(t, subchain)

	require.NoError(t, tx.Commit())
}

func Content(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(4)

	tx := begin(t, store)
	addAll(t, tx, chain)

	oldest, err := tx.GetOldestBlocksWithoutContent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, oldest, 2)
	assert.Equal(t, chain[0].Hash(), oldest[0].Hash())
	assert.Equal(t, chain[1].Hash(), oldest[1].Hash())

	content, err := tx.GetBlockContent(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Nil(t, content)

	updated, err := tx.AddBlockContent(ctx, chain[1].Hash(), []byte{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, updated.HasContent())

	content, err = tx.GetBlockContent(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, content)

	stored, err := tx.FindBlockByHash(ctx, chain[1].Hash())
	require.NoError(t, err)
	assert.True(t, stored.HasContent())

	oldest, err = tx.GetOldestBlocksWithoutContent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, oldest, 3)
	assert.Equal(t, chain[0].Hash(), oldest[0].Hash())
	assert.Equal(t, chain[2].Hash(), oldest[1].Hash())

	unknown := chainhash.HashH([]byte("unknown"))

	_, err = tx.AddBlockContent(ctx, &unknown, []byte{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBlockNotFound))

	require.NoError(t, tx.Commit())
}

func Locator(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(20)

	tx := begin(t, store)

	locator, err := tx.GetCurrentChainLocator(ctx)
	require.NoError(t, err)
	assert.Empty(t, locator.Hashes)

	addAll(t, tx, chain)

	blocks, err := tx.GetBlocksByHeight(ctx, []int32{19, 5, 42, 0})
	require.NoError(t, err)
	require.Len(t, blocks, 3)
	assert.Equal(t, chain[19].Hash(), blocks[0].Hash())
	assert.Equal(t, chain[5].Hash(), blocks[1].Hash())
	assert.Equal(t, chain[0].Hash(), blocks[2].Hash())

	locator, err = tx.GetCurrentChainLocator(ctx)
	require.NoError(t, err)

	heights := model.LocatorHeights(19)
	require.Len(t, locator.Hashes, len(heights))

	for i, height := range heights {
		assert.Equal(t, chain[height].Hash(), locator.Hashes[i])
	}

	require.NoError(t, tx.Commit())
}

// Reorg flips best header chain membership and checks that height lookups follow it.
func Reorg(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(3)

	fork := model.NewStoredBlock(Header(chain[1].Hash(), 100)).Link(chain[1])

	tx := begin(t, store)
	addAll(t, tx, chain)
	require.NoError(t, tx.AddBlock(ctx, fork))

	require.NoError(t, tx.UpdateBlock(ctx, fork.Builder().SetInBestHeaderChain(true).Build()))
	require.NoError(t, tx.UpdateBlock(ctx, chain[2].Builder().SetInBestHeaderChain(false).Build()))

	block, err := tx.FindBlockByHeight(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, fork.Hash(), block.Hash())

	require.NoError(t, tx.UpdateBlock(ctx, fork.Builder().SetInBestHeaderChain(false).Build()))

	block, err = tx.FindBlockByHeight(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, block)

	require.NoError(t, tx.Commit())
}

func CommitAndRollback(t *testing.T, store blockchain.Store) {
	ctx := context.Background()
	chain := Chain(3)

	var committed, rolledBack int

	tx := begin(t, store)
	tx.OnCommit(func() { committed++ })
	tx.OnRollback(func() { rolledBack++ })
	addAll(t, tx, chain[:2])
	require.NoError(t, tx.AddUnspentOutput(ctx, utxotests.Output(utxotests.TxHash1, 0, 100)))
	require.NoError(t, tx.Commit())

	assert.Equal(t, 1, committed)
	assert.Equal(t, 0, rolledBack)

	// rollback after commit is a no-op
	require.NoError(t, tx.Rollback())
	assert.Equal(t, 0, rolledBack)

	tx = begin(t, store)
	tx.OnRollback(func() { rolledBack++ })
	require.NoError(t, tx.AddBlock(ctx, chain[2]))
	require.NoError(t, tx.UpdateBlock(ctx, chain[1].Builder().SetInBestBlockChain(true).Build()))
	_, err := tx.AddBlockContent(ctx, chain[0].Hash(), []byte{9})
	require.NoError(t, err)
	require.NoError(t, tx.RemoveUnspentOutput(ctx, utxotests.TxHash1, 0))
	require.NoError(t, tx.AddUnspentOutput(ctx, utxotests.Output(utxotests.TxHash2, 0, 200)))
	require.NoError(t, tx.AddSpentOutput(ctx, model.NewSpentOutput(utxotests.Output(utxotests.TxHash1, 0, 100), 2)))
	require.NoError(t, tx.Rollback())

	assert.Equal(t, 1, rolledBack)

	tx = begin(t, store)

	block, err := tx.FindBlockByHash(ctx, chain[2].Hash())
	require.NoError(t, err)
	assert.Nil(t, block)

	block, err = tx.FindBlockByHeight(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, block)

	block, err = tx.FindBlockByHash(ctx, chain[1].Hash())
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.False(t, block.IsInBestBlockChain())

	block, err = tx.FindBlockByHash(ctx, chain[0].Hash())
	require.NoError(t, err)
	assert.False(t, block.HasContent())

	content, err := tx.GetBlockContent(ctx, chain[0].Hash())
	require.NoError(t, err)
	assert.Nil(t, content)

	outputs, err := tx.FindUnspentOutputs(ctx, utxotests.TxHash1)
	require.NoError(t, err)
	assert.Len(t, outputs, 1)

	outputs, err = tx.FindUnspentOutputs(ctx, utxotests.TxHash2)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	spent, err := tx.FindSpentOutputs(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, spent)

	require.NoError(t, tx.Commit())
}

// Outputs runs the output table behaviour inside one committed transaction.
func Outputs(t *testing.T, store blockchain.Store) {
	tx := begin(t, store)
	utxotests.AddAndFind(t, tx)
	require.NoError(t, tx.Commit())
}

// All runs every shared test, each against a fresh store from newStore.
func All(t *testing.T, newStore func(t *testing.T) blockchain.Store) {
	for name, fn := range map[string]func(*testing.T, blockchain.Store){
		"add and find":        AddAndFind,
		"find":                Find,
		"subchain":            Subchain,
		"content":             Content,
		"locator":             Locator,
		"reorg":               Reorg,
		"commit and rollback": CommitAndRollback,
		"outputs":             Outputs,
	} {
		t.Run(name, func(t *testing.T) {
			fn(t, newStore(t))
		})
	}
}
