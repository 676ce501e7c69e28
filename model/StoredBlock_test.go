package model

import (
	"math/big"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader(prev *chainhash.Hash, timestamp uint32, nonce uint32) *BlockHeader {
	return &BlockHeader{
		Version:        1,
		HashPrevBlock:  prev,
		HashMerkleRoot: &chainhash.Hash{},
		Timestamp:      timestamp,
		Bits:           NewNBitFromUint32(0x207fffff),
		Nonce:          nonce,
	}
}

func testChain(t *testing.T, length int) []*StoredBlock {
	t.Helper()

	genesis := NewStoredBlock(testHeader(&chainhash.Hash{}, 1000, 0)).Builder().
		SetHeight(0).SetTotalWork(big.NewInt(2)).Build()

	blocks := []*StoredBlock{genesis}
	for i := 1; i < length; i++ {
		prev := blocks[i-1]
		//nolint:gosec // test values
		b := NewStoredBlock(testHeader(prev.Hash(), 1000+uint32(i)*600, uint32(i))).Link(prev)
		blocks = append(blocks, b)
	}

	return blocks
}

func TestStoredBlockLink(t *testing.T) {
	chain := testChain(t, 3)

	assert.Equal(t, int32(2), chain[2].Height())
	assert.Equal(t, "6", chain[2].TotalWork().String())
	assert.True(t, chain[2].IsLinked())

	unlinked := NewStoredBlock(testHeader(chain[2].Hash(), 9999, 9))
	assert.False(t, unlinked.IsLinked())
	assert.Equal(t, UnknownHeight, unlinked.Height())
}

func TestStoredBlockImmutable(t *testing.T) {
	chain := testChain(t, 2)
	original := chain[1]

	updated := original.Builder().SetHasContent(true).SetInBestHeaderChain(true).SetInBestBlockChain(true).Build()

	assert.False(t, original.HasContent())
	assert.False(t, original.IsInBestHeaderChain())
	assert.True(t, updated.HasContent())
	assert.True(t, updated.IsInBestHeaderChain())
	assert.True(t, updated.IsInBestBlockChain())
	assert.True(t, original.Equal(updated))

	work := original.TotalWork()
	work.SetInt64(1000)
	assert.Equal(t, "4", original.TotalWork().String())
}

func TestHasMoreWorkThan(t *testing.T) {
	chain := testChain(t, 2)
	parent := chain[0]

	early := NewStoredBlock(testHeader(parent.Hash(), 5000, 1)).Link(parent)
	late := NewStoredBlock(testHeader(parent.Hash(), 6000, 2)).Link(parent)

	require.Equal(t, 0, early.TotalWork().Cmp(late.TotalWork()))
	assert.True(t, early.HasMoreWorkThan(late), "equal work, earlier timestamp wins")
	assert.False(t, late.HasMoreWorkThan(early))
	assert.False(t, early.HasMoreWorkThan(early), "a block never beats itself")

	heavier := late.Builder().SetTotalWork(big.NewInt(100)).Build()
	assert.True(t, heavier.HasMoreWorkThan(early))
	assert.True(t, early.HasMoreWorkThan(nil))
}

func TestBlockchainState(t *testing.T) {
	chain := testChain(t, 3)

	state := NewBlockchainState(chain[2], chain[1])
	assert.Equal(t, chain[2], state.BestHeader())
	assert.Equal(t, chain[1], state.BestChain())

	moved := state.SetBestChain(chain[2])
	assert.Equal(t, chain[1], state.BestChain(), "original state is untouched")
	assert.Equal(t, chain[2], moved.BestChain())

	withContent := chain[2].Builder().SetHasContent(true).Build()
	updated := moved.Update(chain[2], withContent)
	assert.True(t, updated.BestHeader().HasContent())
	assert.True(t, updated.BestChain().HasContent())

	assert.Same(t, state, state.Update(chain[0], chain[0]), "no tip matches")

	header := state.SetBestHeader(chain[0])
	assert.Equal(t, chain[0], header.BestHeader())
	assert.Equal(t, chain[1], header.BestChain())
}
