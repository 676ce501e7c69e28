package blockchain

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/script"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/memory"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/require"
)

const (
	regtestBits  = 0x207fffff
	regtestBlock = 600
	subsidy      = 5_000_000_000
)

// testSettings uses a copy of the regtest parameters, so a test can change them.
func testSettings() *settings.Settings {
	params := chaincfg.RegressionNetParams

	return &settings.Settings{
		ChainCfgParams: &params,
		BlockChain: settings.BlockChainSettings{
			MaxBlockSize: 1_000_000,
		},
	}
}

func newTestBlockchain(t *testing.T, tSettings *settings.Settings, opts ...Option) *Blockchain {
	t.Helper()

	opts = append([]Option{WithVerifyScripts(false)}, opts...)

	b, err := New(context.Background(), ulogger.TestLogger{}, tSettings, memory.New(ulogger.TestLogger{}), opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = b.Close()
	})

	return b
}

func genesisBlock(t *testing.T, tSettings *settings.Settings) *model.Block {
	t.Helper()

	block, err := model.NewBlockFromBytes(tSettings.ChainCfgParams.GenesisBlock)
	require.NoError(t, err)

	return block
}

// coinbase pays value to an OP_1 output. The tag keeps coinbases of different
// blocks apart.
func coinbase(tag uint32, value uint64) *bt.Tx {
	tx := bt.NewTx()

	input := &bt.Input{
		PreviousTxOutIndex: 0xffffffff,
		SequenceNumber:     0xffffffff,
	}
	_ = input.PreviousTxIDAdd(&chainhash.Hash{})

	tagBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(tagBytes, tag)

	unlocking := bscript.Script(append([]byte{0x04}, tagBytes...))
	input.UnlockingScript = &unlocking

	tx.Inputs = append(tx.Inputs, input)

	tx.AddOutput(anyoneCanSpend(value))

	return tx
}

func anyoneCanSpend(value uint64) *bt.Output {
	locking := bscript.Script{script.OP_1}

	return &bt.Output{
		Satoshis:      value,
		LockingScript: &locking,
	}
}

// spend spends output n of prev with an empty signature script into one
// output per value.
func spend(prev *bt.Tx, n uint32, values ...uint64) *bt.Tx {
	tx := bt.NewTx()

	input := &bt.Input{
		PreviousTxOutIndex: n,
		SequenceNumber:     0xffffffff,
		UnlockingScript:    &bscript.Script{},
	}
	_ = input.PreviousTxIDAdd(prev.TxIDChainHash())

	tx.Inputs = append(tx.Inputs, input)

	for _, value := range values {
		tx.AddOutput(anyoneCanSpend(value))
	}

	return tx
}

// mine builds a block on parent with a valid regtest proof of work, ten
// minutes after it.
func mine(parent *model.BlockHeader, txs ...*bt.Tx) *model.Block {
	return mineAt(parent, parent.Timestamp+regtestBlock, txs...)
}

func mineAt(parent *model.BlockHeader, timestamp uint32, txs ...*bt.Tx) *model.Block {
	hashes := make([]*chainhash.Hash, 0, len(txs))
	for _, tx := range txs {
		hashes = append(hashes, tx.TxIDChainHash())
	}

	header := &model.BlockHeader{
		Version:        1,
		HashPrevBlock:  parent.Hash(),
		HashMerkleRoot: model.MerkleRoot(hashes),
		Timestamp:      timestamp,
		Bits:           model.NewNBitFromUint32(regtestBits),
	}

	for {
		if ok, _ := header.HasMetTargetDifficulty(); ok {
			break
		}

		header.Nonce++
	}

	return model.NewBlock(header, txs)
}

// mineChain mines n blocks on parent, each with only a coinbase claiming the full subsidy.
func mineChain(parent *model.BlockHeader, n int, tag uint32) []*model.Block {
	blocks := make([]*model.Block, 0, n)

	for i := 0; i < n; i++ {
		block := mine(parent, coinbase(tag+uint32(i), subsidy))
		blocks = append(blocks, block)
		parent = block.Header
	}

	return blocks
}

func headersOf(blocks ...*model.Block) []*model.BlockHeader {
	headers := make([]*model.BlockHeader, 0, len(blocks))
	for _, block := range blocks {
		headers = append(headers, block.Header)
	}

	return headers
}

// addBlocks adds the headers and content of blocks.
func addBlocks(t *testing.T, b *Blockchain, blocks ...*model.Block) {
	t.Helper()

	ctx := context.Background()

	_, err := b.AddHeaders(ctx, headersOf(blocks...))
	require.NoError(t, err)

	for _, block := range blocks {
		stored, err := b.AddBlockContent(ctx, block)
		require.NoError(t, err)
		require.NotNil(t, stored)
	}
}

// includeBlocks adds blocks and includes them in order.
func includeBlocks(t *testing.T, b *Blockchain, blocks ...*model.Block) {
	t.Helper()

	addBlocks(t, b, blocks...)

	for _, block := range blocks {
		_, err := b.Include(context.Background(), block.Hash())
		require.NoError(t, err)
	}
}
