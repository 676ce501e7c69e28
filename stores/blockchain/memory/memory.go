// Package memory is an in-process blockchain.Store. Only one transaction is
// open at a time; a transaction writes straight into the maps and keeps an
// undo journal that Rollback replays.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	utxomemory "github.com/bsv-blockchain/chainstate/stores/utxo/memory"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

const initialCapacity = 1024

type Memory struct {
	logger ulogger.Logger

	// held from Begin until Commit or Rollback
	txMu sync.Mutex

	blocks      *swiss.Map[chainhash.Hash, *model.StoredBlock]
	contents    *swiss.Map[chainhash.Hash, []byte]
	bestHeaders map[int32]chainhash.Hash
	utxos       *utxomemory.Memory
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger:      logger,
		blocks:      swiss.NewMap[chainhash.Hash, *model.StoredBlock](initialCapacity),
		contents:    swiss.NewMap[chainhash.Hash, []byte](initialCapacity),
		bestHeaders: make(map[int32]chainhash.Hash, initialCapacity),
		utxos:       utxomemory.New(logger),
	}
}

func (m *Memory) Begin(ctx context.Context) (blockchain.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewProcessingError("could not begin transaction", err)
	}

	m.txMu.Lock()

	return &transaction{store: m}, nil
}

func (m *Memory) Close() error {
	return nil
}

type transaction struct {
	store *Memory
	done  bool

	undo       []func()
	onCommit   []func()
	onRollback []func()
}

func (tx *transaction) check() error {
	if tx.done {
		return errors.NewStorageError("transaction already finished")
	}

	return nil
}

func (tx *transaction) Commit() error {
	if err := tx.check(); err != nil {
		return err
	}

	tx.done = true
	tx.undo = nil
	tx.store.txMu.Unlock()

	for _, fn := range tx.onCommit {
		fn()
	}

	return nil
}

func (tx *transaction) Rollback() error {
	if tx.done {
		return nil
	}

	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}

	tx.done = true
	tx.undo = nil
	tx.store.txMu.Unlock()

	for _, fn := range tx.onRollback {
		fn()
	}

	return nil
}

func (tx *transaction) OnCommit(fn func()) {
	tx.onCommit = append(tx.onCommit, fn)
}

func (tx *transaction) OnRollback(fn func()) {
	tx.onRollback = append(tx.onRollback, fn)
}

func (tx *transaction) FindBlockByHash(_ context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	block, _ := tx.store.blocks.Get(*hash)

	return block, nil
}

func (tx *transaction) FindBlockByHeight(_ context.Context, height int32) (*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	return tx.bestHeaderAt(height), nil
}

func (tx *transaction) bestHeaderAt(height int32) *model.StoredBlock {
	hash, ok := tx.store.bestHeaders[height]
	if !ok {
		return nil
	}

	block, _ := tx.store.blocks.Get(hash)

	return block
}

func (tx *transaction) FindFirst(ctx context.Context, opts ...options.FindOption) (*model.StoredBlock, error) {
	blocks, err := tx.Find(ctx, 1, opts...)
	if err != nil || len(blocks) == 0 {
		return nil, err
	}

	return blocks[0], nil
}

func (tx *transaction) Find(_ context.Context, limit int, opts ...options.FindOption) ([]*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	o := options.ProcessFindOptions(opts...)

	matches := make([]*model.StoredBlock, 0)

	tx.store.blocks.Iter(func(_ chainhash.Hash, block *model.StoredBlock) bool {
		if o.Matches(block.IsInBestHeaderChain(), block.IsInBestBlockChain(), block.HasContent()) {
			matches = append(matches, block)
		}

		return false
	})

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Height() != matches[j].Height() {
			return matches[i].Height() > matches[j].Height()
		}

		return bytes.Compare(matches[i].Hash()[:], matches[j].Hash()[:]) < 0
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (tx *transaction) FindSubchain(_ context.Context, hash *chainhash.Hash, length int) (*model.Subchain, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	block, ok := tx.store.blocks.Get(*hash)
	if !ok {
		return nil, nil
	}

	reversed := make([]*model.StoredBlock, 0, length)

	for block != nil && len(reversed) < length {
		reversed = append(reversed, block)
		block, _ = tx.store.blocks.Get(*block.PrevHash())
	}

	blocks := make([]*model.StoredBlock, len(reversed))
	for i, b := range reversed {
		blocks[len(reversed)-1-i] = b
	}

	return model.NewSubchain(blocks)
}

func (tx *transaction) AddBlock(_ context.Context, block *model.StoredBlock) error {
	if err := tx.check(); err != nil {
		return err
	}

	hash := *block.Hash()

	if tx.store.blocks.Has(hash) {
		return errors.NewBlockExistsError("block %s already stored", block.Hash())
	}

	tx.store.blocks.Put(hash, block)
	tx.undo = append(tx.undo, func() { tx.store.blocks.Delete(hash) })

	tx.index(nil, block)

	return nil
}

func (tx *transaction) UpdateBlock(_ context.Context, block *model.StoredBlock) error {
	if err := tx.check(); err != nil {
		return err
	}

	hash := *block.Hash()

	old, ok := tx.store.blocks.Get(hash)
	if !ok {
		return errors.NewBlockNotFoundError("block %s not stored", block.Hash())
	}

	tx.store.blocks.Put(hash, block)
	tx.undo = append(tx.undo, func() { tx.store.blocks.Put(hash, old) })

	tx.index(old, block)

	return nil
}

// index moves the best header chain height index from old to updated.
func (tx *transaction) index(old, updated *model.StoredBlock) {
	hash := *updated.Hash()

	if old != nil && old.IsInBestHeaderChain() {
		if current, ok := tx.store.bestHeaders[old.Height()]; ok && current == hash {
			tx.setBestHeader(old.Height(), nil)
		}
	}

	if updated.IsInBestHeaderChain() {
		tx.setBestHeader(updated.Height(), &hash)
	}
}

func (tx *transaction) setBestHeader(height int32, hash *chainhash.Hash) {
	previous, existed := tx.store.bestHeaders[height]

	if hash == nil {
		delete(tx.store.bestHeaders, height)
	} else {
		tx.store.bestHeaders[height] = *hash
	}

	tx.undo = append(tx.undo, func() {
		if existed {
			tx.store.bestHeaders[height] = previous
		} else {
			delete(tx.store.bestHeaders, height)
		}
	})
}

func (tx *transaction) AddBlockContent(ctx context.Context, hash *chainhash.Hash, content []byte) (*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	block, ok := tx.store.blocks.Get(*hash)
	if !ok {
		return nil, errors.NewBlockNotFoundError("block %s not stored", hash)
	}

	key := *hash
	previous, hadContent := tx.store.contents.Get(key)

	c := make([]byte, len(content))
	copy(c, content)
	tx.store.contents.Put(key, c)

	tx.undo = append(tx.undo, func() {
		if hadContent {
			tx.store.contents.Put(key, previous)
		} else {
			tx.store.contents.Delete(key)
		}
	})

	if block.HasContent() {
		return block, nil
	}

	updated := block.Builder().SetHasContent(true).Build()

	if err := tx.UpdateBlock(ctx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

func (tx *transaction) GetBlockContent(_ context.Context, hash *chainhash.Hash) ([]byte, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	content, ok := tx.store.contents.Get(*hash)
	if !ok {
		return nil, nil
	}

	c := make([]byte, len(content))
	copy(c, content)

	return c, nil
}

func (tx *transaction) GetOldestBlocksWithoutContent(_ context.Context, limit int) ([]*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	heights := make([]int32, 0, len(tx.store.bestHeaders))
	for height := range tx.store.bestHeaders {
		heights = append(heights, height)
	}

	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	blocks := make([]*model.StoredBlock, 0, limit)

	for _, height := range heights {
		if limit > 0 && len(blocks) >= limit {
			break
		}

		if block := tx.bestHeaderAt(height); block != nil && !block.HasContent() {
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

func (tx *transaction) GetBlocksByHeight(_ context.Context, heights []int32) ([]*model.StoredBlock, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	blocks := make([]*model.StoredBlock, 0, len(heights))

	for _, height := range heights {
		if block := tx.bestHeaderAt(height); block != nil {
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

func (tx *transaction) GetCurrentChainLocator(ctx context.Context) (*model.BlockLocator, error) {
	return blockchain.ChainLocator(ctx, tx)
}

func (tx *transaction) FindUnspentOutputs(ctx context.Context, txHash chainhash.Hash) ([]*model.UnspentOutput, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	return tx.store.utxos.FindUnspentOutputs(ctx, txHash)
}

func (tx *transaction) AddUnspentOutput(ctx context.Context, output *model.UnspentOutput) error {
	if err := tx.check(); err != nil {
		return err
	}

	if err := tx.store.utxos.AddUnspentOutput(ctx, output); err != nil {
		return err
	}

	txHash, n := output.TransactionHash, output.OutputNumber
	tx.undo = append(tx.undo, func() {
		_ = tx.store.utxos.RemoveUnspentOutput(ctx, txHash, n)
	})

	return nil
}

func (tx *transaction) RemoveUnspentOutput(ctx context.Context, txHash chainhash.Hash, n uint32) error {
	if err := tx.check(); err != nil {
		return err
	}

	removed, err := tx.store.utxos.TakeUnspentOutput(ctx, txHash, n)
	if err != nil {
		return err
	}

	tx.undo = append(tx.undo, func() {
		_ = tx.store.utxos.AddUnspentOutput(ctx, removed)
	})

	return nil
}

func (tx *transaction) AddSpentOutput(ctx context.Context, output *model.SpentOutput) error {
	if err := tx.check(); err != nil {
		return err
	}

	if err := tx.store.utxos.AddSpentOutput(ctx, output); err != nil {
		return err
	}

	o := *output
	tx.undo = append(tx.undo, func() {
		tx.store.utxos.RemoveSpentOutput(ctx, &o)
	})

	return nil
}

func (tx *transaction) FindSpentOutputs(ctx context.Context, spentHeight int32) ([]*model.SpentOutput, error) {
	if err := tx.check(); err != nil {
		return nil, err
	}

	return tx.store.utxos.FindSpentOutputs(ctx, spentHeight)
}
