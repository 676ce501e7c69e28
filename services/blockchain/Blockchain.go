// Package blockchain is the consensus engine: it links headers into a header
// tree with fork choice by cumulative work, stores block content and applies
// blocks to the unspent output set.
//
// Blockchain is the entry point. It runs at most one mutating operation at a
// time, each in its own store transaction, and publishes the resulting state
// only when that transaction commits. Readers of the state never wait for a
// mutation in flight.
package blockchain

import (
	"context"
	"sync"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/settings"
	blockchain_store "github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/chainstate/util/tracing"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

var tracer = tracing.Tracer("blockchain")

type Blockchain struct {
	logger   ulogger.Logger
	settings *settings.Settings
	engine   *InternalBlockchain
	store    blockchain_store.Store

	// held for the whole of every mutating operation
	mu sync.Mutex

	stateMu sync.RWMutex
	state   *model.BlockchainState
}

// New opens the engine on store and bootstraps the genesis block if needed.
// Block lookups by hash are cached when blockchain_cacheSize is positive.
func New(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, store blockchain_store.Store, opts ...Option) (*Blockchain, error) {
	if tSettings.BlockChain.CacheSize > 0 {
		store = NewCachingBlockchainStorage(logger, store, tSettings.BlockChain.CacheSize, tSettings.BlockChain.CacheTTL())
	}

	b := &Blockchain{
		logger:   logger,
		settings: tSettings,
		engine:   NewInternalBlockchain(logger, tSettings, opts...),
		store:    store,
	}

	err := b.update(ctx, "Init", func(tx blockchain_store.Transaction, _ *model.BlockchainState) (*model.BlockchainState, error) {
		return b.engine.Init(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	state := b.GetState()
	b.logger.Infof("[Blockchain] started on %s: best header %s, best chain %s", tSettings.ChainCfgParams.Name, state.BestHeader(), state.BestChain())

	return b, nil
}

// GetState returns the state as of the last committed operation.
func (b *Blockchain) GetState() *model.BlockchainState {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()

	return b.state
}

func (b *Blockchain) setState(state *model.BlockchainState) {
	b.stateMu.Lock()
	b.state = state
	b.stateMu.Unlock()

	prometheusBlockchainBestHeaderHeight.Set(float64(state.BestHeader().Height()))
	prometheusBlockchainBestChainHeight.Set(float64(state.BestChain().Height()))
}

// update runs fn in a new transaction. The state fn returns is published when
// the transaction commits; on any error the transaction is rolled back and the
// previous state stays.
func (b *Blockchain) update(ctx context.Context, name string, fn func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error)) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.store.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if err == nil {
			return
		}

		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			b.logger.Errorf("[Blockchain] %s: rollback failed: %v", name, rollbackErr)
		}

		prometheusBlockchainRollbacks.Inc()

		if errors.IsProtocolViolation(err) {
			prometheusBlockchainRejected.Inc()
		}

		if errors.IsFatal(err) {
			b.logger.Errorf("[Blockchain] %s rolled back (%s): %v", name, errors.GetErrorCategory(err), err)
		} else {
			b.logger.Warnf("[Blockchain] %s rolled back (%s): %v", name, errors.GetErrorCategory(err), err)
		}

		var chainErr *errors.Error
		if errors.As(err, &chainErr) && chainErr.Data() != nil {
			b.logger.Debugf("[Blockchain] %s error data: %s", name, chainErr.Data().EncodeErrorData())
		}
	}()

	state, err := fn(tx, b.GetState())
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return err
	}

	b.setState(state)

	return nil
}

// read runs fn in a transaction that is committed without writes, so the
// block cache is kept.
func (b *Blockchain) read(ctx context.Context, fn func(tx blockchain_store.Transaction) error) error {
	tx, err := b.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err = fn(tx); err != nil {
		_ = tx.Commit()
		return err
	}

	return tx.Commit()
}

// AddHeaders adds a batch of headers in chain order; see InternalBlockchain.AddHeaders.
func (b *Blockchain) AddHeaders(ctx context.Context, headers []*model.BlockHeader) (blocks []*model.StoredBlock, err error) {
	ctx, _, deferFn := tracer.Start(ctx, "AddHeaders",
		tracing.WithHistogram(prometheusBlockchainAddHeaders),
		tracing.WithDebugLogMessage(b.logger, "[AddHeaders] adding %d headers", len(headers)),
	)
	defer func() { deferFn(err) }()

	err = b.update(ctx, "AddHeaders", func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
		var addErr error

		state, blocks, addErr = b.engine.AddHeaders(ctx, tx, state, headers)

		return state, addErr
	})
	if err != nil {
		return nil, err
	}

	return blocks, nil
}

// AddBlockContent stores the transactions of a block whose header was added.
// It returns nil when the header is unknown.
func (b *Blockchain) AddBlockContent(ctx context.Context, block *model.Block) (stored *model.StoredBlock, err error) {
	ctx, _, deferFn := tracer.Start(ctx, "AddBlockContent",
		tracing.WithDebugLogMessage(b.logger, "[AddBlockContent] block %s", block.Hash()),
	)
	defer func() { deferFn(err) }()

	err = b.update(ctx, "AddBlockContent", func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
		var addErr error

		state, stored, addErr = b.engine.AddBlockContent(ctx, tx, state, block)

		return state, addErr
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

// Include applies the block with hash to the output set as the next best chain block.
func (b *Blockchain) Include(ctx context.Context, hash *chainhash.Hash) (included *model.StoredBlock, err error) {
	ctx, _, deferFn := tracer.Start(ctx, "Include",
		tracing.WithHistogram(prometheusBlockchainInclude),
		tracing.WithDebugLogMessage(b.logger, "[Include] block %s", hash),
	)
	defer func() { deferFn(err) }()

	alreadyIncluded := false

	err = b.update(ctx, "Include", func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
		var includeErr error

		alreadyIncluded = state.BestChain().Hash().IsEqual(hash)

		state, included, includeErr = b.engine.Include(ctx, tx, state, hash)

		return state, includeErr
	})
	if err != nil {
		return nil, err
	}

	if !alreadyIncluded && included.IsInBestBlockChain() {
		prometheusBlockchainBlocksIncluded.Inc()
		b.logger.Infof("[Blockchain] included block %s", included)
	}

	return included, nil
}

// IncludeNext includes best header chain blocks one at a time, each in its own
// transaction, until the next block has no content or max blocks were
// included. A max of zero or less has no limit. The blocks included before an
// error stay included and are returned with it.
func (b *Blockchain) IncludeNext(ctx context.Context, max int) ([]*model.StoredBlock, error) {
	included := make([]*model.StoredBlock, 0)

	for max <= 0 || len(included) < max {
		if err := ctx.Err(); err != nil {
			return included, errors.NewProcessingError("stopped including blocks", err)
		}

		var next *model.StoredBlock

		err := b.read(ctx, func(tx blockchain_store.Transaction) error {
			var findErr error

			next, findErr = b.engine.NextToInclude(ctx, tx, b.GetState())

			return findErr
		})
		if err != nil {
			return included, err
		}

		if next == nil {
			break
		}

		block, err := b.Include(ctx, next.Hash())
		if err != nil {
			return included, err
		}

		included = append(included, block)
	}

	return included, nil
}

// TruncateTo is not supported: the best chain is only ever extended.
func (b *Blockchain) TruncateTo(ctx context.Context, hash *chainhash.Hash) error {
	return b.update(ctx, "TruncateTo", func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
		return b.engine.TruncateTo(ctx, tx, state, hash)
	})
}

// Truncate is not supported: the best chain is only ever extended.
func (b *Blockchain) Truncate(ctx context.Context) error {
	return b.update(ctx, "Truncate", func(tx blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
		return b.engine.Truncate(ctx, tx, state)
	})
}

func (b *Blockchain) FindBlockByHash(ctx context.Context, hash *chainhash.Hash) (block *model.StoredBlock, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		block, err = tx.FindBlockByHash(ctx, hash)
		return err
	})

	return block, err
}

// FindBlockByHeight returns the best header chain block at height, or nil.
func (b *Blockchain) FindBlockByHeight(ctx context.Context, height int32) (block *model.StoredBlock, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		block, err = tx.FindBlockByHeight(ctx, height)
		return err
	})

	return block, err
}

// GetBlockContent returns the stored block, or nil when its content is missing.
func (b *Blockchain) GetBlockContent(ctx context.Context, hash *chainhash.Hash) (block *model.Block, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		content, readErr := tx.GetBlockContent(ctx, hash)
		if readErr != nil || content == nil {
			return readErr
		}

		block, readErr = model.NewBlockFromBytes(content)

		return readErr
	})

	return block, err
}

func (b *Blockchain) GetOldestBlocksWithoutContent(ctx context.Context, max int) (blocks []*model.StoredBlock, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		blocks, err = tx.GetOldestBlocksWithoutContent(ctx, max)
		return err
	})

	return blocks, err
}

func (b *Blockchain) GetBlocksByHeight(ctx context.Context, heights []int32) (blocks []*model.StoredBlock, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		blocks, err = tx.GetBlocksByHeight(ctx, heights)
		return err
	})

	return blocks, err
}

func (b *Blockchain) GetCurrentChainLocator(ctx context.Context) (locator *model.BlockLocator, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		locator, err = tx.GetCurrentChainLocator(ctx)
		return err
	})

	return locator, err
}

func (b *Blockchain) FindUnspentOutputs(ctx context.Context, txHash chainhash.Hash) (outputs []*model.UnspentOutput, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		outputs, err = tx.FindUnspentOutputs(ctx, txHash)
		return err
	})

	return outputs, err
}

// FindSpentOutputs returns the outputs spent by the best chain block at spentHeight.
func (b *Blockchain) FindSpentOutputs(ctx context.Context, spentHeight int32) (outputs []*model.SpentOutput, err error) {
	err = b.read(ctx, func(tx blockchain_store.Transaction) error {
		outputs, err = tx.FindSpentOutputs(ctx, spentHeight)
		return err
	})

	return outputs, err
}

func (b *Blockchain) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.store.Close()
}
