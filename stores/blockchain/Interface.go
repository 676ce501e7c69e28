// Package blockchain defines the durable block store the consensus engine
// runs on. Every read and write goes through a Transaction, so a failed
// validation pass can be rolled back as a whole.
package blockchain

import (
	"context"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	"github.com/bsv-blockchain/chainstate/stores/utxo"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

type Store interface {
	// Begin opens a transaction. Implementations may allow only one open
	// transaction at a time and block until the previous one ends.
	Begin(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction reads see the transaction's own writes. Rollback after Commit
// is a no-op, so callers can always defer it.
type Transaction interface {
	utxo.Store

	// FindBlockByHash returns nil when the block is unknown.
	FindBlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error)
	// FindBlockByHeight returns the block at height on the best header chain, or nil.
	FindBlockByHeight(ctx context.Context, height int32) (*model.StoredBlock, error)
	// FindFirst returns the highest block matching opts, or nil.
	FindFirst(ctx context.Context, opts ...options.FindOption) (*model.StoredBlock, error)
	// Find returns up to limit blocks matching opts, highest first.
	Find(ctx context.Context, limit int, opts ...options.FindOption) ([]*model.StoredBlock, error)
	// FindSubchain returns up to length blocks ending at hash, oldest first,
	// or nil when hash is unknown.
	FindSubchain(ctx context.Context, hash *chainhash.Hash, length int) (*model.Subchain, error)
	AddBlock(ctx context.Context, block *model.StoredBlock) error
	UpdateBlock(ctx context.Context, block *model.StoredBlock) error
	// AddBlockContent stores the serialized block and marks it as having content.
	AddBlockContent(ctx context.Context, hash *chainhash.Hash, content []byte) (*model.StoredBlock, error)
	// GetBlockContent returns nil when no content is stored.
	GetBlockContent(ctx context.Context, hash *chainhash.Hash) ([]byte, error)
	// GetOldestBlocksWithoutContent returns best header chain blocks still
	// missing their content, lowest first.
	GetOldestBlocksWithoutContent(ctx context.Context, limit int) ([]*model.StoredBlock, error)
	// GetBlocksByHeight returns the best header chain blocks at heights,
	// skipping heights the chain does not reach.
	GetBlocksByHeight(ctx context.Context, heights []int32) ([]*model.StoredBlock, error)
	GetCurrentChainLocator(ctx context.Context) (*model.BlockLocator, error)

	Commit() error
	Rollback() error
	// OnCommit registers fn to run after a successful commit.
	OnCommit(fn func())
	// OnRollback registers fn to run after a rollback.
	OnRollback(fn func())
}
