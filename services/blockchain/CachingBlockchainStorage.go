package blockchain

import (
	"context"
	"time"

	"github.com/bsv-blockchain/chainstate/model"
	blockchain_store "github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// CachingBlockchainStorage is a blockchain store that caches block lookups by
// hash. Blocks written in a transaction only reach the cache when it commits,
// and a rollback empties the cache so the next transaction reads fresh state.
type CachingBlockchainStorage struct {
	logger ulogger.Logger
	store  blockchain_store.Store
	cache  *GenerationalCache
}

func NewCachingBlockchainStorage(logger ulogger.Logger, store blockchain_store.Store, capacity int, ttl time.Duration) *CachingBlockchainStorage {
	if capacity < 0 {
		capacity = 0
	}

	return &CachingBlockchainStorage{
		logger: logger,
		store:  store,
		cache:  NewGenerationalCache(uint64(capacity), ttl),
	}
}

func (c *CachingBlockchainStorage) Begin(ctx context.Context) (blockchain_store.Transaction, error) {
	tx, err := c.store.Begin(ctx)
	if err != nil {
		return nil, err
	}

	cached := &cachingTransaction{
		Transaction: tx,
		cache:       c.cache,
		pending:     make(map[chainhash.Hash]*model.StoredBlock),
	}

	tx.OnCommit(cached.publish)
	tx.OnRollback(func() {
		c.logger.Debugf("[CachingBlockchainStorage] transaction rolled back, resetting %d cached blocks", c.cache.Len())
		c.cache.DeleteAll()
	})

	return cached, nil
}

func (c *CachingBlockchainStorage) Close() error {
	c.cache.Stop()
	return c.store.Close()
}

type cachingTransaction struct {
	blockchain_store.Transaction
	cache *GenerationalCache
	// blocks written by this transaction, published to the cache on commit
	pending map[chainhash.Hash]*model.StoredBlock
}

func (t *cachingTransaction) FindBlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	if block, ok := t.pending[*hash]; ok {
		return block, nil
	}

	op := t.cache.Begin(*hash)
	if block := op.Get(); block != nil {
		return block, nil
	}

	block, err := t.Transaction.FindBlockByHash(ctx, hash)
	if err != nil || block == nil {
		return block, err
	}

	op.Set(block)

	return block, nil
}

func (t *cachingTransaction) AddBlock(ctx context.Context, block *model.StoredBlock) error {
	if err := t.Transaction.AddBlock(ctx, block); err != nil {
		return err
	}

	t.pending[*block.Hash()] = block

	return nil
}

func (t *cachingTransaction) UpdateBlock(ctx context.Context, block *model.StoredBlock) error {
	if err := t.Transaction.UpdateBlock(ctx, block); err != nil {
		return err
	}

	t.pending[*block.Hash()] = block

	return nil
}

func (t *cachingTransaction) AddBlockContent(ctx context.Context, hash *chainhash.Hash, content []byte) (*model.StoredBlock, error) {
	block, err := t.Transaction.AddBlockContent(ctx, hash, content)
	if err != nil {
		return nil, err
	}

	t.pending[*hash] = block

	return block, nil
}

func (t *cachingTransaction) publish() {
	if len(t.pending) == 0 {
		return
	}

	blocks := make([]*model.StoredBlock, 0, len(t.pending))
	for _, block := range t.pending {
		blocks = append(blocks, block)
	}

	t.cache.Publish(blocks)
	t.pending = nil
}
