package blockchain

import (
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/jellydator/ttlcache/v3"
)

// GenerationalCache wraps ttlcache with generation based invalidation, so a
// lookup that started before an invalidation cannot put its stale result back.
//
// Without the generation:
// 1. reader: cache miss, starts a store query
// 2. writer: commits a new version of the block and publishes it
// 3. reader: completes the query with the old version
// 4. reader: caches the old version over the new one
//
// Begin captures the generation, Publish and DeleteAll increment it and
// CacheOperation.Set only writes if the generation is unchanged.
type GenerationalCache struct {
	ttlCache   *ttlcache.Cache[chainhash.Hash, *model.StoredBlock]
	generation atomic.Uint64
	stopped    atomic.Bool
}

// NewGenerationalCache creates a cache holding at most capacity blocks, each
// for ttl. A ttl of zero keeps blocks until they are evicted for capacity.
func NewGenerationalCache(capacity uint64, ttl time.Duration) *GenerationalCache {
	gc := &GenerationalCache{
		ttlCache: ttlcache.New[chainhash.Hash, *model.StoredBlock](
			ttlcache.WithTTL[chainhash.Hash, *model.StoredBlock](ttl),
			ttlcache.WithCapacity[chainhash.Hash, *model.StoredBlock](capacity),
			ttlcache.WithDisableTouchOnHit[chainhash.Hash, *model.StoredBlock](),
		),
	}

	go gc.ttlCache.Start()

	return gc
}

// Begin starts a Get→query→Set operation for key.
func (gc *GenerationalCache) Begin(key chainhash.Hash) *CacheOperation {
	return &CacheOperation{
		generationalCache: gc,
		key:               key,
		generation:        gc.generation.Load(),
	}
}

// Publish stores committed blocks and invalidates operations still in flight.
func (gc *GenerationalCache) Publish(blocks []*model.StoredBlock) {
	gc.generation.Add(1)

	for _, block := range blocks {
		gc.ttlCache.Set(*block.Hash(), block, ttlcache.DefaultTTL)
	}
}

// DeleteAll clears all cached entries and increments the generation.
func (gc *GenerationalCache) DeleteAll() {
	gc.ttlCache.DeleteAll()
	gc.generation.Add(1)
}

func (gc *GenerationalCache) Len() int {
	return gc.ttlCache.Len()
}

// Stop halts automatic cleanup. It is safe to call Stop multiple times.
func (gc *GenerationalCache) Stop() {
	if gc.stopped.CompareAndSwap(false, true) {
		gc.ttlCache.Stop()
	}
}

// CacheOperation is a lookup scoped to the generation it started in.
type CacheOperation struct {
	generationalCache *GenerationalCache
	key               chainhash.Hash
	generation        uint64
}

// Get returns the cached block, or nil on a miss.
func (co *CacheOperation) Get() *model.StoredBlock {
	item := co.generationalCache.ttlCache.Get(co.key)
	if item == nil {
		return nil
	}

	return item.Value()
}

// Set caches value unless the cache was invalidated since Begin. It reports
// whether the value was cached.
func (co *CacheOperation) Set(value *model.StoredBlock) bool {
	if co.generation == co.generationalCache.generation.Load() {
		co.generationalCache.ttlCache.Set(co.key, value, ttlcache.DefaultTTL)
		return true
	}

	return false
}
