package blockchain

import (
	"context"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// ChainLocator builds the locator of the best header chain from tx's own lookups.
func ChainLocator(ctx context.Context, tx Transaction) (*model.BlockLocator, error) {
	tip, err := tx.FindFirst(ctx, options.InBestHeaderChain())
	if err != nil {
		return nil, err
	}

	if tip == nil {
		return &model.BlockLocator{}, nil
	}

	blocks, err := tx.GetBlocksByHeight(ctx, model.LocatorHeights(tip.Height()))
	if err != nil {
		return nil, err
	}

	locator := &model.BlockLocator{Hashes: make([]*chainhash.Hash, 0, len(blocks))}
	for _, block := range blocks {
		locator.Hashes = append(locator.Hashes, block.Hash())
	}

	return locator, nil
}
