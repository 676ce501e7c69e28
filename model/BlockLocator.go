package model

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// locatorDenseCount is the number of most recent blocks listed one by one.
const locatorDenseCount = 10

// BlockLocator describes a chain to a peer: the tip, then hashes further and
// further apart back to genesis.
type BlockLocator struct {
	Hashes []*chainhash.Hash
}

// LocatorHeights returns the heights a locator for a chain with the given tip
// lists: tip, tip-1, ... tip-9, then steps doubling each time, always ending at 0.
func LocatorHeights(tip int32) []int32 {
	if tip < 0 {
		return nil
	}

	heights := make([]int32, 0, locatorDenseCount+32)
	step := int32(1)

	for h := tip; h > 0; h -= step {
		heights = append(heights, h)

		if len(heights) >= locatorDenseCount {
			step *= 2
		}
	}

	return append(heights, 0)
}
