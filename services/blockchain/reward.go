package blockchain

import (
	"github.com/bsv-blockchain/chainstate/chaincfg"
)

// maxHalvings is the number of halvings after which the subsidy is zero.
const maxHalvings = 64

// BlockReward is the coinbase subsidy at height, halved every
// SubsidyReductionInterval blocks.
func BlockReward(height int32, params *chaincfg.Params) uint64 {
	if height < 0 || params.SubsidyReductionInterval <= 0 {
		return params.BaseSubsidy
	}

	halvings := height / params.SubsidyReductionInterval
	if halvings >= maxHalvings {
		return 0
	}

	return params.BaseSubsidy >> uint(halvings)
}
