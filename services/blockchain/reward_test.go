package blockchain

import (
	"testing"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/stretchr/testify/assert"
)

func TestBlockReward(t *testing.T) {
	tests := []struct {
		name   string
		height int32
		expect uint64
	}{
		{"genesis", 0, 5_000_000_000},
		{"last block of the first era", 209_999, 5_000_000_000},
		{"first halving", 210_000, 2_500_000_000},
		{"second halving", 420_000, 1_250_000_000},
		{"third halving", 630_000, 625_000_000},
		{"after 33 halvings", 33 * 210_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, BlockReward(tt.height, &chaincfg.MainNetParams))
		})
	}

	t.Run("regtest halves every 150 blocks", func(t *testing.T) {
		assert.Equal(t, uint64(5_000_000_000), BlockReward(149, &chaincfg.RegressionNetParams))
		assert.Equal(t, uint64(2_500_000_000), BlockReward(150, &chaincfg.RegressionNetParams))
	})

	t.Run("zero after 64 halvings", func(t *testing.T) {
		assert.Equal(t, uint64(0), BlockReward(64*150, &chaincfg.RegressionNetParams))
	})
}
