// Package utxo defines the durable store of unspent and spent transaction
// outputs the blockchain engine validates spends against.
package utxo

import (
	"context"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Store is the output table. Implementations are not required to be safe for
// concurrent writers; the blockchain store serializes access through its
// transactions.
type Store interface {
	// FindUnspentOutputs returns every unspent output of txHash, ordered by
	// output number. An unknown transaction gives an empty slice.
	FindUnspentOutputs(ctx context.Context, txHash chainhash.Hash) ([]*model.UnspentOutput, error)
	// AddUnspentOutput fails with ERR_UTXO_CONSISTENCY if the outpoint is already unspent.
	AddUnspentOutput(ctx context.Context, output *model.UnspentOutput) error
	// RemoveUnspentOutput fails with ERR_NOT_FOUND if the outpoint is not unspent.
	RemoveUnspentOutput(ctx context.Context, txHash chainhash.Hash, n uint32) error
	AddSpentOutput(ctx context.Context, output *model.SpentOutput) error
	// FindSpentOutputs returns the outputs spent by the block at spentHeight.
	FindSpentOutputs(ctx context.Context, spentHeight int32) ([]*model.SpentOutput, error)
}
