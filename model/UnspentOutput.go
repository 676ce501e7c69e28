package model

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// OutPoint identifies one output of a transaction. It is a comparable value
// and is used directly as a map key.
type OutPoint struct {
	TxHash chainhash.Hash
	Index  uint32
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxHash, o.Index)
}

// UnspentOutput is a spendable coin.
type UnspentOutput struct {
	SourceBlockHeight int32
	TransactionHash   chainhash.Hash
	OutputNumber      uint32
	Value             uint64
	Script            bscript.Script
}

// NewUnspentOutput builds the coin created by output n of tx in a block at height.
func NewUnspentOutput(height int32, tx *bt.Tx, n uint32) *UnspentOutput {
	output := tx.Outputs[n]

	var script bscript.Script
	if output.LockingScript != nil {
		script = *output.LockingScript
	}

	return &UnspentOutput{
		SourceBlockHeight: height,
		TransactionHash:   *tx.TxIDChainHash(),
		OutputNumber:      n,
		Value:             output.Satoshis,
		Script:            script,
	}
}

func (u *UnspentOutput) OutPoint() OutPoint {
	return OutPoint{TxHash: u.TransactionHash, Index: u.OutputNumber}
}

func (u *UnspentOutput) String() string {
	return fmt.Sprintf("%s:%d (%d sat, height %d)", u.TransactionHash, u.OutputNumber, u.Value, u.SourceBlockHeight)
}

// SpentOutput is the record of a consumed coin and the height of the block that spent it.
type SpentOutput struct {
	UnspentOutput
	SpentHeight int32
}

func NewSpentOutput(output *UnspentOutput, spentHeight int32) *SpentOutput {
	return &SpentOutput{
		UnspentOutput: *output,
		SpentHeight:   spentHeight,
	}
}
