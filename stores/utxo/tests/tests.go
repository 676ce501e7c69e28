// Package tests holds the behaviour every utxo.Store implementation shares.
package tests

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/utxo"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	TxHash1 = chainhash.HashH([]byte("tx1"))
	TxHash2 = chainhash.HashH([]byte("tx2"))
)

func Output(txHash chainhash.Hash, n uint32, value uint64) *model.UnspentOutput {
	return &model.UnspentOutput{
		SourceBlockHeight: 7,
		TransactionHash:   txHash,
		OutputNumber:      n,
		Value:             value,
		Script:            bscript.Script{0x76, 0xa9, byte(n)},
	}
}

func AddAndFind(t *testing.T, store utxo.Store) {
	ctx := context.Background()

	outputs, err := store.FindUnspentOutputs(ctx, TxHash1)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash1, 1, 200)))
	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash1, 0, 100)))
	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash2, 0, 300)))

	outputs, err = store.FindUnspentOutputs(ctx, TxHash1)
	require.NoError(t, err)
	require.Len(t, outputs, 2)

	assert.Equal(t, Output(TxHash1, 0, 100), outputs[0])
	assert.Equal(t, Output(TxHash1, 1, 200), outputs[1])

	err = store.AddUnspentOutput(ctx, Output(TxHash1, 0, 100))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnspentOutputConsistency))
}

func Remove(t *testing.T, store utxo.Store) {
	ctx := context.Background()

	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash1, 0, 100)))
	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash1, 1, 200)))

	require.NoError(t, store.RemoveUnspentOutput(ctx, TxHash1, 0))

	outputs, err := store.FindUnspentOutputs(ctx, TxHash1)
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, uint32(1), outputs[0].OutputNumber)

	err = store.RemoveUnspentOutput(ctx, TxHash1, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = store.RemoveUnspentOutput(ctx, TxHash2, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	// a removed output can be created again
	require.NoError(t, store.AddUnspentOutput(ctx, Output(TxHash1, 0, 100)))
}

func SpentOutputs(t *testing.T, store utxo.Store) {
	ctx := context.Background()

	spent, err := store.FindSpentOutputs(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, spent)

	require.NoError(t, store.AddSpentOutput(ctx, model.NewSpentOutput(Output(TxHash1, 0, 100), 10)))
	require.NoError(t, store.AddSpentOutput(ctx, model.NewSpentOutput(Output(TxHash2, 3, 300), 10)))
	require.NoError(t, store.AddSpentOutput(ctx, model.NewSpentOutput(Output(TxHash2, 4, 400), 11)))

	spent, err = store.FindSpentOutputs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, spent, 2)

	byOutPoint := map[model.OutPoint]*model.SpentOutput{}
	for _, s := range spent {
		byOutPoint[s.OutPoint()] = s
	}

	assert.Equal(t, model.NewSpentOutput(Output(TxHash1, 0, 100), 10), byOutPoint[model.OutPoint{TxHash: TxHash1, Index: 0}])
	assert.Equal(t, model.NewSpentOutput(Output(TxHash2, 3, 300), 10), byOutPoint[model.OutPoint{TxHash: TxHash2, Index: 3}])
}
