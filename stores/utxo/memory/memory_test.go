package memory

import (
	"context"
	"testing"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/utxo/tests"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	t.Run("add and find", func(t *testing.T) {
		tests.AddAndFind(t, New(ulogger.TestLogger{}))
	})

	t.Run("remove", func(t *testing.T) {
		tests.Remove(t, New(ulogger.TestLogger{}))
	})

	t.Run("spent outputs", func(t *testing.T) {
		tests.SpentOutputs(t, New(ulogger.TestLogger{}))
	})
}

func TestMemoryUndoHelpers(t *testing.T) {
	ctx := context.Background()
	m := New(ulogger.TestLogger{})

	require.NoError(t, m.AddUnspentOutput(ctx, tests.Output(tests.TxHash1, 0, 100)))
	require.NoError(t, m.AddUnspentOutput(ctx, tests.Output(tests.TxHash1, 1, 200)))
	assert.Equal(t, 2, m.Count())

	taken, err := m.TakeUnspentOutput(ctx, tests.TxHash1, 1)
	require.NoError(t, err)
	assert.Equal(t, tests.Output(tests.TxHash1, 1, 200), taken)
	assert.Equal(t, 1, m.Count())

	spent := model.NewSpentOutput(taken, 9)
	require.NoError(t, m.AddSpentOutput(ctx, spent))

	m.RemoveSpentOutput(ctx, spent)

	found, err := m.FindSpentOutputs(ctx, 9)
	require.NoError(t, err)
	assert.Empty(t, found)

	// stored values are copies
	output := tests.Output(tests.TxHash2, 0, 5)
	require.NoError(t, m.AddUnspentOutput(ctx, output))
	output.Value = 6

	outputs, err := m.FindUnspentOutputs(ctx, tests.TxHash2)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), outputs[0].Value)
}
