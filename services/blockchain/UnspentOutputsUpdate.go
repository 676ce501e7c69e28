package blockchain

import (
	"context"
	"sort"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/utxo"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

type trackedOutput struct {
	output      *model.UnspentOutput
	stored      bool
	spent       bool
	spentHeight int32
}

// UnspentOutputsUpdate stages the output changes of one block in memory. The
// underlying store is only read until Persist is called, so a block that fails
// validation half way leaves no trace in storage.
type UnspentOutputsUpdate struct {
	store utxo.Store
	// outputs of every transaction touched so far, keyed by output number
	outputs *swiss.Map[chainhash.Hash, map[uint32]*trackedOutput]
	// changes in the order they were made, replayed by Persist
	journal []*trackedOutput
}

func NewUnspentOutputsUpdate(store utxo.Store) *UnspentOutputsUpdate {
	return &UnspentOutputsUpdate{
		store:   store,
		outputs: swiss.NewMap[chainhash.Hash, map[uint32]*trackedOutput](64),
	}
}

func (u *UnspentOutputsUpdate) load(ctx context.Context, txHash chainhash.Hash) (map[uint32]*trackedOutput, error) {
	if outputs, ok := u.outputs.Get(txHash); ok {
		return outputs, nil
	}

	stored, err := u.store.FindUnspentOutputs(ctx, txHash)
	if err != nil {
		return nil, errors.NewStorageError("failed to load outputs of tx %s", txHash, err)
	}

	outputs := make(map[uint32]*trackedOutput, len(stored))
	for _, output := range stored {
		outputs[output.OutputNumber] = &trackedOutput{output: output, stored: true}
	}

	u.outputs.Put(txHash, outputs)

	return outputs, nil
}

// FindUnspentOutputs returns the outputs of txHash that are unspent once the
// staged changes are applied, ordered by output number.
func (u *UnspentOutputsUpdate) FindUnspentOutputs(ctx context.Context, txHash chainhash.Hash) ([]*model.UnspentOutput, error) {
	outputs, err := u.load(ctx, txHash)
	if err != nil {
		return nil, err
	}

	result := make([]*model.UnspentOutput, 0, len(outputs))

	for _, tracked := range outputs {
		if !tracked.spent {
			result = append(result, tracked.output)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].OutputNumber < result[j].OutputNumber })

	return result, nil
}

// FindUnspentOutput returns nil when the output is spent or does not exist.
func (u *UnspentOutputsUpdate) FindUnspentOutput(ctx context.Context, txHash chainhash.Hash, n uint32) (*model.UnspentOutput, error) {
	outputs, err := u.load(ctx, txHash)
	if err != nil {
		return nil, err
	}

	tracked, ok := outputs[n]
	if !ok || tracked.spent {
		return nil, nil
	}

	return tracked.output, nil
}

// Add stages a new output. An output that is already unspent means the caller
// lost track of the chain state and is reported as UTXO_CONSISTENCY.
func (u *UnspentOutputsUpdate) Add(ctx context.Context, output *model.UnspentOutput) error {
	outputs, err := u.load(ctx, output.TransactionHash)
	if err != nil {
		return err
	}

	if existing, ok := outputs[output.OutputNumber]; ok && !existing.spent {
		return errors.NewUnspentOutputConsistencyError("output %s is already unspent", output.OutPoint())
	}

	tracked := &trackedOutput{output: output}
	outputs[output.OutputNumber] = tracked
	u.journal = append(u.journal, tracked)

	return nil
}

// Spend marks an output spent by the block at spentHeight and returns it.
func (u *UnspentOutputsUpdate) Spend(ctx context.Context, txHash chainhash.Hash, n uint32, spentHeight int32) (*model.UnspentOutput, error) {
	outputs, err := u.load(ctx, txHash)
	if err != nil {
		return nil, err
	}

	tracked, ok := outputs[n]
	if !ok || tracked.spent {
		return nil, errors.NewOutputSpentError(txHash, n, spentHeight)
	}

	tracked.spent = true
	tracked.spentHeight = spentHeight

	// an output created by this update never reached storage, so there is nothing to record
	if tracked.stored {
		u.journal = append(u.journal, tracked)
	}

	return tracked.output, nil
}

// Persist writes the staged changes to the store and clears the update.
func (u *UnspentOutputsUpdate) Persist(ctx context.Context) error {
	for _, tracked := range u.journal {
		switch {
		case tracked.stored && tracked.spent:
			outPoint := tracked.output.OutPoint()

			if err := u.store.RemoveUnspentOutput(ctx, outPoint.TxHash, outPoint.Index); err != nil {
				return err
			}

			if err := u.store.AddSpentOutput(ctx, model.NewSpentOutput(tracked.output, tracked.spentHeight)); err != nil {
				return err
			}

		case !tracked.stored && !tracked.spent:
			if err := u.store.AddUnspentOutput(ctx, tracked.output); err != nil {
				return err
			}
		}
	}

	u.Clear()

	return nil
}

// Clear drops every staged change without touching the store.
func (u *UnspentOutputsUpdate) Clear() {
	u.outputs.Clear()
	u.journal = nil
}

// Len is the number of staged changes.
func (u *UnspentOutputsUpdate) Len() int {
	return len(u.journal)
}
