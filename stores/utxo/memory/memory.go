// Package memory is an in-process utxo.Store backed by swiss maps.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/dolthub/swiss"
)

const initialCapacity = 1024

type Memory struct {
	logger ulogger.Logger

	mu sync.RWMutex
	// the swiss map uses a lot less memory than the standard map
	unspent *swiss.Map[chainhash.Hash, map[uint32]*model.UnspentOutput]
	spent   *swiss.Map[int32, []*model.SpentOutput]
}

func New(logger ulogger.Logger) *Memory {
	return &Memory{
		logger:  logger,
		unspent: swiss.NewMap[chainhash.Hash, map[uint32]*model.UnspentOutput](initialCapacity),
		spent:   swiss.NewMap[int32, []*model.SpentOutput](initialCapacity),
	}
}

func (m *Memory) FindUnspentOutputs(_ context.Context, txHash chainhash.Hash) ([]*model.UnspentOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outputs, ok := m.unspent.Get(txHash)
	if !ok {
		return []*model.UnspentOutput{}, nil
	}

	result := make([]*model.UnspentOutput, 0, len(outputs))
	for _, output := range outputs {
		o := *output
		result = append(result, &o)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].OutputNumber < result[j].OutputNumber })

	return result, nil
}

func (m *Memory) AddUnspentOutput(_ context.Context, output *model.UnspentOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outputs, ok := m.unspent.Get(output.TransactionHash)
	if !ok {
		outputs = make(map[uint32]*model.UnspentOutput, 1)
		m.unspent.Put(output.TransactionHash, outputs)
	}

	if _, exists := outputs[output.OutputNumber]; exists {
		return errors.NewUnspentOutputConsistencyError("output %s is already unspent", output.OutPoint())
	}

	o := *output
	outputs[output.OutputNumber] = &o

	return nil
}

func (m *Memory) RemoveUnspentOutput(ctx context.Context, txHash chainhash.Hash, n uint32) error {
	_, err := m.TakeUnspentOutput(ctx, txHash, n)
	return err
}

// TakeUnspentOutput removes the output and returns what was stored.
func (m *Memory) TakeUnspentOutput(_ context.Context, txHash chainhash.Hash, n uint32) (*model.UnspentOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	outputs, ok := m.unspent.Get(txHash)
	if !ok {
		return nil, errors.NewNotFoundError("output %s:%d is not unspent", txHash, n)
	}

	output, ok := outputs[n]
	if !ok {
		return nil, errors.NewNotFoundError("output %s:%d is not unspent", txHash, n)
	}

	delete(outputs, n)

	if len(outputs) == 0 {
		m.unspent.Delete(txHash)
	}

	return output, nil
}

func (m *Memory) AddSpentOutput(_ context.Context, output *model.SpentOutput) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	spent, _ := m.spent.Get(output.SpentHeight)

	o := *output
	m.spent.Put(output.SpentHeight, append(spent, &o))

	return nil
}

// RemoveSpentOutput drops the most recent record of output at its spent height.
func (m *Memory) RemoveSpentOutput(_ context.Context, output *model.SpentOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()

	spent, ok := m.spent.Get(output.SpentHeight)
	if !ok {
		return
	}

	for i := len(spent) - 1; i >= 0; i-- {
		if spent[i].OutPoint() == output.OutPoint() {
			spent = append(spent[:i], spent[i+1:]...)
			break
		}
	}

	if len(spent) == 0 {
		m.spent.Delete(output.SpentHeight)
		return
	}

	m.spent.Put(output.SpentHeight, spent)
}

func (m *Memory) FindSpentOutputs(_ context.Context, spentHeight int32) ([]*model.SpentOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	spent, _ := m.spent.Get(spentHeight)

	result := make([]*model.SpentOutput, len(spent))
	copy(result, spent)

	return result, nil
}

// Count is the number of unspent outputs held.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0

	m.unspent.Iter(func(_ chainhash.Hash, outputs map[uint32]*model.UnspentOutput) bool {
		count += len(outputs)
		return false
	})

	return count
}
