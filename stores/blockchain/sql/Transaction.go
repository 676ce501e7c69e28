package sql

import (
	"context"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	utxosql "github.com/bsv-blockchain/chainstate/stores/utxo/sql"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/chainstate/util/usql"
)

type transaction struct {
	*utxosql.Store

	tx     *usql.Tx
	logger ulogger.Logger
	done   bool

	onCommit   []func()
	onRollback []func()
}

func (t *transaction) Commit() error {
	if t.done {
		return errors.NewStorageError("transaction already finished")
	}

	t.done = true

	if err := t.tx.Commit(); err != nil {
		for _, fn := range t.onRollback {
			fn()
		}

		return errors.NewStorageError("could not commit transaction", err)
	}

	for _, fn := range t.onCommit {
		fn()
	}

	return nil
}

func (t *transaction) Rollback() error {
	if t.done {
		return nil
	}

	t.done = true

	err := t.tx.Rollback()

	for _, fn := range t.onRollback {
		fn()
	}

	if err != nil {
		return errors.NewStorageError("could not roll back transaction", err)
	}

	return nil
}

func (t *transaction) OnCommit(fn func()) {
	t.onCommit = append(t.onCommit, fn)
}

func (t *transaction) OnRollback(fn func()) {
	t.onRollback = append(t.onRollback, fn)
}

func (t *transaction) GetCurrentChainLocator(ctx context.Context) (*model.BlockLocator, error) {
	return blockchain.ChainLocator(ctx, t)
}
