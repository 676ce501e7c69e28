// Package sql stores unspent and spent outputs in postgres or sqlite tables.
// It runs on any usql.Querier, which lets the blockchain store put output
// changes in the same database transaction as its block changes.
package sql

import (
	"context"
	"database/sql"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/util"
	"github.com/bsv-blockchain/chainstate/util/usql"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

type Store struct {
	db usql.Querier
}

func New(db usql.Querier) *Store {
	return &Store{db: db}
}

// CreateSchema creates the output tables if they do not exist yet.
func CreateSchema(ctx context.Context, db usql.Querier, engine util.SQLEngine) error {
	blob := "BLOB"
	if engine == util.Postgres {
		blob = "BYTEA"
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS unspent_outputs (
		  tx_hash        ` + blob + ` NOT NULL
		 ,output_number  BIGINT NOT NULL
		 ,source_height  BIGINT NOT NULL
		 ,value          BIGINT NOT NULL
		 ,script         ` + blob + ` NOT NULL
		 ,PRIMARY KEY (tx_hash, output_number)
		);`,
		`CREATE TABLE IF NOT EXISTS spent_outputs (
		  tx_hash        ` + blob + ` NOT NULL
		 ,output_number  BIGINT NOT NULL
		 ,source_height  BIGINT NOT NULL
		 ,value          BIGINT NOT NULL
		 ,script         ` + blob + ` NOT NULL
		 ,spent_height   BIGINT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_spent_outputs_spent_height ON spent_outputs (spent_height);`,
	}

	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return errors.NewStorageError("could not create output tables", err)
		}
	}

	return nil
}

func (s *Store) FindUnspentOutputs(ctx context.Context, txHash chainhash.Hash) ([]*model.UnspentOutput, error) {
	q := `
		SELECT output_number, source_height, value, script
		FROM unspent_outputs
		WHERE tx_hash = $1
		ORDER BY output_number
	`

	rows, err := s.db.QueryContext(ctx, q, txHash[:])
	if err != nil {
		return nil, errors.NewStorageError("failed to query unspent outputs of %s", txHash, err)
	}

	defer rows.Close()

	outputs := make([]*model.UnspentOutput, 0, 2)

	for rows.Next() {
		output := &model.UnspentOutput{TransactionHash: txHash}

		var script []byte

		// Scan range checks the narrower integer fields
		if err = rows.Scan(&output.OutputNumber, &output.SourceBlockHeight, &output.Value, &script); err != nil {
			return nil, errors.NewStorageError("failed to scan unspent output of %s", txHash, err)
		}

		output.Script = bscript.Script(script)
		outputs = append(outputs, output)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read unspent outputs of %s", txHash, err)
	}

	return outputs, nil
}

func (s *Store) AddUnspentOutput(ctx context.Context, output *model.UnspentOutput) error {
	var exists int

	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM unspent_outputs WHERE tx_hash = $1 AND output_number = $2`,
		output.TransactionHash[:], output.OutputNumber).Scan(&exists)

	switch {
	case err == nil:
		return errors.NewUnspentOutputConsistencyError("output %s is already unspent", output.OutPoint())
	case !errors.Is(err, sql.ErrNoRows):
		return errors.NewStorageError("failed to look up output %s", output.OutPoint(), err)
	}

	value, err := safeconversion.Uint64ToInt64(output.Value)
	if err != nil {
		return errors.NewInvalidArgumentError("output %s value out of range", output.OutPoint(), err)
	}

	q := `
		INSERT INTO unspent_outputs (tx_hash, output_number, source_height, value, script)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err = s.db.ExecContext(ctx, q, output.TransactionHash[:], output.OutputNumber, output.SourceBlockHeight, value, scriptBytes(output.Script)); err != nil {
		return errors.NewStorageError("failed to insert output %s", output.OutPoint(), err)
	}

	return nil
}

func (s *Store) RemoveUnspentOutput(ctx context.Context, txHash chainhash.Hash, n uint32) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM unspent_outputs WHERE tx_hash = $1 AND output_number = $2`, txHash[:], n)
	if err != nil {
		return errors.NewStorageError("failed to delete output %s:%d", txHash, n, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("failed to delete output %s:%d", txHash, n, err)
	}

	if affected == 0 {
		return errors.NewNotFoundError("output %s:%d is not unspent", txHash, n)
	}

	return nil
}

func (s *Store) AddSpentOutput(ctx context.Context, output *model.SpentOutput) error {
	value, err := safeconversion.Uint64ToInt64(output.Value)
	if err != nil {
		return errors.NewInvalidArgumentError("output %s value out of range", output.OutPoint(), err)
	}

	q := `
		INSERT INTO spent_outputs (tx_hash, output_number, source_height, value, script, spent_height)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err = s.db.ExecContext(ctx, q, output.TransactionHash[:], output.OutputNumber, output.SourceBlockHeight, value, scriptBytes(output.Script), output.SpentHeight); err != nil {
		return errors.NewStorageError("failed to insert spent output %s", output.OutPoint(), err)
	}

	return nil
}

func (s *Store) FindSpentOutputs(ctx context.Context, spentHeight int32) ([]*model.SpentOutput, error) {
	q := `
		SELECT tx_hash, output_number, source_height, value, script
		FROM spent_outputs
		WHERE spent_height = $1
	`

	rows, err := s.db.QueryContext(ctx, q, spentHeight)
	if err != nil {
		return nil, errors.NewStorageError("failed to query outputs spent at %d", spentHeight, err)
	}

	defer rows.Close()

	outputs := make([]*model.SpentOutput, 0)

	for rows.Next() {
		var (
			hash   []byte
			script []byte
		)

		output := &model.SpentOutput{SpentHeight: spentHeight}

		if err = rows.Scan(&hash, &output.OutputNumber, &output.SourceBlockHeight, &output.Value, &script); err != nil {
			return nil, errors.NewStorageError("failed to scan spent output", err)
		}

		txHash, err := chainhash.NewHash(hash)
		if err != nil {
			return nil, errors.NewStorageError("bad spent output hash", err)
		}

		output.TransactionHash = *txHash
		output.Script = bscript.Script(script)
		outputs = append(outputs, output)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read outputs spent at %d", spentHeight, err)
	}

	return outputs, nil
}

// scriptBytes keeps empty scripts non nil, the columns are NOT NULL.
func scriptBytes(script bscript.Script) []byte {
	if script == nil {
		return []byte{}
	}

	return script
}
