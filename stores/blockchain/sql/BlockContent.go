package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

func (t *transaction) AddBlockContent(ctx context.Context, hash *chainhash.Hash, content []byte) (*model.StoredBlock, error) {
	block, err := t.FindBlockByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if block == nil {
		return nil, errors.NewBlockNotFoundError("block %s not stored", hash)
	}

	if content == nil {
		content = []byte{}
	}

	q := `
		INSERT INTO block_contents (hash, content)
		VALUES ($1, $2)
		ON CONFLICT (hash) DO UPDATE SET content = excluded.content
	`

	if _, err = t.tx.ExecContext(ctx, q, hash[:], content); err != nil {
		return nil, errors.NewStorageError("failed to store content of block %s", hash, err)
	}

	if block.HasContent() {
		return block, nil
	}

	updated := block.Builder().SetHasContent(true).Build()

	if err = t.UpdateBlock(ctx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

func (t *transaction) GetBlockContent(ctx context.Context, hash *chainhash.Hash) ([]byte, error) {
	var content []byte

	err := t.tx.QueryRowContext(ctx, `SELECT content FROM block_contents WHERE hash = $1`, hash[:]).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to read content of block %s", hash, err)
	}

	return content, nil
}

func (t *transaction) GetOldestBlocksWithoutContent(ctx context.Context, limit int) ([]*model.StoredBlock, error) {
	q := `
		SELECT ` + blockColumns + `
		FROM blocks
		WHERE in_best_header_chain = TRUE AND has_content = FALSE
		ORDER BY height ASC
	`

	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	return t.findMany(ctx, q)
}
