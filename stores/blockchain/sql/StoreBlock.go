package sql

import (
	"context"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
)

func (t *transaction) AddBlock(ctx context.Context, block *model.StoredBlock) error {
	existing, err := t.FindBlockByHash(ctx, block.Hash())
	if err != nil {
		return err
	}

	if existing != nil {
		return errors.NewBlockExistsError("block %s already stored", block.Hash())
	}

	q := `
		INSERT INTO blocks (hash, prev_hash, header, height, total_work, has_content, in_best_header_chain, in_best_block_chain)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err = t.tx.ExecContext(ctx, q,
		block.Hash()[:],
		block.PrevHash()[:],
		block.Header().Bytes(),
		block.Height(),
		block.TotalWork().Bytes(),
		block.HasContent(),
		block.IsInBestHeaderChain(),
		block.IsInBestBlockChain(),
	); err != nil {
		return errors.NewStorageError("failed to insert block %s", block.Hash(), err)
	}

	return nil
}

func (t *transaction) UpdateBlock(ctx context.Context, block *model.StoredBlock) error {
	q := `
		UPDATE blocks
		SET height = $2
		   ,total_work = $3
		   ,has_content = $4
		   ,in_best_header_chain = $5
		   ,in_best_block_chain = $6
		WHERE hash = $1
	`

	result, err := t.tx.ExecContext(ctx, q,
		block.Hash()[:],
		block.Height(),
		block.TotalWork().Bytes(),
		block.HasContent(),
		block.IsInBestHeaderChain(),
		block.IsInBestBlockChain(),
	)
	if err != nil {
		return errors.NewStorageError("failed to update block %s", block.Hash(), err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.NewStorageError("failed to update block %s", block.Hash(), err)
	}

	if affected == 0 {
		return errors.NewBlockNotFoundError("block %s not stored", block.Hash())
	}

	return nil
}
