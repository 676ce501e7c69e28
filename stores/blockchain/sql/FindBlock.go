package sql

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

const blockColumns = `header, height, total_work, has_content, in_best_header_chain, in_best_block_chain`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBlock(row rowScanner) (*model.StoredBlock, error) {
	var (
		headerBytes       []byte
		height            int32
		totalWork         []byte
		hasContent        bool
		inBestHeaderChain bool
		inBestBlockChain  bool
	)

	if err := row.Scan(&headerBytes, &height, &totalWork, &hasContent, &inBestHeaderChain, &inBestBlockChain); err != nil {
		return nil, err
	}

	header, err := model.NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, errors.NewStorageError("stored header is corrupt", err)
	}

	return model.NewStoredBlock(header).Builder().
		SetHeight(height).
		SetTotalWork(new(big.Int).SetBytes(totalWork)).
		SetHasContent(hasContent).
		SetInBestHeaderChain(inBestHeaderChain).
		SetInBestBlockChain(inBestBlockChain).
		Build(), nil
}

func (t *transaction) findOne(ctx context.Context, where string, args ...interface{}) (*model.StoredBlock, error) {
	q := `SELECT ` + blockColumns + ` FROM blocks WHERE ` + where

	block, err := scanBlock(t.tx.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, errors.NewStorageError("failed to query block", err)
	}

	return block, nil
}

func (t *transaction) findMany(ctx context.Context, q string, args ...interface{}) ([]*model.StoredBlock, error) {
	rows, err := t.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.NewStorageError("failed to query blocks", err)
	}

	defer rows.Close()

	blocks := make([]*model.StoredBlock, 0)

	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, errors.NewStorageError("failed to scan block", err)
		}

		blocks = append(blocks, block)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read blocks", err)
	}

	return blocks, nil
}

func (t *transaction) FindBlockByHash(ctx context.Context, hash *chainhash.Hash) (*model.StoredBlock, error) {
	return t.findOne(ctx, `hash = $1`, hash[:])
}

func (t *transaction) FindBlockByHeight(ctx context.Context, height int32) (*model.StoredBlock, error) {
	return t.findOne(ctx, `in_best_header_chain = TRUE AND height = $1 LIMIT 1`, height)
}

func (t *transaction) FindFirst(ctx context.Context, opts ...options.FindOption) (*model.StoredBlock, error) {
	blocks, err := t.Find(ctx, 1, opts...)
	if err != nil || len(blocks) == 0 {
		return nil, err
	}

	return blocks[0], nil
}

func (t *transaction) Find(ctx context.Context, limit int, opts ...options.FindOption) ([]*model.StoredBlock, error) {
	o := options.ProcessFindOptions(opts...)

	conditions := []string{"1 = 1"}

	if o.InBestHeaderChain {
		conditions = append(conditions, "in_best_header_chain = TRUE")
	}

	if o.InBestBlockChain {
		conditions = append(conditions, "in_best_block_chain = TRUE")
	}

	if o.HasContent != nil {
		conditions = append(conditions, fmt.Sprintf("has_content = %t", *o.HasContent))
	}

	q := `SELECT ` + blockColumns + ` FROM blocks WHERE ` + strings.Join(conditions, " AND ") + ` ORDER BY height DESC, hash ASC`

	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}

	return t.findMany(ctx, q)
}

func (t *transaction) GetBlocksByHeight(ctx context.Context, heights []int32) ([]*model.StoredBlock, error) {
	if len(heights) == 0 {
		return []*model.StoredBlock{}, nil
	}

	placeholders := make([]string, len(heights))
	args := make([]interface{}, len(heights))

	for i, height := range heights {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = height
	}

	q := `SELECT ` + blockColumns + ` FROM blocks WHERE in_best_header_chain = TRUE AND height IN (` + strings.Join(placeholders, ",") + `)`

	found, err := t.findMany(ctx, q, args...)
	if err != nil {
		return nil, err
	}

	byHeight := make(map[int32]*model.StoredBlock, len(found))
	for _, block := range found {
		byHeight[block.Height()] = block
	}

	blocks := make([]*model.StoredBlock, 0, len(heights))

	for _, height := range heights {
		if block, ok := byHeight[height]; ok {
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}
