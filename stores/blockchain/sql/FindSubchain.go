package sql

import (
	"context"

	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

func (t *transaction) FindSubchain(ctx context.Context, hash *chainhash.Hash, length int) (*model.Subchain, error) {
	if length <= 0 {
		return nil, nil
	}

	q := `WITH RECURSIVE chain (hash, prev_hash, ` + blockColumns + `, depth) AS (
		SELECT hash, prev_hash, ` + blockColumns + `, 1
		FROM blocks
		WHERE hash = $1
		UNION ALL
		SELECT b.hash, b.prev_hash, b.header, b.height, b.total_work, b.has_content, b.in_best_header_chain, b.in_best_block_chain, c.depth + 1
		FROM blocks b
		JOIN chain c ON b.hash = c.prev_hash
		WHERE c.depth < $2
	)
	SELECT ` + blockColumns + `
	FROM chain
	ORDER BY depth DESC`

	blocks, err := t.findMany(ctx, q, hash[:], length)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, nil
	}

	return model.NewSubchain(blocks)
}
