package blockchain

import (
	"time"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// HeaderValidator checks a header against the ancestors it builds on. The tip
// of parents is the header's parent.
type HeaderValidator interface {
	ValidateHeader(header *model.BlockHeader, parents *model.Subchain) error
}

// BlockContentValidator checks the transactions of a block whose merkle root
// already matched its header.
type BlockContentValidator interface {
	ValidateContent(block *model.Block) error
}

// DefaultHeaderValidator enforces proof of work, the difficulty schedule and
// the timestamp window.
type DefaultHeaderValidator struct {
	chainParams *chaincfg.Params
	difficulty  *Difficulty
	now         func() time.Time
}

func NewDefaultHeaderValidator(logger ulogger.Logger, params *chaincfg.Params) *DefaultHeaderValidator {
	return &DefaultHeaderValidator{
		chainParams: params,
		difficulty:  NewDifficulty(logger, params),
		now:         time.Now,
	}
}

func (v *DefaultHeaderValidator) ValidateHeader(header *model.BlockHeader, parents *model.Subchain) error {
	target := header.Bits.CalculateTarget()
	if target.Sign() <= 0 || target.Cmp(v.chainParams.PowLimit) > 0 {
		return errors.NewHeaderInvalidError("header %s target %s is outside the allowed range", header.Hash(), header.Bits)
	}

	if _, err := header.HasMetTargetDifficulty(); err != nil {
		return err
	}

	expected, err := v.difficulty.NextWorkRequired(parents, header.Timestamp)
	if err != nil {
		return err
	}

	if header.Bits != expected {
		return errors.NewHeaderInvalidError("header %s difficulty is incorrect: expected %s, got %s", header.Hash(), expected, header.Bits)
	}

	medianTimePast := parents.MedianTimePast(0, v.chainParams.MedianTimeBlocks)
	if header.Timestamp <= medianTimePast {
		return errors.NewHeaderInvalidError("header %s timestamp %d is not after the median time past %d", header.Hash(), header.Timestamp, medianTimePast)
	}

	maxTimestamp := v.now().Add(v.chainParams.MaxTimeOffset).Unix()
	if int64(header.Timestamp) > maxTimestamp {
		return errors.NewHeaderInvalidError("header %s timestamp %d is too far in the future", header.Hash(), header.Timestamp)
	}

	return nil
}

// DefaultContentValidator enforces the block structure rules that do not need
// the output set.
type DefaultContentValidator struct {
	maxBlockSize int
}

// NewDefaultContentValidator creates a validator; a maxBlockSize of zero or less disables the size rule.
func NewDefaultContentValidator(maxBlockSize int) *DefaultContentValidator {
	return &DefaultContentValidator{maxBlockSize: maxBlockSize}
}

func (v *DefaultContentValidator) ValidateContent(block *model.Block) error {
	if len(block.Transactions) == 0 {
		return errors.NewBlockInvalidError("block %s has no transactions", block.Hash())
	}

	if !block.Transactions[0].IsCoinbase() {
		return errors.NewBlockInvalidError("first transaction of block %s is not a coinbase", block.Hash())
	}

	if v.maxBlockSize > 0 && block.Size() > v.maxBlockSize {
		return errors.NewBlockInvalidError("block %s is %d bytes, more than the maximum of %d", block.Hash(), block.Size(), v.maxBlockSize)
	}

	seen := make(map[chainhash.Hash]struct{}, len(block.Transactions))

	for i, tx := range block.Transactions {
		if i > 0 && tx.IsCoinbase() {
			return errors.NewBlockInvalidError("block %s has a second coinbase at index %d", block.Hash(), i)
		}

		txHash := *tx.TxIDChainHash()
		if _, ok := seen[txHash]; ok {
			return errors.NewBlockInvalidError("block %s contains tx %s twice", block.Hash(), txHash)
		}

		seen[txHash] = struct{}{}
	}

	return nil
}
