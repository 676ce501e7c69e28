package blockchain

import (
	"math/big"
	"sort"
	"time"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

// DifficultyAdjustmentWindow is the number of blocks the post fork difficulty
// algorithm averages over.
const DifficultyAdjustmentWindow = 144

// emergencyAdjustmentTime is the time the emergency difficulty adjustment lets
// six blocks take before lowering the difficulty by 20%.
const emergencyAdjustmentTime = 12 * time.Hour

var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Difficulty computes the nBits a header must carry from the ancestors it builds on.
type Difficulty struct {
	logger      ulogger.Logger
	chainParams *chaincfg.Params
}

func NewDifficulty(logger ulogger.Logger, params *chaincfg.Params) *Difficulty {
	return &Difficulty{
		logger:      logger,
		chainParams: params,
	}
}

// NextWorkRequired returns the nBits required of a header with the given
// timestamp whose parent is the tip of parents.
func (d *Difficulty) NextWorkRequired(parents *model.Subchain, timestamp uint32) (model.NBit, error) {
	parent := parents.Tip()
	height := parent.Height() + 1

	// regtest never adjusts
	if d.chainParams.NoDifficultyAdjustment {
		return parent.Header().Bits, nil
	}

	if height >= d.chainParams.DaaForkHeight {
		return d.nextWorkRequiredDAA(parents, timestamp)
	}

	return d.nextWorkRequiredLegacy(parents, timestamp)
}

func (d *Difficulty) powLimitBits() model.NBit {
	return model.NewNBitFromUint32(d.chainParams.PowLimitBits)
}

// allowMinDifficulty is the test network rule that lets a block that comes
// long after its parent be mined at the pow limit.
func (d *Difficulty) allowMinDifficulty(parent *model.StoredBlock, timestamp uint32) bool {
	if !d.chainParams.ReduceMinDifficulty {
		return false
	}

	return int64(timestamp) > int64(parent.Timestamp())+int64(d.chainParams.MinDiffReductionTime/time.Second)
}

func (d *Difficulty) nextWorkRequiredDAA(parents *model.Subchain, timestamp uint32) (model.NBit, error) {
	parent := parents.Tip()

	if d.allowMinDifficulty(parent, timestamp) {
		return d.powLimitBits(), nil
	}

	if parents.Len() < DifficultyAdjustmentWindow+3 {
		d.logger.Debugf("not enough blocks to calculate difficulty adjustment at %s", parent)
		return d.powLimitBits(), nil
	}

	lastSuitableBlock := suitableBlock(parents, 0)
	firstSuitableBlock := suitableBlock(parents, DifficultyAdjustmentWindow)

	return d.computeTarget(firstSuitableBlock, lastSuitableBlock), nil
}

// suitableBlock is the block with the median timestamp of the three ending
// offset positions before the tip.
func suitableBlock(parents *model.Subchain, offset int) *model.StoredBlock {
	blocks := []*model.StoredBlock{
		parents.GetBlockFromTip(offset + 2),
		parents.GetBlockFromTip(offset + 1),
		parents.GetBlockFromTip(offset),
	}

	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Timestamp() < blocks[j].Timestamp() })

	return blocks[1]
}

// computeTarget targets TargetTimePerBlock given the work done and the time
// taken between the two suitable blocks.
func (d *Difficulty) computeTarget(suitableFirstBlock, suitableLastBlock *model.StoredBlock) model.NBit {
	lastSuitableBits := suitableLastBlock.Header().Bits

	work := new(big.Int).Sub(suitableLastBlock.TotalWork(), suitableFirstBlock.TotalWork())

	targetSpacing := int64(d.chainParams.TargetTimePerBlock / time.Second)

	// bound the amplitude of the adjustment to avoid difficulty cliffs
	duration := int64(suitableLastBlock.Timestamp()) - int64(suitableFirstBlock.Timestamp())
	if duration > 288*targetSpacing {
		duration = 288 * targetSpacing
	} else if duration < 72*targetSpacing {
		duration = 72 * targetSpacing
	}

	pw := new(big.Int).Mul(work, big.NewInt(targetSpacing))
	pw.Div(pw, big.NewInt(duration))

	if pw.Sign() == 0 {
		d.logger.Debugf("no work between %s and %s, keeping %s", suitableFirstBlock, suitableLastBlock, lastSuitableBits)
		return lastSuitableBits
	}

	// target = (2^256 - pw) / pw
	newTarget := new(big.Int).Sub(oneLsh256, pw)
	newTarget.Div(newTarget, pw)

	if newTarget.Cmp(d.chainParams.PowLimit) > 0 {
		newTarget.Set(d.chainParams.PowLimit)
	}

	return model.NewNBitFromUint32(model.BigToCompact(newTarget))
}

func (d *Difficulty) nextWorkRequiredLegacy(parents *model.Subchain, timestamp uint32) (model.NBit, error) {
	parent := parents.Tip()
	height := parent.Height() + 1
	interval := d.chainParams.RetargetInterval()

	if height%interval != 0 {
		if d.chainParams.ReduceMinDifficulty {
			if d.allowMinDifficulty(parent, timestamp) {
				return d.powLimitBits(), nil
			}

			// the last block that was not mined under the min difficulty rule
			for offset := 0; ; offset++ {
				b := parents.GetBlockFromTip(offset)
				if b == nil {
					return parent.Header().Bits, nil
				}

				if b.Height()%interval == 0 || b.Header().Bits.Uint32() != d.chainParams.PowLimitBits {
					return b.Header().Bits, nil
				}
			}
		}

		if height >= d.chainParams.UahfForkHeight {
			return d.emergencyAdjustment(parents), nil
		}

		return parent.Header().Bits, nil
	}

	first := parents.GetBlockByHeight(height - interval)
	if first == nil {
		return model.NBit{}, errors.NewProcessingError("retarget at height %d needs block %d, which is not in the %d blocks before %s", height, height-interval, parents.Len(), parent)
	}

	targetTimespan := int64(d.chainParams.TargetTimespan / time.Second)
	minTimespan := targetTimespan / d.chainParams.RetargetAdjustmentFactor
	maxTimespan := targetTimespan * d.chainParams.RetargetAdjustmentFactor

	actualTimespan := int64(parent.Timestamp()) - int64(first.Timestamp())
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	newTarget := parent.Header().Bits.CalculateTarget()
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))

	if newTarget.Cmp(d.chainParams.PowLimit) > 0 {
		newTarget.Set(d.chainParams.PowLimit)
	}

	nBits := model.NewNBitFromUint32(model.BigToCompact(newTarget))

	d.logger.Debugf("difficulty retarget at height %d: %s -> %s, timespan %ds", height, parent.Header().Bits, nBits, actualTimespan)

	return nBits, nil
}

// emergencyAdjustment lowers the difficulty by 20% when the six blocks before
// the parent took more than twelve hours by median time.
func (d *Difficulty) emergencyAdjustment(parents *model.Subchain) model.NBit {
	parent := parents.Tip()
	mtpBlocks := d.chainParams.MedianTimeBlocks

	if parents.Len() < 6+mtpBlocks {
		return parent.Header().Bits
	}

	elapsed := int64(parents.MedianTimePast(0, mtpBlocks)) - int64(parents.MedianTimePast(6, mtpBlocks))
	if elapsed < int64(emergencyAdjustmentTime/time.Second) {
		return parent.Header().Bits
	}

	newTarget := parent.Header().Bits.CalculateTarget()
	newTarget.Add(newTarget, new(big.Int).Rsh(newTarget, 2))

	if newTarget.Cmp(d.chainParams.PowLimit) > 0 {
		newTarget.Set(d.chainParams.PowLimit)
	}

	nBits := model.NewNBitFromUint32(model.BigToCompact(newTarget))

	d.logger.Infof("emergency difficulty adjustment after %s: %s -> %s", parent, parent.Header().Bits, nBits)

	return nBits
}
