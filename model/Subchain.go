package model

import (
	"sort"

	"github.com/bsv-blockchain/chainstate/errors"
)

// Subchain is a contiguous, parent linked run of stored blocks, oldest first.
type Subchain struct {
	blocks []*StoredBlock
}

// NewSubchain checks that every block's previous hash is the hash of the block before it.
func NewSubchain(blocks []*StoredBlock) (*Subchain, error) {
	if len(blocks) == 0 {
		return nil, errors.NewInvalidArgumentError("subchain cannot be empty")
	}

	for i := 1; i < len(blocks); i++ {
		if !blocks[i].PrevHash().IsEqual(blocks[i-1].Hash()) {
			return nil, errors.NewInvalidArgumentError("block %s does not follow %s", blocks[i].Hash(), blocks[i-1].Hash())
		}
	}

	return &Subchain{blocks: blocks}, nil
}

func (s *Subchain) Len() int {
	return len(s.blocks)
}

func (s *Subchain) Tip() *StoredBlock {
	return s.blocks[len(s.blocks)-1]
}

func (s *Subchain) Oldest() *StoredBlock {
	return s.blocks[0]
}

// Blocks returns a copy of the blocks, oldest first.
func (s *Subchain) Blocks() []*StoredBlock {
	c := make([]*StoredBlock, len(s.blocks))
	copy(c, s.blocks)

	return c
}

// GetBlockByHeight returns the block at the given absolute height or nil when
// the height is outside the window.
func (s *Subchain) GetBlockByHeight(height int32) *StoredBlock {
	offset := int(s.Tip().Height() - height)

	return s.GetBlockFromTip(offset)
}

// GetBlockFromTip returns the block offset positions before the tip (0 is the tip).
func (s *Subchain) GetBlockFromTip(offset int) *StoredBlock {
	if offset < 0 || offset >= len(s.blocks) {
		return nil
	}

	return s.blocks[len(s.blocks)-1-offset]
}

// Append returns a new subchain extended by block, keeping at most maxLength blocks.
func (s *Subchain) Append(block *StoredBlock, maxLength int) (*Subchain, error) {
	if !block.PrevHash().IsEqual(s.Tip().Hash()) {
		return nil, errors.NewInvalidArgumentError("block %s does not follow %s", block.Hash(), s.Tip().Hash())
	}

	blocks := make([]*StoredBlock, 0, len(s.blocks)+1)
	blocks = append(blocks, s.blocks...)
	blocks = append(blocks, block)

	if maxLength > 0 && len(blocks) > maxLength {
		blocks = blocks[len(blocks)-maxLength:]
	}

	return &Subchain{blocks: blocks}, nil
}

// MedianTimePast is the median timestamp of the count blocks ending offset
// positions before the tip. Fewer blocks are used near the start of the window.
func (s *Subchain) MedianTimePast(offset int, count int) uint32 {
	timestamps := make([]uint32, 0, count)

	for i := offset; i < offset+count; i++ {
		b := s.GetBlockFromTip(i)
		if b == nil {
			break
		}

		timestamps = append(timestamps, b.Timestamp())
	}

	if len(timestamps) == 0 {
		return 0
	}

	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	return timestamps[len(timestamps)/2]
}
