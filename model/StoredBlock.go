package model

import (
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// UnknownHeight marks a stored block whose parent has not been linked yet.
const UnknownHeight int32 = -1

// StoredBlock is a header as the blockchain knows it. It is immutable: every
// change goes through a StoredBlockBuilder and produces a new value.
type StoredBlock struct {
	header            *BlockHeader
	hash              chainhash.Hash
	height            int32
	totalWork         *big.Int
	hasContent        bool
	inBestHeaderChain bool
	inBestBlockChain  bool
}

// NewStoredBlock returns an unlinked stored block for header.
func NewStoredBlock(header *BlockHeader) *StoredBlock {
	return &StoredBlock{
		header:    header,
		hash:      *header.Hash(),
		height:    UnknownHeight,
		totalWork: new(big.Int),
	}
}

func (b *StoredBlock) Header() *BlockHeader {
	return b.header
}

func (b *StoredBlock) Hash() *chainhash.Hash {
	h := b.hash
	return &h
}

func (b *StoredBlock) PrevHash() *chainhash.Hash {
	return b.header.HashPrevBlock
}

func (b *StoredBlock) Height() int32 {
	return b.height
}

// TotalWork returns a copy of the cumulative work up to and including this block.
func (b *StoredBlock) TotalWork() *big.Int {
	return new(big.Int).Set(b.totalWork)
}

func (b *StoredBlock) HasContent() bool {
	return b.hasContent
}

func (b *StoredBlock) IsInBestHeaderChain() bool {
	return b.inBestHeaderChain
}

func (b *StoredBlock) IsInBestBlockChain() bool {
	return b.inBestBlockChain
}

func (b *StoredBlock) IsLinked() bool {
	return b.height != UnknownHeight
}

// Timestamp is the header timestamp.
func (b *StoredBlock) Timestamp() uint32 {
	return b.header.Timestamp
}

// Link returns a copy of b attached to parent: height is parent's plus one and
// total work is parent's plus the work of b's own nBits.
func (b *StoredBlock) Link(parent *StoredBlock) *StoredBlock {
	work := new(big.Int).Add(parent.totalWork, b.header.Bits.CalculateWork())

	return b.Builder().SetHeight(parent.height + 1).SetTotalWork(work).Build()
}

// HasMoreWorkThan is the fork choice order: more cumulative work wins, and on a
// tie the strictly earlier timestamp wins.
func (b *StoredBlock) HasMoreWorkThan(other *StoredBlock) bool {
	if other == nil {
		return true
	}

	switch b.totalWork.Cmp(other.totalWork) {
	case 1:
		return true
	case -1:
		return false
	default:
		return b.header.Timestamp < other.header.Timestamp
	}
}

func (b *StoredBlock) Equal(other *StoredBlock) bool {
	return other != nil && b.hash == other.hash
}

func (b *StoredBlock) String() string {
	return fmt.Sprintf("%s@%d", b.hash, b.height)
}

func (b *StoredBlock) Builder() *StoredBlockBuilder {
	c := *b
	c.totalWork = new(big.Int).Set(b.totalWork)

	return &StoredBlockBuilder{block: &c}
}

type StoredBlockBuilder struct {
	block *StoredBlock
}

func (sb *StoredBlockBuilder) SetHeight(height int32) *StoredBlockBuilder {
	sb.block.height = height
	return sb
}

func (sb *StoredBlockBuilder) SetTotalWork(work *big.Int) *StoredBlockBuilder {
	sb.block.totalWork = new(big.Int).Set(work)
	return sb
}

func (sb *StoredBlockBuilder) SetHasContent(hasContent bool) *StoredBlockBuilder {
	sb.block.hasContent = hasContent
	return sb
}

func (sb *StoredBlockBuilder) SetInBestHeaderChain(in bool) *StoredBlockBuilder {
	sb.block.inBestHeaderChain = in
	return sb
}

func (sb *StoredBlockBuilder) SetInBestBlockChain(in bool) *StoredBlockBuilder {
	sb.block.inBestBlockChain = in
	return sb
}

// Build returns the new block. The builder must not be used afterwards.
func (sb *StoredBlockBuilder) Build() *StoredBlock {
	b := sb.block
	sb.block = nil

	return b
}
