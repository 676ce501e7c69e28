package model

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

const BlockHeaderSize = 80

type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version uint32

	// Hash of the previous block header in the blockchain.
	HashPrevBlock *chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	HashMerkleRoot *chainhash.Hash

	// Time the block was created in unix time.
	Timestamp uint32

	// Difficulty target for the block.
	Bits NBit

	// Nonce used to generate the block.
	Nonce uint32
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize {
		return nil, errors.NewInvalidArgumentError("block header should be %d bytes long, got %d", BlockHeaderSize, len(headerBytes))
	}

	hashPrevBlock, err := chainhash.NewHash(headerBytes[4:36])
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error creating previous block hash from bytes", err)
	}

	hashMerkleRoot, err := chainhash.NewHash(headerBytes[36:68])
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error creating merkle root hash from bytes", err)
	}

	bits, _ := NewNBitFromSlice(headerBytes[72:76])

	return &BlockHeader{
		Version:        binary.LittleEndian.Uint32(headerBytes[:4]),
		HashPrevBlock:  hashPrevBlock,
		HashMerkleRoot: hashMerkleRoot,
		Timestamp:      binary.LittleEndian.Uint32(headerBytes[68:72]),
		Bits:           *bits,
		Nonce:          binary.LittleEndian.Uint32(headerBytes[76:]),
	}, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error decoding hex string to bytes", err)
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

func (bh *BlockHeader) Hash() *chainhash.Hash {
	hash := chainhash.DoubleHashH(bh.Bytes())
	return &hash
}

// HasMetTargetDifficulty checks the header hash against the target encoded in Bits.
func (bh *BlockHeader) HasMetTargetDifficulty() (bool, error) {
	target := bh.Bits.CalculateTarget()
	if target.Sign() <= 0 {
		return false, errors.NewHeaderInvalidError("block %s has a non positive target %s", bh.Hash(), bh.Bits)
	}

	bn := new(big.Int).SetBytes(bt.ReverseBytes(bh.Hash().CloneBytes()))
	if bn.Cmp(target) > 0 {
		return false, errors.NewHeaderInvalidError("block %s does not meet its target %s", bh.Hash(), bh.Bits)
	}

	return true, nil
}

func (bh *BlockHeader) Bytes() []byte {
	if bh == nil {
		return nil
	}

	blockHeaderBytes := make([]byte, 0, BlockHeaderSize)

	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], bh.Version)
	blockHeaderBytes = append(blockHeaderBytes, b[:]...)
	blockHeaderBytes = append(blockHeaderBytes, hashBytes(bh.HashPrevBlock)...)
	blockHeaderBytes = append(blockHeaderBytes, hashBytes(bh.HashMerkleRoot)...)
	binary.LittleEndian.PutUint32(b[:], bh.Timestamp)
	blockHeaderBytes = append(blockHeaderBytes, b[:]...)
	blockHeaderBytes = append(blockHeaderBytes, bh.Bits[:]...)
	binary.LittleEndian.PutUint32(b[:], bh.Nonce)
	blockHeaderBytes = append(blockHeaderBytes, b[:]...)

	return blockHeaderBytes
}

func (bh *BlockHeader) String() string {
	return fmt.Sprintf("%s (prev %s, time %d, bits %s)", bh.Hash(), bh.HashPrevBlock, bh.Timestamp, bh.Bits)
}

func hashBytes(h *chainhash.Hash) []byte {
	if h == nil {
		return make([]byte, chainhash.HashSize)
	}

	return h.CloneBytes()
}
