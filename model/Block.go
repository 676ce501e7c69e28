package model

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Block is a full block: header plus every transaction, coinbase first.
type Block struct {
	Header       *BlockHeader
	Transactions []*bt.Tx

	// local
	hash *chainhash.Hash
	size int
}

func NewBlock(header *BlockHeader, transactions []*bt.Tx) *Block {
	return &Block{
		Header:       header,
		Transactions: transactions,
	}
}

func NewBlockFromBytes(blockBytes []byte) (*Block, error) {
	block, err := NewBlockFromReader(bytes.NewReader(blockBytes))
	if err != nil {
		return nil, err
	}

	block.size = len(blockBytes)

	return block, nil
}

func NewBlockFromString(blockHex string) (*Block, error) {
	blockBytes, err := hex.DecodeString(blockHex)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error decoding hex string to bytes", err)
	}

	return NewBlockFromBytes(blockBytes)
}

// NewBlockFromReader reads a block serialized as header, varint tx count and transactions.
func NewBlockFromReader(r io.Reader) (*Block, error) {
	headerBytes := make([]byte, BlockHeaderSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, errors.NewInvalidArgumentError("error reading block header", err)
	}

	header, err := NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, err
	}

	var txCount bt.VarInt
	if _, err = txCount.ReadFrom(r); err != nil {
		return nil, errors.NewInvalidArgumentError("error reading transaction count", err)
	}

	block := &Block{
		Header: header,
	}

	// the count is untrusted, don't preallocate from it
	for i := uint64(0); i < uint64(txCount); i++ {
		tx := bt.NewTx()
		if _, err = tx.ReadFrom(r); err != nil {
			return nil, errors.NewInvalidArgumentError("error reading transaction %d of %d", i, txCount, err)
		}

		block.Transactions = append(block.Transactions, tx)
	}

	return block, nil
}

func (b *Block) Hash() *chainhash.Hash {
	if b.hash != nil {
		return b.hash
	}

	b.hash = b.Header.Hash()

	return b.hash
}

func (b *Block) String() string {
	return b.Hash().String()
}

func (b *Block) Bytes() []byte {
	buf := make([]byte, 0, BlockHeaderSize+9)
	buf = append(buf, b.Header.Bytes()...)
	buf = append(buf, bt.VarInt(uint64(len(b.Transactions))).Bytes()...)

	for _, tx := range b.Transactions {
		buf = append(buf, tx.Bytes()...)
	}

	return buf
}

// Size is the serialized size in bytes.
func (b *Block) Size() int {
	if b.size == 0 {
		b.size = len(b.Bytes())
	}

	return b.size
}

// CoinbaseTx returns the first transaction, or nil for an empty block.
func (b *Block) CoinbaseTx() *bt.Tx {
	if len(b.Transactions) == 0 {
		return nil
	}

	return b.Transactions[0]
}

// CalculateMerkleRoot builds the merkle tree over the transaction ids,
// duplicating the last hash of any level with an odd number of entries.
func (b *Block) CalculateMerkleRoot() (*chainhash.Hash, error) {
	if len(b.Transactions) == 0 {
		return nil, errors.NewBlockInvalidError("block %s has no transactions", b.Hash())
	}

	hashes := make([]*chainhash.Hash, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		hashes = append(hashes, tx.TxIDChainHash())
	}

	return MerkleRoot(hashes), nil
}

// CheckMerkleRoot fails if the header's merkle root does not commit to the transactions.
func (b *Block) CheckMerkleRoot() error {
	calculated, err := b.CalculateMerkleRoot()
	if err != nil {
		return errors.NewMerkleRootInvalidError("could not calculate merkle root of block %s", b.Hash(), err)
	}

	if !calculated.IsEqual(b.Header.HashMerkleRoot) {
		return errors.NewMerkleRootInvalidError("merkle root mismatch for block %s: header %s, calculated %s", b.Hash(), b.Header.HashMerkleRoot, calculated)
	}

	return nil
}

func MerkleRoot(leaves []*chainhash.Hash) *chainhash.Hash {
	if len(leaves) == 0 {
		return &chainhash.Hash{}
	}

	buf := make([]byte, 2*chainhash.HashSize)

	for len(leaves) > 1 {
		newLeaves := make([]*chainhash.Hash, 0, (len(leaves)+1)/2)

		for i := 0; i < len(leaves); i += 2 {
			left := leaves[i]

			right := left
			if i+1 < len(leaves) {
				right = leaves[i+1]
			}

			copy(buf[:chainhash.HashSize], left[:])
			copy(buf[chainhash.HashSize:], right[:])

			hash := chainhash.DoubleHashH(buf)
			newLeaves = append(newLeaves, &hash)
		}

		leaves = newLeaves
	}

	return leaves[0]
}
