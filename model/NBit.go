package model

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2"
)

var (
	bigOne    = big.NewInt(1)
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)

	// difficulty 1 target, 0x1d00ffff
	maxDifficultyTarget = CompactToBig(0x1d00ffff)
)

// NBit is the compact difficulty target as it appears in the serialized header (little endian).
type NBit [4]byte

// NewNBitFromString parses the big endian hex form, e.g. "1d00ffff".
func NewNBitFromString(s string) (*NBit, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid nBits hex %q", s, err)
	}

	if len(b) != 4 {
		return nil, errors.NewInvalidArgumentError("nBits should be 4 bytes long, got %d", len(b))
	}

	return NewNBitFromSlice(bt.ReverseBytes(b))
}

// NewNBitFromSlice copies the 4 little endian bytes of a serialized header.
func NewNBitFromSlice(b []byte) (*NBit, error) {
	if len(b) != 4 {
		return nil, errors.NewInvalidArgumentError("nBits should be 4 bytes long, got %d", len(b))
	}

	var n NBit

	copy(n[:], b)

	return &n, nil
}

func NewNBitFromUint32(compact uint32) NBit {
	var n NBit

	binary.LittleEndian.PutUint32(n[:], compact)

	return n
}

func (b NBit) Uint32() uint32 {
	return binary.LittleEndian.Uint32(b[:])
}

func (b NBit) String() string {
	return hex.EncodeToString(bt.ReverseBytes(b.CloneBytes()))
}

func (b NBit) CloneBytes() []byte {
	c := make([]byte, 4)
	copy(c, b[:])

	return c
}

// CalculateTarget expands the compact form into the full 256-bit target.
func (b NBit) CalculateTarget() *big.Int {
	return CompactToBig(b.Uint32())
}

// CalculateDifficulty is the difficulty 1 target divided by this target.
func (b NBit) CalculateDifficulty() *big.Float {
	target := b.CalculateTarget()
	if target.Sign() <= 0 {
		return new(big.Float)
	}

	return new(big.Float).Quo(new(big.Float).SetInt(maxDifficultyTarget), new(big.Float).SetInt(target))
}

// CalculateWork is the expected number of hashes needed to meet the target: 2^256 / (target + 1).
func (b NBit) CalculateWork() *big.Int {
	return CalcWork(b.Uint32())
}

// CalcWork calculates a work value from difficulty bits. A lower target means
// more work, so the work is the inverse of the target scaled by 2^256. One is
// added to the denominator to avoid division by zero.
func CalcWork(bits uint32) *big.Int {
	// a negative or zero target can only come from an invalid header
	difficultyNum := CompactToBig(bits)
	if difficultyNum.Sign() <= 0 {
		return big.NewInt(0)
	}

	// (1 << 256) / (difficultyNum + 1)
	denominator := new(big.Int).Add(difficultyNum, bigOne)

	return new(big.Int).Div(oneLsh256, denominator)
}

// CompactToBig converts the compact representation of a whole number N to a big.Int.
// The representation is similar to IEEE754 floating point numbers:
//
//	-------------------------------------------------
//	|   Exponent     |    Sign    |    Mantissa     |
//	-------------------------------------------------
//	| 8 bits [31-24] | 1 bit [23] | 23 bits [22-00] |
//	-------------------------------------------------
//
//	N = (-1^sign) * mantissa * 256^(exponent-3)
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	if isNegative {
		bn = bn.Neg(bn)
	}

	return bn
}

// BigToCompact converts a whole number N to the compact representation. Only
// 23 bits of precision are kept, so large values lose their low digits.
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32

	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		//nolint:gosec // at most 3 bytes
		mantissa = uint32(n.Bits()[0])
		mantissa <<= 8 * (3 - exponent)
	} else {
		tn := new(big.Int).Set(n)
		//nolint:gosec // shifted down to 3 bytes
		mantissa = uint32(tn.Rsh(tn, 8*(exponent-3)).Bits()[0])
	}

	// the sign bit is set, so shift the mantissa down and bump the exponent
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	//nolint:gosec // exponent fits in 8 bits for any 256-bit value
	compact := uint32(exponent<<24) | mantissa
	if n.Sign() < 0 {
		compact |= 0x00800000
	}

	return compact
}
