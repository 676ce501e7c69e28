package script

import (
	"bytes"
	"encoding/binary"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	"github.com/bsv-blockchain/go-bt/v2/sighash"
)

type calculatorKind uint8

const (
	calculatorLegacy calculatorKind = iota
	calculatorForkID
)

func (k calculatorKind) String() string {
	if k == calculatorForkID {
		return "forkid"
	}

	return "legacy"
}

// SigHashCalculator produces the signature digest preimage for one input of
// tx. The caller double SHA-256 hashes the result before verifying a signature.
//
// The legacy variant serializes the whole transaction with the other inputs'
// scripts blanked and only supports SIGHASH_ALL. The fork id variant is the
// BIP143 style digest, which requires SIGHASH_FORKID on every signature.
type SigHashCalculator struct {
	kind calculatorKind
	tx   *bt.Tx

	// InputIndex is the input being signed.
	InputIndex int
	// Value is the amount held by the output that input spends.
	Value uint64

	hashPrevouts []byte
	hashSequence []byte
	hashOutputs  []byte
}

func NewLegacySigHashCalculator(tx *bt.Tx) *SigHashCalculator {
	return &SigHashCalculator{kind: calculatorLegacy, tx: tx}
}

func NewForkIDSigHashCalculator(tx *bt.Tx) *SigHashCalculator {
	return &SigHashCalculator{kind: calculatorForkID, tx: tx}
}

// UsesForkID is true for the fork id variant.
func (c *SigHashCalculator) UsesForkID() bool {
	return c.kind == calculatorForkID
}

func (c *SigHashCalculator) String() string {
	return c.kind.String()
}

// Calculate returns the digest preimage for flag over subscript.
func (c *SigHashCalculator) Calculate(flag sighash.Flag, subscript []byte) ([]byte, error) {
	if c.tx == nil {
		return nil, errors.NewConfigurationError("sighash calculator has no transaction")
	}

	if c.InputIndex < 0 || c.InputIndex >= len(c.tx.Inputs) {
		return nil, errors.NewInvalidArgumentError("input index %d out of range, tx has %d inputs", c.InputIndex, len(c.tx.Inputs))
	}

	if c.kind == calculatorForkID {
		return c.forkIDPreimage(flag, subscript)
	}

	return c.legacyPreimage(flag, subscript)
}

func (c *SigHashCalculator) legacyPreimage(flag sighash.Flag, subscript []byte) ([]byte, error) {
	if flag.Has(sighash.AnyOneCanPay) || !flag.HasWithMask(sighash.All) {
		return nil, errors.NewUnsupportedError("legacy sighash type 0x%02x is not supported", uint8(flag))
	}

	// OP_CODESEPARATOR never takes part in the signed script
	if commands, err := Parse(subscript); err == nil {
		subscript = removeCommands(subscript, commands, func(cmd Command) bool {
			return cmd.Opcode == OP_CODESEPARATOR
		})
	}

	tx := c.tx.Clone()

	for _, out := range tx.Outputs {
		if out.LockingScript == nil {
			out.LockingScript = &bscript.Script{}
		}
	}

	tx.Inputs[c.InputIndex].PreviousTxScript = bscript.NewFromBytes(subscript)

	preimage, err := tx.CalcInputPreimageLegacy(uint32(c.InputIndex), flag) //nolint:gosec // bounds checked by Calculate
	if err != nil {
		return nil, errors.NewScriptInvalidError("failed to build legacy sighash preimage", err)
	}

	return preimage, nil
}

// forkIDPreimage builds the BIP143 style preimage. The prevouts, sequence
// and outputs digests are shared by every signature over the transaction, so
// they are computed once per calculator.
func (c *SigHashCalculator) forkIDPreimage(flag sighash.Flag, subscript []byte) ([]byte, error) {
	if !flag.Has(sighash.ForkID) {
		return nil, errors.NewScriptInvalidError("sighash type 0x%02x is missing the fork id flag", uint8(flag))
	}

	zero := make([]byte, 32)
	none := flag.HasWithMask(sighash.None)
	single := flag.HasWithMask(sighash.Single)

	hashPrevouts := zero
	if !flag.Has(sighash.AnyOneCanPay) {
		hashPrevouts = c.prevoutsHash()
	}

	hashSequence := zero
	if !flag.Has(sighash.AnyOneCanPay) && !single && !none {
		hashSequence = c.sequenceHash()
	}

	hashOutputs := zero

	switch {
	case !single && !none:
		hashOutputs = c.outputsHash()
	case single && c.InputIndex < len(c.tx.Outputs):
		hashOutputs = c.tx.OutputsHash(int32(c.InputIndex)) //nolint:gosec // bounds checked above
	}

	in := c.tx.Inputs[c.InputIndex]

	buf := bytes.NewBuffer(make([]byte, 0, 156+len(subscript)))

	writeUint32(buf, c.tx.Version)
	buf.Write(hashPrevouts)
	buf.Write(hashSequence)
	buf.Write(in.PreviousTxID())
	writeUint32(buf, in.PreviousTxOutIndex)
	buf.Write(bt.VarInt(uint64(len(subscript))).Bytes())
	buf.Write(subscript)
	writeUint64(buf, c.Value)
	writeUint32(buf, in.SequenceNumber)
	buf.Write(hashOutputs)
	writeUint32(buf, c.tx.LockTime)
	writeUint32(buf, uint32(flag|sighash.ForkID))

	return buf.Bytes(), nil
}

func (c *SigHashCalculator) prevoutsHash() []byte {
	if c.hashPrevouts == nil {
		c.hashPrevouts = c.tx.PreviousOutHash()
	}

	return c.hashPrevouts
}

func (c *SigHashCalculator) sequenceHash() []byte {
	if c.hashSequence == nil {
		c.hashSequence = c.tx.SequenceHash()
	}

	return c.hashSequence
}

func (c *SigHashCalculator) outputsHash() []byte {
	if c.hashOutputs == nil {
		c.hashOutputs = c.tx.OutputsHash(-1)
	}

	return c.hashOutputs
}

// SigHashCalculatorFactory picks the calculator variant for the block a
// transaction is mined in. Blocks at or after ForkIDActivationTime use the
// fork id digest.
type SigHashCalculatorFactory struct {
	ForkIDActivationTime uint32
}

func NewSigHashCalculatorFactory(forkIDActivationTime uint32) *SigHashCalculatorFactory {
	return &SigHashCalculatorFactory{ForkIDActivationTime: forkIDActivationTime}
}

// UsesForkID reports which variant applies to a block with the given timestamp.
func (f *SigHashCalculatorFactory) UsesForkID(timestamp uint32) bool {
	return timestamp >= f.ForkIDActivationTime
}

// CreateCalculator returns a calculator for input 0 of tx; set InputIndex and
// Value before use.
func (f *SigHashCalculatorFactory) CreateCalculator(timestamp uint32, tx *bt.Tx) *SigHashCalculator {
	if f.UsesForkID(timestamp) {
		return NewForkIDSigHashCalculator(tx)
	}

	return NewLegacySigHashCalculator(tx)
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte

	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte

	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
