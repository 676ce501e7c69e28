package script

import (
	"crypto/sha1" //nolint:gosec // OP_SHA1 is part of the script language
	"crypto/sha256"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-bt/v2/sighash"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // OP_RIPEMD160 is part of the script language
)

// pubkeyCount and sigCount of OP_CHECKMULTISIG are single byte values in this range.
const (
	minMultiSigCount = 1
	maxMultiSigCount = 0x7e
)

func registerCryptoOps(register func(byte, opcodeFunc)) {
	register(OP_RIPEMD160, opHash)
	register(OP_SHA1, opHash)
	register(OP_SHA256, opHash)
	register(OP_HASH160, opHash)
	register(OP_HASH256, opHash)
	register(OP_CODESEPARATOR, opCodeSeparator)
	register(OP_CHECKSIG, opCheckSig)
	register(OP_CHECKSIGVERIFY, opCheckSig)
	register(OP_CHECKMULTISIG, opCheckMultiSig)
	register(OP_CHECKMULTISIGVERIFY, opCheckMultiSigVerify)
}

func opHash(p *Processor, _ []byte, cmd Command) error {
	item, ok := p.pop()
	if !ok {
		return nil
	}

	var digest []byte

	switch cmd.Opcode {
	case OP_RIPEMD160:
		digest = ripemd160Sum(item)
	case OP_SHA1:
		sum := sha1.Sum(item) //nolint:gosec // consensus
		digest = sum[:]
	case OP_SHA256:
		sum := sha256.Sum256(item)
		digest = sum[:]
	case OP_HASH160:
		sum := sha256.Sum256(item)
		digest = ripemd160Sum(sum[:])
	case OP_HASH256:
		digest = chainhash.DoubleHashB(item)
	}

	p.push(digest)

	return nil
}

func ripemd160Sum(b []byte) []byte {
	h := ripemd160.New()
	_, _ = h.Write(b)

	return h.Sum(nil)
}

func opCodeSeparator(p *Processor, _ []byte, cmd Command) error {
	p.lastCodeSeparator = cmd.Offset
	return nil
}

// stack: sig pubkey -> bool
func opCheckSig(p *Processor, script []byte, cmd Command) error {
	if !p.require(2) {
		return nil
	}

	pubKey, _ := p.pop()
	sig, _ := p.pop()

	subscript := p.subscript(script)

	if p.calculator != nil && !p.calculator.UsesForkID() {
		subscript = findAndDelete(subscript, PushData(sig))
	}

	ok, err := p.checkSignature(sig, pubKey, subscript, nil)
	if err != nil {
		return err
	}

	p.push(fromBool(ok))

	if cmd.Opcode == OP_CHECKSIGVERIFY {
		p.verifyTop()
	}

	return nil
}

// stack: dummy sig1..sigM m pubkey1..pubkeyN n -> bool
func opCheckMultiSig(p *Processor, script []byte, _ Command) error {
	keyCount, ok := p.popCount()
	if !ok {
		return nil
	}

	if !p.require(keyCount) {
		return nil
	}

	n := len(p.dataStack)
	pubKeys := append([][]byte(nil), p.dataStack[n-keyCount:]...)
	p.dataStack = p.dataStack[:n-keyCount]

	sigCount, ok := p.popCount()
	if !ok {
		return nil
	}

	// the signatures plus the unused extra item
	if sigCount >= len(p.dataStack) {
		p.fail()
		return nil
	}

	n = len(p.dataStack)
	sigs := append([][]byte(nil), p.dataStack[n-sigCount:]...)
	p.dataStack = p.dataStack[:n-sigCount-1]

	subscript := p.subscript(script)

	if p.calculator != nil && !p.calculator.UsesForkID() {
		for _, sig := range sigs {
			subscript = findAndDelete(subscript, PushData(sig))
		}
	}

	digests := make(map[sighash.Flag][]byte, 1)

	matched := 0
	for key := 0; matched < len(sigs) && key < len(pubKeys); key++ {
		ok, err := p.checkSignature(sigs[matched], pubKeys[key], subscript, digests)
		if err != nil {
			return err
		}

		if ok {
			matched++
		}
	}

	p.push(fromBool(matched == len(sigs)))

	return nil
}

func opCheckMultiSigVerify(_ *Processor, _ []byte, cmd Command) error {
	return errNotImplemented(cmd)
}

// popCount pops a single byte count between minMultiSigCount and maxMultiSigCount.
func (p *Processor) popCount() (int, bool) {
	item, ok := p.pop()
	if !ok {
		return 0, false
	}

	if len(item) != 1 || item[0] < minMultiSigCount || item[0] > maxMultiSigCount {
		p.fail()
		return 0, false
	}

	return int(item[0]), true
}

// checkSignature verifies sig, which ends with its sighash type byte, against
// pubKey. digests caches the digest per sighash type when not nil.
func (p *Processor) checkSignature(sig, pubKey, subscript []byte, digests map[sighash.Flag][]byte) (bool, error) {
	if p.calculator == nil {
		return false, errors.NewConfigurationError("signature check without a sighash calculator")
	}

	if len(sig) == 0 {
		return false, nil
	}

	flag := sighash.Flag(sig[len(sig)-1])

	digest, ok := digests[flag]
	if !ok {
		preimage, err := p.calculator.Calculate(flag, subscript)
		if err != nil {
			if errors.Is(err, errors.ErrScriptInvalid) {
				return false, nil
			}

			return false, err
		}

		digest = chainhash.DoubleHashB(preimage)

		if digests != nil {
			digests[flag] = digest
		}
	}

	return verifySignature(sig[:len(sig)-1], pubKey, digest), nil
}

// findAndDelete removes every push of exactly data from script.
func findAndDelete(script, data []byte) []byte {
	commands, err := Parse(script)
	if err != nil {
		return script
	}

	return removeCommands(script, commands, func(cmd Command) bool {
		return cmd.Length == len(data) && string(cmd.Bytes(script)) == string(data)
	})
}
