package script

import (
	"encoding/hex"
	"strings"

	"github.com/bsv-blockchain/chainstate/errors"
)

type opcodeKind uint8

const (
	// kindNormal opcodes only run inside an executing branch.
	kindNormal opcodeKind = iota
	// kindControl opcodes always run so skipped branches can be tracked.
	kindControl
	// kindPoison opcodes invalidate the script wherever they appear.
	kindPoison
)

type opcodeFunc func(p *Processor, script []byte, cmd Command) error

type opcodeEntry struct {
	kind opcodeKind
	exec opcodeFunc
}

var opcodeTable [256]opcodeEntry

func init() {
	for i := range opcodeTable {
		opcodeTable[i] = opcodeEntry{kind: kindPoison}
	}

	normal := func(op byte, fn opcodeFunc) {
		opcodeTable[op] = opcodeEntry{kind: kindNormal, exec: fn}
	}

	control := func(op byte, fn opcodeFunc) {
		opcodeTable[op] = opcodeEntry{kind: kindControl, exec: fn}
	}

	normal(OP_0, opPushData)

	for op := OP_DATA_1; op <= OP_PUSHDATA4; op++ {
		normal(byte(op), opPushData)
	}

	normal(OP_1NEGATE, opPushSmallInt)

	for op := OP_1; op <= OP_16; op++ {
		normal(byte(op), opPushSmallInt)
	}

	for _, op := range []byte{OP_RESERVED, OP_VER, OP_RESERVED1, OP_RESERVED2, OP_RETURN} {
		normal(op, opFail)
	}

	for _, op := range []byte{OP_NOP, OP_NOP1, OP_NOP2, OP_NOP3, OP_NOP4, OP_NOP5, OP_NOP6, OP_NOP7, OP_NOP8, OP_NOP9, OP_NOP10} {
		normal(op, opNop)
	}

	control(OP_IF, opIf)
	control(OP_NOTIF, opIf)
	control(OP_ELSE, opElse)
	control(OP_ENDIF, opEndIf)

	normal(OP_VERIFY, opVerify)

	registerStackOps(normal)
	registerArithmeticOps(normal)
	registerCryptoOps(normal)

	// disabled, VERIF/VERNOTIF and everything past OP_NOP10 stay poison
}

// Processor is the script stack machine. Stacks carry over between calls to
// Execute, so a signature script followed by a pubkey script share state.
// Once a script fails the processor stays invalid until Reset.
type Processor struct {
	dataStack [][]byte
	altStack  [][]byte
	control   ControlStack

	valid             bool
	lastCodeSeparator int

	calculator *SigHashCalculator
}

func NewProcessor() *Processor {
	return &Processor{valid: true, lastCodeSeparator: -1}
}

// SetSigHashCalculator sets the digest source for the signature opcodes.
func (p *Processor) SetSigHashCalculator(calculator *SigHashCalculator) {
	p.calculator = calculator
}

// Execute runs script. A script that fails only clears Valid; the returned
// error is reserved for conditions the script itself cannot cause to pass
// or fail, such as a missing sighash calculator or an unimplemented opcode.
func (p *Processor) Execute(script []byte) error {
	if !p.valid {
		return nil
	}

	commands, err := Parse(script)
	if err != nil {
		p.valid = false
		return nil
	}

	for _, cmd := range commands {
		if opcodeTable[cmd.Opcode].kind == kindPoison {
			p.valid = false
			return nil
		}
	}

	p.control.Reset()
	p.lastCodeSeparator = -1

	for _, cmd := range commands {
		entry := opcodeTable[cmd.Opcode]

		if entry.kind != kindControl && !p.control.Execute() {
			continue
		}

		if err = entry.exec(p, script, cmd); err != nil {
			p.valid = false
			return err
		}

		if !p.valid {
			return nil
		}
	}

	if !p.control.IsEmpty() {
		p.valid = false
	}

	return nil
}

// Valid is false once any executed script has failed.
func (p *Processor) Valid() bool {
	return p.valid
}

// Success is true when every script so far was valid and left a true value on top of the stack.
func (p *Processor) Success() bool {
	if !p.valid || len(p.dataStack) == 0 {
		return false
	}

	return asBool(p.dataStack[len(p.dataStack)-1])
}

func (p *Processor) Reset() {
	p.dataStack = p.dataStack[:0]
	p.altStack = p.altStack[:0]
	p.control.Reset()
	p.valid = true
	p.lastCodeSeparator = -1
}

// DataStack returns a copy of the data stack, bottom first.
func (p *Processor) DataStack() [][]byte {
	stack := make([][]byte, len(p.dataStack))
	copy(stack, p.dataStack)

	return stack
}

func (p *Processor) AltStack() [][]byte {
	stack := make([][]byte, len(p.altStack))
	copy(stack, p.altStack)

	return stack
}

func (p *Processor) String() string {
	items := make([]string, len(p.dataStack))
	for i, item := range p.dataStack {
		items[i] = hex.EncodeToString(item)
	}

	return "[" + strings.Join(items, " ") + "]"
}

func (p *Processor) fail() {
	p.valid = false
}

func (p *Processor) push(item []byte) {
	p.dataStack = append(p.dataStack, item)
}

func (p *Processor) pop() ([]byte, bool) {
	if len(p.dataStack) == 0 {
		p.fail()
		return nil, false
	}

	item := p.dataStack[len(p.dataStack)-1]
	p.dataStack = p.dataStack[:len(p.dataStack)-1]

	return item, true
}

// peek returns the item depth positions below the top, 0 being the top.
func (p *Processor) peek(depth int) []byte {
	return p.dataStack[len(p.dataStack)-1-depth]
}

// require checks the stack holds at least n items and fails the script otherwise.
func (p *Processor) require(n int) bool {
	if len(p.dataStack) < n {
		p.fail()
		return false
	}

	return true
}

func (p *Processor) popNumber() (int64, bool) {
	item, ok := p.pop()
	if !ok {
		return 0, false
	}

	n, ok := decodeNumber(item)
	if !ok {
		p.fail()
		return 0, false
	}

	return n, true
}

// verifyTop pops the top item and fails the script when it is false, leaving the item in place.
func (p *Processor) verifyTop() {
	item, ok := p.pop()
	if !ok {
		return
	}

	if !asBool(item) {
		p.push(item)
		p.fail()
	}
}

// subscript is the script after the last executed OP_CODESEPARATOR.
func (p *Processor) subscript(script []byte) []byte {
	return script[p.lastCodeSeparator+1:]
}

func opPushData(p *Processor, script []byte, cmd Command) error {
	data := cmd.Data(script)

	item := make([]byte, len(data))
	copy(item, data)
	p.push(item)

	return nil
}

func opPushSmallInt(p *Processor, _ []byte, cmd Command) error {
	if cmd.Opcode == OP_1NEGATE {
		p.push(encodeNumber(-1))
		return nil
	}

	p.push(encodeNumber(int64(cmd.Opcode) - (OP_1 - 1)))

	return nil
}

func opNop(*Processor, []byte, Command) error {
	return nil
}

func opFail(p *Processor, _ []byte, _ Command) error {
	p.fail()
	return nil
}

func opIf(p *Processor, _ []byte, cmd Command) error {
	condition := false

	if p.control.Execute() {
		item, ok := p.pop()
		if !ok {
			return nil
		}

		condition = asBool(item)
		if cmd.Opcode == OP_NOTIF {
			condition = !condition
		}
	}

	p.control.Push(condition)

	return nil
}

func opElse(p *Processor, _ []byte, _ Command) error {
	if !p.control.Toggle() {
		p.fail()
	}

	return nil
}

func opEndIf(p *Processor, _ []byte, _ Command) error {
	if !p.control.Pop() {
		p.fail()
	}

	return nil
}

func opVerify(p *Processor, _ []byte, _ Command) error {
	p.verifyTop()
	return nil
}

// errNotImplemented is returned for opcodes this processor does not evaluate.
func errNotImplemented(cmd Command) error {
	return errors.NewNotImplementedError("%s is not implemented", OpcodeName(cmd.Opcode))
}
