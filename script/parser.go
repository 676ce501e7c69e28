package script

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/bsv-blockchain/chainstate/errors"
)

// Command is one parsed opcode. It references the raw script instead of
// copying it: Offset is where the opcode byte sits and Length covers the
// opcode, any length prefix and the pushed data.
type Command struct {
	Opcode byte
	Offset int
	Length int
}

// Parse splits script into commands. It fails without a partial result when
// a push runs past the end of the script, including a truncated length prefix.
func Parse(script []byte) ([]Command, error) {
	commands := make([]Command, 0, len(script)/2+1)

	for offset := 0; offset < len(script); {
		op := script[offset]
		remaining := len(script) - offset - 1

		var (
			prefixLen int
			dataLen   uint64
		)

		switch {
		case op >= OP_DATA_1 && op <= OP_DATA_75:
			dataLen = uint64(op)
		case op == OP_PUSHDATA1:
			prefixLen = 1
		case op == OP_PUSHDATA2:
			prefixLen = 2
		case op == OP_PUSHDATA4:
			prefixLen = 4
		}

		if prefixLen > 0 {
			if remaining < prefixLen {
				return nil, errors.NewScriptInvalidError("truncated %s length at offset %d", OpcodeName(op), offset)
			}

			prefix := script[offset+1 : offset+1+prefixLen]

			switch prefixLen {
			case 1:
				dataLen = uint64(prefix[0])
			case 2:
				dataLen = uint64(binary.LittleEndian.Uint16(prefix))
			default:
				dataLen = uint64(binary.LittleEndian.Uint32(prefix))
			}
		}

		if dataLen > uint64(remaining-prefixLen) {
			return nil, errors.NewScriptInvalidError("%s at offset %d pushes %d bytes, only %d left", OpcodeName(op), offset, dataLen, remaining-prefixLen)
		}

		length := 1 + prefixLen + int(dataLen)
		commands = append(commands, Command{Opcode: op, Offset: offset, Length: length})
		offset += length
	}

	return commands, nil
}

// IsPush is true for opcodes that carry their own data: 0x01..0x4b and the PUSHDATA forms.
func (c Command) IsPush() bool {
	return c.Opcode >= OP_DATA_1 && c.Opcode <= OP_PUSHDATA4
}

// Data returns the bytes pushed by c, a sub slice of script. Non push commands return nil.
func (c Command) Data(script []byte) []byte {
	if !c.IsPush() {
		return nil
	}

	start := c.Offset + 1

	switch c.Opcode {
	case OP_PUSHDATA1:
		start++
	case OP_PUSHDATA2:
		start += 2
	case OP_PUSHDATA4:
		start += 4
	}

	return script[start : c.Offset+c.Length]
}

// Bytes returns the raw command, opcode included.
func (c Command) Bytes(script []byte) []byte {
	return script[c.Offset : c.Offset+c.Length]
}

// IsPushOnly reports whether every command is a data push or a small number
// push (OP_0, OP_1NEGATE, OP_RESERVED, OP_1..OP_16).
func IsPushOnly(commands []Command) bool {
	for _, c := range commands {
		if c.Opcode > OP_16 {
			return false
		}
	}

	return true
}

// PushData returns the canonical, smallest push of data.
func PushData(data []byte) []byte {
	l := len(data)

	var b []byte

	switch {
	case l <= OP_DATA_75:
		b = make([]byte, 0, 1+l)
		b = append(b, byte(l))
	case l <= 0xff:
		b = make([]byte, 0, 2+l)
		b = append(b, OP_PUSHDATA1, byte(l))
	case l <= 0xffff:
		b = make([]byte, 3, 3+l)
		b[0] = OP_PUSHDATA2
		//nolint:gosec // bounded by the case
		binary.LittleEndian.PutUint16(b[1:], uint16(l))
	default:
		b = make([]byte, 5, 5+l)
		b[0] = OP_PUSHDATA4
		//nolint:gosec // scripts never reach 4GB
		binary.LittleEndian.PutUint32(b[1:], uint32(l))
	}

	return append(b, data...)
}

// Disassemble renders script as opcode names and hex pushes, e.g.
// "OP_DUP OP_HASH160 89abcd... OP_EQUALVERIFY OP_CHECKSIG".
func Disassemble(script []byte) (string, error) {
	commands, err := Parse(script)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(commands))

	for _, c := range commands {
		if c.IsPush() {
			parts = append(parts, hex.EncodeToString(c.Data(script)))
			continue
		}

		parts = append(parts, OpcodeName(c.Opcode))
	}

	return strings.Join(parts, " "), nil
}

// removeCommands returns a copy of script without the commands for which drop returns true.
func removeCommands(script []byte, commands []Command, drop func(Command) bool) []byte {
	out := make([]byte, 0, len(script))

	for _, c := range commands {
		if drop(c) {
			continue
		}

		out = append(out, c.Bytes(script)...)
	}

	return out
}
