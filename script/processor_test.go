package script

import (
	"encoding/hex"
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, script ...byte) *Processor {
	t.Helper()

	p := NewProcessor()
	require.NoError(t, p.Execute(script))

	return p
}

func stackHex(p *Processor) []string {
	items := make([]string, 0, len(p.DataStack()))
	for _, item := range p.DataStack() {
		items = append(items, hex.EncodeToString(item))
	}

	return items
}

func TestProcessorArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		valid  bool
		stack  []string
	}{
		{"add", []byte{OP_2, OP_3, OP_ADD}, true, []string{"05"}},
		{"add to zero", []byte{0x01, 0x85, 0x01, 0x05, OP_ADD}, true, []string{""}},
		{"sub", []byte{OP_2, OP_5, OP_SUB}, true, []string{"83"}},
		{"not of zero", []byte{OP_0, OP_NOT}, true, []string{"01"}},
		{"not of one", []byte{OP_1, OP_NOT}, true, []string{""}},
		{"negative zero", []byte{0x01, 0x80, OP_NOT}, false, nil},
		{"redundant zero byte", []byte{0x02, 0x7f, 0x00, OP_NOT}, false, nil},
		{"redundant sign byte", []byte{0x02, 0x7f, 0x80, OP_NOT}, false, nil},
		{"redundant sign byte in add", []byte{0x02, 0x7f, 0x80, OP_1, OP_ADD}, false, nil},
		{"five byte operand", []byte{0x05, 0x01, 0x00, 0x00, 0x00, 0x00, OP_1, OP_ADD}, false, nil},
		{"two byte operand", []byte{0x02, 0xff, 0x00, OP_1ADD}, true, []string{"0001"}},
		{"sum grows past four bytes", []byte{0x04, 0xff, 0xff, 0xff, 0x7f, OP_DUP, OP_ADD}, true, []string{"feffffff00"}},
		{"negate", []byte{OP_5, OP_NEGATE}, true, []string{"85"}},
		{"abs", []byte{0x01, 0x85, OP_ABS}, true, []string{"05"}},
		{"0notequal", []byte{OP_7, OP_0NOTEQUAL}, true, []string{"01"}},
		{"booland", []byte{OP_1, OP_0, OP_BOOLAND}, true, []string{""}},
		{"boolor", []byte{OP_1, OP_0, OP_BOOLOR}, true, []string{"01"}},
		{"numequal", []byte{OP_3, OP_3, OP_NUMEQUAL}, true, []string{"01"}},
		{"numequalverify fails", []byte{OP_3, OP_4, OP_NUMEQUALVERIFY}, false, []string{""}},
		{"lessthan", []byte{OP_3, OP_4, OP_LESSTHAN}, true, []string{"01"}},
		{"greaterthanorequal", []byte{OP_3, OP_4, OP_GREATERTHANOREQUAL}, true, []string{""}},
		{"min", []byte{OP_3, OP_4, OP_MIN}, true, []string{"03"}},
		{"max", []byte{OP_3, OP_4, OP_MAX}, true, []string{"04"}},
		{"within", []byte{OP_3, OP_2, OP_5, OP_WITHIN}, true, []string{"01"}},
		{"within upper bound excluded", []byte{OP_5, OP_2, OP_5, OP_WITHIN}, true, []string{""}},
		{"add on one item", []byte{OP_1, OP_ADD}, false, []string{"01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := execute(t, tt.script...)
			assert.Equal(t, tt.valid, p.Valid())

			if tt.stack != nil {
				assert.Equal(t, tt.stack, stackHex(p))
			}
		})
	}
}

func TestProcessorStackOps(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		valid  bool
		stack  []string
	}{
		{"2drop", []byte{OP_1, OP_2, OP_3, OP_2DROP}, true, []string{"01"}},
		{"2dup", []byte{OP_1, OP_2, OP_2DUP}, true, []string{"01", "02", "01", "02"}},
		{"3dup", []byte{OP_1, OP_2, OP_3, OP_3DUP}, true, []string{"01", "02", "03", "01", "02", "03"}},
		{"2over", []byte{OP_1, OP_2, OP_3, OP_4, OP_2OVER}, true, []string{"01", "02", "03", "04", "01", "02"}},
		{"2rot", []byte{OP_1, OP_2, OP_3, OP_4, OP_5, OP_6, OP_2ROT}, true, []string{"03", "04", "05", "06", "01", "02"}},
		{"2swap", []byte{OP_1, OP_2, OP_3, OP_4, OP_2SWAP}, true, []string{"03", "04", "01", "02"}},
		{"ifdup true", []byte{OP_1, OP_IFDUP}, true, []string{"01", "01"}},
		{"ifdup false", []byte{OP_0, OP_IFDUP}, true, []string{""}},
		{"depth", []byte{OP_1, OP_1, OP_DEPTH}, true, []string{"01", "01", "02"}},
		{"drop", []byte{OP_1, OP_2, OP_DROP}, true, []string{"01"}},
		{"drop empty", []byte{OP_DROP}, false, nil},
		{"dup", []byte{OP_1, OP_DUP}, true, []string{"01", "01"}},
		{"nip", []byte{OP_1, OP_2, OP_NIP}, true, []string{"02"}},
		{"over", []byte{OP_1, OP_2, OP_OVER}, true, []string{"01", "02", "01"}},
		{"pick", []byte{OP_1, OP_2, OP_3, OP_2, OP_PICK}, true, []string{"01", "02", "03", "01"}},
		{"pick top", []byte{OP_1, OP_2, OP_0, OP_PICK}, true, []string{"01", "02", "02"}},
		{"pick out of range", []byte{OP_1, OP_2, OP_2, OP_PICK}, false, nil},
		{"pick negative", []byte{OP_1, OP_1NEGATE, OP_PICK}, false, nil},
		{"roll", []byte{OP_1, OP_2, OP_3, OP_2, OP_ROLL}, true, []string{"02", "03", "01"}},
		{"roll out of range", []byte{OP_1, OP_1, OP_ROLL}, false, nil},
		{"rot", []byte{OP_1, OP_2, OP_3, OP_ROT}, true, []string{"02", "03", "01"}},
		{"swap", []byte{OP_1, OP_2, OP_SWAP}, true, []string{"02", "01"}},
		{"tuck", []byte{OP_1, OP_2, OP_TUCK}, true, []string{"02", "01", "02"}},
		{"size", []byte{0x02, 0xaa, 0xbb, OP_SIZE}, true, []string{"aabb", "02"}},
		{"alt stack", []byte{OP_1, OP_2, OP_TOALTSTACK, OP_3, OP_FROMALTSTACK}, true, []string{"01", "03", "02"}},
		{"empty alt stack", []byte{OP_FROMALTSTACK}, false, nil},
		{"equal", []byte{0x01, 0xaa, 0x01, 0xaa, OP_EQUAL}, true, []string{"01"}},
		{"equalverify", []byte{0x01, 0xaa, 0x01, 0xaa, OP_EQUALVERIFY}, true, []string{}},
		{"equalverify mismatch", []byte{0x01, 0xaa, 0x01, 0xbb, OP_EQUALVERIFY}, false, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := execute(t, tt.script...)
			assert.Equal(t, tt.valid, p.Valid())

			if tt.stack != nil {
				assert.Equal(t, tt.stack, stackHex(p))
			}
		})
	}
}

func TestProcessorFlowControl(t *testing.T) {
	tests := []struct {
		name   string
		script []byte
		valid  bool
		stack  []string
	}{
		{"if taken", []byte{OP_1, OP_IF, OP_2, OP_ELSE, OP_3, OP_ENDIF}, true, []string{"02"}},
		{"if not taken", []byte{OP_0, OP_IF, OP_2, OP_ELSE, OP_3, OP_ENDIF}, true, []string{"03"}},
		{"notif", []byte{OP_0, OP_NOTIF, OP_2, OP_ENDIF}, true, []string{"02"}},
		{"else toggles again", []byte{OP_1, OP_IF, OP_2, OP_ELSE, OP_3, OP_ELSE, OP_4, OP_ENDIF}, true, []string{"02", "04"}},
		{"nested skip does not pop", []byte{OP_0, OP_IF, OP_IF, OP_2, OP_ENDIF, OP_ENDIF, OP_1}, true, []string{"01"}},
		{"if on empty stack", []byte{OP_IF, OP_ENDIF}, false, nil},
		{"unbalanced if", []byte{OP_1, OP_IF, OP_1}, false, nil},
		{"else without if", []byte{OP_ELSE}, false, nil},
		{"endif without if", []byte{OP_1, OP_ENDIF}, false, nil},
		{"verify true", []byte{OP_1, OP_VERIFY}, true, []string{}},
		{"verify false keeps value", []byte{OP_0, OP_VERIFY}, false, []string{""}},
		{"return", []byte{OP_1, OP_RETURN}, false, nil},
		{"return in skipped branch", []byte{OP_0, OP_IF, OP_RETURN, OP_ENDIF, OP_1}, true, []string{"01"}},
		{"nops", []byte{OP_NOP, OP_NOP1, OP_NOP2, OP_NOP3, OP_NOP4, OP_NOP10, OP_1}, true, []string{"01"}},
		{"reserved executed", []byte{OP_RESERVED}, false, nil},
		{"reserved skipped", []byte{OP_0, OP_IF, OP_RESERVED, OP_VER, OP_RESERVED1, OP_RESERVED2, OP_ENDIF, OP_1}, true, []string{"01"}},
		{"verif skipped", []byte{OP_0, OP_IF, OP_VERIF, OP_ENDIF, OP_1}, false, nil},
		{"vernotif skipped", []byte{OP_0, OP_IF, OP_VERNOTIF, OP_ENDIF, OP_1}, false, nil},
		{"pubkeyhash skipped", []byte{OP_0, OP_IF, OP_PUBKEYHASH, OP_ENDIF, OP_1}, false, nil},
		{"unassigned skipped", []byte{OP_0, OP_IF, 0xba, OP_ENDIF, OP_1}, false, nil},
		{"invalidopcode after the end", []byte{OP_1, OP_RETURN, OP_INVALIDOPCODE}, false, nil},
		{"parse failure", []byte{OP_1, 0x02, 0x01}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := execute(t, tt.script...)
			assert.Equal(t, tt.valid, p.Valid())

			if tt.stack != nil {
				assert.Equal(t, tt.stack, stackHex(p))
			}
		})
	}
}

func TestProcessorDisabledOpcodes(t *testing.T) {
	disabled := []byte{
		OP_CAT, OP_SUBSTR, OP_LEFT, OP_RIGHT, OP_INVERT, OP_AND, OP_OR, OP_XOR,
		OP_2MUL, OP_2DIV, OP_MUL, OP_DIV, OP_MOD, OP_LSHIFT, OP_RSHIFT,
	}

	for _, op := range disabled {
		t.Run(OpcodeName(op), func(t *testing.T) {
			p := execute(t, OP_1, OP_1, op)
			assert.False(t, p.Valid())

			p = execute(t, OP_0, OP_IF, op, OP_ENDIF, OP_1)
			assert.False(t, p.Valid())
			assert.Empty(t, p.DataStack(), "no command runs once a disabled opcode is found")
		})
	}
}

func TestProcessorHashes(t *testing.T) {
	tests := []struct {
		op   byte
		want string
	}{
		{OP_RIPEMD160, "9c1185a5c5e9fc54612808977ee8f548b2258d31"},
		{OP_SHA1, "da39a3ee5e6b4b0d3255bfef95601890afd80709"},
		{OP_SHA256, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{OP_HASH160, "b472a266d0bd89c13706a4132ccfb16f7c3b9fcb"},
		{OP_HASH256, "5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456"},
	}

	for _, tt := range tests {
		t.Run(OpcodeName(tt.op), func(t *testing.T) {
			p := execute(t, OP_0, tt.op)
			require.True(t, p.Valid())
			assert.Equal(t, []string{tt.want}, stackHex(p))
		})
	}
}

func TestProcessorState(t *testing.T) {
	t.Run("stacks carry over between scripts", func(t *testing.T) {
		p := NewProcessor()
		require.NoError(t, p.Execute([]byte{OP_2}))
		require.NoError(t, p.Execute([]byte{OP_3, OP_ADD, OP_5, OP_EQUAL}))

		assert.True(t, p.Valid())
		assert.True(t, p.Success())
	})

	t.Run("failure is sticky until reset", func(t *testing.T) {
		p := NewProcessor()
		require.NoError(t, p.Execute([]byte{OP_RETURN}))
		require.False(t, p.Valid())

		require.NoError(t, p.Execute([]byte{OP_1}))
		assert.False(t, p.Valid())
		assert.False(t, p.Success())
		assert.Empty(t, p.DataStack())

		p.Reset()
		require.NoError(t, p.Execute([]byte{OP_1}))
		assert.True(t, p.Success())
	})

	t.Run("success needs a true top item", func(t *testing.T) {
		assert.False(t, execute(t).Success())
		assert.False(t, execute(t, OP_0).Success())
		assert.True(t, execute(t, OP_0, OP_1).Success())
	})
}

func TestProcessorFatalConditions(t *testing.T) {
	t.Run("checkmultisigverify is not implemented", func(t *testing.T) {
		p := NewProcessor()
		err := p.Execute([]byte{OP_0, OP_0, OP_1, 0x01, 0x02, OP_1, OP_CHECKMULTISIGVERIFY})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotImplemented))
		assert.False(t, p.Valid())
	})

	t.Run("checkmultisigverify in a skipped branch", func(t *testing.T) {
		p := NewProcessor()
		require.NoError(t, p.Execute([]byte{OP_0, OP_IF, OP_CHECKMULTISIGVERIFY, OP_ENDIF, OP_1}))
		assert.True(t, p.Success())
	})

	t.Run("checksig without calculator", func(t *testing.T) {
		p := NewProcessor()
		err := p.Execute([]byte{0x01, 0x01, 0x01, 0x02, OP_CHECKSIG})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})
}
