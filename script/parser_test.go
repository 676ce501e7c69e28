package script

import (
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("empty script", func(t *testing.T) {
		commands, err := Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, commands)
	})

	t.Run("p2pkh", func(t *testing.T) {
		script, _ := hex.DecodeString("76a914bbc1e42a39d05a4cc61752d6963b7f69d09bb27b88ac")

		commands, err := Parse(script)
		require.NoError(t, err)
		require.Len(t, commands, 5)

		assert.Equal(t, Command{Opcode: OP_DUP, Offset: 0, Length: 1}, commands[0])
		assert.Equal(t, Command{Opcode: OP_HASH160, Offset: 1, Length: 1}, commands[1])
		assert.Equal(t, Command{Opcode: OP_DATA_20, Offset: 2, Length: 21}, commands[2])
		assert.Equal(t, script[3:23], commands[2].Data(script))
		assert.Equal(t, Command{Opcode: OP_EQUALVERIFY, Offset: 23, Length: 1}, commands[3])
		assert.Equal(t, Command{Opcode: OP_CHECKSIG, Offset: 24, Length: 1}, commands[4])
	})

	t.Run("pushdata forms", func(t *testing.T) {
		script := []byte{OP_PUSHDATA1, 0x02, 0xaa, 0xbb, OP_PUSHDATA2, 0x01, 0x00, 0xcc, OP_PUSHDATA4, 0x00, 0x00, 0x00, 0x00}

		commands, err := Parse(script)
		require.NoError(t, err)
		require.Len(t, commands, 3)

		assert.Equal(t, []byte{0xaa, 0xbb}, commands[0].Data(script))
		assert.Equal(t, []byte{0xcc}, commands[1].Data(script))
		assert.Empty(t, commands[2].Data(script))
		assert.Equal(t, 5, commands[2].Length)
	})

	tests := []struct {
		name   string
		script []byte
	}{
		{"push past end", []byte{0x02, 0x01}},
		{"missing pushdata1 length", []byte{OP_PUSHDATA1}},
		{"truncated pushdata2 length", []byte{OP_PUSHDATA2, 0x01}},
		{"truncated pushdata4 length", []byte{OP_PUSHDATA4, 0x01, 0x00, 0x00}},
		{"pushdata4 past end", []byte{OP_PUSHDATA4, 0xff, 0xff, 0xff, 0xff, 0x00}},
		{"valid prefix then truncated", []byte{OP_DUP, OP_DUP, 0x4b}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commands, err := Parse(tt.script)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrScriptInvalid))
			assert.Nil(t, commands)
		})
	}
}

func TestParseCoversScript(t *testing.T) {
	rnd := rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test input

	for i := 0; i < 2000; i++ {
		script := make([]byte, rnd.Intn(64))
		rnd.Read(script)

		commands, err := Parse(script)
		if err != nil {
			assert.Nil(t, commands)
			continue
		}

		offset := 0
		for _, cmd := range commands {
			require.Equal(t, offset, cmd.Offset)
			offset += cmd.Length
		}

		require.Equal(t, len(script), offset, "script %x", script)
	}
}

func TestIsPushOnly(t *testing.T) {
	pushes := []byte{OP_0, 0x01, 0xaa, OP_1NEGATE, OP_1, OP_16}
	commands, err := Parse(pushes)
	require.NoError(t, err)
	assert.True(t, IsPushOnly(commands))

	commands, err = Parse([]byte{OP_1, OP_NOP})
	require.NoError(t, err)
	assert.False(t, IsPushOnly(commands))
}

func TestPushData(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0xaa}, PushData([]byte{0xaa}))
	assert.Equal(t, []byte{OP_PUSHDATA1, 0x4c}, PushData(make([]byte, 0x4c))[:2])
	assert.Equal(t, []byte{OP_PUSHDATA2, 0x00, 0x01}, PushData(make([]byte, 0x100))[:3])

	for _, size := range []int{0, 1, 75, 76, 255, 256, 70000} {
		script := PushData(make([]byte, size))

		commands, err := Parse(script)
		require.NoError(t, err)
		require.Len(t, commands, 1)
		assert.Len(t, commands[0].Data(script), size)
	}
}

func TestDisassemble(t *testing.T) {
	script, _ := hex.DecodeString("76a914bbc1e42a39d05a4cc61752d6963b7f69d09bb27b88ac")

	asm, err := Disassemble(script)
	require.NoError(t, err)
	assert.Equal(t, "OP_DUP OP_HASH160 bbc1e42a39d05a4cc61752d6963b7f69d09bb27b OP_EQUALVERIFY OP_CHECKSIG", asm)

	_, err = Disassemble([]byte{0x05})
	require.Error(t, err)
}
