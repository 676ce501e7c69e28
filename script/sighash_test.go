package script

import (
	"encoding/hex"
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-bt/v2/sighash"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// f4184fc596403b9d638783cf57adfe4c75c605f6356fbc91338530e9831e9e16, the first pay to pubkey spend
	historicTx            = "0100000001c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd3704000000004847304402204e45e16932b8af514961a1d3a1a25fdf3f4f7732e9d624c6c61548ab5fb8cd410220181522ec8eca07de4860a4acdd12909d831cc56cbbac4622082221a8768d1d0901ffffffff0200ca9a3b00000000434104ae1a62fe09c5f51b13905f07f06b99a2f7159b2225f374cd378d71302fa28414e7aab37397f554a7df5f142c21c1b7303b8a0626f1baded5c72a704f7e6cd84cac00286bee0000000043410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac00000000"
	historicPrevoutScript = "410411db93e1dcdb8a016b49840f8c53bc1eb68a382e97b1482ecad7b148a6909a5cb2e0eaddfb84ccf9744464f82e160bfa9b8b64f9d4c03f999b8643f656b412a3ac"

	// p2pkh spend signed with SIGHASH_ALL|SIGHASH_FORKID over a 50000000 satoshi output
	forkIDTx            = "010000000184fd9bac333ad79154348296204fa7f8c537a96e08983e5f73b3f5aca8e8edf7010000006b4830450221009377c312145a5afb911bf9e8c067bcf6094c533603687850df502b61290bbf5e022061d4743163414b5769c6b260376438b11e49d2c9878b8e1fd3cf1812c602a49a412103f028892bad7ed57d2fb57bf33081d5cfcf6f9ed3d3d7f159c2e2fff579dc341affffffff0170c9fa02000000001976a914000102030405060708090a0b0c0d0e0f1011121388ac00000000"
	forkIDPrevoutScript = "76a914bbc1e42a39d05a4cc61752d6963b7f69d09bb27b88ac"
	forkIDPreimage      = "010000005dca76a6100d03bc770e6e797a96f020f9641f4bfc0df6cdbb02b3a9a6b374c63bb13029ce7b1f559ef5e747fcac439f1455a2ec7c5f09b72290795e7066504484fd9bac333ad79154348296204fa7f8c537a96e08983e5f73b3f5aca8e8edf7010000001976a914bbc1e42a39d05a4cc61752d6963b7f69d09bb27b88ac80f0fa0200000000ffffffff04720db9d82145cf00534fcdfba92ca598f0dbdab723b1cddb8492db51c553250000000041000000"
	forkIDValue         = 50000000
)

func mustTx(t *testing.T, txHex string) *bt.Tx {
	t.Helper()

	tx, err := bt.NewTxFromString(txHex)
	require.NoError(t, err)

	return tx
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// runSpend executes the unlocking script of input 0 and then prevoutScript.
func runSpend(t *testing.T, calculator *SigHashCalculator, unlocking, prevoutScript []byte) *Processor {
	t.Helper()

	p := NewProcessor()
	p.SetSigHashCalculator(calculator)

	require.NoError(t, p.Execute(unlocking))
	require.NoError(t, p.Execute(prevoutScript))

	return p
}

func TestSigHashLegacyHistoricSpend(t *testing.T) {
	tx := mustTx(t, historicTx)
	prevout := mustHex(t, historicPrevoutScript)

	calculator := NewLegacySigHashCalculator(tx)
	calculator.Value = 5000000000

	p := runSpend(t, calculator, *tx.Inputs[0].UnlockingScript, prevout)
	assert.True(t, p.Valid())
	assert.True(t, p.Success())

	t.Run("corrupted signature", func(t *testing.T) {
		unlocking := append([]byte(nil), *tx.Inputs[0].UnlockingScript...)
		unlocking[10] ^= 0x01

		p := runSpend(t, NewLegacySigHashCalculator(tx), unlocking, prevout)
		assert.True(t, p.Valid())
		assert.False(t, p.Success())
	})

	t.Run("fork id calculator rejects legacy signature", func(t *testing.T) {
		p := runSpend(t, NewForkIDSigHashCalculator(tx), *tx.Inputs[0].UnlockingScript, prevout)
		assert.False(t, p.Success())
	})
}

func TestSigHashForkIDSpend(t *testing.T) {
	tx := mustTx(t, forkIDTx)
	prevout := mustHex(t, forkIDPrevoutScript)

	calculator := NewForkIDSigHashCalculator(tx)
	calculator.Value = forkIDValue

	preimage, err := calculator.Calculate(sighash.All|sighash.ForkID, prevout)
	require.NoError(t, err)
	assert.Equal(t, forkIDPreimage, hex.EncodeToString(preimage))

	p := runSpend(t, calculator, *tx.Inputs[0].UnlockingScript, prevout)
	assert.True(t, p.Success())

	t.Run("wrong value", func(t *testing.T) {
		calculator := NewForkIDSigHashCalculator(tx)
		calculator.Value = forkIDValue + 1

		p := runSpend(t, calculator, *tx.Inputs[0].UnlockingScript, prevout)
		assert.True(t, p.Valid())
		assert.False(t, p.Success())
	})

	t.Run("legacy calculator", func(t *testing.T) {
		calculator := NewLegacySigHashCalculator(tx)
		calculator.Value = forkIDValue

		p := runSpend(t, calculator, *tx.Inputs[0].UnlockingScript, prevout)
		assert.False(t, p.Success())
	})
}

func TestSigHashTypes(t *testing.T) {
	tx := mustTx(t, forkIDTx)
	prevout := mustHex(t, forkIDPrevoutScript)

	t.Run("legacy only supports all", func(t *testing.T) {
		calculator := NewLegacySigHashCalculator(tx)

		_, err := calculator.Calculate(sighash.All, prevout)
		require.NoError(t, err)

		for _, flag := range []sighash.Flag{sighash.None, sighash.Single, sighash.All | sighash.AnyOneCanPay, 0x00, 0x04} {
			_, err = calculator.Calculate(flag, prevout)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrUnsupported), "type %s", flag)
		}
	})

	t.Run("legacy unsupported type surfaces from checksig", func(t *testing.T) {
		p := NewProcessor()
		p.SetSigHashCalculator(NewLegacySigHashCalculator(tx))

		err := p.Execute([]byte{0x02, 0x30, byte(sighash.None), 0x01, 0x02, OP_CHECKSIG})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrUnsupported))
	})

	t.Run("fork id requires the flag", func(t *testing.T) {
		calculator := NewForkIDSigHashCalculator(tx)

		_, err := calculator.Calculate(sighash.All, prevout)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrScriptInvalid))
	})

	t.Run("fork id zeroes the hashes per type", func(t *testing.T) {
		calculator := NewForkIDSigHashCalculator(tx)
		zero := make([]byte, 32)

		all, err := calculator.Calculate(sighash.All|sighash.ForkID, prevout)
		require.NoError(t, err)

		none, err := calculator.Calculate(sighash.None|sighash.ForkID, prevout)
		require.NoError(t, err)
		assert.Equal(t, all[4:36], none[4:36])
		assert.Equal(t, zero, none[36:68])
		assert.Equal(t, zero, none[len(none)-40:len(none)-8])

		anyone, err := calculator.Calculate(sighash.All|sighash.ForkID|sighash.AnyOneCanPay, prevout)
		require.NoError(t, err)
		assert.Equal(t, zero, anyone[4:36])
		assert.Equal(t, zero, anyone[36:68])
		assert.Equal(t, all[len(all)-40:len(all)-8], anyone[len(anyone)-40:len(anyone)-8])
		assert.Equal(t, []byte{0xc1, 0, 0, 0}, anyone[len(anyone)-4:])

		single, err := calculator.Calculate(sighash.Single|sighash.ForkID, prevout)
		require.NoError(t, err)
		assert.Equal(t, zero, single[36:68])
		// one output, so hashing only the matching output equals hashing all of them
		assert.Equal(t, all[len(all)-40:len(all)-8], single[len(single)-40:len(single)-8])

		noOutputs := mustTx(t, forkIDTx)
		noOutputs.Outputs = nil

		unmatched, err := NewForkIDSigHashCalculator(noOutputs).Calculate(sighash.Single|sighash.ForkID, prevout)
		require.NoError(t, err)
		assert.Equal(t, zero, unmatched[len(unmatched)-40:len(unmatched)-8])
	})

	t.Run("input index out of range", func(t *testing.T) {
		calculator := NewForkIDSigHashCalculator(tx)
		calculator.InputIndex = 1

		_, err := calculator.Calculate(sighash.All|sighash.ForkID, prevout)
		require.Error(t, err)
	})
}

func TestSigHashPreimages(t *testing.T) {
	tx := mustTx(t, historicTx)
	prevout := mustHex(t, historicPrevoutScript)

	t.Run("legacy leaves the transaction untouched", func(t *testing.T) {
		preimage, err := NewLegacySigHashCalculator(tx).Calculate(sighash.All, prevout)
		require.NoError(t, err)

		assert.Nil(t, tx.Inputs[0].PreviousTxScript)
		assert.Equal(t, []byte{0x01, 0, 0, 0}, preimage[len(preimage)-4:])
		assert.Contains(t, hex.EncodeToString(preimage), historicPrevoutScript)
	})

	t.Run("legacy drops code separators", func(t *testing.T) {
		calculator := NewLegacySigHashCalculator(tx)

		plain, err := calculator.Calculate(sighash.All, []byte{OP_1, OP_DROP})
		require.NoError(t, err)

		separated, err := calculator.Calculate(sighash.All, []byte{OP_1, OP_CODESEPARATOR, OP_DROP})
		require.NoError(t, err)
		assert.Equal(t, plain, separated)
	})

	t.Run("fork id digests match go-bt", func(t *testing.T) {
		calculator := NewForkIDSigHashCalculator(tx)

		preimage, err := calculator.Calculate(sighash.AllForkID, prevout)
		require.NoError(t, err)

		assert.Equal(t, tx.PreviousOutHash(), preimage[4:36])
		assert.Equal(t, tx.SequenceHash(), preimage[36:68])
		assert.Equal(t, tx.OutputsHash(-1), preimage[len(preimage)-40:len(preimage)-8])

		again, err := calculator.Calculate(sighash.AllForkID, prevout)
		require.NoError(t, err)
		assert.Equal(t, preimage, again)
	})
}

func TestSigHashCalculatorFactory(t *testing.T) {
	tx := mustTx(t, forkIDTx)
	factory := NewSigHashCalculatorFactory(1501590000)

	assert.False(t, factory.CreateCalculator(1501589999, tx).UsesForkID())
	assert.True(t, factory.CreateCalculator(1501590000, tx).UsesForkID())
	assert.True(t, factory.CreateCalculator(1700000000, tx).UsesForkID())
	assert.Equal(t, "legacy", factory.CreateCalculator(0, tx).String())
}

type testKey struct {
	priv   *btcec.PrivateKey
	pubKey []byte
}

func newTestKeys(n int) []testKey {
	keys := make([]testKey, n)

	for i := range keys {
		seed := make([]byte, 32)
		seed[31] = byte(i + 1)
		seed[0] = 0x42

		priv, pub := btcec.PrivKeyFromBytes(seed)
		keys[i] = testKey{priv: priv, pubKey: pub.SerializeCompressed()}
	}

	return keys
}

func signInput(t *testing.T, calculator *SigHashCalculator, key testKey, subscript []byte) []byte {
	t.Helper()

	flag := sighash.AllForkID

	preimage, err := calculator.Calculate(flag, subscript)
	require.NoError(t, err)

	sig := ecdsa.Sign(key.priv, chainhash.DoubleHashB(preimage))

	return append(sig.Serialize(), byte(flag))
}

func multiSigScript(m int, keys []testKey) []byte {
	script := []byte{byte(OP_1 - 1 + m)}
	for _, key := range keys {
		script = append(script, PushData(key.pubKey)...)
	}

	return append(script, byte(OP_1-1+len(keys)), OP_CHECKMULTISIG)
}

func TestCheckSig(t *testing.T) {
	tx := mustTx(t, forkIDTx)
	keys := newTestKeys(1)

	locking := append(PushData(keys[0].pubKey), OP_CHECKSIG)
	calculator := NewForkIDSigHashCalculator(tx)
	calculator.Value = 1000

	sig := signInput(t, calculator, keys[0], locking)

	t.Run("valid", func(t *testing.T) {
		p := runSpend(t, calculator, PushData(sig), locking)
		assert.True(t, p.Success())
	})

	t.Run("checksigverify", func(t *testing.T) {
		verify := append(PushData(keys[0].pubKey), OP_CHECKSIGVERIFY, OP_1)

		p := runSpend(t, calculator, PushData(signInput(t, calculator, keys[0], verify)), verify)
		assert.True(t, p.Success())
		assert.Len(t, p.DataStack(), 1)

		p = runSpend(t, calculator, PushData(sig), verify)
		assert.False(t, p.Valid())
	})

	t.Run("flag missing counts as failure", func(t *testing.T) {
		stripped := append(append([]byte(nil), sig[:len(sig)-1]...), byte(sighash.All))

		p := runSpend(t, calculator, PushData(stripped), locking)
		assert.True(t, p.Valid())
		assert.False(t, p.Success())
	})

	t.Run("bad encodings fail without error", func(t *testing.T) {
		p := runSpend(t, calculator, []byte{OP_0}, locking)
		assert.False(t, p.Success())

		p = runSpend(t, calculator, PushData(sig), append(PushData([]byte{0x02, 0x01}), OP_CHECKSIG))
		assert.False(t, p.Success())
	})

	t.Run("code separator moves the subscript", func(t *testing.T) {
		separated := append([]byte{OP_1, OP_DROP, OP_CODESEPARATOR}, locking...)

		p := runSpend(t, calculator, PushData(sig), separated)
		assert.True(t, p.Success())

		p = runSpend(t, calculator, PushData(signInput(t, calculator, keys[0], separated)), separated)
		assert.False(t, p.Success())
	})
}

func TestCheckMultiSig(t *testing.T) {
	tx := mustTx(t, forkIDTx)
	keys := newTestKeys(3)
	locking := multiSigScript(2, keys)

	calculator := NewForkIDSigHashCalculator(tx)
	calculator.Value = 1000

	sig0 := signInput(t, calculator, keys[0], locking)
	sig1 := signInput(t, calculator, keys[1], locking)
	sig2 := signInput(t, calculator, keys[2], locking)

	unlock := func(sigs ...[]byte) []byte {
		script := []byte{OP_0}
		for _, sig := range sigs {
			script = append(script, PushData(sig)...)
		}

		return script
	}

	tests := []struct {
		name    string
		sigs    [][]byte
		success bool
	}{
		{"keys 0 and 1", [][]byte{sig0, sig1}, true},
		{"keys 0 and 2", [][]byte{sig0, sig2}, true},
		{"keys 1 and 2", [][]byte{sig1, sig2}, true},
		{"out of order", [][]byte{sig1, sig0}, false},
		{"out of order skipping", [][]byte{sig2, sig0}, false},
		{"same signature twice", [][]byte{sig0, sig0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := runSpend(t, calculator, unlock(tt.sigs...), locking)
			assert.True(t, p.Valid())
			assert.Equal(t, tt.success, p.Success())
			assert.Len(t, p.DataStack(), 1, "the extra item is consumed")
		})
	}

	t.Run("missing extra item", func(t *testing.T) {
		script := append(PushData(sig0), PushData(sig1)...)

		p := runSpend(t, calculator, script, locking)
		assert.False(t, p.Valid())
	})

	t.Run("counts must be single bytes in range", func(t *testing.T) {
		p := runSpend(t, calculator, unlock(sig0), append(PushData(keys[0].pubKey), OP_0, OP_CHECKMULTISIG))
		assert.False(t, p.Valid())

		p = runSpend(t, calculator, []byte{OP_0, OP_0}, append([]byte{OP_0}, append(PushData(keys[0].pubKey), OP_1, OP_CHECKMULTISIG)...))
		assert.False(t, p.Valid())

		p = runSpend(t, calculator, unlock(sig0), append([]byte{OP_1}, append(PushData(keys[0].pubKey), 0x02, 0x01, 0x00, OP_CHECKMULTISIG)...))
		assert.False(t, p.Valid())
	})
}
