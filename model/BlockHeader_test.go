package model

import (
	"testing"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regtest block 1, mined on top of the regtest genesis block
var (
	block1       = "0000002006226e46111a0b59caaf126043eb5bbf28c34f3a5e332a1fc7b2b73cf188910f1633819a69afbd7ce1f1a01c3b786fcbb023274f3b15172b24feadd4c80e6c6a8b491267ffff7f20040000000102000000010000000000000000000000000000000000000000000000000000000000000000ffffffff03510101ffffffff0100f2052a01000000232103656065e6886ca1e947de3471c9e723673ab6ba34724476417fa9fcef8bafa604ac00000000"
	block1Header = block1[:160]
)

func TestNewBlockHeaderFromString(t *testing.T) {
	header, err := NewBlockHeaderFromString(block1Header)
	require.NoError(t, err)

	assert.Equal(t, uint32(0x20000000), header.Version)
	assert.Equal(t, "0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206", header.HashPrevBlock.String())
	assert.Equal(t, "6a6c0ec8d4adfe242b17153b4f2723b0cb6f783b1ca0f1e17cbdaf699a813316", header.HashMerkleRoot.String())
	assert.Equal(t, uint32(1729251723), header.Timestamp)
	assert.Equal(t, "207fffff", header.Bits.String())
	assert.Equal(t, uint32(4), header.Nonce)
	assert.Equal(t, "4c74e0128fef1a01469380c05b215afaf4cfe51183461f4a7996a84295b6925a", header.Hash().String())
}

func TestBlockHeaderBytesRoundTrip(t *testing.T) {
	header, err := NewBlockHeaderFromString(block1Header)
	require.NoError(t, err)

	decoded, err := NewBlockHeaderFromBytes(header.Bytes())
	require.NoError(t, err)
	assert.Equal(t, header, decoded)
}

func TestNewBlockHeaderInvalidLength(t *testing.T) {
	_, err := NewBlockHeaderFromBytes(make([]byte, 79))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))

	_, err = NewBlockHeaderFromString("zz")
	require.Error(t, err)
}

func TestHasMetTargetDifficulty(t *testing.T) {
	header, err := NewBlockHeaderFromString(block1Header)
	require.NoError(t, err)

	ok, err := header.HasMetTargetDifficulty()
	require.NoError(t, err)
	assert.True(t, ok)

	// mainnet difficulty is far beyond a regtest block
	header.Bits = NewNBitFromUint32(0x1d00ffff)

	ok, err = header.HasMetTargetDifficulty()
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, errors.Is(err, errors.ErrHeaderInvalid))
}
