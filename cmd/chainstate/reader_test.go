package main

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genesisHex(t *testing.T) (headerHex string, blockHex string) {
	t.Helper()

	block := chaincfg.RegressionNetParams.GenesisBlock

	return hex.EncodeToString(block[:model.BlockHeaderSize]), hex.EncodeToString(block)
}

func TestReadHeaders(t *testing.T) {
	headerHex, _ := genesisHex(t)

	input := strings.Join([]string{
		"# regtest genesis, five times",
		headerHex,
		headerHex,
		"",
		headerHex,
		headerHex,
		"  " + headerHex + "  ",
	}, "\n")

	out := make(chan []*model.BlockHeader, 10)
	require.NoError(t, readHeaders(context.Background(), strings.NewReader(input), 2, out))
	close(out)

	var sizes []int
	for batch := range out {
		sizes = append(sizes, len(batch))

		for _, header := range batch {
			assert.Equal(t, chaincfg.RegressionNetParams.GenesisHash, header.Hash())
		}
	}

	assert.Equal(t, []int{2, 2, 1}, sizes)
}

func TestReadHeadersInvalidLine(t *testing.T) {
	headerHex, _ := genesisHex(t)

	out := make(chan []*model.BlockHeader, 10)
	err := readHeaders(context.Background(), strings.NewReader(headerHex+"\nzz\n"), 10, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "line 2")
}

func TestReadHeadersCancelled(t *testing.T) {
	headerHex, _ := genesisHex(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// nobody reads the unbuffered channel
	err := readHeaders(ctx, strings.NewReader(headerHex), 1, make(chan []*model.BlockHeader))
	require.Error(t, err)
}

func TestReadBlocks(t *testing.T) {
	_, blockHex := genesisHex(t)

	out := make(chan *model.Block, 10)
	require.NoError(t, readBlocks(context.Background(), strings.NewReader(blockHex+"\n"+blockHex), out))
	close(out)

	count := 0

	for block := range out {
		count++

		assert.Equal(t, chaincfg.RegressionNetParams.GenesisHash, block.Hash())
		require.NoError(t, block.CheckMerkleRoot())
	}

	assert.Equal(t, 2, count)
}
