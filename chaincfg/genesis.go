package chaincfg

import (
	"encoding/hex"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// genesisCoinbaseTx is the coinbase shared by the genesis block of every network.
const genesisCoinbaseTx = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff" +
	"4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e20" +
	"6272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a010000" +
	"00434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f3" +
	"5504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

// genesisHeaderPrefix is version 1, a zero previous block hash and the genesis merkle root.
const genesisHeaderPrefix = "01000000" +
	"0000000000000000000000000000000000000000000000000000000000000000" +
	"3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a"

var (
	// mainnet: time 1231006505, bits 0x1d00ffff, nonce 2083236893
	genesisBlock = mustDecodeHex(genesisHeaderPrefix + "29ab5f49" + "ffff001d" + "1dac2b7c" + "01" + genesisCoinbaseTx)
	genesisHash  = newHashFromStr("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")

	// testnet3: time 1296688602, bits 0x1d00ffff, nonce 414098458
	testNet3GenesisBlock = mustDecodeHex(genesisHeaderPrefix + "dae5494d" + "ffff001d" + "1aa4ae18" + "01" + genesisCoinbaseTx)
	testNet3GenesisHash  = newHashFromStr("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943")

	// regtest: time 1296688602, bits 0x207fffff, nonce 2
	regTestGenesisBlock = mustDecodeHex(genesisHeaderPrefix + "dae5494d" + "ffff7f20" + "02000000" + "01" + genesisCoinbaseTx)
	regTestGenesisHash  = newHashFromStr("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206")
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}

// newHashFromStr converts the passed big-endian hex string into a chainhash.Hash.
// It panics on error since it is only called with hard-coded hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}

	return hash
}
