package script

import (
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	keys := newTestKeys(2)
	digest := chainhash.DoubleHashB([]byte("signed message"))

	sig := ecdsa.Sign(keys[0].priv, digest).Serialize()

	assert.True(t, verifySignature(sig, keys[0].pubKey, digest))
	assert.True(t, verifySignature(sig, keys[0].priv.PubKey().SerializeUncompressed(), digest))

	assert.False(t, verifySignature(sig, keys[1].pubKey, digest))
	assert.False(t, verifySignature(sig, keys[0].pubKey, chainhash.DoubleHashB([]byte("other message"))))
	assert.False(t, verifySignature(sig[:len(sig)-1], keys[0].pubKey, digest))
	assert.False(t, verifySignature(sig, []byte{0x02, 0x01}, digest))
	assert.False(t, verifySignature(nil, keys[0].pubKey, digest))
}
