package script

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// verifySignature checks a DER signature over digest against an encoded public key.
func verifySignature(derSig, pubKey, digest []byte) bool {
	key, err := btcec.ParsePubKey(pubKey)
	if err != nil {
		return false
	}

	sig, err := ecdsa.ParseSignature(derSig)
	if err != nil {
		return false
	}

	return sig.Verify(digest, key)
}
