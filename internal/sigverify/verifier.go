// Package sigverify checks backer authorization signatures over a bet hash.
//
// A signature blob is 66 bytes: one mode byte followed by R || S || V.
// The mode selects how the signed message is reconstructed from the hash;
// wallets disagree on prefixing, so all three common schemes are accepted.
package sigverify

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Signing modes, first byte of the signature blob.
const (
	ModeTypedData uint8 = iota // digest signed as-is (typed-data flows)
	ModePersonal               // "\x19Ethereum Signed Message:\n32" prefix
	ModeTrezor                 // same prefix, length as a raw byte (\x20)
)

const sigLen = 1 + 65 // mode byte + R||S||V

// IsValid reports whether sig authorizes hash on behalf of signer. It never
// returns true for the zero address and never panics on malformed input.
func IsValid(hash common.Hash, signer common.Address, sig []byte) bool {
	recovered, err := RecoverSigner(hash, sig)
	if err != nil {
		return false
	}
	if recovered == (common.Address{}) {
		return false
	}
	return recovered == signer
}

// RecoverSigner extracts the signing address from a mode-prefixed signature.
func RecoverSigner(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != sigLen {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", sigLen, len(sig))
	}

	digest, err := signedDigest(hash, sig[0])
	if err != nil {
		return common.Address{}, err
	}

	// Normalize V: wallets emit 27/28, SigToPub expects 0/1.
	rsv := make([]byte, 65)
	copy(rsv, sig[1:])
	if rsv[64] >= 27 {
		rsv[64] -= 27
	}

	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// signedDigest rebuilds the exact 32-byte message the wallet signed.
func signedDigest(hash common.Hash, mode uint8) ([]byte, error) {
	switch mode {
	case ModeTypedData:
		return hash.Bytes(), nil
	case ModePersonal:
		return crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n32"), hash.Bytes()), nil
	case ModeTrezor:
		return crypto.Keccak256([]byte("\x19Ethereum Signed Message:\n\x20"), hash.Bytes()), nil
	default:
		return nil, fmt.Errorf("unknown signing mode %d", mode)
	}
}
