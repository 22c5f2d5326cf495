package sigverify

import (
	"crypto/ecdsa"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var testHash = crypto.Keccak256Hash([]byte("bet terms under test"))

func newKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	return key, crypto.PubkeyToAddress(key.PublicKey)
}

// signMode produces a mode-prefixed signature the way a wallet of that
// mode would: sign the mode's transformed digest, V as 27/28.
func signMode(t *testing.T, key *ecdsa.PrivateKey, hash common.Hash, mode uint8) []byte {
	t.Helper()
	digest, err := signedDigest(hash, mode)
	if err != nil {
		t.Fatal(err)
	}
	rsv, err := crypto.Sign(digest, key)
	if err != nil {
		t.Fatal(err)
	}
	rsv[64] += 27
	return append([]byte{mode}, rsv...)
}

// ── IsValid across modes ───────────────────────────────────────────────────

func TestIsValid_AllModes(t *testing.T) {
	key, addr := newKey(t)
	for _, mode := range []uint8{ModeTypedData, ModePersonal, ModeTrezor} {
		sig := signMode(t, key, testHash, mode)
		if !IsValid(testHash, addr, sig) {
			t.Fatalf("mode %d: valid signature rejected", mode)
		}
	}
}

func TestIsValid_WrongSigner(t *testing.T) {
	key, _ := newKey(t)
	_, other := newKey(t)
	sig := signMode(t, key, testHash, ModePersonal)
	if IsValid(testHash, other, sig) {
		t.Fatal("signature accepted for an address that did not sign")
	}
}

func TestIsValid_WrongHash(t *testing.T) {
	key, addr := newKey(t)
	sig := signMode(t, key, testHash, ModeTypedData)
	otherHash := crypto.Keccak256Hash([]byte("different terms"))
	if IsValid(otherHash, addr, sig) {
		t.Fatal("signature over one hash accepted for another")
	}
}

func TestIsValid_ModeMismatch(t *testing.T) {
	key, addr := newKey(t)
	// Signed with the personal prefix but labeled typed-data.
	sig := signMode(t, key, testHash, ModePersonal)
	sig[0] = ModeTypedData
	if IsValid(testHash, addr, sig) {
		t.Fatal("prefix mismatch must not verify")
	}
}

func TestIsValid_ZeroSigner(t *testing.T) {
	key, _ := newKey(t)
	sig := signMode(t, key, testHash, ModeTypedData)
	if IsValid(testHash, common.Address{}, sig) {
		t.Fatal("zero address must never validate")
	}
}

func TestIsValid_VNormalization(t *testing.T) {
	key, addr := newKey(t)
	sig := signMode(t, key, testHash, ModeTypedData)
	sig[65] -= 27 // V as 0/1 instead of 27/28
	if !IsValid(testHash, addr, sig) {
		t.Fatal("V in {0,1} must be accepted")
	}
}

// ── Malformed input ────────────────────────────────────────────────────────

func TestRecoverSigner_BadLength(t *testing.T) {
	if _, err := RecoverSigner(testHash, make([]byte, 65)); err == nil {
		t.Fatal("expected error for 65-byte blob (missing mode byte)")
	}
	if _, err := RecoverSigner(testHash, nil); err == nil {
		t.Fatal("expected error for nil signature")
	}
}

func TestRecoverSigner_UnknownMode(t *testing.T) {
	blob := make([]byte, sigLen)
	blob[0] = 0x07
	if _, err := RecoverSigner(testHash, blob); err == nil {
		t.Fatal("expected error for unknown mode byte")
	}
}

func TestRecoverSigner_GarbageSignature(t *testing.T) {
	blob := make([]byte, sigLen)
	for i := range blob {
		blob[i] = 0xff
	}
	blob[0] = ModeTypedData
	if _, err := RecoverSigner(testHash, blob); err == nil {
		t.Fatal("expected error for garbage R||S||V")
	}
}
