package sigverify

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestRecoverMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	want := crypto.PubkeyToAddress(key.PublicKey)

	msg := []byte(`{"action":"submit_bet","expires_at":1800000000,"nonce":"n-1"}`)
	sig, err := crypto.Sign(HashMessage(msg), key)
	if err != nil {
		t.Fatal(err)
	}

	got, err := RecoverMessage(msg, sig)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("recovered %s, want %s", got.Hex(), want.Hex())
	}

	// Wallet-style V.
	walletSig := append([]byte{}, sig...)
	walletSig[64] += 27
	got, err = RecoverMessage(msg, walletSig)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("recovered %s with V=27/28, want %s", got.Hex(), want.Hex())
	}
}

func TestRecoverMessage_TamperedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	msg := []byte("original message")
	sig, err := crypto.Sign(HashMessage(msg), key)
	if err != nil {
		t.Fatal(err)
	}

	got, err := RecoverMessage([]byte("tampered message"), sig)
	if err == nil && got == crypto.PubkeyToAddress(key.PublicKey) {
		t.Fatal("tampered message must not recover the signer")
	}
}

func TestRecoverMessage_BadLength(t *testing.T) {
	if _, err := RecoverMessage([]byte("msg"), make([]byte, 64)); err == nil {
		t.Fatal("expected error for short signature")
	}
}
