package algos

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestAeadRegistry(t *testing.T) {
	for _, name := range []string{CIPHER_AESGCM, CIPHER_CHACHAPOLY} {
		a, err := GetAEAD(name)
		if nil != err {
			t.Fatalf("%s: unexpected error -> %v", name, err)
		}
		if a.KeyLen() != cipherKeyLen || a.NonceLen() != cipherNonceLen {
			t.Errorf("%s: unexpected key/nonce length", name)
		}
	}
	if _, err := GetAEAD("missing"); nil == err {
		t.Error("expected an error for an unregistered AEAD name")
	}
}

func TestAeadEncryptDecryptRoundtrip(t *testing.T) {
	for _, name := range []string{CIPHER_AESGCM, CIPHER_CHACHAPOLY} {
		algo, err := GetAEAD(name)
		if nil != err {
			t.Fatal(err)
		}
		key := make([]byte, algo.KeyLen())
		if _, err := rand.Read(key); nil != err {
			t.Fatal(err)
		}
		aead, err := algo.New(key)
		if nil != err {
			t.Fatalf("%s: New -> %v", name, err)
		}
		nonce := make([]byte, algo.NonceLen())
		plaintext := []byte("handshake payload")
		ad := []byte("associated data")

		ciphertext := aead.Seal(nil, nonce, plaintext, ad)
		opened, err := aead.Open(nil, nonce, ciphertext, ad)
		if nil != err {
			t.Fatalf("%s: Open -> %v", name, err)
		}
		if !bytes.Equal(opened, plaintext) {
			t.Errorf("%s: roundtrip mismatch", name)
		}

		tampered := append([]byte{}, ciphertext...)
		tampered[0] ^= 0xff
		if _, err := aead.Open(nil, nonce, tampered, ad); nil == err {
			t.Errorf("%s: expected authentication failure on tampered ciphertext", name)
		}
	}
}
