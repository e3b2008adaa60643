package algos

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestKemRegistry(t *testing.T) {
	k, err := GetKEM(KEM_KYBER1024)
	if nil != err {
		t.Fatalf("unexpected error -> %v", err)
	}
	if k.Name() != KEM_KYBER1024 {
		t.Errorf("unexpected name %s", k.Name())
	}
	if _, err := GetKEM("missing"); nil == err {
		t.Error("expected an error for an unregistered KEM name")
	}
}

func TestKemEncapsulateDecapsulateAgreement(t *testing.T) {
	k, err := GetKEM(KEM_KYBER1024)
	if nil != err {
		t.Fatal(err)
	}
	priv, err := k.GenerateKeypair(rand.Reader)
	if nil != err {
		t.Fatalf("GenerateKeypair -> %v", err)
	}
	pub, err := k.ParsePublicKey(priv.PublicKeyBytes())
	if nil != err {
		t.Fatalf("ParsePublicKey -> %v", err)
	}
	ciphertext, secret, err := pub.Encapsulate(rand.Reader)
	if nil != err {
		t.Fatalf("Encapsulate -> %v", err)
	}
	if len(ciphertext) != k.CiphertextLen() {
		t.Errorf("expected ciphertext of %d bytes, got %d", k.CiphertextLen(), len(ciphertext))
	}
	if len(secret) != k.SharedSecretLen() {
		t.Errorf("expected shared secret of %d bytes, got %d", k.SharedSecretLen(), len(secret))
	}
	decapsulated, err := priv.Decapsulate(ciphertext)
	if nil != err {
		t.Fatalf("Decapsulate -> %v", err)
	}
	if !bytes.Equal(secret, decapsulated) {
		t.Error("encapsulated and decapsulated secrets disagree")
	}
}
