package algos

import (
	"crypto/rand"
	"testing"
)

func TestDhRegistry(t *testing.T) {
	for _, name := range []string{CURVE_25519, CURVE_448} {
		dh, err := GetDH(name)
		if nil != err {
			t.Fatalf("%s: unexpected error -> %v", name, err)
		}
		if dh.Name() != name {
			t.Errorf("%s: Name() returned %s", name, dh.Name())
		}
	}
	if _, err := GetDH("missing"); nil == err {
		t.Error("expected an error for an unregistered DH name")
	}
}

func TestDhSharedSecretAgreement(t *testing.T) {
	for _, name := range []string{CURVE_25519, CURVE_448} {
		dh, err := GetDH(name)
		if nil != err {
			t.Fatalf("%s: %v", name, err)
		}
		alice, err := dh.GenerateKeypair(rand.Reader)
		if nil != err {
			t.Fatalf("%s: alice keygen -> %v", name, err)
		}
		bob, err := dh.GenerateKeypair(rand.Reader)
		if nil != err {
			t.Fatalf("%s: bob keygen -> %v", name, err)
		}
		aliceSecret, err := alice.DH(bob.Public())
		if nil != err {
			t.Fatalf("%s: alice.DH -> %v", name, err)
		}
		bobSecret, err := bob.DH(alice.Public())
		if nil != err {
			t.Fatalf("%s: bob.DH -> %v", name, err)
		}
		if string(aliceSecret) != string(bobSecret) {
			t.Errorf("%s: shared secrets disagree", name)
		}
		if len(aliceSecret) == 0 {
			t.Errorf("%s: empty shared secret", name)
		}
	}
}

func TestDhParsePublicKeyRoundtrip(t *testing.T) {
	dh, err := GetDH(CURVE_25519)
	if nil != err {
		t.Fatal(err)
	}
	kp, err := dh.GenerateKeypair(rand.Reader)
	if nil != err {
		t.Fatal(err)
	}
	raw := kp.Public().Bytes()
	if len(raw) != dh.PubLen() {
		t.Errorf("expected public key of %d bytes, got %d", dh.PubLen(), len(raw))
	}
	parsed, err := dh.ParsePublicKey(raw)
	if nil != err {
		t.Fatalf("ParsePublicKey -> %v", err)
	}
	if string(parsed.Bytes()) != string(raw) {
		t.Error("parsed public key does not roundtrip")
	}
}
