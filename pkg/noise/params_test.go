package noise

import (
	"errors"
	"testing"
)

func TestParseNoiseParamsCanonicalRoundtrip(t *testing.T) {
	names := []string{
		"Noise_NN_25519_ChaChaPoly_SHA256",
		"Noise_XX_25519_AESGCM_SHA256",
		"Noise_IK_25519_ChaChaPoly_BLAKE2s",
		"Noise_XXpsk0_25519_AESGCM_SHA256",
		"Noise_XXpsk0+psk2_25519_AESGCM_SHA256",
		"Noise_XXfallback_25519_AESGCM_SHA256",
		"Noise_XXhfs_25519+Kyber1024_AESGCM_SHA512",
	}
	for _, name := range names {
		params, err := ParseNoiseParams(name)
		if nil != err {
			t.Fatalf("%s: unexpected error -> %v", name, err)
		}
		if got := params.Canonical(); got != name {
			t.Errorf("Canonical() = %q, want %q", got, name)
		}
	}
}

func TestParseNoiseParamsNegative(t *testing.T) {
	cases := []struct {
		name string
		flag error
	}{
		{"Noise_XX_25519_AES_SHA256", ErrUnsupportedCipherType},
		{"Noise_XX_25519_AESGCM", ErrTooFewParameters},
		{"Noise_XX_25519_AESGCM_MD5", ErrUnsupportedHashType},
		{"Noise_ZZ_25519_AESGCM_SHA256", ErrUnsupportedHandshakeType},
		{"Noise_XX_999_AESGCM_SHA256", ErrUnsupportedDhType},
	}
	for _, tc := range cases {
		_, err := ParseNoiseParams(tc.name)
		if nil == err {
			t.Errorf("%s: expected an error", tc.name)
			continue
		}
		if !errors.Is(err, tc.flag) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.flag, err)
		}
	}
}

func TestParseNoiseParamsHfsRequiresKem(t *testing.T) {
	if _, err := ParseNoiseParams("Noise_XXhfs_25519_AESGCM_SHA256"); nil == err {
		t.Error("expected an error when hfs is present without a +<kem> suffix")
	}
	if _, err := ParseNoiseParams("Noise_XX_25519+Kyber1024_AESGCM_SHA256"); nil == err {
		t.Error("expected an error when +<kem> is present without the hfs modifier")
	}
}

// TestParseNoiseParamsDeferredForms covers §4.B's "<letter><digit> deferred
// forms e.g. X1X1" grammar requirement: the parser must recognize the
// deferred-form identifier as the pattern (not misread the trailing digits
// as an unknown modifier), even though ExpandPattern has no token table for
// it and legitimately rejects it at expansion time with
// ErrUnsupportedHandshakeType (§4.C).
func TestParseNoiseParamsDeferredForms(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
	}{
		{"Noise_X1X1_25519_AESGCM_SHA256", "X1X1"},
		{"Noise_NK1_25519_AESGCM_SHA256", "NK1"},
		{"Noise_N1K_25519_AESGCM_SHA256", "N1K"},
		{"Noise_I1K1_25519_AESGCM_SHA256", "I1K1"},
		{"Noise_IK1psk0_25519_AESGCM_SHA256", "IK1"},
	}
	for _, tc := range cases {
		params, err := ParseNoiseParams(tc.name)
		if nil != err {
			t.Fatalf("%s: unexpected error -> %v", tc.name, err)
		}
		if params.Pattern != tc.pattern {
			t.Fatalf("%s: Pattern = %q, want %q", tc.name, params.Pattern, tc.pattern)
		}
		if got := params.Canonical(); got != tc.name {
			t.Errorf("%s: Canonical() = %q, want %q", tc.name, got, tc.name)
		}
		if _, err := ExpandPattern(params); !errors.Is(err, ErrUnsupportedHandshakeType) {
			t.Errorf("%s: ExpandPattern error = %v, want ErrUnsupportedHandshakeType", tc.name, err)
		}
	}
}

// TestParseNoiseParamsLoneIRejected covers the grammar constraint that I must
// always be combined with a second role letter; a bare "I" (or "I1") is not
// a valid pattern identifier on its own.
func TestParseNoiseParamsLoneIRejected(t *testing.T) {
	for _, name := range []string{"Noise_I_25519_AESGCM_SHA256", "Noise_I1_25519_AESGCM_SHA256"} {
		if _, err := ParseNoiseParams(name); !errors.Is(err, ErrUnsupportedHandshakeType) {
			t.Errorf("%s: expected ErrUnsupportedHandshakeType, got %v", name, err)
		}
	}
}

func TestNoiseParamsPskIndices(t *testing.T) {
	params, err := ParseNoiseParams("Noise_XXpsk0+psk2_25519_AESGCM_SHA256")
	if nil != err {
		t.Fatal(err)
	}
	idx := params.PskIndices()
	if len(idx) != 2 || idx[0] != 0 || idx[1] != 2 {
		t.Errorf("unexpected psk indices %v", idx)
	}
}
