package noise

import (
	"io"

	"code.noisecore.dev/golang/internal/algos"
)

// Config gathers everything a builder must supply to construct a
// HandshakeState: the negotiated protocol name, the concrete primitive
// instances it names, the caller's role, and whatever pre-message key
// material the chosen pattern requires ahead of the first wire message.
//
// Assembling a Config from a protocol name plus concrete primitives is the
// builder's job (§1's "builder/CLI that assembles concrete primitive
// instances"), deliberately out of this package's scope; Config is the
// narrow seam between the two.
type Config struct {
	// ProtocolName is the full Noise protocol name, e.g.
	// "Noise_XXpsk0_25519_AESGCM_SHA256".
	ProtocolName string

	Dh     algos.DH
	Hash   algos.Hash
	Cipher algos.AEAD
	Kem    algos.KEM // required iff the name carries the hfs modifier

	Rand io.Reader

	Initiator bool
	Prologue  []byte

	// LocalStatic and LocalEphemeral are the caller's own keys, when the
	// chosen pattern requires them to exist before the first message (or
	// when the caller wants a fixed ephemeral for testing, see FixedEphemeral).
	LocalStatic    algos.Keypair
	LocalEphemeral algos.Keypair
	FixedEphemeral bool

	// RemoteStatic and RemoteEphemeral are raw public key bytes the pattern
	// requires to be known before the first message (e.g. the responder's
	// static key for NK/XK/IK).
	RemoteStatic    []byte
	RemoteEphemeral []byte
}
