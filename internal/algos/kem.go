package algos

import (
	"io"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"

	"code.noisecore.dev/golang/internal/utils"
)

const KEM_KYBER1024 = "Kyber1024"

// KEM adapts a post-quantum key encapsulation mechanism to the shape the
// noise package's hfs (hybrid forward secrecy) modifier needs: the initiator
// generates an ephemeral keypair and publishes its encoded public key, the
// responder encapsulates a shared secret against it, and the initiator
// decapsulates the same secret from the returned ciphertext.
type KEM interface {
	Name() string
	PublicKeyLen() int
	CiphertextLen() int
	SharedSecretLen() int
	GenerateKeypair(rand io.Reader) (KEMPrivateKey, error)
	ParsePublicKey(raw []byte) (KEMPublicKey, error)
}

// KEMPrivateKey decapsulates a shared secret from a ciphertext, and exposes
// the matching public key to be sent on the wire.
type KEMPrivateKey interface {
	PublicKeyBytes() []byte
	Decapsulate(ciphertext []byte) ([]byte, error)
}

// KEMPublicKey encapsulates a fresh shared secret and ciphertext against a
// parsed remote public key.
type KEMPublicKey interface {
	Encapsulate(rand io.Reader) (ciphertext, sharedSecret []byte, err error)
}

var kemRegistry *utils.Registry[string, KEM]

// MustRegisterKEM adds algo to the KEM registry. It panics if name is already in use.
func MustRegisterKEM(name string, algo KEM) {
	if err := RegisterKEM(name, algo); nil != err {
		panic(err)
	}
}

// RegisterKEM adds algo to the KEM registry. It errors if name is already in use.
func RegisterKEM(name string, algo KEM) error {
	if nil == algo {
		return newError("nil KEM algorithm")
	}
	return wrapError(utils.RegistrySet(kemRegistry, name, algo), "failed registering KEM algorithm %s", name)
}

// GetKEM loads a KEM from the registry. It errors if no KEM was registered with name.
func GetKEM(name string) (KEM, error) {
	k, found := utils.RegistryGet(kemRegistry, name)
	if !found {
		return nil, newError("unsupported KEM algorithm %s", name)
	}
	return k, nil
}

type kyber1024Kem struct {
	scheme kem.Scheme
}

func (self kyber1024Kem) Name() string          { return KEM_KYBER1024 }
func (self kyber1024Kem) PublicKeyLen() int      { return self.scheme.PublicKeySize() }
func (self kyber1024Kem) CiphertextLen() int     { return self.scheme.CiphertextSize() }
func (self kyber1024Kem) SharedSecretLen() int   { return self.scheme.SharedKeySize() }

func (self kyber1024Kem) GenerateKeypair(rnd io.Reader) (KEMPrivateKey, error) {
	seed := make([]byte, self.scheme.SeedSize())
	if _, err := io.ReadFull(rnd, seed); nil != err {
		return nil, wrapError(err, "failed reading Kyber1024 seed")
	}
	pub, priv := self.scheme.DeriveKeyPair(seed)
	return kyber1024PrivateKey{scheme: self.scheme, pub: pub, priv: priv}, nil
}

func (self kyber1024Kem) ParsePublicKey(raw []byte) (KEMPublicKey, error) {
	pub, err := self.scheme.UnmarshalBinaryPublicKey(raw)
	if nil != err {
		return nil, wrapError(err, "invalid Kyber1024 public key")
	}
	return kyber1024PublicKey{scheme: self.scheme, pub: pub}, nil
}

type kyber1024PrivateKey struct {
	scheme kem.Scheme
	pub    kem.PublicKey
	priv   kem.PrivateKey
}

func (self kyber1024PrivateKey) PublicKeyBytes() []byte {
	raw, err := self.pub.MarshalBinary()
	if nil != err {
		panic(err)
	}
	return raw
}

func (self kyber1024PrivateKey) Decapsulate(ciphertext []byte) ([]byte, error) {
	secret, err := self.scheme.Decapsulate(self.priv, ciphertext)
	if nil != err {
		return nil, wrapError(err, "Kyber1024 decapsulation failed")
	}
	return secret, nil
}

type kyber1024PublicKey struct {
	scheme kem.Scheme
	pub    kem.PublicKey
}

// Encapsulate draws its own randomness from crypto/rand via the underlying
// scheme; rnd is accepted to keep the KEMPublicKey contract explicit about
// where randomness is consumed, but circl's Encapsulate does not take a reader.
func (self kyber1024PublicKey) Encapsulate(rnd io.Reader) ([]byte, []byte, error) {
	ciphertext, secret, err := self.scheme.Encapsulate(self.pub)
	if nil != err {
		return nil, nil, wrapError(err, "Kyber1024 encapsulation failed")
	}
	return ciphertext, secret, nil
}

func init() {
	kemRegistry = utils.NewRegistry[string, KEM]()
	MustRegisterKEM(KEM_KYBER1024, kyber1024Kem{scheme: kyber1024.Scheme()})
}
