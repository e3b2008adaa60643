// Package algos holds the concrete cryptographic primitive implementations that
// back the noise package's capability contracts: Diffie-Hellman functions, hash
// functions, AEAD ciphers, KEMs and a random source. Each family is exposed
// through a small registry so that callers (and the noise package's protocol
// name parser) can resolve an algorithm by the name it carries in a Noise
// protocol string.
package algos

import (
	"crypto/ecdh"
	"crypto/rand"
	"io"

	"github.com/cloudflare/circl/dh/x448"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	CURVE_25519 = "25519"
	CURVE_448   = "448"
)

// DH adapts a Diffie-Hellman function to the shape the noise package needs:
// keypair generation, public key parsing and the shared secret computation.
type DH interface {
	Name() string
	PubLen() int
	PrivLen() int
	GenerateKeypair(rand io.Reader) (Keypair, error)
	ParsePublicKey(raw []byte) (PublicKey, error)
}

// Keypair is a generated or imported DH private/public keypair.
type Keypair interface {
	Public() PublicKey
	DH(remote PublicKey) ([]byte, error)
}

// PublicKey is a parsed remote public key, ready to be used in a DH operation.
type PublicKey interface {
	Bytes() []byte
}

var dhRegistry *utils.Registry[string, DH]

// MustRegisterDH adds algo to the DH registry. It panics if name is already in use.
func MustRegisterDH(name string, algo DH) {
	if err := RegisterDH(name, algo); nil != err {
		panic(err)
	}
}

// RegisterDH adds algo to the DH registry. It errors if name is already in use.
func RegisterDH(name string, algo DH) error {
	if nil == algo {
		return newError("nil DH algorithm")
	}
	return wrapError(utils.RegistrySet(dhRegistry, name, algo), "failed registering DH algorithm %s", name)
}

// GetDH loads a DH from the registry. It errors if no DH was registered with name.
func GetDH(name string) (DH, error) {
	dh, found := utils.RegistryGet(dhRegistry, name)
	if !found {
		return nil, newError("unsupported DH algorithm %s", name)
	}
	return dh, nil
}

// x25519 wraps crypto/ecdh.X25519 to implement DH.
type x25519 struct{}

func (x25519) Name() string { return CURVE_25519 }
func (x25519) PubLen() int  { return 32 }
func (x25519) PrivLen() int { return 32 }

func (x25519) GenerateKeypair(rnd io.Reader) (Keypair, error) {
	var seed [32]byte
	if _, err := io.ReadFull(rnd, seed[:]); nil != err {
		return nil, wrapError(err, "failed generating X25519 private key")
	}
	priv, err := ecdh.X25519().NewPrivateKey(seed[:])
	if nil != err {
		return nil, wrapError(err, "failed generating X25519 keypair")
	}
	return x25519Keypair{priv: priv}, nil
}

func (x25519) ParsePublicKey(raw []byte) (PublicKey, error) {
	pub, err := ecdh.X25519().NewPublicKey(raw)
	if nil != err {
		return nil, wrapError(err, "invalid X25519 public key")
	}
	return x25519PublicKey{pub: pub}, nil
}

type x25519Keypair struct {
	priv *ecdh.PrivateKey
}

func (self x25519Keypair) Public() PublicKey {
	return x25519PublicKey{pub: self.priv.PublicKey()}
}

func (self x25519Keypair) DH(remote PublicKey) ([]byte, error) {
	rpub, ok := remote.(x25519PublicKey)
	if !ok {
		return nil, newError("mismatched DH algorithm for remote public key")
	}
	secret, err := self.priv.ECDH(rpub.pub)
	if nil != err {
		return nil, wrapError(err, "failed X25519 ECDH")
	}
	return secret, nil
}

type x25519PublicKey struct {
	pub *ecdh.PublicKey
}

func (self x25519PublicKey) Bytes() []byte { return self.pub.Bytes() }

// curve448 wraps circl's x448 implementation to implement DH.
//
// Noise's "448" DH choice refers to Curve448 (X448), not Ed448; crypto/ecdh does
// not carry that curve, so we reach for circl, which the wider Noise Go
// ecosystem already depends on for post-quantum and exotic curve support.
type curve448 struct{}

func (curve448) Name() string { return CURVE_448 }
func (curve448) PubLen() int  { return x448.Size }
func (curve448) PrivLen() int { return x448.Size }

func (curve448) GenerateKeypair(rnd io.Reader) (Keypair, error) {
	var priv x448.Key
	if _, err := io.ReadFull(rnd, priv[:]); nil != err {
		return nil, wrapError(err, "failed generating X448 private key")
	}
	var pub x448.Key
	x448.KeyGen(&pub, &priv)
	return curve448Keypair{priv: priv, pub: pub}, nil
}

func (curve448) ParsePublicKey(raw []byte) (PublicKey, error) {
	if len(raw) != x448.Size {
		return nil, newError("invalid X448 public key length %d", len(raw))
	}
	var pub x448.Key
	copy(pub[:], raw)
	return curve448PublicKey{pub: pub}, nil
}

type curve448Keypair struct {
	priv x448.Key
	pub  x448.Key
}

func (self curve448Keypair) Public() PublicKey {
	return curve448PublicKey{pub: self.pub}
}

func (self curve448Keypair) DH(remote PublicKey) ([]byte, error) {
	rpub, ok := remote.(curve448PublicKey)
	if !ok {
		return nil, newError("mismatched DH algorithm for remote public key")
	}
	var shared x448.Key
	if !x448.Shared(&shared, &self.priv, &rpub.pub) {
		return nil, newError("X448 DH produced a low order point")
	}
	return shared[:], nil
}

type curve448PublicKey struct {
	pub x448.Key
}

func (self curve448PublicKey) Bytes() []byte {
	out := make([]byte, x448.Size)
	copy(out, self.pub[:])
	return out
}

func init() {
	dhRegistry = utils.NewRegistry[string, DH]()
	MustRegisterDH(CURVE_25519, x25519{})
	MustRegisterDH(CURVE_448, curve448{})
}

// Rand is the default cryptographically secure Random implementation, backed
// by crypto/rand.
var Rand io.Reader = rand.Reader
