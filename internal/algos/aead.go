package algos

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	CIPHER_AESGCM     = "AESGCM"
	CIPHER_CHACHAPOLY = "ChaChaPoly"
	cipherKeyLen      = 32
	cipherNonceLen    = 12
	cipherMaxNonce    = uint64(1<<64 - 1)
)

// AEAD adapts an authenticated encryption cipher to the shape the noise
// package needs. Nonces are encoded by the noise package's CipherState, not
// here, so implementations only need to turn an already-formatted nonce and
// key into an AEAD cipher instance. LittleEndianNonce reports which byte
// order CipherState must use to pack the 64-bit nonce counter into the
// cipher's nonce: AES-GCM takes big-endian, ChaCha20-Poly1305 takes
// little-endian, per the Noise specification's per-cipher nonce format.
type AEAD interface {
	Name() string
	KeyLen() int
	NonceLen() int
	LittleEndianNonce() bool
	New(key []byte) (cipher.AEAD, error)
}

var aeadRegistry *utils.Registry[string, AEAD]

// MustRegisterAEAD adds algo to the AEAD registry. It panics if name is already in use.
func MustRegisterAEAD(name string, algo AEAD) {
	if err := RegisterAEAD(name, algo); nil != err {
		panic(err)
	}
}

// RegisterAEAD adds algo to the AEAD registry. It errors if name is already in use.
func RegisterAEAD(name string, algo AEAD) error {
	if nil == algo {
		return newError("nil AEAD algorithm")
	}
	return wrapError(utils.RegistrySet(aeadRegistry, name, algo), "failed registering AEAD algorithm %s", name)
}

// GetAEAD loads an AEAD from the registry. It errors if no AEAD was registered with name.
func GetAEAD(name string) (AEAD, error) {
	a, found := utils.RegistryGet(aeadRegistry, name)
	if !found {
		return nil, newError("unsupported AEAD algorithm %s", name)
	}
	return a, nil
}

type aesGcm struct{}

func (aesGcm) Name() string            { return CIPHER_AESGCM }
func (aesGcm) KeyLen() int             { return cipherKeyLen }
func (aesGcm) NonceLen() int           { return cipherNonceLen }
func (aesGcm) LittleEndianNonce() bool { return false }

func (aesGcm) New(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if nil != err {
		return nil, wrapError(err, "failed building AES block cipher")
	}
	aead, err := cipher.NewGCM(block)
	if nil != err {
		return nil, wrapError(err, "failed building AES-GCM AEAD")
	}
	return aead, nil
}

type chachaPoly struct{}

func (chachaPoly) Name() string            { return CIPHER_CHACHAPOLY }
func (chachaPoly) KeyLen() int             { return cipherKeyLen }
func (chachaPoly) NonceLen() int           { return cipherNonceLen }
func (chachaPoly) LittleEndianNonce() bool { return true }

func (chachaPoly) New(key []byte) (cipher.AEAD, error) {
	aead, err := chacha20poly1305.New(key)
	if nil != err {
		return nil, wrapError(err, "failed building ChaCha20-Poly1305 AEAD")
	}
	return aead, nil
}

func init() {
	aeadRegistry = utils.NewRegistry[string, AEAD]()
	MustRegisterAEAD(CIPHER_AESGCM, aesGcm{})
	MustRegisterAEAD(CIPHER_CHACHAPOLY, chachaPoly{})
}

// MaxNonce is the reserved nonce value at which a CipherState refuses further
// encryption or decryption; the largest nonce it actually uses is MaxNonce-1,
// per the Noise specification's nonce exhaustion rule.
const MaxNonce = cipherMaxNonce
