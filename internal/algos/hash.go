package algos

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"

	"code.noisecore.dev/golang/internal/utils"
)

const (
	HASH_SHA256  = "SHA256"
	HASH_SHA512  = "SHA512"
	HASH_BLAKE2s = "BLAKE2s"
	HASH_BLAKE2b = "BLAKE2b"
)

// Hash adapts a hash function to the shape the noise package needs: the
// one-shot HASH function used to absorb unbounded data into the handshake
// hash, and the HKDF construction used to derive chaining keys and cipher
// keys from accumulated DH output.
type Hash interface {
	Name() string
	Size() int
	New() hash.Hash
	// Hkdf runs HKDF(chainingKey, inputKeyMaterial) and returns numOutputs
	// derived secrets of Size() bytes each, per the Noise protocol's HKDF.
	Hkdf(chainingKey, inputKeyMaterial []byte, numOutputs int) ([][]byte, error)
}

var hashRegistry *utils.Registry[string, Hash]

// MustRegisterHash adds algo to the Hash registry. It panics if name is already in use.
func MustRegisterHash(name string, algo Hash) {
	if err := RegisterHash(name, algo); nil != err {
		panic(err)
	}
}

// RegisterHash adds algo to the Hash registry. It errors if name is already in use.
func RegisterHash(name string, algo Hash) error {
	if nil == algo {
		return newError("nil Hash algorithm")
	}
	return wrapError(utils.RegistrySet(hashRegistry, name, algo), "failed registering Hash algorithm %s", name)
}

// GetHash loads a Hash from the registry. It errors if no Hash was registered with name.
func GetHash(name string) (Hash, error) {
	h, found := utils.RegistryGet(hashRegistry, name)
	if !found {
		return nil, newError("unsupported Hash algorithm %s", name)
	}
	return h, nil
}

// baseHash implements the shared HKDF logic for every Hash algorithm; only
// New() and Size() vary per concrete hash function.
type baseHash struct {
	name    string
	size    int
	newHash func() hash.Hash
}

func (self baseHash) Name() string    { return self.name }
func (self baseHash) Size() int       { return self.size }
func (self baseHash) New() hash.Hash  { return self.newHash() }

func (self baseHash) hmac(key, data []byte) []byte {
	mac := hmac.New(self.newHash, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// Hkdf implements the Noise protocol HKDF: a temp_key is derived from
// chainingKey and inputKeyMaterial, then each output is chained from the
// previous one plus a single byte counter, as specified in Noise's HKDF(ck,
// ikm, n) definition.
func (self baseHash) Hkdf(chainingKey, inputKeyMaterial []byte, numOutputs int) ([][]byte, error) {
	if numOutputs < 1 || numOutputs > 3 {
		return nil, newError("Hkdf supports between 1 and 3 outputs, got %d", numOutputs)
	}
	tempKey := self.hmac(chainingKey, inputKeyMaterial)
	outputs := make([][]byte, numOutputs)
	prev := []byte{}
	for i := 0; i < numOutputs; i++ {
		buf := make([]byte, 0, len(prev)+1)
		buf = append(buf, prev...)
		buf = append(buf, byte(i+1))
		out := self.hmac(tempKey, buf)
		outputs[i] = out
		prev = out
	}
	return outputs, nil
}

func init() {
	hashRegistry = utils.NewRegistry[string, Hash]()
	MustRegisterHash(HASH_SHA256, baseHash{name: HASH_SHA256, size: sha256.Size, newHash: sha256.New})
	MustRegisterHash(HASH_SHA512, baseHash{name: HASH_SHA512, size: sha512.Size, newHash: sha512.New})
	MustRegisterHash(HASH_BLAKE2s, baseHash{name: HASH_BLAKE2s, size: 32, newHash: newBlake2s})
	MustRegisterHash(HASH_BLAKE2b, baseHash{name: HASH_BLAKE2b, size: 64, newHash: newBlake2b})
}

func newBlake2s() hash.Hash {
	h, err := blake2s.New256(nil)
	if nil != err {
		// blake2s.New256 only errors on a non-nil key of the wrong size; we pass nil.
		panic(err)
	}
	return h
}

func newBlake2b() hash.Hash {
	h, err := blake2b.New512(nil)
	if nil != err {
		panic(err)
	}
	return h
}
