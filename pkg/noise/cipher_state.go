package noise

import (
	"crypto/cipher"

	"code.noisecore.dev/golang/internal/algos"
)

// cipherKeyLen is the size in bytes of every installed AEAD key, regardless
// of which concrete cipher is in play; the Noise specification fixes this at
// 32 bytes.
const cipherKeyLen = 32

// tagLen is the AEAD authentication tag length added to every encrypted
// payload (§GLOSSARY TAGLEN).
const tagLen = 16

// CipherState wraps a single AEAD key and its strictly increasing nonce
// counter. It backs both the handshake's own symmetric state (§4.D) and the
// pair of transport cipher states produced by Split once the handshake
// finishes (§4.E observers, §6 collaborator interfaces).
type CipherState struct {
	algo  algos.AEAD
	aead  cipher.AEAD
	key   [cipherKeyLen]byte
	nonce uint64
	keySet bool
}

func newCipherState(algo algos.AEAD) *CipherState {
	return &CipherState{algo: algo}
}

// HasKey reports whether a key has been installed.
func (self *CipherState) HasKey() bool {
	return self.keySet
}

// Nonce returns the next nonce this cipher state will consume.
func (self *CipherState) Nonce() uint64 {
	return self.nonce
}

// InitializeKey installs key (exactly 32 bytes) and resets the nonce to zero,
// per SymmetricState's mix_key/mix_key_and_hash (§4.D).
func (self *CipherState) InitializeKey(key []byte) error {
	if len(key) != cipherKeyLen {
		return newFlaggedError(ErrInput, "cipher key must be %d bytes, got %d", cipherKeyLen, len(key))
	}
	aead, err := self.algo.New(key)
	if nil != err {
		return wrapError(err, "failed initializing %s cipher", self.algo.Name())
	}
	copy(self.key[:], key)
	self.aead = aead
	self.nonce = 0
	self.keySet = true
	return nil
}

func (self *CipherState) nextNonceBytes() []byte {
	nonceBytes := make([]byte, self.algo.NonceLen())
	// Noise packs the 64-bit nonce counter into the last 8 bytes of the AEAD
	// nonce, leaving any leading bytes zero; the byte order of those 8 bytes
	// is cipher-specific: AES-GCM takes big-endian, ChaCha20-Poly1305 takes
	// little-endian.
	tail := nonceBytes[len(nonceBytes)-8:]
	if self.algo.LittleEndianNonce() {
		for i := 0; i < 8; i++ {
			tail[i] = byte(self.nonce >> (8 * i))
		}
	} else {
		for i := 0; i < 8; i++ {
			tail[7-i] = byte(self.nonce >> (8 * i))
		}
	}
	return nonceBytes
}

// EncryptWithAd seals plaintext under ad and the current nonce, then
// increments the nonce. If no key has been installed, it returns plaintext
// unchanged, per SymmetricState.encrypt_and_mix_hash's fallback (§4.D).
func (self *CipherState) EncryptWithAd(ad, plaintext []byte) ([]byte, error) {
	if !self.keySet {
		return append([]byte{}, plaintext...), nil
	}
	if self.nonce == algos.MaxNonce {
		return nil, newFlaggedError(ErrInput, "nonce space exhausted")
	}
	ciphertext := self.aead.Seal(nil, self.nextNonceBytes(), plaintext, ad)
	self.nonce++
	return ciphertext, nil
}

// DecryptWithAd opens ciphertext under ad and the current nonce, then
// increments the nonce. If no key has been installed, it returns ciphertext
// unchanged.
func (self *CipherState) DecryptWithAd(ad, ciphertext []byte) ([]byte, error) {
	if !self.keySet {
		return append([]byte{}, ciphertext...), nil
	}
	if self.nonce == algos.MaxNonce {
		return nil, newFlaggedError(ErrInput, "nonce space exhausted")
	}
	plaintext, err := self.aead.Open(nil, self.nextNonceBytes(), ciphertext, ad)
	if nil != err {
		return nil, newFlaggedError(ErrDecrypt, "%s authentication failed: %v", self.algo.Name(), err)
	}
	self.nonce++
	return plaintext, nil
}

// EncryptedLen returns the length encrypting plaintext through this cipher
// state would produce, without mutating nonce state: len(plaintext) if no key
// is installed, else len(plaintext)+TAGLEN.
func (self *CipherState) EncryptedLen(plaintextLen int) int {
	if !self.keySet {
		return plaintextLen
	}
	return plaintextLen + tagLen
}

func (self *CipherState) wipe() {
	for i := range self.key {
		self.key[i] = 0
	}
	self.aead = nil
	self.keySet = false
	self.nonce = 0
}
