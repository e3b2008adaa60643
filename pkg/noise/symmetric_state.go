package noise

import "code.noisecore.dev/golang/internal/algos"

// symmetricStateCheckpoint is a plain value snapshot of everything
// SymmetricState mutates while processing one handshake message: h, ck, and
// the cipher's key/nonce/installed state. Restoring it undoes exactly that
// mutation, per §4.D's checkpoint()/restore() and §9's "implement as a plain
// value copy" design note.
type symmetricStateCheckpoint struct {
	h       []byte
	ck      []byte
	key     [cipherKeyLen]byte
	nonce   uint64
	keySet  bool
}

// SymmetricState holds the running transcript hash, chaining key and
// optional installed cipher key that every Noise handshake message mixes
// into, per §3/§4.D.
type SymmetricState struct {
	hash   algos.Hash
	h      []byte
	ck     []byte
	cipher *CipherState
}

func newSymmetricState(hash algos.Hash, aead algos.AEAD) *SymmetricState {
	return &SymmetricState{hash: hash, cipher: newCipherState(aead)}
}

// Initialize sets h and ck from protocolName: copied and zero-padded if it
// fits within HASHLEN, else hashed down to HASHLEN.
func (self *SymmetricState) Initialize(protocolName string) {
	hashLen := self.hash.Size()
	h := make([]byte, hashLen)
	name := []byte(protocolName)
	if len(name) <= hashLen {
		copy(h, name)
	} else {
		digest := self.hash.New()
		digest.Write(name)
		copy(h, digest.Sum(nil))
	}
	self.h = h
	self.ck = append([]byte{}, h...)
}

// MixHash absorbs data into the running transcript hash: h = HASH(h || data).
func (self *SymmetricState) MixHash(data []byte) {
	digest := self.hash.New()
	digest.Write(self.h)
	digest.Write(data)
	self.h = digest.Sum(nil)
}

// MixKey derives a fresh chaining key and cipher key from ikm and installs
// the cipher key, resetting the nonce.
func (self *SymmetricState) MixKey(ikm []byte) error {
	outputs, err := self.hash.Hkdf(self.ck, ikm, 2)
	if nil != err {
		return wrapError(err, "mix_key HKDF failed")
	}
	self.ck = outputs[0]
	return self.cipher.InitializeKey(outputs[1][:cipherKeyLen])
}

// MixKeyAndHash derives ck, a transcript-hash update and a cipher key from
// ikm, in that order, per §4.D.
func (self *SymmetricState) MixKeyAndHash(ikm []byte) error {
	outputs, err := self.hash.Hkdf(self.ck, ikm, 3)
	if nil != err {
		return wrapError(err, "mix_key_and_hash HKDF failed")
	}
	self.ck = outputs[0]
	self.MixHash(outputs[1])
	return self.cipher.InitializeKey(outputs[2][:cipherKeyLen])
}

// HasKey reports whether a cipher key is currently installed.
func (self *SymmetricState) HasKey() bool {
	return self.cipher.HasKey()
}

// EncryptAndMixHash encrypts plaintext (or passes it through if no key is
// installed), then mixes the resulting ciphertext into h.
func (self *SymmetricState) EncryptAndMixHash(plaintext []byte) ([]byte, error) {
	ciphertext, err := self.cipher.EncryptWithAd(self.h, plaintext)
	if nil != err {
		return nil, err
	}
	self.MixHash(ciphertext)
	return ciphertext, nil
}

// DecryptAndMixHash decrypts ciphertext (or passes it through if no key is
// installed), mixing the ciphertext itself (not the plaintext) into h, per
// §9's transcript-binding design note.
func (self *SymmetricState) DecryptAndMixHash(ciphertext []byte) ([]byte, error) {
	plaintext, err := self.cipher.DecryptWithAd(self.h, ciphertext)
	if nil != err {
		return nil, err
	}
	self.MixHash(ciphertext)
	return plaintext, nil
}

// Split derives two transport cipher states from ck, with fresh keys and
// nonces starting at zero; by Noise convention the first belongs to the
// initiator-to-responder direction, the second to responder-to-initiator.
func (self *SymmetricState) Split() (*CipherState, *CipherState, error) {
	outputs, err := self.hash.Hkdf(self.ck, []byte{}, 2)
	if nil != err {
		return nil, nil, wrapError(err, "split HKDF failed")
	}
	cs1 := newCipherState(self.cipher.algo)
	if err := cs1.InitializeKey(outputs[0][:cipherKeyLen]); nil != err {
		return nil, nil, err
	}
	cs2 := newCipherState(self.cipher.algo)
	if err := cs2.InitializeKey(outputs[1][:cipherKeyLen]); nil != err {
		return nil, nil, err
	}
	return cs1, cs2, nil
}

// checkpoint snapshots everything token processing can mutate.
func (self *SymmetricState) checkpoint() symmetricStateCheckpoint {
	return symmetricStateCheckpoint{
		h:      append([]byte{}, self.h...),
		ck:     append([]byte{}, self.ck...),
		key:    self.cipher.key,
		nonce:  self.cipher.nonce,
		keySet: self.cipher.keySet,
	}
}

// restore rewinds to a prior checkpoint, undoing any mix/encrypt/decrypt
// performed since it was taken.
func (self *SymmetricState) restore(cp symmetricStateCheckpoint) {
	self.h = cp.h
	self.ck = cp.ck
	self.cipher.key = cp.key
	self.cipher.nonce = cp.nonce
	self.cipher.keySet = cp.keySet
	if cp.keySet {
		// Rebuild the live cipher.AEAD instance from the restored key; the
		// instance itself is not part of the checkpoint value.
		_ = self.cipher.InitializeKey(cp.key[:])
		self.cipher.nonce = cp.nonce
	} else {
		self.cipher.aead = nil
	}
}

// HandshakeHash returns the current transcript hash h.
func (self *SymmetricState) HandshakeHash() []byte {
	return append([]byte{}, self.h...)
}

func (self *SymmetricState) wipe() {
	for i := range self.h {
		self.h[i] = 0
	}
	for i := range self.ck {
		self.ck[i] = 0
	}
	self.cipher.wipe()
}
