package noise

import (
	"io"

	"code.noisecore.dev/golang/internal/algos"
)

// MaxMsgLen is the upper bound on a single Noise handshake (or transport)
// message, per §6/§GLOSSARY.
const MaxMsgLen = 65535

// NumPskSlots is the number of addressable pre-shared key slots (§6 PSK slot indexing).
const NumPskSlots = 10

// HandshakeState orchestrates one Noise handshake: it walks the expanded
// token sequence message by message, driving the SymmetricState and the four
// Toggled key slots (s, e, rs, re), and produces the pair of transport
// CipherStates once the pattern is exhausted. See §4.E.
type HandshakeState struct {
	rand   io.Reader
	sym    *SymmetricState
	dh     algos.DH
	kem    algos.KEM

	s, e   Toggled[algos.Keypair]
	rs, re Toggled[algos.PublicKey]

	localKemPriv  Toggled[algos.KEMPrivateKey]
	remoteKemPub  Toggled[algos.KEMPublicKey]

	fixedEphemeral bool
	initiator      bool
	params         NoiseParams
	psks           [NumPskSlots]Toggled[[32]byte]

	myTurn          bool
	messages        [][]Token
	patternPosition int

	lastWritePayloadEncrypted bool

	sendCipher *CipherState
	recvCipher *CipherState
}

// NewHandshakeState builds a HandshakeState from cfg, per §4.E's
// construction rules: validating key lengths, initializing the symmetric
// state from the protocol name and prologue, and mixing in whatever
// pre-message public keys the pattern requires.
func NewHandshakeState(cfg Config) (*HandshakeState, error) {
	params, err := ParseNoiseParams(cfg.ProtocolName)
	if nil != err {
		return nil, err
	}
	if params.HasModifier(ModHfs) && nil == cfg.Kem {
		return nil, newFlaggedError(ErrValidateKeyLengths, "protocol %q requires a KEM implementation", cfg.ProtocolName)
	}

	tokens, err := ExpandPattern(params)
	if nil != err {
		return nil, err
	}

	rnd := cfg.Rand
	if nil == rnd {
		rnd = algos.Rand
	}

	hs := &HandshakeState{
		rand:           rnd,
		sym:            newSymmetricState(cfg.Hash, cfg.Cipher),
		dh:             cfg.Dh,
		kem:            cfg.Kem,
		fixedEphemeral: cfg.FixedEphemeral,
		initiator:      cfg.Initiator,
		params:         params,
		messages:       tokens.Messages,
		myTurn:         cfg.Initiator,
	}

	if err := hs.validateAndInstallLocalKeys(cfg); nil != err {
		return nil, err
	}

	hs.sym.Initialize(params.Name)
	hs.sym.MixHash(cfg.Prologue)

	if err := hs.mixPremessage(tokens.PremsgInitiator, true); nil != err {
		return nil, err
	}
	if err := hs.mixPremessage(tokens.PremsgResponder, false); nil != err {
		return nil, err
	}

	return hs, nil
}

func (self *HandshakeState) validateAndInstallLocalKeys(cfg Config) error {
	if nil != cfg.LocalStatic {
		if len(cfg.LocalStatic.Public().Bytes()) != self.dh.PubLen() {
			return newFlaggedError(ErrValidateKeyLengths, "local static public key has the wrong length")
		}
		self.s.Enable(cfg.LocalStatic)
	}
	if nil != cfg.LocalEphemeral {
		if len(cfg.LocalEphemeral.Public().Bytes()) != self.dh.PubLen() {
			return newFlaggedError(ErrValidateKeyLengths, "local ephemeral public key has the wrong length")
		}
		self.e.Enable(cfg.LocalEphemeral)
	}
	if self.fixedEphemeral && !self.e.IsOn() {
		return newFlaggedError(ErrValidateKeyLengths, "FixedEphemeral requires LocalEphemeral to be set")
	}
	if len(cfg.RemoteStatic) > 0 {
		if len(cfg.RemoteStatic) < self.dh.PubLen() {
			return newFlaggedError(ErrValidateKeyLengths, "remote static key shorter than DH public key length")
		}
		pub, err := self.dh.ParsePublicKey(cfg.RemoteStatic[:self.dh.PubLen()])
		if nil != err {
			return wrapError(err, "invalid remote static key")
		}
		self.rs.Enable(pub)
	}
	if len(cfg.RemoteEphemeral) > 0 {
		if len(cfg.RemoteEphemeral) < self.dh.PubLen() {
			return newFlaggedError(ErrValidateKeyLengths, "remote ephemeral key shorter than DH public key length")
		}
		pub, err := self.dh.ParsePublicKey(cfg.RemoteEphemeral[:self.dh.PubLen()])
		if nil != err {
			return wrapError(err, "invalid remote ephemeral key")
		}
		self.re.Enable(pub)
	}
	return nil
}

// mixPremessage mixes one pre-message token list's public keys into the
// transcript hash. ownerIsInitiator is true when processing PremsgInitiator; it decides
// whether "S"/"E" tokens there refer to this instance's own local slots
// (when this instance is the initiator) or to its remote slots (otherwise).
func (self *HandshakeState) mixPremessage(tokens []Token, ownerIsInitiator bool) error {
	localOwnsIt := self.initiator == ownerIsInitiator
	for _, t := range tokens {
		var pub []byte
		switch {
		case t.Kind == TokenS && localOwnsIt:
			kp, err := self.s.Get()
			if nil != err {
				return wrapError(err, "pattern requires a local static key")
			}
			pub = kp.Public().Bytes()
		case t.Kind == TokenS && !localOwnsIt:
			rs, err := self.rs.Get()
			if nil != err {
				return wrapError(err, "pattern requires the remote static key ahead of time")
			}
			pub = rs.Bytes()
		case t.Kind == TokenE && localOwnsIt:
			kp, err := self.e.Get()
			if nil != err {
				return wrapError(err, "pattern requires a local ephemeral key")
			}
			pub = kp.Public().Bytes()
		case t.Kind == TokenE && !localOwnsIt:
			re, err := self.re.Get()
			if nil != err {
				return wrapError(err, "pattern requires the remote ephemeral key ahead of time")
			}
			pub = re.Bytes()
		default:
			return newError("unexpected pre-message token kind %v", t.Kind)
		}
		self.sym.MixHash(pub)
	}
	return nil
}

// SetPsk installs a 32-byte pre-shared key at slot location, per §4.E / §6.
func (self *HandshakeState) SetPsk(location int, key []byte) error {
	if location < 0 || location >= NumPskSlots {
		return newFlaggedError(ErrInput, "psk slot %d out of range [0,%d)", location, NumPskSlots)
	}
	if len(key) != 32 {
		return newFlaggedError(ErrInput, "psk must be exactly 32 bytes, got %d", len(key))
	}
	var buf [32]byte
	copy(buf[:], key)
	self.psks[location].Enable(buf)
	return nil
}

// IsInitiator reports whether this instance plays the initiator role.
func (self *HandshakeState) IsInitiator() bool { return self.initiator }

// IsFinished reports whether every message of the pattern has been processed.
func (self *HandshakeState) IsFinished() bool {
	return self.patternPosition == len(self.messages)
}

// GetHandshakeHash returns the current transcript hash.
func (self *HandshakeState) GetHandshakeHash() []byte {
	return self.sym.HandshakeHash()
}

// GetRemoteStatic returns the remote party's static public key, once known.
func (self *HandshakeState) GetRemoteStatic() ([]byte, error) {
	pub, err := self.rs.Get()
	if nil != err {
		return nil, err
	}
	return pub.Bytes(), nil
}

// WasWritePayloadEncrypted reports whether the most recent successful write
// encrypted its payload (i.e. a cipher key was installed by that point).
func (self *HandshakeState) WasWritePayloadEncrypted() bool {
	return self.lastWritePayloadEncrypted
}

// Transport returns the pair of transport cipher states produced once the
// handshake finished, from this side's point of view: send encrypts what this
// side sends to its peer, recv decrypts what it receives. For the initiator
// send is the initiator-to-responder state; for the responder it is the
// responder-to-initiator state.
func (self *HandshakeState) Transport() (send, recv *CipherState, err error) {
	if !self.IsFinished() {
		return nil, nil, newFlaggedError(ErrHandshakeAlreadyFinished, "handshake has not completed yet")
	}
	return self.sendCipher, self.recvCipher, nil
}

// Wipe zeroises every owned key material buffer: the local static/ephemeral
// slots, the remote static/ephemeral slots, every psk slot, and the
// symmetric state's h/ck/cipher key, per §5's "dropping the handshake
// zeroises all owned key material" requirement. Callers must treat the
// HandshakeState as unusable afterward; Wipe does not itself erase concrete
// DH private-key bytes owned by the capability implementations (out of
// scope per §1), only this package's own references and buffers.
func (self *HandshakeState) Wipe() {
	self.s.Clear()
	self.e.Clear()
	self.rs.Clear()
	self.re.Clear()
	self.localKemPriv.Clear()
	self.remoteKemPub.Clear()
	for i := range self.psks {
		self.psks[i].Clear()
	}
	if nil != self.sym {
		self.sym.wipe()
	}
	if nil != self.sendCipher {
		self.sendCipher.wipe()
	}
	if nil != self.recvCipher {
		self.recvCipher.wipe()
	}
}

func (self *HandshakeState) installTransport(cs1, cs2 *CipherState) {
	if self.initiator {
		self.sendCipher, self.recvCipher = cs1, cs2
	} else {
		self.sendCipher, self.recvCipher = cs2, cs1
	}
}

// dhTokenRoles returns which side of the DH pair (static or ephemeral) the
// local and remote keys are for the given DH token, given this instance's
// role. EE and SS are role-symmetric; ES and SE swap meaning between
// initiator and responder, per §9's "token role inversion" design note: the
// token always names (initiator's key, responder's key) in that order.
func dhTokenRoles(kind TokenKind, initiator bool) (localIsStatic, remoteIsStatic bool) {
	switch kind {
	case TokenEE:
		return false, false
	case TokenSS:
		return true, true
	case TokenES:
		// ES = dh(initiator_e, responder_s)
		if initiator {
			return false, true
		}
		return true, false
	case TokenSE:
		// SE = dh(initiator_s, responder_e)
		if initiator {
			return true, false
		}
		return false, true
	default:
		return false, false
	}
}

func (self *HandshakeState) localKeypairFor(isStatic bool) (algos.Keypair, error) {
	if isStatic {
		return self.s.Get()
	}
	return self.e.Get()
}

func (self *HandshakeState) remotePublicFor(isStatic bool) (algos.PublicKey, error) {
	if isStatic {
		return self.rs.Get()
	}
	return self.re.Get()
}

func (self *HandshakeState) performDh(kind TokenKind) error {
	localIsStatic, remoteIsStatic := dhTokenRoles(kind, self.initiator)
	localKp, err := self.localKeypairFor(localIsStatic)
	if nil != err {
		return err
	}
	remotePub, err := self.remotePublicFor(remoteIsStatic)
	if nil != err {
		return err
	}
	secret, err := localKp.DH(remotePub)
	if nil != err {
		return newFlaggedError(ErrDh, "%v", err)
	}
	return self.sym.MixKey(secret)
}
