package noise

// cursorWriter is a small bounds-checked append helper over a caller-owned,
// fixed-capacity buffer; it exists so write_handshake_message can fail with
// Input instead of panicking when the caller's buffer is too small (§8.6).
type cursorWriter struct {
	buf    []byte
	cursor int
}

func (self *cursorWriter) write(data []byte) error {
	if self.cursor+len(data) > len(self.buf) {
		return newFlaggedError(ErrInput, "buffer too small: need %d more bytes, have %d", len(data), len(self.buf)-self.cursor)
	}
	if self.cursor+len(data) > MaxMsgLen {
		return newFlaggedError(ErrInput, "handshake message would exceed MaxMsgLen (%d)", MaxMsgLen)
	}
	copy(self.buf[self.cursor:], data)
	self.cursor += len(data)
	return nil
}

// WriteMessage processes the next pattern message: it writes token-derived
// fields and the encrypted payload into buf, returning the number of bytes
// written. On any error, the symmetric state is rolled back to its state
// just before this call and buf's contents must be discarded (§4.E step 6,
// §8.5).
func (self *HandshakeState) WriteMessage(payload []byte, buf []byte) (int, error) {
	if !self.myTurn {
		return 0, newFlaggedError(ErrNotTurnToWrite, "it is not this side's turn to write")
	}
	if self.IsFinished() {
		return 0, newFlaggedError(ErrHandshakeAlreadyFinished, "handshake already finished")
	}

	cp := self.sym.checkpoint()
	cw := &cursorWriter{buf: buf}

	if err := self.processMessage(self.messages[self.patternPosition], cw, true); nil != err {
		self.sym.restore(cp)
		return 0, err
	}

	ciphertext, err := self.sym.EncryptAndMixHash(payload)
	if nil != err {
		self.sym.restore(cp)
		return 0, err
	}
	if err := cw.write(ciphertext); nil != err {
		self.sym.restore(cp)
		return 0, err
	}

	self.lastWritePayloadEncrypted = self.sym.HasKey()

	if self.patternPosition == len(self.messages)-1 {
		cs1, cs2, err := self.sym.Split()
		if nil != err {
			self.sym.restore(cp)
			return 0, err
		}
		self.installTransport(cs1, cs2)
	}

	self.myTurn = false
	self.patternPosition++
	return cw.cursor, nil
}

// cursorReader mirrors cursorWriter for the read side.
type cursorReader struct {
	buf    []byte
	cursor int
}

func (self *cursorReader) read(n int) ([]byte, error) {
	if self.cursor+n > len(self.buf) {
		return nil, newFlaggedError(ErrInput, "message truncated: need %d more bytes, have %d", n, len(self.buf)-self.cursor)
	}
	out := self.buf[self.cursor : self.cursor+n]
	self.cursor += n
	return out, nil
}

func (self *cursorReader) remaining() []byte {
	return self.buf[self.cursor:]
}

// ReadMessage processes the next pattern message out of message, writing the
// decrypted payload into payloadOut and returning its length. On any error,
// the symmetric state is rolled back to its state just before this call
// (§4.E step 6, §8.5).
func (self *HandshakeState) ReadMessage(message []byte, payloadOut []byte) (int, error) {
	if self.myTurn {
		return 0, newFlaggedError(ErrNotTurnToWrite, "it is this side's turn to write, not read")
	}
	if self.IsFinished() {
		return 0, newFlaggedError(ErrHandshakeAlreadyFinished, "handshake already finished")
	}
	if len(message) > MaxMsgLen {
		return 0, newFlaggedError(ErrInput, "message of %d bytes exceeds MaxMsgLen (%d)", len(message), MaxMsgLen)
	}

	cp := self.sym.checkpoint()
	cr := &cursorReader{buf: message}

	if err := self.processMessage(self.messages[self.patternPosition], cr, false); nil != err {
		self.sym.restore(cp)
		return 0, err
	}

	plaintext, err := self.sym.DecryptAndMixHash(cr.remaining())
	if nil != err {
		self.sym.restore(cp)
		return 0, err
	}
	if len(plaintext) > len(payloadOut) {
		self.sym.restore(cp)
		return 0, newFlaggedError(ErrInput, "payload output buffer too small: need %d, have %d", len(plaintext), len(payloadOut))
	}
	copy(payloadOut, plaintext)

	if self.patternPosition == len(self.messages)-1 {
		cs1, cs2, err := self.sym.Split()
		if nil != err {
			self.sym.restore(cp)
			return 0, err
		}
		self.installTransport(cs1, cs2)
	}

	self.myTurn = true
	self.patternPosition++
	return len(plaintext), nil
}

// processMessage walks every non-payload token of one message pattern,
// dispatching to the write or read form of each per writing.
func (self *HandshakeState) processMessage(tokens []Token, cursor any, writing bool) error {
	for _, t := range tokens {
		var err error
		switch t.Kind {
		case TokenE:
			err = self.processTokenE(cursor, writing)
		case TokenS:
			err = self.processTokenS(cursor, writing)
		case TokenPsk:
			err = self.processTokenPsk(t.PskIndex)
		case TokenEE, TokenES, TokenSE, TokenSS:
			err = self.performDh(t.Kind)
		case TokenE1:
			err = self.processTokenE1(cursor, writing)
		case TokenEkem1:
			err = self.processTokenEkem1(cursor, writing)
		default:
			err = newError("unhandled token kind %v", t.Kind)
		}
		if nil != err {
			return err
		}
	}
	return nil
}

func (self *HandshakeState) processTokenE(cursor any, writing bool) error {
	if writing {
		cw := cursor.(*cursorWriter)
		if !self.fixedEphemeral {
			kp, err := self.dh.GenerateKeypair(self.rand)
			if nil != err {
				return newFlaggedError(ErrDh, "failed generating ephemeral key: %v", err)
			}
			self.e.Enable(kp)
		}
		kp, err := self.e.Get()
		if nil != err {
			return err
		}
		epub := kp.Public().Bytes()
		if err := cw.write(epub); nil != err {
			return err
		}
		self.sym.MixHash(epub)
		if self.params.HasModifier(ModPsk) {
			if err := self.sym.MixKey(epub); nil != err {
				return err
			}
		}
		return nil
	}

	cr := cursor.(*cursorReader)
	raw, err := cr.read(self.dh.PubLen())
	if nil != err {
		return err
	}
	pub, err := self.dh.ParsePublicKey(raw)
	if nil != err {
		return newFlaggedError(ErrDh, "invalid ephemeral public key: %v", err)
	}
	self.re.Enable(pub)
	self.sym.MixHash(raw)
	if self.params.HasModifier(ModPsk) {
		if err := self.sym.MixKey(raw); nil != err {
			return err
		}
	}
	return nil
}

func (self *HandshakeState) processTokenS(cursor any, writing bool) error {
	if writing {
		cw := cursor.(*cursorWriter)
		kp, err := self.s.Get()
		if nil != err {
			return err
		}
		ciphertext, err := self.sym.EncryptAndMixHash(kp.Public().Bytes())
		if nil != err {
			return err
		}
		return cw.write(ciphertext)
	}

	cr := cursor.(*cursorReader)
	length := self.dh.PubLen()
	if self.sym.HasKey() {
		length += tagLen
	}
	raw, err := cr.read(length)
	if nil != err {
		return err
	}
	plaintext, err := self.sym.DecryptAndMixHash(raw)
	if nil != err {
		return err
	}
	pub, err := self.dh.ParsePublicKey(plaintext)
	if nil != err {
		return newFlaggedError(ErrDh, "invalid static public key: %v", err)
	}
	self.rs.Enable(pub)
	return nil
}

func (self *HandshakeState) processTokenPsk(index uint8) error {
	psk, err := self.psks[index].Get()
	if nil != err {
		return newFlaggedError(ErrMissingPsk, "psk slot %d was never set", index)
	}
	return self.sym.MixKeyAndHash(psk[:])
}

func (self *HandshakeState) processTokenE1(cursor any, writing bool) error {
	if nil == self.kem {
		return newFlaggedError(ErrValidateKeyLengths, "hfs pattern requires a KEM implementation")
	}
	if writing {
		cw := cursor.(*cursorWriter)
		priv, err := self.kem.GenerateKeypair(self.rand)
		if nil != err {
			return wrapError(err, "failed generating hfs ephemeral keypair")
		}
		self.localKemPriv.Enable(priv)
		pub := priv.PublicKeyBytes()
		if err := cw.write(pub); nil != err {
			return err
		}
		self.sym.MixHash(pub)
		return nil
	}

	cr := cursor.(*cursorReader)
	raw, err := cr.read(self.kem.PublicKeyLen())
	if nil != err {
		return err
	}
	pub, err := self.kem.ParsePublicKey(raw)
	if nil != err {
		return wrapError(err, "invalid hfs public key")
	}
	self.remoteKemPub.Enable(pub)
	self.sym.MixHash(raw)
	return nil
}

func (self *HandshakeState) processTokenEkem1(cursor any, writing bool) error {
	if nil == self.kem {
		return newFlaggedError(ErrValidateKeyLengths, "hfs pattern requires a KEM implementation")
	}
	if writing {
		cw := cursor.(*cursorWriter)
		remotePub, err := self.remoteKemPub.Get()
		if nil != err {
			return wrapError(err, "hfs encapsulation requires the peer's kem public key")
		}
		ciphertext, secret, err := remotePub.Encapsulate(self.rand)
		if nil != err {
			return wrapError(err, "hfs encapsulation failed")
		}
		if err := cw.write(ciphertext); nil != err {
			return err
		}
		self.sym.MixHash(ciphertext)
		return self.sym.MixKey(secret)
	}

	cr := cursor.(*cursorReader)
	raw, err := cr.read(self.kem.CiphertextLen())
	if nil != err {
		return err
	}
	priv, err := self.localKemPriv.Get()
	if nil != err {
		return wrapError(err, "hfs decapsulation requires our own kem keypair")
	}
	self.sym.MixHash(raw)
	secret, err := priv.Decapsulate(raw)
	if nil != err {
		return newFlaggedError(ErrDecrypt, "hfs decapsulation failed: %v", err)
	}
	return self.sym.MixKey(secret)
}
