package noise

// ExpandPattern maps a parsed NoiseParams to its fully expanded
// HandshakeTokens: the base pattern's literal token tables with fallback,
// psk and hfs modifiers applied in that order, per §4.C of the handshake
// specification.
func ExpandPattern(params NoiseParams) (HandshakeTokens, error) {
	tmpl, err := lookupPattern(params.Pattern)
	if nil != err {
		return HandshakeTokens{}, err
	}

	tokens := HandshakeTokens{
		PremsgInitiator: append([]Token{}, tmpl.premsgInitiator...),
		PremsgResponder: append([]Token{}, tmpl.premsgResponder...),
		Messages:        cloneMessages(tmpl.messages),
	}

	if params.HasModifier(ModFallback) {
		tokens, err = applyFallback(tokens)
		if nil != err {
			return HandshakeTokens{}, err
		}
	}

	for _, mod := range params.Modifiers {
		if mod.Kind != ModPsk {
			continue
		}
		tokens, err = applyPsk(tokens, mod.PskIndex)
		if nil != err {
			return HandshakeTokens{}, err
		}
	}

	if params.HasModifier(ModHfs) {
		tokens, err = applyHfs(tokens)
		if nil != err {
			return HandshakeTokens{}, err
		}
	}

	return tokens, nil
}

func cloneMessages(messages [][]Token) [][]Token {
	rv := make([][]Token, len(messages))
	for i, msg := range messages {
		rv[i] = append([]Token{}, msg...)
	}
	return rv
}

// applyFallback converts a pattern into its fallback form: the first
// message's tokens become known to both parties ahead of time (as they would
// already have been exchanged before the fallback was triggered), and
// every subsequent message shifts down by one.
func applyFallback(tokens HandshakeTokens) (HandshakeTokens, error) {
	if len(tokens.Messages) == 0 {
		return HandshakeTokens{}, newFlaggedError(ErrUnsupportedModifier, "fallback requires a pattern with at least one message")
	}
	first := tokens.Messages[0]
	premsgInitiator := append(append([]Token{}, tokens.PremsgInitiator...), first...)
	return HandshakeTokens{
		PremsgInitiator: premsgInitiator,
		PremsgResponder: append([]Token{}, tokens.PremsgResponder...),
		Messages:        cloneMessages(tokens.Messages[1:]),
	}, nil
}

// applyPsk applies one psk<n> modifier: psk0 prepends Psk(0) to the first
// message; psk<k> for k>=1 appends Psk(k-1) to message k.
func applyPsk(tokens HandshakeTokens, n uint8) (HandshakeTokens, error) {
	messages := cloneMessages(tokens.Messages)
	if n == 0 {
		if len(messages) == 0 {
			return HandshakeTokens{}, newFlaggedError(ErrUnsupportedModifier, "psk0 requires at least one message")
		}
		messages[0] = append([]Token{{Kind: TokenPsk, PskIndex: 0}}, messages[0]...)
	} else {
		idx := int(n)
		if idx >= len(messages) {
			return HandshakeTokens{}, newFlaggedError(ErrUnsupportedModifier, "psk%d has no matching message %d", n, idx)
		}
		messages[idx] = append(messages[idx], Token{Kind: TokenPsk, PskIndex: n - 1})
	}
	tokens.Messages = messages
	return tokens, nil
}

// applyHfs applies the hfs (hybrid forward secrecy) modifier: e1 is inserted
// right after the first e token the initiator sends, and ekem1 right after
// the first e token the responder sends in reply, per the Noise HFS
// extension's placement of the KEM public key and ciphertext.
func applyHfs(tokens HandshakeTokens) (HandshakeTokens, error) {
	messages := cloneMessages(tokens.Messages)
	if len(messages) < 2 {
		return HandshakeTokens{}, newFlaggedError(ErrUnsupportedModifier, "hfs requires at least two messages")
	}
	insertedE1 := false
	insertedEkem1 := false
	for i := range messages {
		if !insertedE1 {
			if pos := indexOfToken(messages[i], TokenE); pos >= 0 {
				messages[i] = insertAfter(messages[i], pos, Token{Kind: TokenE1})
				insertedE1 = true
				continue
			}
		}
		if insertedE1 && !insertedEkem1 {
			if pos := indexOfToken(messages[i], TokenE); pos >= 0 {
				messages[i] = insertAfter(messages[i], pos, Token{Kind: TokenEkem1})
				insertedEkem1 = true
				break
			}
		}
	}
	if !insertedE1 || !insertedEkem1 {
		return HandshakeTokens{}, newFlaggedError(ErrUnsupportedModifier, "hfs could not locate both e tokens to extend")
	}
	tokens.Messages = messages
	return tokens, nil
}

func indexOfToken(tokens []Token, kind TokenKind) int {
	for i, t := range tokens {
		if t.Kind == kind {
			return i
		}
	}
	return -1
}

func insertAfter(tokens []Token, pos int, tok Token) []Token {
	rv := make([]Token, 0, len(tokens)+1)
	rv = append(rv, tokens[:pos+1]...)
	rv = append(rv, tok)
	rv = append(rv, tokens[pos+1:]...)
	return rv
}
