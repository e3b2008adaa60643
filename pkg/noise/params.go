package noise

import (
	"fmt"
	"strconv"
	"strings"
)

const baseToken = "Noise"

// ModifierKind enumerates the suffixes a Noise pattern identifier may carry.
type ModifierKind int

const (
	ModFallback ModifierKind = iota
	ModPsk
	ModHfs
)

// Modifier is one parsed pattern modifier. PskIndex is only meaningful when
// Kind is ModPsk.
type Modifier struct {
	Kind     ModifierKind
	PskIndex uint8
}

func (self Modifier) String() string {
	switch self.Kind {
	case ModFallback:
		return "fallback"
	case ModPsk:
		return fmt.Sprintf("psk%d", self.PskIndex)
	case ModHfs:
		return "hfs"
	default:
		return "?"
	}
}

// knownPatterns lists every base pattern identifier this implementation
// expands, in the order the Noise specification enumerates them. Neither the
// parser nor ExpandPattern reads it: ExpandPattern resolves a pattern through
// lookupPattern, which consults patternTable. The parser's grammar (§4.B)
// accepts every syntactically valid pattern identifier, including the
// deferred forms below, and leaves rejecting patterns without a token table
// to the expander.
var knownPatterns = map[string]bool{
	"N": true, "K": true, "X": true,
	"NN": true, "NK": true, "NX": true,
	"XN": true, "XK": true, "XX": true,
	"KN": true, "KK": true, "KX": true,
	"IN": true, "IK": true, "IX": true,
}

// patternRoleLetters are the fundamental pattern role letters the Noise
// specification builds every base pattern and its deferred variants from.
const patternRoleLetters = "NKXI"

// NoiseParams is the structured form of a parsed Noise protocol name.
type NoiseParams struct {
	Name      string
	Pattern   string
	Modifiers []Modifier
	Dh        string
	Kem       string
	Cipher    string
	Hash      string
}

// HasModifier reports whether kind was parsed out of the protocol name.
func (self NoiseParams) HasModifier(kind ModifierKind) bool {
	for _, mod := range self.Modifiers {
		if mod.Kind == kind {
			return true
		}
	}
	return false
}

// PskIndices returns every psk<n> modifier's slot index, in the order parsed.
func (self NoiseParams) PskIndices() []uint8 {
	rv := make([]uint8, 0, len(self.Modifiers))
	for _, mod := range self.Modifiers {
		if mod.Kind == ModPsk {
			rv = append(rv, mod.PskIndex)
		}
	}
	return rv
}

// ParseNoiseParams turns a protocol name such as "Noise_XXpsk0_25519_AESGCM_SHA256"
// into a NoiseParams, per the grammar in §6 of the handshake specification.
func ParseNoiseParams(name string) (NoiseParams, error) {
	fields := strings.Split(name, "_")
	if len(fields) != 5 {
		return NoiseParams{}, newFlaggedError(ErrTooFewParameters, "expected 5 underscore-separated fields in %q, got %d", name, len(fields))
	}
	if fields[0] != baseToken {
		return NoiseParams{}, newFlaggedError(ErrUnsupportedBaseType, "expected base token %q, got %q", baseToken, fields[0])
	}

	pattern, modifiers, err := parsePatternAndModifiers(fields[1])
	if nil != err {
		return NoiseParams{}, err
	}

	dh, kem, err := parseDhAndKem(fields[2], modifiers)
	if nil != err {
		return NoiseParams{}, err
	}

	cipher, err := parseCipher(fields[3])
	if nil != err {
		return NoiseParams{}, err
	}

	hash, err := parseHash(fields[4])
	if nil != err {
		return NoiseParams{}, err
	}

	return NoiseParams{
		Name:      name,
		Pattern:   pattern,
		Modifiers: modifiers,
		Dh:        dh,
		Kem:       kem,
		Cipher:    cipher,
		Hash:      hash,
	}, nil
}

// parsePatternAndModifiers consumes the leading pattern identifier, then
// splits the remainder on '+' into modifiers. The identifier is one or two
// role letters (N, K or X, plus I for the first only), each optionally followed by a
// '1' marking a deferred form (e.g. "NK1", "X1K1", "I1X1"), per §4.B. Since
// none of the three recognized modifiers (fallback, psk<n>, hfs) begin with
// N, K or X, a role letter immediately following the first is unambiguously
// the pattern's second letter rather than the start of a modifier.
func parsePatternAndModifiers(field string) (string, []Modifier, error) {
	pattern, rest, err := consumePatternIdentifier(field)
	if nil != err {
		return "", nil, err
	}

	if "" == rest {
		return pattern, nil, nil
	}

	modifiers := make([]Modifier, 0, 2)
	for _, tok := range strings.Split(rest, "+") {
		mod, err := parseModifier(tok)
		if nil != err {
			return "", nil, err
		}
		modifiers = append(modifiers, mod)
	}
	return pattern, modifiers, nil
}

// consumePatternIdentifier reads the pattern identifier prefix of field and
// returns it alongside whatever remains (the modifier text, if any).
func consumePatternIdentifier(field string) (pattern string, rest string, err error) {
	if "" == field || !strings.ContainsRune(patternRoleLetters, rune(field[0])) {
		return "", "", newFlaggedError(ErrUnsupportedHandshakeType, "unrecognized handshake pattern in %q", field)
	}
	i := 0
	first := field[i]
	i++
	if i < len(field) && field[i] == '1' {
		pattern += "1"
		i++
	}
	pattern = string(first) + pattern

	var second byte
	if i < len(field) && strings.IndexByte("NKX", field[i]) >= 0 {
		second = field[i]
		i++
		pattern += string(second)
		if i < len(field) && field[i] == '1' {
			pattern += "1"
			i++
		}
	}

	if first == 'I' && 0 == second {
		return "", "", newFlaggedError(ErrUnsupportedHandshakeType, "pattern %q: I must be combined with N, K or X", field)
	}

	return pattern, field[i:], nil
}

func parseModifier(tok string) (Modifier, error) {
	switch {
	case tok == "fallback":
		return Modifier{Kind: ModFallback}, nil
	case tok == "hfs":
		return Modifier{Kind: ModHfs}, nil
	case strings.HasPrefix(tok, "psk"):
		numStr := tok[len("psk"):]
		n, err := strconv.Atoi(numStr)
		if nil != err || n < 0 || n > 255 {
			return Modifier{}, newFlaggedError(ErrUnsupportedModifier, "invalid psk modifier %q", tok)
		}
		return Modifier{Kind: ModPsk, PskIndex: uint8(n)}, nil
	default:
		return Modifier{}, newFlaggedError(ErrUnsupportedModifier, "unrecognized modifier %q", tok)
	}
}

func parseDhAndKem(field string, modifiers []Modifier) (string, string, error) {
	hasHfs := false
	for _, mod := range modifiers {
		if mod.Kind == ModHfs {
			hasHfs = true
		}
	}

	parts := strings.SplitN(field, "+", 2)
	dh := parts[0]
	if dh != "25519" && dh != "448" {
		return "", "", newFlaggedError(ErrUnsupportedDhType, "unrecognized DH algorithm %q", dh)
	}

	switch {
	case hasHfs && len(parts) != 2:
		return "", "", newFlaggedError(ErrUnsupportedKemType, "hfs modifier requires a +<kem> suffix on the DH field")
	case !hasHfs && len(parts) == 2:
		return "", "", newFlaggedError(ErrUnsupportedKemType, "+<kem> suffix requires the hfs modifier")
	case hasHfs:
		kem := parts[1]
		if kem != "Kyber1024" {
			return "", "", newFlaggedError(ErrUnsupportedKemType, "unrecognized KEM algorithm %q", kem)
		}
		return dh, kem, nil
	default:
		return dh, "", nil
	}
}

func parseCipher(field string) (string, error) {
	switch field {
	case "ChaChaPoly", "AESGCM":
		return field, nil
	default:
		return "", newFlaggedError(ErrUnsupportedCipherType, "unrecognized cipher %q", field)
	}
}

func parseHash(field string) (string, error) {
	switch field {
	case "SHA256", "SHA512", "BLAKE2s", "BLAKE2b":
		return field, nil
	default:
		return "", newFlaggedError(ErrUnsupportedHashType, "unrecognized hash %q", field)
	}
}

// Canonical re-renders the protocol name from the parsed fields, so that
// ParseNoiseParams(name).Canonical() == name for every supported combination.
func (self NoiseParams) Canonical() string {
	var b strings.Builder
	b.WriteString(baseToken)
	b.WriteByte('_')
	b.WriteString(self.Pattern)
	for i, mod := range self.Modifiers {
		if i > 0 {
			b.WriteByte('+')
		}
		b.WriteString(mod.String())
	}
	b.WriteByte('_')
	b.WriteString(self.Dh)
	if "" != self.Kem {
		b.WriteByte('+')
		b.WriteString(self.Kem)
	}
	b.WriteByte('_')
	b.WriteString(self.Cipher)
	b.WriteByte('_')
	b.WriteString(self.Hash)
	return b.String()
}
