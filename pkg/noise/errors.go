package noise

import "code.noisecore.dev/golang/internal/utils"

// Error flags every error raised by the noise package, so callers can use
// errors.Is(err, noise.Error) to recognize them regardless of the specific
// cause or wrapped sentinel beneath.
var Error = utils.RaisedErr{Msg: "noise error"}

func newError(msg string, args ...any) error {
	return utils.NewError(1, Error, msg, args...)
}

func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}

// newFlaggedError builds a RaisedErr tagged with a specific error kind flag,
// in addition to the package-wide Error flag inherited through the chain
// when the flag itself carries Error as its own Flag.
func newFlaggedError(flag utils.RaisedErr, msg string, args ...any) error {
	return utils.NewError(1, flag, msg, args...)
}

// The following are named sentinels for the error kinds enumerated by the
// handshake specification (§7). Each wraps the package-wide Error flag as its
// own Flag, so errors.Is(err, ErrMissingPsk) AND errors.Is(err, noise.Error)
// both hold for an error built with newFlaggedError(ErrMissingPsk, ...).
var (
	ErrValidateKeyLengths       = utils.RaisedErr{Flag: Error, Msg: "key length validation failed"}
	ErrMissingKeyMaterial       = utils.RaisedErr{Flag: Error, Msg: "missing key material"}
	ErrMissingPsk               = utils.RaisedErr{Flag: Error, Msg: "missing psk"}
	ErrNotTurnToWrite           = utils.RaisedErr{Flag: Error, Msg: "not this side's turn"}
	ErrHandshakeAlreadyFinished = utils.RaisedErr{Flag: Error, Msg: "handshake already finished"}
	ErrInput                    = utils.RaisedErr{Flag: Error, Msg: "invalid input"}
	ErrDh                       = utils.RaisedErr{Flag: Error, Msg: "dh operation failed"}
	ErrDecrypt                  = utils.RaisedErr{Flag: Error, Msg: "decryption failed"}

	ErrTooFewParameters        = utils.RaisedErr{Flag: Error, Msg: "too few parameters in protocol name"}
	ErrUnsupportedBaseType     = utils.RaisedErr{Flag: Error, Msg: "unsupported base type"}
	ErrUnsupportedHandshakeType = utils.RaisedErr{Flag: Error, Msg: "unsupported handshake type"}
	ErrUnsupportedModifier     = utils.RaisedErr{Flag: Error, Msg: "unsupported modifier"}
	ErrUnsupportedDhType       = utils.RaisedErr{Flag: Error, Msg: "unsupported dh type"}
	ErrUnsupportedKemType      = utils.RaisedErr{Flag: Error, Msg: "unsupported kem type"}
	ErrUnsupportedCipherType   = utils.RaisedErr{Flag: Error, Msg: "unsupported cipher type"}
	ErrUnsupportedHashType     = utils.RaisedErr{Flag: Error, Msg: "unsupported hash type"}
)
