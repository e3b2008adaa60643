package algos

import "code.noisecore.dev/golang/internal/utils"

// Error flags errors raised by the algos package, so that callers can use
// errors.Is(err, algos.Error) regardless of the underlying cause.
var Error = utils.RaisedErr{Msg: "algos error"}

func newError(msg string, args ...any) error {
	return utils.NewError(1, Error, msg, args...)
}

func wrapError(cause error, msg string, args ...any) error {
	return utils.WrapError(cause, 1, Error, msg, args...)
}
