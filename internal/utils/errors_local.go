package utils

// Error flags errors raised directly by the utils package, so that callers can
// use errors.Is(err, utils.Error) to recognize them regardless of cause.
var Error = RaisedErr{Msg: "utils error"}

func newError(msg string, args ...any) error {
	return NewError(1, Error, msg, args...)
}

func wrapError(cause error, msg string, args ...any) error {
	return WrapError(cause, 1, Error, msg, args...)
}
