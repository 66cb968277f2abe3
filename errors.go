package sdk

import "errors"

var (
	// ErrEngineFailure indicates that the engine reported a failure while
	// executing a request. The engine's message is joined onto this error.
	ErrEngineFailure = errors.New("engine reported a failure")

	// ErrTypeMismatch signals that a decode requested a kind the value does
	// not hold. The value itself remains valid and may be decoded again.
	ErrTypeMismatch = errors.New("value does not hold the requested kind")

	// ErrIndexOutOfRange is returned for positional access past the end of a
	// row, list, or relation.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrReleased is returned when an operation reaches a wrapper whose
	// native handle has already been released. The call never touches the
	// engine.
	ErrReleased = errors.New("native handle already released")

	// ErrConsumed is returned when a query builder is used after an execute
	// call transferred its handle to the engine. The call never touches the
	// engine.
	ErrConsumed = errors.New("query already executed")
)
