package engine

import "errors"

var (
	// ErrUnknownHandle means the engine was asked about a handle it does not
	// own. Seeing it almost always indicates a double release or a handle
	// used across stores.
	ErrUnknownHandle = errors.New("engine does not own this handle")

	// ErrNotSupported is returned by adapters that cannot provide an
	// operation, such as observers over request/response transports.
	ErrNotSupported = errors.New("operation not supported by this engine")
)
