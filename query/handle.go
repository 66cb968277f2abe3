package query

import (
	sdk "github.com/loam-project/sdk"
)

// handleState tracks single ownership of one native handle. Wrappers embed
// it and consult live before every engine call, so a released wrapper fails
// deterministically without reaching the engine.
//
// It is not safe for concurrent use; a wrapper belongs to one goroutine at a
// time, matching the engine contract.
type handleState struct {
	released bool
}

// live returns nil while the handle is still owned.
func (s *handleState) live() error {
	if s.released {
		return sdk.ErrReleased
	}
	return nil
}

// release marks the handle released and reports whether this call was the
// one that did it. Exactly one caller sees true, which keeps the underlying
// engine release from ever running twice.
func (s *handleState) release() bool {
	if s.released {
		return false
	}
	s.released = true
	return true
}
