package hostmock

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedNamespace is returned when the namespace is not as expected.
	ErrUnexpectedNamespace = errors.New("unexpected namespace")

	// ErrUnexpectedCapability is returned when the capability is not as expected.
	ErrUnexpectedCapability = errors.New("unexpected capability")

	// ErrUnexpectedFunction is returned when the function is not as expected.
	ErrUnexpectedFunction = errors.New("unexpected function")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Mock simulates the host side of a waPC capability for guest tests. The
// zero value accepts every call and answers with no payload.
type Mock struct {
	// ExpectedNamespace, when set, rejects calls under any other namespace.
	ExpectedNamespace string

	// ExpectedCapability, when set, rejects calls for any other capability.
	ExpectedCapability string

	// ExpectedFunction, when set, rejects calls to any other function.
	// Engine transports call one function per operation, so scripted
	// sessions usually leave it empty and branch on function in Respond.
	ExpectedFunction string

	// Fail makes every call return Error, or ErrOperationFailed when Error
	// is nil.
	Fail bool

	// Error is the error returned when Fail is set.
	Error error

	// PayloadValidator validates the payload of each call.
	PayloadValidator func(payload []byte) error

	// Respond builds the response payload for a call. Nil answers with no
	// payload.
	Respond func(function string, payload []byte) ([]byte, error)

	// Calls counts host calls, including failed ones.
	Calls int
}

// HostCall simulates a waPC host call, validating inputs and returning the
// scripted response.
func (m *Mock) HostCall(namespace, capability, function string, payload []byte) ([]byte, error) {
	m.Calls++

	if m.Fail {
		if m.Error != nil {
			return nil, m.Error
		}
		return nil, ErrOperationFailed
	}

	if m.ExpectedNamespace != "" && m.ExpectedNamespace != namespace {
		return nil, fmt.Errorf(
			"%w: expected namespace %s, got %s",
			ErrUnexpectedNamespace,
			m.ExpectedNamespace,
			namespace,
		)
	}
	if m.ExpectedCapability != "" && m.ExpectedCapability != capability {
		return nil, fmt.Errorf(
			"%w: expected capability %s, got %s",
			ErrUnexpectedCapability,
			m.ExpectedCapability,
			capability,
		)
	}
	if m.ExpectedFunction != "" && m.ExpectedFunction != function {
		return nil, fmt.Errorf("%w: expected function %s, got %s", ErrUnexpectedFunction, m.ExpectedFunction, function)
	}

	if m.PayloadValidator != nil {
		if err := m.PayloadValidator(payload); err != nil {
			return nil, err
		}
	}

	if m.Respond != nil {
		return m.Respond(function, payload)
	}
	return nil, nil
}
