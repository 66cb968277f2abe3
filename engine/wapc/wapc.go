package wapc

import (
	"encoding/json"
	"errors"

	guest "github.com/wapc/wapc-guest-tinygo"

	"github.com/loam-project/sdk/engine/wire"
)

const (
	// DefaultNamespace is used when Config.Namespace is empty.
	DefaultNamespace = "default"

	// capabilityName scopes engine host calls.
	capabilityName = "loam"
)

var (
	// ErrMarshalRequest wraps failures while encoding a request frame.
	ErrMarshalRequest = errors.New("failed to marshal request")

	// ErrUnmarshalResponse wraps failures while decoding the host response.
	ErrUnmarshalResponse = errors.New("failed to unmarshal response")

	// ErrEmptyResponse is returned when the host answers with no payload.
	ErrEmptyResponse = errors.New("host returned an empty response")
)

// HostCall defines the waPC host function signature used for engine calls.
type HostCall func(namespace, capability, function string, payload []byte) ([]byte, error)

// Config controls how the engine client reaches the host runtime.
type Config struct {
	// Namespace scopes host calls. If empty, DefaultNamespace is used.
	Namespace string

	// HostCall overrides the waPC host function used for engine calls.
	// Tests inject a scripted host here; guests leave it nil.
	HostCall HostCall
}

// New returns an engine client that forwards every operation to the waPC
// host as a call on the loam capability, one function per operation. The
// payload and answer are wire frames.
func New(config Config) (*wire.Client, error) {
	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}

	hostCall := config.HostCall
	if hostCall == nil {
		hostCall = guest.HostCall
	}

	return wire.NewClient(func(req wire.Request) (wire.Response, error) {
		payload, err := json.Marshal(req)
		if err != nil {
			return wire.Response{}, errors.Join(ErrMarshalRequest, err)
		}

		respBytes, err := hostCall(namespace, capabilityName, req.Op, payload)
		if err != nil {
			return wire.Response{}, err
		}
		if len(respBytes) == 0 {
			return wire.Response{}, ErrEmptyResponse
		}

		var resp wire.Response
		if err := json.Unmarshal(respBytes, &resp); err != nil {
			return wire.Response{}, errors.Join(ErrUnmarshalResponse, err)
		}
		return resp, nil
	})
}
