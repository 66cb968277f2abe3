package wapc_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/loam-project/sdk/engine/mem"
	"github.com/loam-project/sdk/engine/wapc"
	"github.com/loam-project/sdk/engine/wire"
	"github.com/loam-project/sdk/hostmock"
	"github.com/loam-project/sdk/query"
	"github.com/loam-project/sdk/store"
)

// okFrame is the smallest successful response payload.
func okFrame(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(wire.Response{OK: true})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestNew_RoutesUnderDefaultNamespace(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{
		ExpectedNamespace:  wapc.DefaultNamespace,
		ExpectedCapability: "loam",
		ExpectedFunction:   wire.OpPing,
		Respond: func(function string, payload []byte) ([]byte, error) {
			return okFrame(t), nil
		},
	}
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := eng.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if host.Calls != 1 {
		t.Fatalf("host calls = %d, want 1", host.Calls)
	}
}

func TestNew_CustomNamespace(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{
		ExpectedNamespace:  "edge",
		ExpectedCapability: "loam",
		Respond: func(function string, payload []byte) ([]byte, error) {
			return okFrame(t), nil
		},
	}
	eng, err := wapc.New(wapc.Config{Namespace: "edge", HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNew_FunctionNameIsTheOp(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{
		PayloadValidator: func(payload []byte) error {
			var req wire.Request
			if err := json.Unmarshal(payload, &req); err != nil {
				return err
			}
			if req.Op != wire.OpOpen || req.Path != "/data/loam" {
				return fmt.Errorf("payload = %+v", req)
			}
			return nil
		},
		Respond: func(function string, payload []byte) ([]byte, error) {
			if function != wire.OpOpen {
				return nil, fmt.Errorf("function = %q, want %q", function, wire.OpOpen)
			}
			return json.Marshal(wire.Response{OK: true, Handle: 7})
		},
	}
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sh, err := eng.Open("/data/loam")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sh != 7 {
		t.Fatalf("store handle = %d, want 7", sh)
	}
}

func TestHostFailure(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{Fail: true}
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Ping(); !errors.Is(err, hostmock.ErrOperationFailed) {
		t.Fatalf("Ping = %v, want the host failure", err)
	}
}

func TestEmptyResponse(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{}
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Ping(); !errors.Is(err, wapc.ErrEmptyResponse) {
		t.Fatalf("Ping = %v, want ErrEmptyResponse", err)
	}
}

func TestGarbageResponse(t *testing.T) {
	t.Parallel()

	host := &hostmock.Mock{
		Respond: func(function string, payload []byte) ([]byte, error) {
			return []byte("not a frame"), nil
		},
	}
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := eng.Ping(); !errors.Is(err, wapc.ErrUnmarshalResponse) {
		t.Fatalf("Ping = %v, want ErrUnmarshalResponse", err)
	}
}

// TestGuestSession drives a store session through a host scripted with a
// real engine, the way a runtime answers the loam capability.
func TestGuestSession(t *testing.T) {
	t.Parallel()

	backend := mem.New()
	hostCall := func(namespace, capability, function string, payload []byte) ([]byte, error) {
		if namespace != wapc.DefaultNamespace || capability != "loam" {
			return nil, fmt.Errorf("routed to %s/%s", namespace, capability)
		}
		var req wire.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		if req.Op != function {
			return nil, fmt.Errorf("function %q carries op %q", function, req.Op)
		}
		return json.Marshal(wire.Dispatch(backend, req))
	}

	eng, err := wapc.New(wapc.Config{HostCall: hostCall})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	st, err := store.Open(store.Config{Engine: eng})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}

	if _, err := st.Transact(`[[:db/add "a" :foo/string "from the guest"]]`); err != nil {
		t.Fatalf("Transact: %v", err)
	}

	var got string
	err = st.Query(`[:find ?s . :where [_ :foo/string ?s]]`).
		ExecuteScalar(func(v *query.TypedValue) error {
			if v == nil {
				return errors.New("scalar absent")
			}
			s, err := v.AsString()
			got = s
			return err
		})
	if err != nil {
		t.Fatalf("ExecuteScalar: %v", err)
	}
	if got != "from the guest" {
		t.Fatalf("scalar = %q, want the transacted string", got)
	}

	if err := st.Close(); err != nil {
		t.Fatalf("store.Close: %v", err)
	}
}
