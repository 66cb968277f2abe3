/*
Package hostmock provides a scripted pretend host for waPC calls.

It exists for tests of guest-side transports such as engine/wapc: inject
Mock.HostCall where the component expects wapc.HostCall and assert exactly
what crosses the guest boundary, with no runtime involved.

Why use hostmock?

  - Validate routing: ensure calls use the expected namespace, capability,
    and function when you set them.
  - Inspect payloads: plug in a PayloadValidator to assert frame contents.
  - Script responses: answer per function, or simulate host failures.

Quick start

	host := &hostmock.Mock{
	  ExpectedNamespace:  "default",
	  ExpectedCapability: "loam",
	  Respond: func(function string, payload []byte) ([]byte, error) {
	    // Decode the frame, branch on function, answer.
	    return []byte(`{"ok":true}`), nil
	  },
	}

	// Inject into the component under test.
	eng, err := wapc.New(wapc.Config{HostCall: host.HostCall})

Behavior

  - If Fail is true and Error is set, HostCall returns that error.
  - If Fail is true and Error is nil, HostCall returns ErrOperationFailed.
  - Otherwise HostCall enforces the Expected fields you set, runs
    PayloadValidator when provided, then answers with Respond. Unset fields
    are wildcards; an unset Respond answers with no payload.
*/
package hostmock
