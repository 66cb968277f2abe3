/*
Package mock provides a scripted implementation of engine.Engine for testing
code that drives an engine without having one.

Each contract operation delegates to an optional function field; operations
left unscripted succeed with zero values. Calls are recorded for assertions.

	m := mock.New()
	m.ExecuteScalarFunc = func(q engine.QueryHandle) (engine.ValueHandle, bool, error) {
		return 7, true, nil
	}
	m.DecodeLongFunc = func(v engine.ValueHandle) (int64, error) { return 25, nil }

	// ... drive the code under test with m, then:
	if len(m.CallsTo("ReleaseValue")) != 1 {
		t.Fatal("value handle leaked")
	}

Failure injection without scripting:

	m := mock.New()
	m.Fail = true
	m.FailOp = "ExecuteScalar"
	m.Err = errors.New("no such attribute")
*/
package mock
