/*
Package wapc reaches a host-provided Loam engine from inside a waPC guest.

Guests compiled for a runtime whose host exposes the loam capability open
stores the same way native processes do:

	eng, err := wapc.New(wapc.Config{})
	if err != nil {
		return err
	}
	st, err := store.Open(store.Config{Engine: eng})

Each engine operation becomes one host call: the function name is the wire
op, the payload is the marshalled wire.Request, and the host answers with a
marshalled wire.Response, typically by feeding the frame to wire.Dispatch
against its own engine. Observers are not available through this transport.
*/
package wapc
