//go:build linux || darwin

/*
Package libloam backs the SDK with the Loam native library, loaded at
runtime with purego. No cgo is involved; the shared object only has to be
present when New is called.

	eng, err := libloam.New(libloam.Config{})
	if err != nil {
		// libloam.so is missing or does not export the Loam ABI
	}
	st, err := store.Open(store.Config{Engine: eng, Path: "/var/lib/loam/app.db"})

Config.Path overrides the library name, which is otherwise resolved from
the loader search path as libloam.so (libloam.dylib on darwin).

The ABI reports failures SQLite-style. Calls do not return status codes;
after each call the binding reads loam_errcode and loam_errmsg and maps the
code onto the SDK error taxonomy, so errors.Is works against a native
engine exactly as it does against the in-memory one. Because the status
slot describes the most recent call, the binding serializes all native
calls on one mutex.

Strings allocated by the library cross the boundary as C pointers; the
binding copies them into Go memory and returns them to the library through
loam_free_string.

Unlike the request/response transports, this engine supports observers.
The library invokes a registered callback on its notification thread with
the observer key and a JSON description of the committed changes; the
binding decodes the JSON and routes it to the Go function registered under
that key.
*/
package libloam
