//go:build linux || darwin

package libloam

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// Status codes reported by loam_errcode after each call.
type loamStatusCode int32

const (
	loamOK            loamStatusCode = 0
	loamFailure       loamStatusCode = 1
	loamTypeMismatch  loamStatusCode = 2
	loamIndexRange    loamStatusCode = 3
	loamUnknownHandle loamStatusCode = 4
	loamNotSupported  loamStatusCode = 5
)

// C extern functions. Handles cross the ABI as uint64, entids as int64,
// indexes as size_t. Every call resets the library's error slot; the
// binding reads loam_errcode/loam_errmsg immediately after each call, under
// the engine mutex.
var (
	c_loam_version func() uintptr // const char*, library-owned
	c_loam_errcode func() int32
	c_loam_errmsg  func() uintptr // const char*, library-owned

	c_loam_free_string func(uintptr)

	c_loam_store_open  func(path string) uint64
	c_loam_store_close func(store uint64)

	c_loam_transact func(store uint64, tx string) uintptr // char* report JSON, caller frees

	c_loam_entid_for_attribute func(store uint64, attr string) int64
	c_loam_value_for_attribute func(store uint64, entid int64, attr string) uint64

	c_loam_set_long        func(store uint64, entid int64, attr string, v int64)
	c_loam_set_ref         func(store uint64, entid int64, attr string, ref int64)
	c_loam_set_ref_keyword func(store uint64, entid int64, attr string, ident string)
	c_loam_set_keyword     func(store uint64, entid int64, attr string, kw string)
	c_loam_set_boolean     func(store uint64, entid int64, attr string, v bool)
	c_loam_set_double      func(store uint64, entid int64, attr string, v float64)
	c_loam_set_instant     func(store uint64, entid int64, attr string, micros int64)
	c_loam_set_string      func(store uint64, entid int64, attr string, v string)
	c_loam_set_uuid        func(store uint64, entid int64, attr string, v string)

	c_loam_register_observer func(
		store uint64,
		key string,
		attrs unsafe.Pointer, // const int64_t*
		nattrs uintptr, // size_t
		cb uintptr, // void (*)(const char* key, const char* changes_json)
	)
	c_loam_unregister_observer func(store uint64, key string)

	c_loam_sync func(store uint64, user string, server string)

	c_loam_query_build func(store uint64, query string) uint64

	c_loam_bind_long        func(q uint64, name string, v int64)
	c_loam_bind_ref         func(q uint64, name string, ref int64)
	c_loam_bind_ref_keyword func(q uint64, name string, ident string)
	c_loam_bind_keyword     func(q uint64, name string, kw string)
	c_loam_bind_boolean     func(q uint64, name string, v bool)
	c_loam_bind_double      func(q uint64, name string, v float64)
	c_loam_bind_instant     func(q uint64, name string, micros int64)
	c_loam_bind_string      func(q uint64, name string, v string)
	c_loam_bind_uuid        func(q uint64, name string, v string)

	// Executes consume the query handle. Scalar and tuple return 0 for the
	// empty result; list and rows return a handle even when empty.
	c_loam_execute_scalar func(q uint64) uint64
	c_loam_execute_tuple  func(q uint64) uint64
	c_loam_execute_list   func(q uint64) uint64
	c_loam_execute_rows   func(q uint64) uint64

	c_loam_value_kind func(v uint64) int32

	c_loam_decode_long    func(v uint64) int64
	c_loam_decode_ref     func(v uint64) int64
	c_loam_decode_keyword func(v uint64) uintptr // char*, caller frees
	c_loam_decode_boolean func(v uint64) bool
	c_loam_decode_double  func(v uint64) float64
	c_loam_decode_instant func(v uint64) int64
	c_loam_decode_string  func(v uint64) uintptr // char*, caller frees
	c_loam_decode_uuid    func(v uint64) uintptr // char*, caller frees

	c_loam_row_value func(r uint64, i uintptr) uint64
	c_loam_row_len   func(r uint64) int64

	c_loam_list_value func(l uint64, i uintptr) uint64
	c_loam_list_len   func(l uint64) int64

	c_loam_rows_row func(r uint64, i uintptr) uint64
	c_loam_rows_len func(r uint64) int64

	c_loam_release_query func(q uint64)
	c_loam_release_value func(v uint64)
	c_loam_release_row   func(r uint64)
	c_loam_release_list  func(l uint64)
	c_loam_release_rows  func(r uint64)
)

// registerLoamFuncs binds the extern functions against a loaded library.
func registerLoamFuncs(handle uintptr) {
	purego.RegisterLibFunc(&c_loam_version, handle, "loam_version")
	purego.RegisterLibFunc(&c_loam_errcode, handle, "loam_errcode")
	purego.RegisterLibFunc(&c_loam_errmsg, handle, "loam_errmsg")
	purego.RegisterLibFunc(&c_loam_free_string, handle, "loam_free_string")
	purego.RegisterLibFunc(&c_loam_store_open, handle, "loam_store_open")
	purego.RegisterLibFunc(&c_loam_store_close, handle, "loam_store_close")
	purego.RegisterLibFunc(&c_loam_transact, handle, "loam_transact")
	purego.RegisterLibFunc(&c_loam_entid_for_attribute, handle, "loam_entid_for_attribute")
	purego.RegisterLibFunc(&c_loam_value_for_attribute, handle, "loam_value_for_attribute")
	purego.RegisterLibFunc(&c_loam_set_long, handle, "loam_set_long")
	purego.RegisterLibFunc(&c_loam_set_ref, handle, "loam_set_ref")
	purego.RegisterLibFunc(&c_loam_set_ref_keyword, handle, "loam_set_ref_keyword")
	purego.RegisterLibFunc(&c_loam_set_keyword, handle, "loam_set_keyword")
	purego.RegisterLibFunc(&c_loam_set_boolean, handle, "loam_set_boolean")
	purego.RegisterLibFunc(&c_loam_set_double, handle, "loam_set_double")
	purego.RegisterLibFunc(&c_loam_set_instant, handle, "loam_set_instant")
	purego.RegisterLibFunc(&c_loam_set_string, handle, "loam_set_string")
	purego.RegisterLibFunc(&c_loam_set_uuid, handle, "loam_set_uuid")
	purego.RegisterLibFunc(&c_loam_register_observer, handle, "loam_register_observer")
	purego.RegisterLibFunc(&c_loam_unregister_observer, handle, "loam_unregister_observer")
	purego.RegisterLibFunc(&c_loam_sync, handle, "loam_sync")
	purego.RegisterLibFunc(&c_loam_query_build, handle, "loam_query_build")
	purego.RegisterLibFunc(&c_loam_bind_long, handle, "loam_bind_long")
	purego.RegisterLibFunc(&c_loam_bind_ref, handle, "loam_bind_ref")
	purego.RegisterLibFunc(&c_loam_bind_ref_keyword, handle, "loam_bind_ref_keyword")
	purego.RegisterLibFunc(&c_loam_bind_keyword, handle, "loam_bind_keyword")
	purego.RegisterLibFunc(&c_loam_bind_boolean, handle, "loam_bind_boolean")
	purego.RegisterLibFunc(&c_loam_bind_double, handle, "loam_bind_double")
	purego.RegisterLibFunc(&c_loam_bind_instant, handle, "loam_bind_instant")
	purego.RegisterLibFunc(&c_loam_bind_string, handle, "loam_bind_string")
	purego.RegisterLibFunc(&c_loam_bind_uuid, handle, "loam_bind_uuid")
	purego.RegisterLibFunc(&c_loam_execute_scalar, handle, "loam_execute_scalar")
	purego.RegisterLibFunc(&c_loam_execute_tuple, handle, "loam_execute_tuple")
	purego.RegisterLibFunc(&c_loam_execute_list, handle, "loam_execute_list")
	purego.RegisterLibFunc(&c_loam_execute_rows, handle, "loam_execute_rows")
	purego.RegisterLibFunc(&c_loam_value_kind, handle, "loam_value_kind")
	purego.RegisterLibFunc(&c_loam_decode_long, handle, "loam_decode_long")
	purego.RegisterLibFunc(&c_loam_decode_ref, handle, "loam_decode_ref")
	purego.RegisterLibFunc(&c_loam_decode_keyword, handle, "loam_decode_keyword")
	purego.RegisterLibFunc(&c_loam_decode_boolean, handle, "loam_decode_boolean")
	purego.RegisterLibFunc(&c_loam_decode_double, handle, "loam_decode_double")
	purego.RegisterLibFunc(&c_loam_decode_instant, handle, "loam_decode_instant")
	purego.RegisterLibFunc(&c_loam_decode_string, handle, "loam_decode_string")
	purego.RegisterLibFunc(&c_loam_decode_uuid, handle, "loam_decode_uuid")
	purego.RegisterLibFunc(&c_loam_row_value, handle, "loam_row_value")
	purego.RegisterLibFunc(&c_loam_row_len, handle, "loam_row_len")
	purego.RegisterLibFunc(&c_loam_list_value, handle, "loam_list_value")
	purego.RegisterLibFunc(&c_loam_list_len, handle, "loam_list_len")
	purego.RegisterLibFunc(&c_loam_rows_row, handle, "loam_rows_row")
	purego.RegisterLibFunc(&c_loam_rows_len, handle, "loam_rows_len")
	purego.RegisterLibFunc(&c_loam_release_query, handle, "loam_release_query")
	purego.RegisterLibFunc(&c_loam_release_value, handle, "loam_release_value")
	purego.RegisterLibFunc(&c_loam_release_row, handle, "loam_release_row")
	purego.RegisterLibFunc(&c_loam_release_list, handle, "loam_release_list")
	purego.RegisterLibFunc(&c_loam_release_rows, handle, "loam_release_rows")
}

// copyCString copies a NUL-terminated C string into Go memory.
func copyCString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	buf := make([]byte, n)
	for i := 0; i < n; i++ {
		buf[i] = *(*byte)(unsafe.Pointer(p + uintptr(i)))
	}
	return string(buf)
}

// takeCString copies a library-allocated string and frees it.
func takeCString(p uintptr) string {
	if p == 0 {
		return ""
	}
	defer c_loam_free_string(p)
	return copyCString(p)
}
