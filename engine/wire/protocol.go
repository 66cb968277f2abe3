package wire

import (
	"errors"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Request is one operation frame sent to a remote engine. Op selects the
// operation; the remaining fields form a union and only the ones the
// operation reads are set.
type Request struct {
	Op string `json:"op"`

	Store uint64 `json:"store,omitempty"`
	Query uint64 `json:"query,omitempty"`
	Value uint64 `json:"value,omitempty"`
	Row   uint64 `json:"row,omitempty"`
	List  uint64 `json:"list,omitempty"`
	Rows  uint64 `json:"rows,omitempty"`

	// Path is the store path for open.
	Path string `json:"path,omitempty"`

	// Datalog carries a transact body or query text.
	Datalog string `json:"datalog,omitempty"`

	// Attr is an attribute ident such as ":foo/long".
	Attr string `json:"attr,omitempty"`

	// Entid is the target entity of assertion and lookup operations.
	Entid int64 `json:"entid,omitempty"`

	// Name is the ?variable of a bind operation.
	Name string `json:"name,omitempty"`

	// Index is the position for row, list, and relation access.
	Index int `json:"index,omitempty"`

	// Value payloads. Long doubles as ref entids and instant microseconds;
	// Str doubles as keywords, idents, and uuid strings.
	Long   int64   `json:"long,omitempty"`
	Double float64 `json:"double,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Str    string  `json:"str,omitempty"`

	// Sync identity.
	User   string `json:"user,omitempty"`
	Server string `json:"server,omitempty"`
}

// Response is the answer frame for one Request. OK reports success; on
// failure Error holds the message and Code names the sentinel it maps to.
type Response struct {
	OK    bool   `json:"ok"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`

	// Handle is the resource allocated by the operation, in the handle
	// class the operation's contract names.
	Handle uint64 `json:"handle,omitempty"`

	// Present reports whether a scalar, tuple, or attribute lookup found
	// anything.
	Present bool `json:"present,omitempty"`

	// Decoded payloads, with the same doubling as Request.
	Long   int64   `json:"long,omitempty"`
	Double float64 `json:"double,omitempty"`
	Bool   bool    `json:"bool,omitempty"`
	Str    string  `json:"str,omitempty"`

	// Len is the answer to the length operations.
	Len int `json:"len,omitempty"`

	// Transact report.
	TxID      int64            `json:"txid,omitempty"`
	TxInstant int64            `json:"tx_instant,omitempty"`
	TempIDs   map[string]int64 `json:"tempids,omitempty"`
}

// Operation names carried in Request.Op.
const (
	OpPing = "ping"

	OpOpen       = "open"
	OpCloseStore = "close_store"
	OpTransact   = "transact"
	OpSync       = "sync"

	OpEntidForAttribute = "entid_for_attribute"
	OpValueForAttribute = "value_for_attribute"

	OpSetLong       = "set_long"
	OpSetRef        = "set_ref"
	OpSetRefKeyword = "set_ref_keyword"
	OpSetKeyword    = "set_keyword"
	OpSetBoolean    = "set_boolean"
	OpSetDouble     = "set_double"
	OpSetInstant    = "set_instant"
	OpSetString     = "set_string"
	OpSetUUID       = "set_uuid"

	OpRegisterObserver   = "register_observer"
	OpUnregisterObserver = "unregister_observer"

	OpBuildQuery     = "build_query"
	OpBindLong       = "bind_long"
	OpBindRef        = "bind_ref"
	OpBindRefKeyword = "bind_ref_keyword"
	OpBindKeyword    = "bind_keyword"
	OpBindBoolean    = "bind_boolean"
	OpBindDouble     = "bind_double"
	OpBindInstant    = "bind_instant"
	OpBindString     = "bind_string"
	OpBindUUID       = "bind_uuid"

	OpExecuteScalar = "execute_scalar"
	OpExecuteTuple  = "execute_tuple"
	OpExecuteList   = "execute_list"
	OpExecuteRows   = "execute_rows"

	OpDecodeLong    = "decode_long"
	OpDecodeRef     = "decode_ref"
	OpDecodeKeyword = "decode_keyword"
	OpDecodeBoolean = "decode_boolean"
	OpDecodeDouble  = "decode_double"
	OpDecodeInstant = "decode_instant"
	OpDecodeString  = "decode_string"
	OpDecodeUUID    = "decode_uuid"
	OpValueKind     = "value_kind"

	OpRowValue  = "row_value"
	OpRowLen    = "row_len"
	OpListValue = "list_value"
	OpListLen   = "list_len"
	OpRowsRow   = "rows_row"
	OpRowsLen   = "rows_len"

	OpReleaseQuery = "release_query"
	OpReleaseValue = "release_value"
	OpReleaseRow   = "release_row"
	OpReleaseList  = "release_list"
	OpReleaseRows  = "release_rows"
)

// Error codes carried in Response.Code. A server maps sentinel errors onto
// codes and a client maps them back, so errors.Is holds across the wire.
const (
	CodeFailure         = "failure"
	CodeTypeMismatch    = "type_mismatch"
	CodeIndexOutOfRange = "index_out_of_range"
	CodeUnknownHandle   = "unknown_handle"
	CodeNotSupported    = "not_supported"
)

// ErrorCode maps an engine error onto its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, sdk.ErrTypeMismatch):
		return CodeTypeMismatch
	case errors.Is(err, sdk.ErrIndexOutOfRange):
		return CodeIndexOutOfRange
	case errors.Is(err, engine.ErrUnknownHandle):
		return CodeUnknownHandle
	case errors.Is(err, engine.ErrNotSupported):
		return CodeNotSupported
	default:
		return CodeFailure
	}
}

// Failure builds the failing Response for err.
func Failure(err error) Response {
	return Response{Code: ErrorCode(err), Error: err.Error()}
}

// sentinelFor is the inverse of ErrorCode.
func sentinelFor(code string) error {
	switch code {
	case CodeTypeMismatch:
		return sdk.ErrTypeMismatch
	case CodeIndexOutOfRange:
		return sdk.ErrIndexOutOfRange
	case CodeUnknownHandle:
		return engine.ErrUnknownHandle
	case CodeNotSupported:
		return engine.ErrNotSupported
	default:
		return nil
	}
}

// remoteError is a failure reported by the far side. It keeps the server's
// message verbatim while unwrapping to the sentinel its code named.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

// Err reconstructs the error carried by a failing Response. It returns nil
// for a successful one.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	msg := r.Error
	sentinel := sentinelFor(r.Code)
	if sentinel == nil {
		if msg == "" {
			msg = "engine reported an unspecified failure"
		}
		return errors.New(msg)
	}
	if msg == "" {
		msg = sentinel.Error()
	}
	return &remoteError{sentinel: sentinel, msg: msg}
}
