package engine

import (
	sdk "github.com/loam-project/sdk"
)

// Opaque handle types. Each class of native resource gets its own Go type so
// a handle cannot be passed where a different class is expected.
type (
	// StoreHandle identifies an open store.
	StoreHandle uint64

	// QueryHandle identifies a prepared query that has not been executed.
	QueryHandle uint64

	// ValueHandle identifies a single typed value.
	ValueHandle uint64

	// RowHandle identifies one row of values.
	RowHandle uint64

	// ListHandle identifies a single-column list of values.
	ListHandle uint64

	// RowsHandle identifies a full relation of rows.
	RowsHandle uint64
)

// TxReport describes one committed transact.
type TxReport struct {
	// TxID is the entity id of the transaction itself.
	TxID int64

	// TxInstant is the transaction timestamp in microseconds since the Unix
	// epoch.
	TxInstant int64

	// TempIDs maps the temporary ids used in the transact to the entity ids
	// the engine allocated for them.
	TempIDs map[string]int64
}

// TxChange describes the entities touched by one transaction, as delivered
// to observers.
type TxChange struct {
	// TxID is the entity id of the transaction.
	TxID int64

	// Entids lists the affected entities.
	Entids []int64
}

// ObserverFunc receives transaction notifications for a registered observer
// key. Engines invoke it synchronously on the transacting goroutine (or the
// engine's notification thread for native engines); implementations must not
// block.
type ObserverFunc func(key string, changes []TxChange)

// Engine is the call contract between the SDK and a Loam engine. All methods
// are synchronous. Implementations must be safe for concurrent calls that
// involve distinct handles; the SDK never uses one handle from two
// goroutines at once.
//
// Handle ownership: each handle returned by the engine is owned by exactly
// one caller-side wrapper and must be released exactly once. Release is not
// idempotent; releasing a handle twice is a caller bug and engines are free
// to report ErrUnknownHandle. The four execute methods consume the query
// handle whether or not they succeed, so a query handle passed to an execute
// method must never be released afterwards.
type Engine interface {
	// Open opens a store at path. An empty path opens an in-memory store.
	Open(path string) (StoreHandle, error)

	// CloseStore releases a store and every resource scoped to it.
	CloseStore(store StoreHandle) error

	// Transact applies an EDN transact body to the store.
	Transact(store StoreHandle, tx string) (TxReport, error)

	// EntidForAttribute resolves an attribute ident such as ":foo/long" to
	// its entity id.
	EntidForAttribute(store StoreHandle, attr string) (int64, error)

	// ValueForAttribute fetches the value of attr on the given entity. The
	// bool reports presence; an absent attribute is not an error.
	ValueForAttribute(store StoreHandle, entid int64, attr string) (ValueHandle, bool, error)

	// Assertion helpers. Each asserts a single value for attr on the given
	// entity. Instants are microseconds since the Unix epoch; UUIDs are
	// canonical strings.
	SetLong(store StoreHandle, entid int64, attr string, v int64) error
	SetRef(store StoreHandle, entid int64, attr string, ref int64) error
	SetRefKeyword(store StoreHandle, entid int64, attr string, ident string) error
	SetKeyword(store StoreHandle, entid int64, attr string, kw string) error
	SetBoolean(store StoreHandle, entid int64, attr string, v bool) error
	SetDouble(store StoreHandle, entid int64, attr string, v float64) error
	SetInstant(store StoreHandle, entid int64, attr string, micros int64) error
	SetString(store StoreHandle, entid int64, attr string, v string) error
	SetUUID(store StoreHandle, entid int64, attr string, v string) error

	// RegisterObserver subscribes fn to transactions that touch any of the
	// given attribute entids, under a caller-chosen key.
	RegisterObserver(store StoreHandle, key string, attrs []int64, fn ObserverFunc) error

	// UnregisterObserver removes the observer registered under key.
	UnregisterObserver(store StoreHandle, key string) error

	// Sync synchronizes the store against a remote server.
	Sync(store StoreHandle, userUUID string, serverURI string) error

	// BuildQuery prepares a query for binding and execution.
	BuildQuery(store StoreHandle, query string) (QueryHandle, error)

	// Bind helpers. Each binds a value to the named ?variable of a prepared
	// query. Instants are microseconds since the Unix epoch; UUIDs are
	// canonical strings.
	BindLong(q QueryHandle, name string, v int64) error
	BindRef(q QueryHandle, name string, ref int64) error
	BindRefKeyword(q QueryHandle, name string, ident string) error
	BindKeyword(q QueryHandle, name string, kw string) error
	BindBoolean(q QueryHandle, name string, v bool) error
	BindDouble(q QueryHandle, name string, v float64) error
	BindInstant(q QueryHandle, name string, micros int64) error
	BindString(q QueryHandle, name string, v string) error
	BindUUID(q QueryHandle, name string, v string) error

	// ExecuteScalar runs the query and returns its single value. The bool
	// reports presence: (0, false, nil) is the empty result. The query
	// handle is consumed.
	ExecuteScalar(q QueryHandle) (ValueHandle, bool, error)

	// ExecuteTuple runs the query and returns its single row, with the same
	// presence convention as ExecuteScalar. The query handle is consumed.
	ExecuteTuple(q QueryHandle) (RowHandle, bool, error)

	// ExecuteList runs the query and returns the first projected column of
	// every row, possibly empty. The query handle is consumed.
	ExecuteList(q QueryHandle) (ListHandle, error)

	// ExecuteRows runs the query and returns the full relation, possibly
	// empty. The query handle is consumed.
	ExecuteRows(q QueryHandle) (RowsHandle, error)

	// Decode helpers. Each returns the value if it holds the requested
	// kind, and an error wrapping sdk.ErrTypeMismatch otherwise. A mismatch
	// leaves the value handle valid.
	DecodeLong(v ValueHandle) (int64, error)
	DecodeRef(v ValueHandle) (int64, error)
	DecodeKeyword(v ValueHandle) (string, error)
	DecodeBoolean(v ValueHandle) (bool, error)
	DecodeDouble(v ValueHandle) (float64, error)
	DecodeInstant(v ValueHandle) (int64, error)
	DecodeString(v ValueHandle) (string, error)
	DecodeUUID(v ValueHandle) (string, error)

	// ValueKind reports which kind the value holds.
	ValueKind(v ValueHandle) (sdk.ValueKind, error)

	// RowValue returns the value at index i of a row as a fresh handle with
	// its own lifetime.
	RowValue(r RowHandle, i int) (ValueHandle, error)

	// RowLen reports the number of values in a row.
	RowLen(r RowHandle) (int, error)

	// ListValue returns the value at index i of a list as a fresh handle
	// with its own lifetime.
	ListValue(l ListHandle, i int) (ValueHandle, error)

	// ListLen reports the number of values in a list.
	ListLen(l ListHandle) (int, error)

	// RowsRow returns the row at index i of a relation as a fresh handle
	// with its own lifetime.
	RowsRow(r RowsHandle, i int) (RowHandle, error)

	// RowsLen reports the number of rows in a relation.
	RowsLen(r RowsHandle) (int, error)

	// Release helpers. Exactly one release per handle.
	ReleaseQuery(q QueryHandle) error
	ReleaseValue(v ValueHandle) error
	ReleaseRow(r RowHandle) error
	ReleaseList(l ListHandle) error
	ReleaseRows(r RowsHandle) error
}
