package mock

import (
	"errors"
	"sync"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

var (
	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Call records an operation performed against the mock.
type Call struct {
	// Op is the engine method name, e.g. "BindLong".
	Op string

	// Args holds the call arguments in declaration order.
	Args []any
}

// Mock implements engine.Engine for tests. Each operation delegates to an
// optional *Func field of the same signature; unset operations succeed with
// zero values. Every call is recorded in Calls for assertions, and the
// Fail/FailOp/Err knobs inject failures without scripting a whole function.
type Mock struct {
	// Fail makes calls return an error instead of running.
	Fail bool

	// FailOp restricts Fail to a single operation name. Empty fails all.
	FailOp string

	// Err is the error returned when failing. Defaults to
	// ErrOperationFailed.
	Err error

	// Calls stores a history of operations for assertions.
	Calls []Call

	OpenFunc               func(path string) (engine.StoreHandle, error)
	CloseStoreFunc         func(store engine.StoreHandle) error
	TransactFunc           func(store engine.StoreHandle, tx string) (engine.TxReport, error)
	EntidForAttributeFunc  func(store engine.StoreHandle, attr string) (int64, error)
	ValueForAttributeFunc  func(store engine.StoreHandle, entid int64, attr string) (engine.ValueHandle, bool, error)
	SetLongFunc            func(store engine.StoreHandle, entid int64, attr string, v int64) error
	SetRefFunc             func(store engine.StoreHandle, entid int64, attr string, ref int64) error
	SetRefKeywordFunc      func(store engine.StoreHandle, entid int64, attr string, ident string) error
	SetKeywordFunc         func(store engine.StoreHandle, entid int64, attr string, kw string) error
	SetBooleanFunc         func(store engine.StoreHandle, entid int64, attr string, v bool) error
	SetDoubleFunc          func(store engine.StoreHandle, entid int64, attr string, v float64) error
	SetInstantFunc         func(store engine.StoreHandle, entid int64, attr string, micros int64) error
	SetStringFunc          func(store engine.StoreHandle, entid int64, attr string, v string) error
	SetUUIDFunc            func(store engine.StoreHandle, entid int64, attr string, v string) error
	RegisterObserverFunc   func(store engine.StoreHandle, key string, attrs []int64, fn engine.ObserverFunc) error
	UnregisterObserverFunc func(store engine.StoreHandle, key string) error
	SyncFunc               func(store engine.StoreHandle, userUUID string, serverURI string) error
	BuildQueryFunc         func(store engine.StoreHandle, query string) (engine.QueryHandle, error)
	BindLongFunc           func(q engine.QueryHandle, name string, v int64) error
	BindRefFunc            func(q engine.QueryHandle, name string, ref int64) error
	BindRefKeywordFunc     func(q engine.QueryHandle, name string, ident string) error
	BindKeywordFunc        func(q engine.QueryHandle, name string, kw string) error
	BindBooleanFunc        func(q engine.QueryHandle, name string, v bool) error
	BindDoubleFunc         func(q engine.QueryHandle, name string, v float64) error
	BindInstantFunc        func(q engine.QueryHandle, name string, micros int64) error
	BindStringFunc         func(q engine.QueryHandle, name string, v string) error
	BindUUIDFunc           func(q engine.QueryHandle, name string, v string) error
	ExecuteScalarFunc      func(q engine.QueryHandle) (engine.ValueHandle, bool, error)
	ExecuteTupleFunc       func(q engine.QueryHandle) (engine.RowHandle, bool, error)
	ExecuteListFunc        func(q engine.QueryHandle) (engine.ListHandle, error)
	ExecuteRowsFunc        func(q engine.QueryHandle) (engine.RowsHandle, error)
	DecodeLongFunc         func(v engine.ValueHandle) (int64, error)
	DecodeRefFunc          func(v engine.ValueHandle) (int64, error)
	DecodeKeywordFunc      func(v engine.ValueHandle) (string, error)
	DecodeBooleanFunc      func(v engine.ValueHandle) (bool, error)
	DecodeDoubleFunc       func(v engine.ValueHandle) (float64, error)
	DecodeInstantFunc      func(v engine.ValueHandle) (int64, error)
	DecodeStringFunc       func(v engine.ValueHandle) (string, error)
	DecodeUUIDFunc         func(v engine.ValueHandle) (string, error)
	ValueKindFunc          func(v engine.ValueHandle) (sdk.ValueKind, error)
	RowValueFunc           func(r engine.RowHandle, i int) (engine.ValueHandle, error)
	RowLenFunc             func(r engine.RowHandle) (int, error)
	ListValueFunc          func(l engine.ListHandle, i int) (engine.ValueHandle, error)
	ListLenFunc            func(l engine.ListHandle) (int, error)
	RowsRowFunc            func(r engine.RowsHandle, i int) (engine.RowHandle, error)
	RowsLenFunc            func(r engine.RowsHandle) (int, error)
	ReleaseQueryFunc       func(q engine.QueryHandle) error
	ReleaseValueFunc       func(v engine.ValueHandle) error
	ReleaseRowFunc         func(r engine.RowHandle) error
	ReleaseListFunc        func(l engine.ListHandle) error
	ReleaseRowsFunc        func(r engine.RowsHandle) error

	mu sync.Mutex
}

var _ engine.Engine = (*Mock)(nil)

// New creates an empty mock engine. The zero value is also usable.
func New() *Mock {
	return &Mock{}
}

// CallsTo returns the recorded calls for one operation, in order.
func (m *Mock) CallsTo(op string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Call
	for _, c := range m.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// record appends a call to the history.
func (m *Mock) record(op string, args ...any) {
	m.mu.Lock()
	m.Calls = append(m.Calls, Call{Op: op, Args: args})
	m.mu.Unlock()
}

// fail returns the configured failure for op, or nil.
func (m *Mock) fail(op string) error {
	if !m.Fail {
		return nil
	}
	if m.FailOp != "" && m.FailOp != op {
		return nil
	}
	if m.Err != nil {
		return m.Err
	}
	return ErrOperationFailed
}

// Open implements engine.Engine.
func (m *Mock) Open(path string) (engine.StoreHandle, error) {
	m.record("Open", path)
	if err := m.fail("Open"); err != nil {
		return 0, err
	}
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	return 0, nil
}

// CloseStore implements engine.Engine.
func (m *Mock) CloseStore(store engine.StoreHandle) error {
	m.record("CloseStore", store)
	if err := m.fail("CloseStore"); err != nil {
		return err
	}
	if m.CloseStoreFunc != nil {
		return m.CloseStoreFunc(store)
	}
	return nil
}

// Transact implements engine.Engine.
func (m *Mock) Transact(store engine.StoreHandle, tx string) (engine.TxReport, error) {
	m.record("Transact", store, tx)
	if err := m.fail("Transact"); err != nil {
		return engine.TxReport{}, err
	}
	if m.TransactFunc != nil {
		return m.TransactFunc(store, tx)
	}
	return engine.TxReport{}, nil
}

// EntidForAttribute implements engine.Engine.
func (m *Mock) EntidForAttribute(store engine.StoreHandle, attr string) (int64, error) {
	m.record("EntidForAttribute", store, attr)
	if err := m.fail("EntidForAttribute"); err != nil {
		return 0, err
	}
	if m.EntidForAttributeFunc != nil {
		return m.EntidForAttributeFunc(store, attr)
	}
	return 0, nil
}

// ValueForAttribute implements engine.Engine.
func (m *Mock) ValueForAttribute(store engine.StoreHandle, entid int64, attr string) (engine.ValueHandle, bool, error) {
	m.record("ValueForAttribute", store, entid, attr)
	if err := m.fail("ValueForAttribute"); err != nil {
		return 0, false, err
	}
	if m.ValueForAttributeFunc != nil {
		return m.ValueForAttributeFunc(store, entid, attr)
	}
	return 0, false, nil
}

// SetLong implements engine.Engine.
func (m *Mock) SetLong(store engine.StoreHandle, entid int64, attr string, v int64) error {
	m.record("SetLong", store, entid, attr, v)
	if err := m.fail("SetLong"); err != nil {
		return err
	}
	if m.SetLongFunc != nil {
		return m.SetLongFunc(store, entid, attr, v)
	}
	return nil
}

// SetRef implements engine.Engine.
func (m *Mock) SetRef(store engine.StoreHandle, entid int64, attr string, ref int64) error {
	m.record("SetRef", store, entid, attr, ref)
	if err := m.fail("SetRef"); err != nil {
		return err
	}
	if m.SetRefFunc != nil {
		return m.SetRefFunc(store, entid, attr, ref)
	}
	return nil
}

// SetRefKeyword implements engine.Engine.
func (m *Mock) SetRefKeyword(store engine.StoreHandle, entid int64, attr string, ident string) error {
	m.record("SetRefKeyword", store, entid, attr, ident)
	if err := m.fail("SetRefKeyword"); err != nil {
		return err
	}
	if m.SetRefKeywordFunc != nil {
		return m.SetRefKeywordFunc(store, entid, attr, ident)
	}
	return nil
}

// SetKeyword implements engine.Engine.
func (m *Mock) SetKeyword(store engine.StoreHandle, entid int64, attr string, kw string) error {
	m.record("SetKeyword", store, entid, attr, kw)
	if err := m.fail("SetKeyword"); err != nil {
		return err
	}
	if m.SetKeywordFunc != nil {
		return m.SetKeywordFunc(store, entid, attr, kw)
	}
	return nil
}

// SetBoolean implements engine.Engine.
func (m *Mock) SetBoolean(store engine.StoreHandle, entid int64, attr string, v bool) error {
	m.record("SetBoolean", store, entid, attr, v)
	if err := m.fail("SetBoolean"); err != nil {
		return err
	}
	if m.SetBooleanFunc != nil {
		return m.SetBooleanFunc(store, entid, attr, v)
	}
	return nil
}

// SetDouble implements engine.Engine.
func (m *Mock) SetDouble(store engine.StoreHandle, entid int64, attr string, v float64) error {
	m.record("SetDouble", store, entid, attr, v)
	if err := m.fail("SetDouble"); err != nil {
		return err
	}
	if m.SetDoubleFunc != nil {
		return m.SetDoubleFunc(store, entid, attr, v)
	}
	return nil
}

// SetInstant implements engine.Engine.
func (m *Mock) SetInstant(store engine.StoreHandle, entid int64, attr string, micros int64) error {
	m.record("SetInstant", store, entid, attr, micros)
	if err := m.fail("SetInstant"); err != nil {
		return err
	}
	if m.SetInstantFunc != nil {
		return m.SetInstantFunc(store, entid, attr, micros)
	}
	return nil
}

// SetString implements engine.Engine.
func (m *Mock) SetString(store engine.StoreHandle, entid int64, attr string, v string) error {
	m.record("SetString", store, entid, attr, v)
	if err := m.fail("SetString"); err != nil {
		return err
	}
	if m.SetStringFunc != nil {
		return m.SetStringFunc(store, entid, attr, v)
	}
	return nil
}

// SetUUID implements engine.Engine.
func (m *Mock) SetUUID(store engine.StoreHandle, entid int64, attr string, v string) error {
	m.record("SetUUID", store, entid, attr, v)
	if err := m.fail("SetUUID"); err != nil {
		return err
	}
	if m.SetUUIDFunc != nil {
		return m.SetUUIDFunc(store, entid, attr, v)
	}
	return nil
}

// RegisterObserver implements engine.Engine.
func (m *Mock) RegisterObserver(store engine.StoreHandle, key string, attrs []int64, fn engine.ObserverFunc) error {
	m.record("RegisterObserver", store, key, attrs)
	if err := m.fail("RegisterObserver"); err != nil {
		return err
	}
	if m.RegisterObserverFunc != nil {
		return m.RegisterObserverFunc(store, key, attrs, fn)
	}
	return nil
}

// UnregisterObserver implements engine.Engine.
func (m *Mock) UnregisterObserver(store engine.StoreHandle, key string) error {
	m.record("UnregisterObserver", store, key)
	if err := m.fail("UnregisterObserver"); err != nil {
		return err
	}
	if m.UnregisterObserverFunc != nil {
		return m.UnregisterObserverFunc(store, key)
	}
	return nil
}

// Sync implements engine.Engine.
func (m *Mock) Sync(store engine.StoreHandle, userUUID string, serverURI string) error {
	m.record("Sync", store, userUUID, serverURI)
	if err := m.fail("Sync"); err != nil {
		return err
	}
	if m.SyncFunc != nil {
		return m.SyncFunc(store, userUUID, serverURI)
	}
	return nil
}

// BuildQuery implements engine.Engine.
func (m *Mock) BuildQuery(store engine.StoreHandle, query string) (engine.QueryHandle, error) {
	m.record("BuildQuery", store, query)
	if err := m.fail("BuildQuery"); err != nil {
		return 0, err
	}
	if m.BuildQueryFunc != nil {
		return m.BuildQueryFunc(store, query)
	}
	return 0, nil
}

// BindLong implements engine.Engine.
func (m *Mock) BindLong(q engine.QueryHandle, name string, v int64) error {
	m.record("BindLong", q, name, v)
	if err := m.fail("BindLong"); err != nil {
		return err
	}
	if m.BindLongFunc != nil {
		return m.BindLongFunc(q, name, v)
	}
	return nil
}

// BindRef implements engine.Engine.
func (m *Mock) BindRef(q engine.QueryHandle, name string, ref int64) error {
	m.record("BindRef", q, name, ref)
	if err := m.fail("BindRef"); err != nil {
		return err
	}
	if m.BindRefFunc != nil {
		return m.BindRefFunc(q, name, ref)
	}
	return nil
}

// BindRefKeyword implements engine.Engine.
func (m *Mock) BindRefKeyword(q engine.QueryHandle, name string, ident string) error {
	m.record("BindRefKeyword", q, name, ident)
	if err := m.fail("BindRefKeyword"); err != nil {
		return err
	}
	if m.BindRefKeywordFunc != nil {
		return m.BindRefKeywordFunc(q, name, ident)
	}
	return nil
}

// BindKeyword implements engine.Engine.
func (m *Mock) BindKeyword(q engine.QueryHandle, name string, kw string) error {
	m.record("BindKeyword", q, name, kw)
	if err := m.fail("BindKeyword"); err != nil {
		return err
	}
	if m.BindKeywordFunc != nil {
		return m.BindKeywordFunc(q, name, kw)
	}
	return nil
}

// BindBoolean implements engine.Engine.
func (m *Mock) BindBoolean(q engine.QueryHandle, name string, v bool) error {
	m.record("BindBoolean", q, name, v)
	if err := m.fail("BindBoolean"); err != nil {
		return err
	}
	if m.BindBooleanFunc != nil {
		return m.BindBooleanFunc(q, name, v)
	}
	return nil
}

// BindDouble implements engine.Engine.
func (m *Mock) BindDouble(q engine.QueryHandle, name string, v float64) error {
	m.record("BindDouble", q, name, v)
	if err := m.fail("BindDouble"); err != nil {
		return err
	}
	if m.BindDoubleFunc != nil {
		return m.BindDoubleFunc(q, name, v)
	}
	return nil
}

// BindInstant implements engine.Engine.
func (m *Mock) BindInstant(q engine.QueryHandle, name string, micros int64) error {
	m.record("BindInstant", q, name, micros)
	if err := m.fail("BindInstant"); err != nil {
		return err
	}
	if m.BindInstantFunc != nil {
		return m.BindInstantFunc(q, name, micros)
	}
	return nil
}

// BindString implements engine.Engine.
func (m *Mock) BindString(q engine.QueryHandle, name string, v string) error {
	m.record("BindString", q, name, v)
	if err := m.fail("BindString"); err != nil {
		return err
	}
	if m.BindStringFunc != nil {
		return m.BindStringFunc(q, name, v)
	}
	return nil
}

// BindUUID implements engine.Engine.
func (m *Mock) BindUUID(q engine.QueryHandle, name string, v string) error {
	m.record("BindUUID", q, name, v)
	if err := m.fail("BindUUID"); err != nil {
		return err
	}
	if m.BindUUIDFunc != nil {
		return m.BindUUIDFunc(q, name, v)
	}
	return nil
}

// ExecuteScalar implements engine.Engine.
func (m *Mock) ExecuteScalar(q engine.QueryHandle) (engine.ValueHandle, bool, error) {
	m.record("ExecuteScalar", q)
	if err := m.fail("ExecuteScalar"); err != nil {
		return 0, false, err
	}
	if m.ExecuteScalarFunc != nil {
		return m.ExecuteScalarFunc(q)
	}
	return 0, false, nil
}

// ExecuteTuple implements engine.Engine.
func (m *Mock) ExecuteTuple(q engine.QueryHandle) (engine.RowHandle, bool, error) {
	m.record("ExecuteTuple", q)
	if err := m.fail("ExecuteTuple"); err != nil {
		return 0, false, err
	}
	if m.ExecuteTupleFunc != nil {
		return m.ExecuteTupleFunc(q)
	}
	return 0, false, nil
}

// ExecuteList implements engine.Engine.
func (m *Mock) ExecuteList(q engine.QueryHandle) (engine.ListHandle, error) {
	m.record("ExecuteList", q)
	if err := m.fail("ExecuteList"); err != nil {
		return 0, err
	}
	if m.ExecuteListFunc != nil {
		return m.ExecuteListFunc(q)
	}
	return 0, nil
}

// ExecuteRows implements engine.Engine.
func (m *Mock) ExecuteRows(q engine.QueryHandle) (engine.RowsHandle, error) {
	m.record("ExecuteRows", q)
	if err := m.fail("ExecuteRows"); err != nil {
		return 0, err
	}
	if m.ExecuteRowsFunc != nil {
		return m.ExecuteRowsFunc(q)
	}
	return 0, nil
}

// DecodeLong implements engine.Engine.
func (m *Mock) DecodeLong(v engine.ValueHandle) (int64, error) {
	m.record("DecodeLong", v)
	if err := m.fail("DecodeLong"); err != nil {
		return 0, err
	}
	if m.DecodeLongFunc != nil {
		return m.DecodeLongFunc(v)
	}
	return 0, nil
}

// DecodeRef implements engine.Engine.
func (m *Mock) DecodeRef(v engine.ValueHandle) (int64, error) {
	m.record("DecodeRef", v)
	if err := m.fail("DecodeRef"); err != nil {
		return 0, err
	}
	if m.DecodeRefFunc != nil {
		return m.DecodeRefFunc(v)
	}
	return 0, nil
}

// DecodeKeyword implements engine.Engine.
func (m *Mock) DecodeKeyword(v engine.ValueHandle) (string, error) {
	m.record("DecodeKeyword", v)
	if err := m.fail("DecodeKeyword"); err != nil {
		return "", err
	}
	if m.DecodeKeywordFunc != nil {
		return m.DecodeKeywordFunc(v)
	}
	return "", nil
}

// DecodeBoolean implements engine.Engine.
func (m *Mock) DecodeBoolean(v engine.ValueHandle) (bool, error) {
	m.record("DecodeBoolean", v)
	if err := m.fail("DecodeBoolean"); err != nil {
		return false, err
	}
	if m.DecodeBooleanFunc != nil {
		return m.DecodeBooleanFunc(v)
	}
	return false, nil
}

// DecodeDouble implements engine.Engine.
func (m *Mock) DecodeDouble(v engine.ValueHandle) (float64, error) {
	m.record("DecodeDouble", v)
	if err := m.fail("DecodeDouble"); err != nil {
		return 0, err
	}
	if m.DecodeDoubleFunc != nil {
		return m.DecodeDoubleFunc(v)
	}
	return 0, nil
}

// DecodeInstant implements engine.Engine.
func (m *Mock) DecodeInstant(v engine.ValueHandle) (int64, error) {
	m.record("DecodeInstant", v)
	if err := m.fail("DecodeInstant"); err != nil {
		return 0, err
	}
	if m.DecodeInstantFunc != nil {
		return m.DecodeInstantFunc(v)
	}
	return 0, nil
}

// DecodeString implements engine.Engine.
func (m *Mock) DecodeString(v engine.ValueHandle) (string, error) {
	m.record("DecodeString", v)
	if err := m.fail("DecodeString"); err != nil {
		return "", err
	}
	if m.DecodeStringFunc != nil {
		return m.DecodeStringFunc(v)
	}
	return "", nil
}

// DecodeUUID implements engine.Engine.
func (m *Mock) DecodeUUID(v engine.ValueHandle) (string, error) {
	m.record("DecodeUUID", v)
	if err := m.fail("DecodeUUID"); err != nil {
		return "", err
	}
	if m.DecodeUUIDFunc != nil {
		return m.DecodeUUIDFunc(v)
	}
	return "", nil
}

// ValueKind implements engine.Engine.
func (m *Mock) ValueKind(v engine.ValueHandle) (sdk.ValueKind, error) {
	m.record("ValueKind", v)
	if err := m.fail("ValueKind"); err != nil {
		return sdk.KindInvalid, err
	}
	if m.ValueKindFunc != nil {
		return m.ValueKindFunc(v)
	}
	return sdk.KindInvalid, nil
}

// RowValue implements engine.Engine.
func (m *Mock) RowValue(r engine.RowHandle, i int) (engine.ValueHandle, error) {
	m.record("RowValue", r, i)
	if err := m.fail("RowValue"); err != nil {
		return 0, err
	}
	if m.RowValueFunc != nil {
		return m.RowValueFunc(r, i)
	}
	return 0, nil
}

// RowLen implements engine.Engine.
func (m *Mock) RowLen(r engine.RowHandle) (int, error) {
	m.record("RowLen", r)
	if err := m.fail("RowLen"); err != nil {
		return 0, err
	}
	if m.RowLenFunc != nil {
		return m.RowLenFunc(r)
	}
	return 0, nil
}

// ListValue implements engine.Engine.
func (m *Mock) ListValue(l engine.ListHandle, i int) (engine.ValueHandle, error) {
	m.record("ListValue", l, i)
	if err := m.fail("ListValue"); err != nil {
		return 0, err
	}
	if m.ListValueFunc != nil {
		return m.ListValueFunc(l, i)
	}
	return 0, nil
}

// ListLen implements engine.Engine.
func (m *Mock) ListLen(l engine.ListHandle) (int, error) {
	m.record("ListLen", l)
	if err := m.fail("ListLen"); err != nil {
		return 0, err
	}
	if m.ListLenFunc != nil {
		return m.ListLenFunc(l)
	}
	return 0, nil
}

// RowsRow implements engine.Engine.
func (m *Mock) RowsRow(r engine.RowsHandle, i int) (engine.RowHandle, error) {
	m.record("RowsRow", r, i)
	if err := m.fail("RowsRow"); err != nil {
		return 0, err
	}
	if m.RowsRowFunc != nil {
		return m.RowsRowFunc(r, i)
	}
	return 0, nil
}

// RowsLen implements engine.Engine.
func (m *Mock) RowsLen(r engine.RowsHandle) (int, error) {
	m.record("RowsLen", r)
	if err := m.fail("RowsLen"); err != nil {
		return 0, err
	}
	if m.RowsLenFunc != nil {
		return m.RowsLenFunc(r)
	}
	return 0, nil
}

// ReleaseQuery implements engine.Engine.
func (m *Mock) ReleaseQuery(q engine.QueryHandle) error {
	m.record("ReleaseQuery", q)
	if err := m.fail("ReleaseQuery"); err != nil {
		return err
	}
	if m.ReleaseQueryFunc != nil {
		return m.ReleaseQueryFunc(q)
	}
	return nil
}

// ReleaseValue implements engine.Engine.
func (m *Mock) ReleaseValue(v engine.ValueHandle) error {
	m.record("ReleaseValue", v)
	if err := m.fail("ReleaseValue"); err != nil {
		return err
	}
	if m.ReleaseValueFunc != nil {
		return m.ReleaseValueFunc(v)
	}
	return nil
}

// ReleaseRow implements engine.Engine.
func (m *Mock) ReleaseRow(r engine.RowHandle) error {
	m.record("ReleaseRow", r)
	if err := m.fail("ReleaseRow"); err != nil {
		return err
	}
	if m.ReleaseRowFunc != nil {
		return m.ReleaseRowFunc(r)
	}
	return nil
}

// ReleaseList implements engine.Engine.
func (m *Mock) ReleaseList(l engine.ListHandle) error {
	m.record("ReleaseList", l)
	if err := m.fail("ReleaseList"); err != nil {
		return err
	}
	if m.ReleaseListFunc != nil {
		return m.ReleaseListFunc(l)
	}
	return nil
}

// ReleaseRows implements engine.Engine.
func (m *Mock) ReleaseRows(r engine.RowsHandle) error {
	m.record("ReleaseRows", r)
	if err := m.fail("ReleaseRows"); err != nil {
		return err
	}
	if m.ReleaseRowsFunc != nil {
		return m.ReleaseRowsFunc(r)
	}
	return nil
}
