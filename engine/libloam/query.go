//go:build linux || darwin

package libloam

import (
	"fmt"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// BuildQuery implements engine.Engine.
func (e *Engine) BuildQuery(store engine.StoreHandle, query string) (engine.QueryHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_query_build(uint64(store), query)
	if err := lastError("build query"); err != nil {
		return 0, err
	}
	return engine.QueryHandle(h), nil
}

// BindLong implements engine.Engine.
func (e *Engine) BindLong(q engine.QueryHandle, name string, v int64) error {
	return e.do("bind long", func() { c_loam_bind_long(uint64(q), name, v) })
}

// BindRef implements engine.Engine.
func (e *Engine) BindRef(q engine.QueryHandle, name string, ref int64) error {
	return e.do("bind ref", func() { c_loam_bind_ref(uint64(q), name, ref) })
}

// BindRefKeyword implements engine.Engine.
func (e *Engine) BindRefKeyword(q engine.QueryHandle, name string, ident string) error {
	return e.do("bind ref keyword", func() { c_loam_bind_ref_keyword(uint64(q), name, ident) })
}

// BindKeyword implements engine.Engine.
func (e *Engine) BindKeyword(q engine.QueryHandle, name string, kw string) error {
	return e.do("bind keyword", func() { c_loam_bind_keyword(uint64(q), name, kw) })
}

// BindBoolean implements engine.Engine.
func (e *Engine) BindBoolean(q engine.QueryHandle, name string, v bool) error {
	return e.do("bind boolean", func() { c_loam_bind_boolean(uint64(q), name, v) })
}

// BindDouble implements engine.Engine.
func (e *Engine) BindDouble(q engine.QueryHandle, name string, v float64) error {
	return e.do("bind double", func() { c_loam_bind_double(uint64(q), name, v) })
}

// BindInstant implements engine.Engine.
func (e *Engine) BindInstant(q engine.QueryHandle, name string, micros int64) error {
	return e.do("bind instant", func() { c_loam_bind_instant(uint64(q), name, micros) })
}

// BindString implements engine.Engine.
func (e *Engine) BindString(q engine.QueryHandle, name string, v string) error {
	return e.do("bind string", func() { c_loam_bind_string(uint64(q), name, v) })
}

// BindUUID implements engine.Engine.
func (e *Engine) BindUUID(q engine.QueryHandle, name string, v string) error {
	return e.do("bind uuid", func() { c_loam_bind_uuid(uint64(q), name, v) })
}

// ExecuteScalar implements engine.Engine. The library returns handle 0 for
// the empty result.
func (e *Engine) ExecuteScalar(q engine.QueryHandle) (engine.ValueHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_execute_scalar(uint64(q))
	if err := lastError("execute scalar"); err != nil {
		return 0, false, err
	}
	if h == 0 {
		return 0, false, nil
	}
	return engine.ValueHandle(h), true, nil
}

// ExecuteTuple implements engine.Engine, with the same empty-result
// convention as ExecuteScalar.
func (e *Engine) ExecuteTuple(q engine.QueryHandle) (engine.RowHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_execute_tuple(uint64(q))
	if err := lastError("execute tuple"); err != nil {
		return 0, false, err
	}
	if h == 0 {
		return 0, false, nil
	}
	return engine.RowHandle(h), true, nil
}

// ExecuteList implements engine.Engine. An empty result is a live handle of
// length zero.
func (e *Engine) ExecuteList(q engine.QueryHandle) (engine.ListHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_execute_list(uint64(q))
	if err := lastError("execute list"); err != nil {
		return 0, err
	}
	return engine.ListHandle(h), nil
}

// ExecuteRows implements engine.Engine. An empty result is a live handle of
// length zero.
func (e *Engine) ExecuteRows(q engine.QueryHandle) (engine.RowsHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_execute_rows(uint64(q))
	if err := lastError("execute rows"); err != nil {
		return 0, err
	}
	return engine.RowsHandle(h), nil
}

// DecodeLong implements engine.Engine.
func (e *Engine) DecodeLong(v engine.ValueHandle) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := c_loam_decode_long(uint64(v))
	if err := lastError("decode long"); err != nil {
		return 0, err
	}
	return n, nil
}

// DecodeRef implements engine.Engine.
func (e *Engine) DecodeRef(v engine.ValueHandle) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := c_loam_decode_ref(uint64(v))
	if err := lastError("decode ref"); err != nil {
		return 0, err
	}
	return n, nil
}

// DecodeKeyword implements engine.Engine.
func (e *Engine) DecodeKeyword(v engine.ValueHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := c_loam_decode_keyword(uint64(v))
	if err := lastError("decode keyword"); err != nil {
		return "", err
	}
	return takeCString(p), nil
}

// DecodeBoolean implements engine.Engine.
func (e *Engine) DecodeBoolean(v engine.ValueHandle) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b := c_loam_decode_boolean(uint64(v))
	if err := lastError("decode boolean"); err != nil {
		return false, err
	}
	return b, nil
}

// DecodeDouble implements engine.Engine.
func (e *Engine) DecodeDouble(v engine.ValueHandle) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := c_loam_decode_double(uint64(v))
	if err := lastError("decode double"); err != nil {
		return 0, err
	}
	return f, nil
}

// DecodeInstant implements engine.Engine.
func (e *Engine) DecodeInstant(v engine.ValueHandle) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	micros := c_loam_decode_instant(uint64(v))
	if err := lastError("decode instant"); err != nil {
		return 0, err
	}
	return micros, nil
}

// DecodeString implements engine.Engine.
func (e *Engine) DecodeString(v engine.ValueHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := c_loam_decode_string(uint64(v))
	if err := lastError("decode string"); err != nil {
		return "", err
	}
	return takeCString(p), nil
}

// DecodeUUID implements engine.Engine.
func (e *Engine) DecodeUUID(v engine.ValueHandle) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := c_loam_decode_uuid(uint64(v))
	if err := lastError("decode uuid"); err != nil {
		return "", err
	}
	return takeCString(p), nil
}

// ValueKind implements engine.Engine. The library's kind enum uses the same
// numbering as sdk.ValueKind.
func (e *Engine) ValueKind(v engine.ValueHandle) (sdk.ValueKind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	k := c_loam_value_kind(uint64(v))
	if err := lastError("value kind"); err != nil {
		return sdk.KindInvalid, err
	}
	if k < int32(sdk.KindLong) || k > int32(sdk.KindUUID) {
		return sdk.KindInvalid, fmt.Errorf("value kind %d out of range", k)
	}
	return sdk.ValueKind(k), nil
}

// RowValue implements engine.Engine.
func (e *Engine) RowValue(r engine.RowHandle, i int) (engine.ValueHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_row_value(uint64(r), uintptr(i))
	if err := lastError("row value"); err != nil {
		return 0, err
	}
	return engine.ValueHandle(h), nil
}

// RowLen implements engine.Engine.
func (e *Engine) RowLen(r engine.RowHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := c_loam_row_len(uint64(r))
	if err := lastError("row len"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// ListValue implements engine.Engine.
func (e *Engine) ListValue(l engine.ListHandle, i int) (engine.ValueHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_list_value(uint64(l), uintptr(i))
	if err := lastError("list value"); err != nil {
		return 0, err
	}
	return engine.ValueHandle(h), nil
}

// ListLen implements engine.Engine.
func (e *Engine) ListLen(l engine.ListHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := c_loam_list_len(uint64(l))
	if err := lastError("list len"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// RowsRow implements engine.Engine.
func (e *Engine) RowsRow(r engine.RowsHandle, i int) (engine.RowHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_rows_row(uint64(r), uintptr(i))
	if err := lastError("rows row"); err != nil {
		return 0, err
	}
	return engine.RowHandle(h), nil
}

// RowsLen implements engine.Engine.
func (e *Engine) RowsLen(r engine.RowsHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := c_loam_rows_len(uint64(r))
	if err := lastError("rows len"); err != nil {
		return 0, err
	}
	return int(n), nil
}

// ReleaseQuery implements engine.Engine.
func (e *Engine) ReleaseQuery(q engine.QueryHandle) error {
	return e.do("release query", func() { c_loam_release_query(uint64(q)) })
}

// ReleaseValue implements engine.Engine.
func (e *Engine) ReleaseValue(v engine.ValueHandle) error {
	return e.do("release value", func() { c_loam_release_value(uint64(v)) })
}

// ReleaseRow implements engine.Engine.
func (e *Engine) ReleaseRow(r engine.RowHandle) error {
	return e.do("release row", func() { c_loam_release_row(uint64(r)) })
}

// ReleaseList implements engine.Engine.
func (e *Engine) ReleaseList(l engine.ListHandle) error {
	return e.do("release list", func() { c_loam_release_list(uint64(l)) })
}

// ReleaseRows implements engine.Engine.
func (e *Engine) ReleaseRows(r engine.RowsHandle) error {
	return e.do("release rows", func() { c_loam_release_rows(uint64(r)) })
}
