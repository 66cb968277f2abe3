package query

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Builder prepares one query for a single execution: bind values to its
// ?variables, then call exactly one execute method. Binds chain fluently and
// record the first failure; the recorded failure surfaces from the execute
// call (and from Err), so a chain never needs per-call checks:
//
//	q := store.Query(`[:find ?v . :in ?e :where [?e :foo/long ?v]]`)
//	defer q.Close()
//	err := q.BindRef("?e", entid).ExecuteScalar(func(v *query.TypedValue) error {
//		// v is nil when the query matched nothing
//		...
//	})
//
// Executing transfers the prepared query to the engine: the builder is
// consumed before the engine runs, whether or not the run succeeds, and
// every later bind or execute fails with sdk.ErrConsumed without reaching
// the engine. Close releases a never-executed query and is a no-op after an
// execute.
//
// Handlers run synchronously on the calling goroutine and are invoked
// exactly once on success, never on failure. Result wrappers passed to a
// handler are released when the handler returns and must not escape it.
type Builder struct {
	eng  engine.Engine
	h    engine.QueryHandle
	text string
	log  *slog.Logger

	state    handleState
	consumed bool
	err      error
}

// Option adjusts a Builder during Build.
type Option func(*Builder)

// WithLogger routes the builder's log output to l.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.log = l
		}
	}
}

// Build prepares a query against an open store. A preparation failure is
// recorded on the returned builder and surfaces from the execute call, which
// keeps call sites fluent.
func Build(eng engine.Engine, store engine.StoreHandle, text string, opts ...Option) *Builder {
	b := &Builder{eng: eng, text: text, log: sdk.Discard()}
	for _, opt := range opts {
		opt(b)
	}

	h, err := eng.BuildQuery(store, text)
	if err != nil {
		b.err = errors.Join(sdk.ErrEngineFailure, err)
		b.log.Error("query preparation failed", "query", text, "error", err)
		return b
	}

	b.h = h
	b.log.Debug("query prepared", "query", text)
	return b
}

// Errored returns a builder that records err and performs nothing. It lets
// client layers surface their own preconditions through the fluent chain
// instead of a second error return.
func Errored(err error) *Builder {
	return &Builder{log: sdk.Discard(), err: err}
}

// Err reports the first failure recorded on the builder, if any.
func (b *Builder) Err() error { return b.err }

// ready reports whether the builder can accept another bind, recording the
// reason when it cannot.
func (b *Builder) ready() bool {
	if b.err != nil {
		return false
	}
	if b.consumed {
		b.err = sdk.ErrConsumed
		return false
	}
	if b.state.live() != nil {
		b.err = sdk.ErrReleased
		return false
	}
	return true
}

// bindErr records a failed bind.
func (b *Builder) bindErr(err error) {
	b.err = errors.Join(sdk.ErrEngineFailure, err)
}

// BindLong binds a long value to the named ?variable.
func (b *Builder) BindLong(name string, v int64) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindLong(b.h, name, v); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindRef binds an entity id reference to the named ?variable.
func (b *Builder) BindRef(name string, entid int64) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindRef(b.h, name, entid); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindRefKeyword binds a reference to the named ?variable through the
// attribute ident the reference points at, e.g. ":foo/string".
func (b *Builder) BindRefKeyword(name string, ident string) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindRefKeyword(b.h, name, ident); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindKeyword binds a keyword value to the named ?variable.
func (b *Builder) BindKeyword(name string, kw string) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindKeyword(b.h, name, kw); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindBool binds a boolean value to the named ?variable.
func (b *Builder) BindBool(name string, v bool) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindBoolean(b.h, name, v); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindDouble binds a double value to the named ?variable.
func (b *Builder) BindDouble(name string, v float64) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindDouble(b.h, name, v); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindInstant binds a point in time to the named ?variable. The instant
// crosses the boundary as microseconds; precision beyond a millisecond is
// dropped, matching what instants decode back to.
func (b *Builder) BindInstant(name string, t time.Time) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindInstant(b.h, name, t.UnixMilli()*1000); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindString binds a string value to the named ?variable.
func (b *Builder) BindString(name string, v string) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindString(b.h, name, v); err != nil {
		b.bindErr(err)
	}
	return b
}

// BindUUID binds a UUID value to the named ?variable.
func (b *Builder) BindUUID(name string, v uuid.UUID) *Builder {
	if !b.ready() {
		return b
	}
	if err := b.eng.BindUUID(b.h, name, v.String()); err != nil {
		b.bindErr(err)
	}
	return b
}

// take hands the query to the engine call that follows. The builder is
// consumed before that call can fail, so the handle can never be transferred
// twice.
func (b *Builder) take() error {
	if b.err != nil {
		return b.err
	}
	if b.consumed {
		return sdk.ErrConsumed
	}
	if err := b.state.live(); err != nil {
		return err
	}
	b.consumed = true
	return nil
}

// execErr classifies and logs an execute failure.
func (b *Builder) execErr(err error) error {
	b.log.Error("query execution failed", "query", b.text, "error", err)
	return errors.Join(sdk.ErrEngineFailure, err)
}

// closeAfter combines a handler result with the wrapper close that follows
// it, preferring the handler's error.
func closeAfter(err error, c interface{ Close() error }) error {
	if cerr := c.Close(); cerr != nil && err == nil {
		return cerr
	}
	return err
}

// ExecuteScalar runs the query and hands its single value to fn, or nil when
// the query matched nothing. fn runs exactly once on success; an engine
// failure returns without invoking it.
func (b *Builder) ExecuteScalar(fn func(*TypedValue) error) error {
	if err := b.take(); err != nil {
		return err
	}
	vh, ok, err := b.eng.ExecuteScalar(b.h)
	if err != nil {
		return b.execErr(err)
	}
	if !ok {
		return fn(nil)
	}
	v := NewValue(b.eng, vh)
	return closeAfter(fn(v), v)
}

// ExecuteTuple runs the query and hands its single row to fn, or nil when
// the query matched nothing.
func (b *Builder) ExecuteTuple(fn func(*Row) error) error {
	if err := b.take(); err != nil {
		return err
	}
	rh, ok, err := b.eng.ExecuteTuple(b.h)
	if err != nil {
		return b.execErr(err)
	}
	if !ok {
		return fn(nil)
	}
	row, err := newRow(b.eng, rh)
	if err != nil {
		return err
	}
	return closeAfter(fn(row), row)
}

// ExecuteList runs the query and hands the first projected column of every
// matching row to fn. No matches hand over an empty list.
func (b *Builder) ExecuteList(fn func(*List) error) error {
	if err := b.take(); err != nil {
		return err
	}
	lh, err := b.eng.ExecuteList(b.h)
	if err != nil {
		return b.execErr(err)
	}
	list, err := newList(b.eng, lh)
	if err != nil {
		return err
	}
	return closeAfter(fn(list), list)
}

// ExecuteRows runs the query and hands the full relation to fn. No matches
// hand over an empty relation.
func (b *Builder) ExecuteRows(fn func(*Rows) error) error {
	if err := b.take(); err != nil {
		return err
	}
	rh, err := b.eng.ExecuteRows(b.h)
	if err != nil {
		return b.execErr(err)
	}
	rows, err := newRows(b.eng, rh)
	if err != nil {
		return err
	}
	return closeAfter(fn(rows), rows)
}

// ExecuteEachValue runs the query as a list and calls fn once per value, in
// order. An fn error stops the walk and propagates.
func (b *Builder) ExecuteEachValue(fn func(*TypedValue) error) error {
	return b.ExecuteList(func(l *List) error {
		it := l.Iter()
		for it.Next() {
			if err := fn(it.Value()); err != nil {
				return err
			}
		}
		return it.Err()
	})
}

// ExecuteEachRow runs the query as a relation and calls fn once per row, in
// order. An fn error stops the walk and propagates.
func (b *Builder) ExecuteEachRow(fn func(*Row) error) error {
	return b.ExecuteRows(func(r *Rows) error {
		it := r.Iter()
		for it.Next() {
			if err := fn(it.Row()); err != nil {
				return err
			}
		}
		return it.Err()
	})
}

// Close releases a prepared query that was never executed. After an execute
// the engine owns the handle and Close is a no-op, so deferring Close right
// after Build is always safe.
func (b *Builder) Close() error {
	if !b.state.release() {
		return nil
	}
	if b.consumed || b.h == 0 {
		return nil
	}
	return b.eng.ReleaseQuery(b.h)
}
