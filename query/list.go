package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// List wraps one engine list handle: a single projected column, one value
// per matching row. Values produced from the list are tracked and released
// with it.
type List struct {
	eng engine.Engine
	h   engine.ListHandle
	n   int

	state    handleState
	children []*TypedValue
}

// newList wraps a list handle and caches its length, releasing the handle on
// a construction failure.
func newList(eng engine.Engine, h engine.ListHandle) (*List, error) {
	n, err := eng.ListLen(h)
	if err != nil {
		_ = eng.ReleaseList(h)
		return nil, err
	}
	return &List{eng: eng, h: h, n: n}, nil
}

// Len reports the number of values in the list. The length is cached at
// construction and stays readable after Close.
func (l *List) Len() int { return l.n }

// Get returns the value at index i as a fresh TypedValue owned by the list.
func (l *List) Get(i int) (*TypedValue, error) {
	if err := l.state.live(); err != nil {
		return nil, err
	}
	if i < 0 || i >= l.n {
		return nil, fmt.Errorf("%w: index %d in a list of %d values", sdk.ErrIndexOutOfRange, i, l.n)
	}
	vh, err := l.eng.ListValue(l.h, i)
	if err != nil {
		return nil, err
	}
	v := NewValue(l.eng, vh)
	l.children = append(l.children, v)
	return v, nil
}

// AsLong decodes the value at index i as a long.
func (l *List) AsLong(i int) (int64, error) {
	v, err := l.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

// AsEntityID decodes the value at index i as an entity id reference.
func (l *List) AsEntityID(i int) (int64, error) {
	v, err := l.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsEntityID()
}

// AsKeyword decodes the value at index i as a keyword.
func (l *List) AsKeyword(i int) (string, error) {
	v, err := l.Get(i)
	if err != nil {
		return "", err
	}
	return v.AsKeyword()
}

// AsBool decodes the value at index i as a boolean.
func (l *List) AsBool(i int) (bool, error) {
	v, err := l.Get(i)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// AsDouble decodes the value at index i as a double.
func (l *List) AsDouble(i int) (float64, error) {
	v, err := l.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

// AsInstant decodes the value at index i as an instant.
func (l *List) AsInstant(i int) (time.Time, error) {
	v, err := l.Get(i)
	if err != nil {
		return time.Time{}, err
	}
	return v.AsInstant()
}

// AsString decodes the value at index i as a string.
func (l *List) AsString(i int) (string, error) {
	v, err := l.Get(i)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// AsUUID decodes the value at index i as a UUID.
func (l *List) AsUUID(i int) (uuid.UUID, error) {
	v, err := l.Get(i)
	if err != nil {
		return uuid.Nil, err
	}
	return v.AsUUID()
}

// Iter returns a fresh iterator positioned before the first value. Any
// number of iterators may walk the same list, one after another or
// interleaved; each keeps its own position.
func (l *List) Iter() *ListIter {
	return &ListIter{l: l}
}

// Close releases the list and every value produced from it. The first call
// releases; later calls are no-ops.
func (l *List) Close() error {
	if !l.state.release() {
		return nil
	}
	var errs []error
	for _, c := range l.children {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.eng.ReleaseList(l.h); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ListIter walks a List front to back. The usual loop is:
//
//	it := list.Iter()
//	for it.Next() {
//		v := it.Value()
//		// ...
//	}
//	if err := it.Err(); err != nil {
//		// ...
//	}
type ListIter struct {
	l   *List
	pos int
	cur *TypedValue
	err error
}

// Next advances to the next value, reporting whether one is available.
func (it *ListIter) Next() bool {
	if it.err != nil {
		return false
	}
	if it.pos >= it.l.n {
		return false
	}
	v, err := it.l.Get(it.pos)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = v
	it.pos++
	return true
}

// Value returns the value Next advanced to. It stays owned by the list.
func (it *ListIter) Value() *TypedValue { return it.cur }

// Err reports the error that stopped iteration, if any.
func (it *ListIter) Err() error { return it.err }
