package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Row wraps one engine row handle: a fixed-width tuple of typed values.
// Values produced from the row are tracked and released with it.
type Row struct {
	eng engine.Engine
	h   engine.RowHandle
	n   int

	state    handleState
	children []*TypedValue
}

// newRow wraps a row handle and caches its width. The handle is released if
// the width cannot be read, so a construction failure never leaks.
func newRow(eng engine.Engine, h engine.RowHandle) (*Row, error) {
	n, err := eng.RowLen(h)
	if err != nil {
		_ = eng.ReleaseRow(h)
		return nil, err
	}
	return &Row{eng: eng, h: h, n: n}, nil
}

// Len reports the number of values in the row. The width is cached at
// construction and stays readable after Close.
func (r *Row) Len() int { return r.n }

// Get returns the value at index i as a fresh TypedValue owned by the row.
func (r *Row) Get(i int) (*TypedValue, error) {
	if err := r.state.live(); err != nil {
		return nil, err
	}
	if i < 0 || i >= r.n {
		return nil, fmt.Errorf("%w: index %d in a row of %d values", sdk.ErrIndexOutOfRange, i, r.n)
	}
	vh, err := r.eng.RowValue(r.h, i)
	if err != nil {
		return nil, err
	}
	v := NewValue(r.eng, vh)
	r.children = append(r.children, v)
	return v, nil
}

// AsLong decodes the value at index i as a long.
func (r *Row) AsLong(i int) (int64, error) {
	v, err := r.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsLong()
}

// AsEntityID decodes the value at index i as an entity id reference.
func (r *Row) AsEntityID(i int) (int64, error) {
	v, err := r.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsEntityID()
}

// AsKeyword decodes the value at index i as a keyword.
func (r *Row) AsKeyword(i int) (string, error) {
	v, err := r.Get(i)
	if err != nil {
		return "", err
	}
	return v.AsKeyword()
}

// AsBool decodes the value at index i as a boolean.
func (r *Row) AsBool(i int) (bool, error) {
	v, err := r.Get(i)
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// AsDouble decodes the value at index i as a double.
func (r *Row) AsDouble(i int) (float64, error) {
	v, err := r.Get(i)
	if err != nil {
		return 0, err
	}
	return v.AsDouble()
}

// AsInstant decodes the value at index i as an instant.
func (r *Row) AsInstant(i int) (time.Time, error) {
	v, err := r.Get(i)
	if err != nil {
		return time.Time{}, err
	}
	return v.AsInstant()
}

// AsString decodes the value at index i as a string.
func (r *Row) AsString(i int) (string, error) {
	v, err := r.Get(i)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

// AsUUID decodes the value at index i as a UUID.
func (r *Row) AsUUID(i int) (uuid.UUID, error) {
	v, err := r.Get(i)
	if err != nil {
		return uuid.Nil, err
	}
	return v.AsUUID()
}

// Close releases the row and every value produced from it. The first call
// releases; later calls are no-ops.
func (r *Row) Close() error {
	if !r.state.release() {
		return nil
	}
	var errs []error
	for _, c := range r.children {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.eng.ReleaseRow(r.h); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
