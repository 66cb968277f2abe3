package query

import (
	"errors"
	"fmt"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Rows wraps one engine relation handle: the full result of a query, zero or
// more rows of equal width. Rows produced from it are tracked and released
// with it.
type Rows struct {
	eng engine.Engine
	h   engine.RowsHandle
	n   int

	state    handleState
	children []*Row
}

// newRows wraps a relation handle and caches its row count, releasing the
// handle on a construction failure.
func newRows(eng engine.Engine, h engine.RowsHandle) (*Rows, error) {
	n, err := eng.RowsLen(h)
	if err != nil {
		_ = eng.ReleaseRows(h)
		return nil, err
	}
	return &Rows{eng: eng, h: h, n: n}, nil
}

// Len reports the number of rows. The count is cached at construction and
// stays readable after Close.
func (r *Rows) Len() int { return r.n }

// Row returns the row at index i as a fresh Row owned by the relation.
// Indexed access and iteration observe the same rows in the same order.
func (r *Rows) Row(i int) (*Row, error) {
	if err := r.state.live(); err != nil {
		return nil, err
	}
	if i < 0 || i >= r.n {
		return nil, fmt.Errorf("%w: row %d in a relation of %d rows", sdk.ErrIndexOutOfRange, i, r.n)
	}
	rh, err := r.eng.RowsRow(r.h, i)
	if err != nil {
		return nil, err
	}
	row, err := newRow(r.eng, rh)
	if err != nil {
		return nil, err
	}
	r.children = append(r.children, row)
	return row, nil
}

// Iter returns a fresh iterator positioned before the first row. Any number
// of iterators may walk the same relation; each keeps its own position.
func (r *Rows) Iter() *RowsIter {
	return &RowsIter{r: r}
}

// Close releases the relation and every row produced from it. The first call
// releases; later calls are no-ops.
func (r *Rows) Close() error {
	if !r.state.release() {
		return nil
	}
	var errs []error
	for _, c := range r.children {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.eng.ReleaseRows(r.h); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// RowsIter walks a relation front to back, in the same shape as ListIter.
type RowsIter struct {
	r   *Rows
	pos int
	cur *Row
	err error
}

// Next advances to the next row, reporting whether one is available.
func (it *RowsIter) Next() bool {
	if it.err != nil {
		return false
	}
	if it.pos >= it.r.n {
		return false
	}
	row, err := it.r.Row(it.pos)
	if err != nil {
		it.err = err
		return false
	}
	it.cur = row
	it.pos++
	return true
}

// Row returns the row Next advanced to. It stays owned by the relation.
func (it *RowsIter) Row() *Row { return it.cur }

// Err reports the error that stopped iteration, if any.
func (it *RowsIter) Err() error { return it.err }
