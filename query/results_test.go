package query_test

import (
	"errors"
	"testing"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/mock"
	"github.com/loam-project/sdk/query"
)

// tupleEngine scripts a three-wide row: long 25, string "soar", boolean true.
func tupleEngine() *mock.Mock {
	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteTupleFunc = func(engine.QueryHandle) (engine.RowHandle, bool, error) { return 30, true, nil }
	m.RowLenFunc = func(engine.RowHandle) (int, error) { return 3, nil }
	m.RowValueFunc = func(r engine.RowHandle, i int) (engine.ValueHandle, error) {
		return engine.ValueHandle(100 + i), nil
	}
	m.DecodeLongFunc = func(engine.ValueHandle) (int64, error) { return 25, nil }
	m.DecodeStringFunc = func(engine.ValueHandle) (string, error) { return "soar", nil }
	m.DecodeBooleanFunc = func(engine.ValueHandle) (bool, error) { return true, nil }
	return m
}

func TestRow_TypedShortcuts(t *testing.T) {
	t.Parallel()

	m := tupleEngine()
	err := query.Build(m, 1, "[:find [?l ?s ?b] :where [?e _ _]]").
		ExecuteTuple(func(r *query.Row) error {
			if r.Len() != 3 {
				t.Fatalf("Len = %d, want 3", r.Len())
			}
			l, err := r.AsLong(0)
			if err != nil {
				t.Fatalf("AsLong(0): %v", err)
			}
			if l != 25 {
				t.Fatalf("AsLong(0) = %d, want 25", l)
			}
			s, err := r.AsString(1)
			if err != nil {
				t.Fatalf("AsString(1): %v", err)
			}
			if s != "soar" {
				t.Fatalf("AsString(1) = %q, want %q", s, "soar")
			}
			b, err := r.AsBool(2)
			if err != nil {
				t.Fatalf("AsBool(2): %v", err)
			}
			if !b {
				t.Fatal("AsBool(2) = false, want true")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteTuple: %v", err)
	}

	// Handler return released the row and all three produced values.
	if n := len(m.CallsTo("ReleaseRow")); n != 1 {
		t.Fatalf("ReleaseRow calls = %d, want 1", n)
	}
	if n := len(m.CallsTo("ReleaseValue")); n != 3 {
		t.Fatalf("ReleaseValue calls = %d, want 3", n)
	}
}

func TestRow_IndexOutOfRange(t *testing.T) {
	t.Parallel()

	m := tupleEngine()
	err := query.Build(m, 1, "[:find [?l ?s ?b] :where [?e _ _]]").
		ExecuteTuple(func(r *query.Row) error {
			for _, i := range []int{-1, 3, 12} {
				if _, err := r.Get(i); !errors.Is(err, sdk.ErrIndexOutOfRange) {
					t.Fatalf("Get(%d) = %v, want ErrIndexOutOfRange", i, err)
				}
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteTuple: %v", err)
	}
	if n := len(m.CallsTo("RowValue")); n != 0 {
		t.Fatalf("out-of-range Get reached the engine %d times", n)
	}
}

func TestRow_CloseCascadesToValues(t *testing.T) {
	t.Parallel()

	m := tupleEngine()
	var v0, v1 *query.TypedValue
	err := query.Build(m, 1, "[:find [?l ?s ?b] :where [?e _ _]]").
		ExecuteTuple(func(r *query.Row) error {
			var err error
			if v0, err = r.Get(0); err != nil {
				return err
			}
			if v1, err = r.Get(1); err != nil {
				return err
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteTuple: %v", err)
	}

	if n := len(m.CallsTo("ReleaseValue")); n != 2 {
		t.Fatalf("ReleaseValue calls = %d, want 2", n)
	}
	if _, err := v0.AsLong(); !errors.Is(err, sdk.ErrReleased) {
		t.Fatalf("escaped value #0 = %v, want ErrReleased", err)
	}
	if _, err := v1.AsString(); !errors.Is(err, sdk.ErrReleased) {
		t.Fatalf("escaped value #1 = %v, want ErrReleased", err)
	}

	// Closing an already-cascaded value must not release again.
	if err := v0.Close(); err != nil {
		t.Fatalf("Close on cascaded value: %v", err)
	}
	if n := len(m.CallsTo("ReleaseValue")); n != 2 {
		t.Fatalf("ReleaseValue calls after re-close = %d, want 2", n)
	}
}

// listEngine scripts a three-long list: 1, 2, 3.
func listEngine() *mock.Mock {
	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteListFunc = func(engine.QueryHandle) (engine.ListHandle, error) { return 40, nil }
	m.ListLenFunc = func(engine.ListHandle) (int, error) { return 3, nil }
	m.ListValueFunc = func(l engine.ListHandle, i int) (engine.ValueHandle, error) {
		return engine.ValueHandle(100 + i), nil
	}
	m.DecodeLongFunc = func(v engine.ValueHandle) (int64, error) { return int64(v) - 99, nil }
	return m
}

func TestList_IterMatchesIndexedAccess(t *testing.T) {
	t.Parallel()

	m := listEngine()
	err := query.Build(m, 1, "[:find [?v ...] :where [?e :foo/long ?v]]").
		ExecuteList(func(l *query.List) error {
			var indexed []int64
			for i := 0; i < l.Len(); i++ {
				n, err := l.AsLong(i)
				if err != nil {
					return err
				}
				indexed = append(indexed, n)
			}

			var walked []int64
			it := l.Iter()
			for it.Next() {
				n, err := it.Value().AsLong()
				if err != nil {
					return err
				}
				walked = append(walked, n)
			}
			if err := it.Err(); err != nil {
				return err
			}

			if len(indexed) != 3 || len(walked) != 3 {
				t.Fatalf("indexed %v walked %v, want three values each", indexed, walked)
			}
			for i := range indexed {
				if indexed[i] != walked[i] {
					t.Fatalf("index %d: indexed %d != walked %d", i, indexed[i], walked[i])
				}
				if indexed[i] != int64(i+1) {
					t.Fatalf("index %d = %d, want %d", i, indexed[i], i+1)
				}
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteList: %v", err)
	}
}

func TestList_IteratorsAreIndependent(t *testing.T) {
	t.Parallel()

	m := listEngine()
	err := query.Build(m, 1, "[:find [?v ...] :where [?e :foo/long ?v]]").
		ExecuteList(func(l *query.List) error {
			first := l.Iter()
			if !first.Next() {
				t.Fatal("first iterator exhausted immediately")
			}

			// A second iterator starts from the top regardless of the first.
			second := l.Iter()
			count := 0
			for second.Next() {
				count++
			}
			if err := second.Err(); err != nil {
				return err
			}
			if count != 3 {
				t.Fatalf("second iterator walked %d values, want 3", count)
			}

			// The first picks up where it left off.
			remaining := 0
			for first.Next() {
				remaining++
			}
			if err := first.Err(); err != nil {
				return err
			}
			if remaining != 2 {
				t.Fatalf("first iterator walked %d more values, want 2", remaining)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteList: %v", err)
	}
}

func TestList_EmptyResult(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteListFunc = func(engine.QueryHandle) (engine.ListHandle, error) { return 40, nil }
	m.ListLenFunc = func(engine.ListHandle) (int, error) { return 0, nil }

	err := query.Build(m, 1, "[:find [?v ...] :where [?e :foo/long ?v]]").
		ExecuteList(func(l *query.List) error {
			if l == nil {
				t.Fatal("handler received nil for an empty list")
			}
			if l.Len() != 0 {
				t.Fatalf("Len = %d, want 0", l.Len())
			}
			if l.Iter().Next() {
				t.Fatal("iterator produced a value from an empty list")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteList: %v", err)
	}
}

func TestList_IterAfterClose(t *testing.T) {
	t.Parallel()

	m := listEngine()
	var escaped *query.List
	err := query.Build(m, 1, "[:find [?v ...] :where [?e :foo/long ?v]]").
		ExecuteList(func(l *query.List) error {
			escaped = l
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteList: %v", err)
	}

	// The handler returned, so the list is closed. Length stays readable;
	// element access does not.
	if escaped.Len() != 3 {
		t.Fatalf("Len after close = %d, want the cached 3", escaped.Len())
	}
	it := escaped.Iter()
	if it.Next() {
		t.Fatal("iterator produced a value from a closed list")
	}
	if !errors.Is(it.Err(), sdk.ErrReleased) {
		t.Fatalf("iterator Err = %v, want ErrReleased", it.Err())
	}
	if n := len(m.CallsTo("ListValue")); n != 0 {
		t.Fatalf("closed list reached the engine %d times", n)
	}
}

// rowsEngine scripts a relation of two rows, two longs per row.
func rowsEngine() *mock.Mock {
	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteRowsFunc = func(engine.QueryHandle) (engine.RowsHandle, error) { return 50, nil }
	m.RowsLenFunc = func(engine.RowsHandle) (int, error) { return 2, nil }
	m.RowsRowFunc = func(r engine.RowsHandle, i int) (engine.RowHandle, error) {
		return engine.RowHandle(200 + i), nil
	}
	m.RowLenFunc = func(engine.RowHandle) (int, error) { return 2, nil }
	m.RowValueFunc = func(r engine.RowHandle, i int) (engine.ValueHandle, error) {
		return engine.ValueHandle(uint64(r)*10 + uint64(i)), nil
	}
	m.DecodeLongFunc = func(v engine.ValueHandle) (int64, error) { return int64(v), nil }
	return m
}

func TestRows_IterMatchesIndexedAccess(t *testing.T) {
	t.Parallel()

	m := rowsEngine()
	err := query.Build(m, 1, "[:find ?a ?b :where [?e :foo/long ?a] [?e :bar/long ?b]]").
		ExecuteRows(func(rs *query.Rows) error {
			if rs.Len() != 2 {
				t.Fatalf("Len = %d, want 2", rs.Len())
			}

			var indexed [][2]int64
			for i := 0; i < rs.Len(); i++ {
				r, err := rs.Row(i)
				if err != nil {
					return err
				}
				a, err := r.AsLong(0)
				if err != nil {
					return err
				}
				b, err := r.AsLong(1)
				if err != nil {
					return err
				}
				indexed = append(indexed, [2]int64{a, b})
			}

			var walked [][2]int64
			it := rs.Iter()
			for it.Next() {
				r := it.Row()
				a, err := r.AsLong(0)
				if err != nil {
					return err
				}
				b, err := r.AsLong(1)
				if err != nil {
					return err
				}
				walked = append(walked, [2]int64{a, b})
			}
			if err := it.Err(); err != nil {
				return err
			}

			if len(indexed) != 2 || len(walked) != 2 {
				t.Fatalf("indexed %v walked %v, want two rows each", indexed, walked)
			}
			for i := range indexed {
				if indexed[i] != walked[i] {
					t.Fatalf("row %d: indexed %v != walked %v", i, indexed[i], walked[i])
				}
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteRows: %v", err)
	}

	// Four rows were produced (two indexed, two walked); all released, plus
	// the relation itself, plus every decoded value.
	if n := len(m.CallsTo("ReleaseRows")); n != 1 {
		t.Fatalf("ReleaseRows calls = %d, want 1", n)
	}
	if n := len(m.CallsTo("ReleaseRow")); n != 4 {
		t.Fatalf("ReleaseRow calls = %d, want 4", n)
	}
	if n := len(m.CallsTo("ReleaseValue")); n != 8 {
		t.Fatalf("ReleaseValue calls = %d, want 8", n)
	}
}

func TestRows_RowOutOfRange(t *testing.T) {
	t.Parallel()

	m := rowsEngine()
	err := query.Build(m, 1, "[:find ?a ?b :where [?e :foo/long ?a] [?e :bar/long ?b]]").
		ExecuteRows(func(rs *query.Rows) error {
			if _, err := rs.Row(2); !errors.Is(err, sdk.ErrIndexOutOfRange) {
				t.Fatalf("Row(2) = %v, want ErrIndexOutOfRange", err)
			}
			if _, err := rs.Row(-1); !errors.Is(err, sdk.ErrIndexOutOfRange) {
				t.Fatalf("Row(-1) = %v, want ErrIndexOutOfRange", err)
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteRows: %v", err)
	}
	if n := len(m.CallsTo("RowsRow")); n != 0 {
		t.Fatalf("out-of-range Row reached the engine %d times", n)
	}
}

func TestRows_ConstructionFailureReleasesHandle(t *testing.T) {
	t.Parallel()

	m := rowsEngine()
	m.Fail = true
	m.FailOp = "RowsLen"
	m.Err = errors.New("relation vanished")

	err := query.Build(m, 1, "[:find ?a ?b :where [?e :foo/long ?a]]").
		ExecuteRows(func(*query.Rows) error {
			t.Fatal("handler invoked after a construction failure")
			return nil
		})
	if err == nil {
		t.Fatal("ExecuteRows succeeded with a failing relation")
	}
	rel := m.CallsTo("ReleaseRows")
	if len(rel) != 1 || rel[0].Args[0] != engine.RowsHandle(50) {
		t.Fatalf("ReleaseRows calls = %+v, want one call for handle 50", rel)
	}
}
