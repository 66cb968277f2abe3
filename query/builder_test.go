package query_test

import (
	"errors"
	"testing"
	"time"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/mock"
	"github.com/loam-project/sdk/query"
)

func TestBuild_PreparesQuery(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(store engine.StoreHandle, q string) (engine.QueryHandle, error) {
		if store != 3 {
			t.Errorf("store handle = %d, want 3", store)
		}
		if q != "[:find ?v . :where [?e :foo/long ?v]]" {
			t.Errorf("unexpected query text %q", q)
		}
		return 11, nil
	}

	b := query.Build(m, 3, "[:find ?v . :where [?e :foo/long ?v]]")
	if err := b.Err(); err != nil {
		t.Fatalf("Err after Build: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rel := m.CallsTo("ReleaseQuery")
	if len(rel) != 1 {
		t.Fatalf("ReleaseQuery calls = %d, want 1", len(rel))
	}
	if rel[0].Args[0] != engine.QueryHandle(11) {
		t.Fatalf("released handle = %v, want 11", rel[0].Args[0])
	}
}

func TestBuild_FailureIsSticky(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.Fail = true
	m.FailOp = "BuildQuery"
	m.Err = errors.New("malformed find spec")

	b := query.Build(m, 1, "[:find")
	if !errors.Is(b.Err(), sdk.ErrEngineFailure) {
		t.Fatalf("Err = %v, want wrapped ErrEngineFailure", b.Err())
	}

	// Binds must not reach the engine once the builder is poisoned.
	b.BindLong("?v", 1).BindString("?s", "x")
	if n := len(m.CallsTo("BindLong")) + len(m.CallsTo("BindString")); n != 0 {
		t.Fatalf("binds reached the engine %d times after a failed build", n)
	}

	err := b.ExecuteScalar(func(*query.TypedValue) error {
		t.Fatal("handler invoked after failed build")
		return nil
	})
	if !errors.Is(err, sdk.ErrEngineFailure) {
		t.Fatalf("ExecuteScalar error = %v, want wrapped ErrEngineFailure", err)
	}
	if len(m.CallsTo("ExecuteScalar")) != 0 {
		t.Fatal("ExecuteScalar reached the engine after a failed build")
	}

	// Nothing to release: the engine never handed over a handle.
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(m.CallsTo("ReleaseQuery")) != 0 {
		t.Fatal("ReleaseQuery called for a query that was never prepared")
	}
}

func TestBuilder_BindsReachEngine(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }

	when := time.Date(2018, 1, 1, 11, 0, 0, 0, time.UTC)
	b := query.Build(m, 1, "[:find ?e . :in ?l ?s ?w :where [?e :foo/long ?l]]").
		BindLong("?l", 25).
		BindString("?s", "soar").
		BindInstant("?w", when)
	if err := b.Err(); err != nil {
		t.Fatalf("Err after binds: %v", err)
	}

	longs := m.CallsTo("BindLong")
	if len(longs) != 1 || longs[0].Args[1] != "?l" || longs[0].Args[2] != int64(25) {
		t.Fatalf("BindLong recorded %+v", longs)
	}
	instants := m.CallsTo("BindInstant")
	if len(instants) != 1 {
		t.Fatalf("BindInstant calls = %d, want 1", len(instants))
	}
	if got, want := instants[0].Args[2], when.UnixMilli()*1000; got != want {
		t.Fatalf("instant crossed as %v µs, want %v", got, want)
	}
}

func TestBuilder_BindFailurePoisonsChain(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.Fail = true
	m.FailOp = "BindDouble"
	m.Err = errors.New("variable not in query")

	b := query.Build(m, 1, "[:find ?e . :in ?d :where [?e :foo/double ?d]]").
		BindDouble("?missing", 1.5).
		BindLong("?l", 9)

	if !errors.Is(b.Err(), sdk.ErrEngineFailure) {
		t.Fatalf("Err = %v, want wrapped ErrEngineFailure", b.Err())
	}
	if len(m.CallsTo("BindLong")) != 0 {
		t.Fatal("BindLong reached the engine after a failed bind")
	}

	err := b.ExecuteRows(func(*query.Rows) error {
		t.Fatal("handler invoked after failed bind")
		return nil
	})
	if !errors.Is(err, sdk.ErrEngineFailure) {
		t.Fatalf("ExecuteRows error = %v, want the sticky bind failure", err)
	}

	// The engine still owns nothing: the prepared query is released by Close.
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(m.CallsTo("ReleaseQuery")) != 1 {
		t.Fatal("prepared query not released after failed chain")
	}
}

func TestExecuteScalar_ValuePresent(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteScalarFunc = func(q engine.QueryHandle) (engine.ValueHandle, bool, error) {
		if q != 5 {
			t.Errorf("executed handle %d, want 5", q)
		}
		return 21, true, nil
	}
	m.DecodeLongFunc = func(v engine.ValueHandle) (int64, error) {
		if v != 21 {
			t.Errorf("decoded handle %d, want 21", v)
		}
		return 25, nil
	}

	invocations := 0
	b := query.Build(m, 1, "[:find ?v . :where [?e :foo/long ?v]]")
	err := b.ExecuteScalar(func(v *query.TypedValue) error {
		invocations++
		if v == nil {
			t.Fatal("handler received nil for a present value")
		}
		got, err := v.AsLong()
		if err != nil {
			t.Fatalf("AsLong: %v", err)
		}
		if got != 25 {
			t.Fatalf("AsLong = %d, want 25", got)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("ExecuteScalar: %v", err)
	}
	if invocations != 1 {
		t.Fatalf("handler invoked %d times, want exactly 1", invocations)
	}

	// The delivered value is released when the handler returns.
	rel := m.CallsTo("ReleaseValue")
	if len(rel) != 1 || rel[0].Args[0] != engine.ValueHandle(21) {
		t.Fatalf("ReleaseValue calls = %+v, want one call for handle 21", rel)
	}
}

func TestExecuteScalar_AbsentInvokesOnceWithNil(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteScalarFunc = func(engine.QueryHandle) (engine.ValueHandle, bool, error) {
		return 0, false, nil
	}

	invocations := 0
	err := query.Build(m, 1, "[:find ?v . :where [?e :foo/long ?v]]").
		ExecuteScalar(func(v *query.TypedValue) error {
			invocations++
			if v != nil {
				t.Fatal("handler received a value for an empty result")
			}
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteScalar: %v", err)
	}
	if invocations != 1 {
		t.Fatalf("handler invoked %d times, want exactly 1", invocations)
	}
	if len(m.CallsTo("ReleaseValue")) != 0 {
		t.Fatal("ReleaseValue called for an absent result")
	}
}

func TestExecuteScalar_EngineFailure(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.Fail = true
	m.FailOp = "ExecuteScalar"
	m.Err = errors.New("unbound variable ?e")

	b := query.Build(m, 1, "[:find ?v . :in ?e :where [?e :foo/long ?v]]")
	err := b.ExecuteScalar(func(*query.TypedValue) error {
		t.Fatal("handler invoked on failure")
		return nil
	})
	if !errors.Is(err, sdk.ErrEngineFailure) {
		t.Fatalf("error = %v, want wrapped ErrEngineFailure", err)
	}

	// The failing execute still consumed the query.
	err = b.ExecuteScalar(func(*query.TypedValue) error { return nil })
	if !errors.Is(err, sdk.ErrConsumed) {
		t.Fatalf("second execute = %v, want ErrConsumed", err)
	}
	if len(m.CallsTo("ExecuteScalar")) != 1 {
		t.Fatal("consumed builder reached the engine again")
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(m.CallsTo("ReleaseQuery")) != 0 {
		t.Fatal("ReleaseQuery called for a handle the engine consumed")
	}
}

func TestExecuteScalar_HandlerErrorPropagates(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteScalarFunc = func(engine.QueryHandle) (engine.ValueHandle, bool, error) {
		return 9, true, nil
	}

	boom := errors.New("handler rejected the value")
	err := query.Build(m, 1, "[:find ?v . :where [?e :foo/long ?v]]").
		ExecuteScalar(func(*query.TypedValue) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want handler error", err)
	}
	if len(m.CallsTo("ReleaseValue")) != 1 {
		t.Fatal("value not released after handler error")
	}
}

func TestBuilder_BindAfterExecuteFailsFast(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }

	b := query.Build(m, 1, "[:find ?v ?w :where [?e :foo/long ?v] [?e :foo/string ?w]]")
	if err := b.ExecuteRows(func(*query.Rows) error { return nil }); err != nil {
		t.Fatalf("ExecuteRows: %v", err)
	}

	b.BindLong("?v", 1)
	if !errors.Is(b.Err(), sdk.ErrConsumed) {
		t.Fatalf("Err after post-execute bind = %v, want ErrConsumed", b.Err())
	}
	if len(m.CallsTo("BindLong")) != 0 {
		t.Fatal("post-execute bind reached the engine")
	}
}

func TestBuilder_CloseThenExecute(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }

	b := query.Build(m, 1, "[:find ?v . :where [?e :foo/long ?v]]")
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if len(m.CallsTo("ReleaseQuery")) != 1 {
		t.Fatal("query released more than once")
	}

	err := b.ExecuteList(func(*query.List) error {
		t.Fatal("handler invoked on a released builder")
		return nil
	})
	if !errors.Is(err, sdk.ErrReleased) {
		t.Fatalf("execute after Close = %v, want ErrReleased", err)
	}
	if len(m.CallsTo("ExecuteList")) != 0 {
		t.Fatal("released builder reached the engine")
	}
}

func TestExecuteTuple_AbsentAndPresent(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		t.Parallel()

		m := mock.New()
		m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
		m.ExecuteTupleFunc = func(engine.QueryHandle) (engine.RowHandle, bool, error) { return 31, true, nil }
		m.RowLenFunc = func(engine.RowHandle) (int, error) { return 2, nil }

		err := query.Build(m, 1, "[:find [?a ?b] :where [?e :foo/long ?a] [?e :foo/string ?b]]").
			ExecuteTuple(func(r *query.Row) error {
				if r == nil {
					t.Fatal("handler received nil for a present row")
				}
				if r.Len() != 2 {
					t.Fatalf("Len = %d, want 2", r.Len())
				}
				return nil
			})
		if err != nil {
			t.Fatalf("ExecuteTuple: %v", err)
		}
		if len(m.CallsTo("ReleaseRow")) != 1 {
			t.Fatal("row not released after handler return")
		}
	})

	t.Run("absent", func(t *testing.T) {
		t.Parallel()

		m := mock.New()
		m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
		m.ExecuteTupleFunc = func(engine.QueryHandle) (engine.RowHandle, bool, error) { return 0, false, nil }

		invocations := 0
		err := query.Build(m, 1, "[:find [?a ?b] :where [?e :foo/long ?a] [?e :foo/string ?b]]").
			ExecuteTuple(func(r *query.Row) error {
				invocations++
				if r != nil {
					t.Fatal("handler received a row for an empty result")
				}
				return nil
			})
		if err != nil {
			t.Fatalf("ExecuteTuple: %v", err)
		}
		if invocations != 1 {
			t.Fatalf("handler invoked %d times, want exactly 1", invocations)
		}
	})
}

func TestExecuteEachValue_WalksInOrder(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteListFunc = func(engine.QueryHandle) (engine.ListHandle, error) { return 41, nil }
	m.ListLenFunc = func(engine.ListHandle) (int, error) { return 3, nil }
	m.ListValueFunc = func(l engine.ListHandle, i int) (engine.ValueHandle, error) {
		return engine.ValueHandle(100 + i), nil
	}
	m.DecodeLongFunc = func(v engine.ValueHandle) (int64, error) {
		return int64(v) - 100, nil
	}

	var got []int64
	err := query.Build(m, 1, "[:find [?v ...] :where [?e :foo/long ?v]]").
		ExecuteEachValue(func(v *query.TypedValue) error {
			n, err := v.AsLong()
			if err != nil {
				return err
			}
			got = append(got, n)
			return nil
		})
	if err != nil {
		t.Fatalf("ExecuteEachValue: %v", err)
	}
	if len(got) != 3 || got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("walked %v, want [0 1 2]", got)
	}

	// The list and all three produced values are released afterwards.
	if len(m.CallsTo("ReleaseList")) != 1 {
		t.Fatal("list not released")
	}
	if len(m.CallsTo("ReleaseValue")) != 3 {
		t.Fatalf("ReleaseValue calls = %d, want 3", len(m.CallsTo("ReleaseValue")))
	}
}

func TestExecuteEachRow_StopsOnHandlerError(t *testing.T) {
	t.Parallel()

	m := mock.New()
	m.BuildQueryFunc = func(engine.StoreHandle, string) (engine.QueryHandle, error) { return 5, nil }
	m.ExecuteRowsFunc = func(engine.QueryHandle) (engine.RowsHandle, error) { return 51, nil }
	m.RowsLenFunc = func(engine.RowsHandle) (int, error) { return 4, nil }
	m.RowsRowFunc = func(r engine.RowsHandle, i int) (engine.RowHandle, error) {
		return engine.RowHandle(200 + i), nil
	}
	m.RowLenFunc = func(engine.RowHandle) (int, error) { return 1, nil }

	boom := errors.New("stop after two")
	seen := 0
	err := query.Build(m, 1, "[:find ?e ?v :where [?e :foo/long ?v]]").
		ExecuteEachRow(func(*query.Row) error {
			seen++
			if seen == 2 {
				return boom
			}
			return nil
		})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want handler error", err)
	}
	if seen != 2 {
		t.Fatalf("handler ran %d times, want 2", seen)
	}

	// Cleanup still covers everything produced before the stop.
	if len(m.CallsTo("ReleaseRows")) != 1 {
		t.Fatal("relation not released")
	}
	if len(m.CallsTo("ReleaseRow")) != 2 {
		t.Fatalf("ReleaseRow calls = %d, want 2", len(m.CallsTo("ReleaseRow")))
	}
}
