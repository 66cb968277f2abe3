package store_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/mem"
	"github.com/loam-project/sdk/query"
	"github.com/loam-project/sdk/store"
)

// TestStore_NoteTrackingScenario drives one store through a full client
// session against the in-memory engine: transact, every query shape, the
// Set helpers, attribute reads, and an observer.
func TestStore_NoteTrackingScenario(t *testing.T) {
	t.Parallel()

	s, err := store.Open(store.Config{Engine: mem.New()})
	require.NoError(t, err)
	defer s.Close()

	rep, err := s.Transact(`[
		[:db/add "plan" :note/title "plan the trip"]
		[:db/add "plan" :note/stars 3]
		[:db/add "plan" :note/done false]
		[:db/add "pack" :note/title "pack the bags"]
		[:db/add "pack" :note/stars 5]
		[:db/add "pack" :note/done false]
		[:db/add "tickets" :note/title "book the tickets"]
		[:db/add "tickets" :note/stars 4]
		[:db/add "visa" :note/title "check the visa"]
		[:db/add "visa" :note/stars 1]
		[:db/add "idea" :note/title "learn to sail"]
	]`)
	require.NoError(t, err)

	plan, ok := rep.EntidForTempID("plan")
	require.True(t, ok, "tempid plan missing from report")
	pack, ok := rep.EntidForTempID("pack")
	require.True(t, ok, "tempid pack missing from report")
	idea, ok := rep.EntidForTempID("idea")
	require.True(t, ok, "tempid idea missing from report")
	assert.NotEqual(t, plan, pack)
	assert.NotZero(t, rep.TxID())
	assert.WithinDuration(t, time.Now(), rep.TxInstant(), time.Minute)

	// Scalar, bound to one entity.
	var stars int64
	err = s.Query(`[:find ?s . :in ?n :where [?n :note/stars ?s]]`).
		BindRef("?n", pack).
		ExecuteScalar(func(v *query.TypedValue) error {
			require.NotNil(t, v)
			got, err := v.AsLong()
			if err != nil {
				return err
			}
			stars = got
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, int64(5), stars)

	// Collection, most starred first.
	var titles []string
	err = s.Query(`[:find [?t ...] :where [?n :note/title ?t] [?n :note/stars ?s] :order (desc ?s)]`).
		ExecuteEachValue(func(v *query.TypedValue) error {
			title, err := v.AsString()
			if err != nil {
				return err
			}
			titles = append(titles, title)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"pack the bags", "book the tickets", "plan the trip", "check the visa"}, titles)

	// Tuple for a single entity.
	err = s.Query(`[:find [?t ?s] :in ?n :where [?n :note/title ?t] [?n :note/stars ?s]]`).
		BindRef("?n", plan).
		ExecuteTuple(func(r *query.Row) error {
			require.NotNil(t, r)
			title, err := r.AsString(0)
			if err != nil {
				return err
			}
			got, err := r.AsLong(1)
			if err != nil {
				return err
			}
			assert.Equal(t, "plan the trip", title)
			assert.Equal(t, int64(3), got)
			return nil
		})
	require.NoError(t, err)

	// Relation across every starred note. Indexed access and iteration
	// must agree row for row.
	type line struct {
		title string
		stars int64
	}
	readLine := func(r *query.Row) (line, error) {
		title, err := r.AsString(0)
		if err != nil {
			return line{}, err
		}
		got, err := r.AsLong(1)
		if err != nil {
			return line{}, err
		}
		return line{title, got}, nil
	}
	var indexed, walked []line
	err = s.Query(`[:find ?t ?s :where [?n :note/title ?t] [?n :note/stars ?s] :order ?s]`).
		ExecuteRows(func(rs *query.Rows) error {
			require.Equal(t, 4, rs.Len())
			for i := 0; i < rs.Len(); i++ {
				r, err := rs.Row(i)
				if err != nil {
					return err
				}
				ln, err := readLine(r)
				if err != nil {
					return err
				}
				indexed = append(indexed, ln)
			}
			it := rs.Iter()
			for it.Next() {
				ln, err := readLine(it.Row())
				if err != nil {
					return err
				}
				walked = append(walked, ln)
			}
			return it.Err()
		})
	require.NoError(t, err)
	assert.Equal(t, indexed, walked)
	assert.Equal(t, []line{
		{"check the visa", 1},
		{"plan the trip", 3},
		{"book the tickets", 4},
		{"pack the bags", 5},
	}, indexed)

	// Set helpers and the direct attribute read.
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	noteID := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, s.SetBool(plan, ":note/done", true))
	require.NoError(t, s.SetInstant(plan, ":note/created", created))
	require.NoError(t, s.SetUUID(plan, ":note/id", noteID))

	done, err := s.ValueForAttribute(plan, ":note/done")
	require.NoError(t, err)
	require.NotNil(t, done)
	gotDone, err := done.AsBool()
	require.NoError(t, err)
	assert.True(t, gotDone)
	require.NoError(t, done.Close())

	at, err := s.ValueForAttribute(plan, ":note/created")
	require.NoError(t, err)
	require.NotNil(t, at)
	gotAt, err := at.AsInstant()
	require.NoError(t, err)
	assert.True(t, gotAt.Equal(created), "created = %v, want %v", gotAt, created)
	require.NoError(t, at.Close())

	// The idea note was never starred.
	absent, err := s.ValueForAttribute(idea, ":note/stars")
	require.NoError(t, err)
	assert.Nil(t, absent)

	// Observe star changes.
	starsAttr, err := s.EntidForAttribute(":note/stars")
	require.NoError(t, err)
	var fired []engine.TxChange
	err = s.RegisterObserver("stars", []int64{starsAttr}, func(key string, changes []engine.TxChange) {
		assert.Equal(t, "stars", key)
		fired = append(fired, changes...)
	})
	require.NoError(t, err)

	downgrade, err := s.Transact(fmt.Sprintf(`[[:db/add %d :note/stars 4]]`, pack))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, downgrade.TxID(), fired[0].TxID)
	assert.Equal(t, []int64{pack}, fired[0].Entids)
	require.NoError(t, s.UnregisterObserver("stars"))

	// Cardinality one: the new star count replaced the old.
	err = s.Query(`[:find ?s . :in ?n :where [?n :note/stars ?s]]`).
		BindRef("?n", pack).
		ExecuteScalar(func(v *query.TypedValue) error {
			require.NotNil(t, v)
			got, err := v.AsLong()
			if err != nil {
				return err
			}
			assert.Equal(t, int64(4), got)
			return nil
		})
	require.NoError(t, err)

	// Everything after Close fails fast.
	require.NoError(t, s.Close())
	_, err = s.Transact(`[[:db/add "x" :note/title "late"]]`)
	assert.ErrorIs(t, err, sdk.ErrReleased)
	assert.ErrorIs(t, s.Query(`[:find ?t . :where [?n :note/title ?t]]`).Err(), sdk.ErrReleased)
}

// TestStore_ReopenSharesNamedStore opens the same named store twice and
// expects the second session to see the first session's datoms.
func TestStore_ReopenSharesNamedStore(t *testing.T) {
	t.Parallel()

	eng := mem.New()

	first, err := store.Open(store.Config{Engine: eng, Path: "journal"})
	require.NoError(t, err)
	rep, err := first.Transact(`[[:db/add "e" :journal/entry "day one"]]`)
	require.NoError(t, err)
	entid, ok := rep.EntidForTempID("e")
	require.True(t, ok)
	require.NoError(t, first.Close())

	second, err := store.Open(store.Config{Engine: eng, Path: "journal"})
	require.NoError(t, err)
	defer second.Close()

	var entry string
	err = second.Query(`[:find ?v . :in ?e :where [?e :journal/entry ?v]]`).
		BindRef("?e", entid).
		ExecuteScalar(func(v *query.TypedValue) error {
			require.NotNil(t, v)
			got, err := v.AsString()
			if err != nil {
				return err
			}
			entry = got
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "day one", entry)

	// An anonymous store starts empty regardless.
	scratch, err := store.Open(store.Config{Engine: eng})
	require.NoError(t, err)
	defer scratch.Close()
	_, err = scratch.Transact(`[[:db/add "x" :journal/entry "scratch pad"]]`)
	require.NoError(t, err)
	err = scratch.Query(`[:find ?e . :in ?v :where [?e :journal/entry ?v]]`).
		BindString("?v", "day one").
		ExecuteScalar(func(v *query.TypedValue) error {
			assert.Nil(t, v)
			return nil
		})
	require.NoError(t, err)
}

// TestStore_StrictDecodes checks that a kind mismatch surfaces as
// sdk.ErrTypeMismatch and leaves the value decodable.
func TestStore_StrictDecodes(t *testing.T) {
	t.Parallel()

	s, err := store.Open(store.Config{Engine: mem.New()})
	require.NoError(t, err)
	defer s.Close()

	rep, err := s.Transact(`[[:db/add "n" :note/title "typed"]]`)
	require.NoError(t, err)
	entid, ok := rep.EntidForTempID("n")
	require.True(t, ok)

	v, err := s.ValueForAttribute(entid, ":note/title")
	require.NoError(t, err)
	require.NotNil(t, v)
	defer v.Close()

	_, err = v.AsLong()
	assert.ErrorIs(t, err, sdk.ErrTypeMismatch)

	kind, err := v.Kind()
	require.NoError(t, err)
	assert.Equal(t, sdk.KindString, kind)
	title, err := v.AsString()
	require.NoError(t, err)
	assert.Equal(t, "typed", title)
}
