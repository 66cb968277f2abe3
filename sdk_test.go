package sdk

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestValueKindString(t *testing.T) {
	testCases := []struct {
		kind ValueKind
		want string
	}{
		{KindLong, "long"},
		{KindRef, "ref"},
		{KindKeyword, "keyword"},
		{KindBoolean, "boolean"},
		{KindDouble, "double"},
		{KindInstant, "instant"},
		{KindString, "string"},
		{KindUUID, "uuid"},
		{KindInvalid, "invalid"},
		{ValueKind(99), "invalid"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			if got := tc.kind.String(); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestKindFromString(t *testing.T) {
	// Every real kind must survive a name round trip; the names are part
	// of the wire protocol.
	for k := KindLong; k <= KindUUID; k++ {
		if got := KindFromString(k.String()); got != k {
			t.Errorf("round trip for %s: expected %d, got %d", k, k, got)
		}
	}

	for _, name := range []string{"", "invalid", "int", "LONG"} {
		if got := KindFromString(name); got != KindInvalid {
			t.Errorf("expected %q to map to KindInvalid, got %v", name, got)
		}
	}
}

func TestSentinelsDistinct(t *testing.T) {
	sentinels := []error{
		ErrEngineFailure,
		ErrTypeMismatch,
		ErrIndexOutOfRange,
		ErrReleased,
		ErrConsumed,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v matches unrelated sentinel %v", a, b)
			}
		}
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()
	if log == nil {
		t.Fatal("expected a non-nil logger")
	}
	if log.Enabled(context.Background(), slog.LevelError) {
		t.Error("expected the discard logger to be disabled at every level")
	}
}
