package query

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// TypedValue wraps one engine value handle. A value holds exactly one kind;
// the As* accessors decode it strictly and return sdk.ErrTypeMismatch for
// any other kind, leaving the value usable. The first successful decode is
// cached, so repeating the same accessor does not re-enter the engine.
//
// Values delivered inside an execute handler are closed automatically when
// the handler returns. Values obtained elsewhere (store.ValueForAttribute)
// are closed by the caller.
type TypedValue struct {
	eng engine.Engine
	h   engine.ValueHandle

	state handleState

	// knownKind is set once the kind has been observed, via Kind or a
	// successful decode.
	knownKind sdk.ValueKind

	// cachedKind/cachedVal hold the first successful decode.
	cachedKind sdk.ValueKind
	cachedVal  any
}

// NewValue wraps a raw engine value handle. It is intended for the store
// package and engine adapters; applications receive values from query
// executes and attribute lookups.
func NewValue(eng engine.Engine, h engine.ValueHandle) *TypedValue {
	return &TypedValue{eng: eng, h: h}
}

// Kind reports which kind the value holds.
func (v *TypedValue) Kind() (sdk.ValueKind, error) {
	if err := v.state.live(); err != nil {
		return sdk.KindInvalid, err
	}
	if v.knownKind != sdk.KindInvalid {
		return v.knownKind, nil
	}
	k, err := v.eng.ValueKind(v.h)
	if err != nil {
		return sdk.KindInvalid, err
	}
	v.knownKind = k
	return k, nil
}

// AsLong decodes a long value.
func (v *TypedValue) AsLong() (int64, error) {
	if err := v.state.live(); err != nil {
		return 0, err
	}
	if v.cachedKind == sdk.KindLong {
		return v.cachedVal.(int64), nil
	}
	n, err := v.eng.DecodeLong(v.h)
	if err != nil {
		return 0, err
	}
	v.remember(sdk.KindLong, n)
	return n, nil
}

// AsEntityID decodes an entity id reference.
func (v *TypedValue) AsEntityID() (int64, error) {
	if err := v.state.live(); err != nil {
		return 0, err
	}
	if v.cachedKind == sdk.KindRef {
		return v.cachedVal.(int64), nil
	}
	n, err := v.eng.DecodeRef(v.h)
	if err != nil {
		return 0, err
	}
	v.remember(sdk.KindRef, n)
	return n, nil
}

// AsKeyword decodes a keyword value such as ":foo/bar".
func (v *TypedValue) AsKeyword() (string, error) {
	if err := v.state.live(); err != nil {
		return "", err
	}
	if v.cachedKind == sdk.KindKeyword {
		return v.cachedVal.(string), nil
	}
	s, err := v.eng.DecodeKeyword(v.h)
	if err != nil {
		return "", err
	}
	v.remember(sdk.KindKeyword, s)
	return s, nil
}

// AsBool decodes a boolean value.
func (v *TypedValue) AsBool() (bool, error) {
	if err := v.state.live(); err != nil {
		return false, err
	}
	if v.cachedKind == sdk.KindBoolean {
		return v.cachedVal.(bool), nil
	}
	b, err := v.eng.DecodeBoolean(v.h)
	if err != nil {
		return false, err
	}
	v.remember(sdk.KindBoolean, b)
	return b, nil
}

// AsDouble decodes a double value.
func (v *TypedValue) AsDouble() (float64, error) {
	if err := v.state.live(); err != nil {
		return 0, err
	}
	if v.cachedKind == sdk.KindDouble {
		return v.cachedVal.(float64), nil
	}
	f, err := v.eng.DecodeDouble(v.h)
	if err != nil {
		return 0, err
	}
	v.remember(sdk.KindDouble, f)
	return f, nil
}

// AsInstant decodes an instant value. The engine carries instants as
// microseconds since the Unix epoch; the returned time keeps millisecond
// precision, in UTC.
func (v *TypedValue) AsInstant() (time.Time, error) {
	if err := v.state.live(); err != nil {
		return time.Time{}, err
	}
	if v.cachedKind == sdk.KindInstant {
		return v.cachedVal.(time.Time), nil
	}
	micros, err := v.eng.DecodeInstant(v.h)
	if err != nil {
		return time.Time{}, err
	}
	t := time.UnixMilli(micros / 1000).UTC()
	v.remember(sdk.KindInstant, t)
	return t, nil
}

// AsString decodes a string value.
func (v *TypedValue) AsString() (string, error) {
	if err := v.state.live(); err != nil {
		return "", err
	}
	if v.cachedKind == sdk.KindString {
		return v.cachedVal.(string), nil
	}
	s, err := v.eng.DecodeString(v.h)
	if err != nil {
		return "", err
	}
	v.remember(sdk.KindString, s)
	return s, nil
}

// AsUUID decodes a UUID value.
func (v *TypedValue) AsUUID() (uuid.UUID, error) {
	if err := v.state.live(); err != nil {
		return uuid.Nil, err
	}
	if v.cachedKind == sdk.KindUUID {
		return v.cachedVal.(uuid.UUID), nil
	}
	s, err := v.eng.DecodeUUID(v.h)
	if err != nil {
		return uuid.Nil, err
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parsing uuid from engine: %w", err)
	}
	v.remember(sdk.KindUUID, u)
	return u, nil
}

// remember caches a successful decode.
func (v *TypedValue) remember(k sdk.ValueKind, val any) {
	v.cachedKind = k
	v.cachedVal = val
	v.knownKind = k
}

// Close releases the underlying value handle. The first call releases; later
// calls are no-ops.
func (v *TypedValue) Close() error {
	if !v.state.release() {
		return nil
	}
	return v.eng.ReleaseValue(v.h)
}
