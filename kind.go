package sdk

// ValueKind identifies which of the transferable kinds a typed value holds.
type ValueKind int

const (
	// KindInvalid is the zero value; no real value reports it.
	KindInvalid ValueKind = iota

	// KindLong is a 64-bit signed integer.
	KindLong

	// KindRef is an entity id reference.
	KindRef

	// KindKeyword is a datalog keyword such as :foo/bar.
	KindKeyword

	// KindBoolean is a boolean.
	KindBoolean

	// KindDouble is a 64-bit float.
	KindDouble

	// KindInstant is a point in time with millisecond precision.
	KindInstant

	// KindString is a string.
	KindString

	// KindUUID is a universally unique identifier.
	KindUUID
)

// String returns the kind name used in diagnostics and wire frames.
func (k ValueKind) String() string {
	switch k {
	case KindLong:
		return "long"
	case KindRef:
		return "ref"
	case KindKeyword:
		return "keyword"
	case KindBoolean:
		return "boolean"
	case KindDouble:
		return "double"
	case KindInstant:
		return "instant"
	case KindString:
		return "string"
	case KindUUID:
		return "uuid"
	default:
		return "invalid"
	}
}

// KindFromString maps a kind name back to its ValueKind. Unknown names map
// to KindInvalid.
func KindFromString(s string) ValueKind {
	switch s {
	case "long":
		return KindLong
	case "ref":
		return KindRef
	case "keyword":
		return KindKeyword
	case "boolean":
		return KindBoolean
	case "double":
		return KindDouble
	case "instant":
		return KindInstant
	case "string":
		return KindString
	case "uuid":
		return KindUUID
	default:
		return KindInvalid
	}
}
