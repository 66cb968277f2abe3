package mem

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// The transaction and query notations are EDN. This reader covers the
// subset the engine speaks: vectors, lists, maps, keywords, symbols,
// strings, longs, doubles, booleans, and the #inst / #uuid tagged literals.
//
// Forms are read into plain Go values: vector/ednList/mapLit for the
// collections, keyword/symbol for names, and int64/float64/bool/string/
// time.Time/uuid.UUID for literals.

type keyword string

type symbol string

type vector []any

type ednList []any

// mapLit keeps map entries in source order; the engine never needs keyed
// lookup on EDN maps.
type mapLit [][2]any

type ednReader struct {
	src string
	pos int
}

func newReader(src string) *ednReader {
	return &ednReader{src: src}
}

// read consumes one form.
func (r *ednReader) read() (any, error) {
	r.skipSpace()
	if r.pos >= len(r.src) {
		return nil, fmt.Errorf("unexpected end of input at offset %d", r.pos)
	}

	switch c := r.src[r.pos]; {
	case c == '[':
		r.pos++
		items, err := r.readSeq(']')
		return vector(items), err
	case c == '(':
		r.pos++
		items, err := r.readSeq(')')
		return ednList(items), err
	case c == '{':
		r.pos++
		return r.readMap()
	case c == ']' || c == ')' || c == '}':
		return nil, fmt.Errorf("unexpected %q at offset %d", c, r.pos)
	case c == '"':
		return r.readString()
	case c == ':':
		return r.readKeyword()
	case c == '#':
		return r.readTagged()
	case c == '-' || (c >= '0' && c <= '9'):
		return r.readNumber()
	case isSymbolChar(c):
		return r.readSymbol()
	default:
		return nil, fmt.Errorf("unexpected %q at offset %d", c, r.pos)
	}
}

// rest verifies nothing but whitespace follows the last form.
func (r *ednReader) rest() error {
	r.skipSpace()
	if r.pos < len(r.src) {
		return fmt.Errorf("trailing content at offset %d", r.pos)
	}
	return nil
}

// skipSpace consumes whitespace, commas and ; comments.
func (r *ednReader) skipSpace() {
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			r.pos++
		case c == ';':
			for r.pos < len(r.src) && r.src[r.pos] != '\n' {
				r.pos++
			}
		default:
			return
		}
	}
}

func (r *ednReader) readSeq(end byte) ([]any, error) {
	var items []any
	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, fmt.Errorf("unterminated sequence, expected %q", end)
		}
		if r.src[r.pos] == end {
			r.pos++
			return items, nil
		}
		item, err := r.read()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (r *ednReader) readMap() (mapLit, error) {
	items, err := r.readSeq('}')
	if err != nil {
		return nil, err
	}
	if len(items)%2 != 0 {
		return nil, fmt.Errorf("map literal with %d forms, want key-value pairs", len(items))
	}
	m := make(mapLit, 0, len(items)/2)
	for i := 0; i < len(items); i += 2 {
		m = append(m, [2]any{items[i], items[i+1]})
	}
	return m, nil
}

func (r *ednReader) readString() (string, error) {
	start := r.pos
	r.pos++ // opening quote
	var b strings.Builder
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		switch c {
		case '"':
			r.pos++
			return b.String(), nil
		case '\\':
			r.pos++
			if r.pos >= len(r.src) {
				return "", fmt.Errorf("unterminated string at offset %d", start)
			}
			switch esc := r.src[r.pos]; esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return "", fmt.Errorf("unknown escape \\%c at offset %d", esc, r.pos)
			}
			r.pos++
		default:
			b.WriteByte(c)
			r.pos++
		}
	}
	return "", fmt.Errorf("unterminated string at offset %d", start)
}

func (r *ednReader) readKeyword() (keyword, error) {
	start := r.pos
	r.pos++ // leading colon
	for r.pos < len(r.src) && isSymbolChar(r.src[r.pos]) {
		r.pos++
	}
	if r.pos == start+1 {
		return "", fmt.Errorf("bare colon at offset %d", start)
	}
	return keyword(r.src[start:r.pos]), nil
}

func (r *ednReader) readSymbol() (any, error) {
	start := r.pos
	for r.pos < len(r.src) && isSymbolChar(r.src[r.pos]) {
		r.pos++
	}
	s := r.src[start:r.pos]
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return symbol(s), nil
}

func (r *ednReader) readNumber() (any, error) {
	start := r.pos
	if r.src[r.pos] == '-' {
		r.pos++
	}
	double := false
	for r.pos < len(r.src) {
		c := r.src[r.pos]
		if c >= '0' && c <= '9' {
			r.pos++
			continue
		}
		if c == '.' && !double {
			double = true
			r.pos++
			continue
		}
		break
	}
	s := r.src[start:r.pos]
	if double {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed double %q at offset %d", s, start)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed long %q at offset %d", s, start)
	}
	return n, nil
}

func (r *ednReader) readTagged() (any, error) {
	start := r.pos
	r.pos++ // leading hash
	tagStart := r.pos
	for r.pos < len(r.src) && isSymbolChar(r.src[r.pos]) {
		r.pos++
	}
	tag := r.src[tagStart:r.pos]

	form, err := r.read()
	if err != nil {
		return nil, err
	}
	s, ok := form.(string)
	if !ok {
		return nil, fmt.Errorf("#%s expects a string literal at offset %d", tag, start)
	}

	switch tag {
	case "inst":
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("malformed #inst %q: %v", s, err)
		}
		return t, nil
	case "uuid":
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("malformed #uuid %q: %v", s, err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("unknown tag #%s at offset %d", tag, start)
	}
}

func isSymbolChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	switch c {
	case '*', '+', '!', '-', '_', '?', '$', '%', '&', '=', '<', '>', '.', '/':
		return true
	}
	return false
}

// literalValue converts an EDN literal form to a stored value. Symbols,
// collections and tempid-position forms are not literals here.
func literalValue(form any) (value, error) {
	switch v := form.(type) {
	case int64:
		return longValue(v), nil
	case float64:
		return doubleValue(v), nil
	case bool:
		return boolValue(v), nil
	case string:
		return stringValue(v), nil
	case keyword:
		return keywordValue(string(v)), nil
	case time.Time:
		return instantValue(v.UnixMicro()), nil
	case uuid.UUID:
		return uuidValue(v), nil
	default:
		return value{}, fmt.Errorf("unsupported literal %T", form)
	}
}
