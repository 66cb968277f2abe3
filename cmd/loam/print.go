package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/query"
	"github.com/loam-project/sdk/store"
)

type findShape int

const (
	shapeRelation findShape = iota
	shapeScalar
	shapeCollection
	shapeTuple
)

// queryShape classifies the find clause of a query so the CLI picks the
// matching execute call. Misclassification is harmless; the engine checks
// the shape again and reports a readable error.
func queryShape(text string) findShape {
	i := strings.Index(text, ":find")
	if i < 0 {
		return shapeRelation
	}
	section := text[i+len(":find"):]
	for _, stop := range []string{":in", ":where", ":order"} {
		if j := strings.Index(section, stop); j >= 0 {
			section = section[:j]
		}
	}
	section = strings.TrimSpace(section)
	switch {
	case strings.HasSuffix(section, "."):
		return shapeScalar
	case strings.HasPrefix(section, "["):
		if strings.Contains(section, "...") {
			return shapeCollection
		}
		return shapeTuple
	default:
		return shapeRelation
	}
}

// renderValue renders one typed value in EDN notation.
func renderValue(v *query.TypedValue) (string, error) {
	kind, err := v.Kind()
	if err != nil {
		return "", err
	}
	switch kind {
	case sdk.KindLong:
		n, err := v.AsLong()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case sdk.KindRef:
		entid, err := v.AsEntityID()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(entid, 10), nil
	case sdk.KindKeyword:
		kw, err := v.AsKeyword()
		if err != nil {
			return "", err
		}
		return kw, nil
	case sdk.KindBoolean:
		b, err := v.AsBool()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil
	case sdk.KindDouble:
		f, err := v.AsDouble()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case sdk.KindInstant:
		ts, err := v.AsInstant()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#inst %q", ts.Format(time.RFC3339Nano)), nil
	case sdk.KindString:
		s, err := v.AsString()
		if err != nil {
			return "", err
		}
		return strconv.Quote(s), nil
	case sdk.KindUUID:
		u, err := v.AsUUID()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("#uuid %q", u), nil
	default:
		return "", fmt.Errorf("value holds no renderable kind")
	}
}

// formatValue is renderValue with errors folded into the output, for spots
// where a partial row is better than none.
func formatValue(v *query.TypedValue) string {
	s, err := renderValue(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}

// formatRow renders a row's values tab-separated. The values it produces
// stay owned by the row.
func formatRow(r *query.Row) (string, error) {
	parts := make([]string, r.Len())
	for i := 0; i < r.Len(); i++ {
		v, err := r.Get(i)
		if err != nil {
			return "", err
		}
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, "\t"), nil
}

// executeAndPrint runs one query with the execute shape its find clause
// asks for and prints the result to out.
func executeAndPrint(st *store.Store, text string, out io.Writer) error {
	switch queryShape(text) {
	case shapeScalar:
		return st.Query(text).ExecuteScalar(func(v *query.TypedValue) error {
			if v == nil {
				fmt.Fprintln(out, "(no result)")
				return nil
			}
			fmt.Fprintln(out, formatValue(v))
			return nil
		})
	case shapeTuple:
		return st.Query(text).ExecuteTuple(func(r *query.Row) error {
			if r == nil {
				fmt.Fprintln(out, "(no result)")
				return nil
			}
			line, err := formatRow(r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, line)
			return nil
		})
	case shapeCollection:
		return st.Query(text).ExecuteList(func(l *query.List) error {
			if l.Len() == 0 {
				fmt.Fprintln(out, "(no results)")
				return nil
			}
			it := l.Iter()
			for it.Next() {
				fmt.Fprintln(out, formatValue(it.Value()))
			}
			return it.Err()
		})
	default:
		return st.Query(text).ExecuteRows(func(rows *query.Rows) error {
			if rows.Len() == 0 {
				fmt.Fprintln(out, "(no results)")
				return nil
			}
			it := rows.Iter()
			for it.Next() {
				line, err := formatRow(it.Row())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, line)
			}
			return it.Err()
		})
	}
}
