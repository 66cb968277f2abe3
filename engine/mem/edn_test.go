package mem

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReader_Forms(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		src  string
		want any
	}{
		{"long", "25", int64(25)},
		{"negative long", "-7", int64(-7)},
		{"double", "11.23", 11.23},
		{"negative double", "-0.5", -0.5},
		{"boolean true", "true", true},
		{"boolean false", "false", false},
		{"string", `"soar"`, "soar"},
		{"string escapes", `"a\"b\n\t\\"`, "a\"b\n\t\\"},
		{"keyword", ":foo/long", keyword(":foo/long")},
		{"symbol", "?e", symbol("?e")},
		{"wildcard", "_", symbol("_")},
		{"ellipsis", "...", symbol("...")},
		{"vector", "[1 2]", vector{int64(1), int64(2)}},
		{"nested vector", "[[?a ?b]]", vector{vector{symbol("?a"), symbol("?b")}}},
		{"list", "(asc ?v)", ednList{symbol("asc"), symbol("?v")}},
		{"map", "{:db/ident :foo/long}", mapLit{{keyword(":db/ident"), keyword(":foo/long")}}},
		{"commas as whitespace", "[1, 2, 3]", vector{int64(1), int64(2), int64(3)}},
		{
			"comment",
			"[1 ; trailing\n 2]",
			vector{int64(1), int64(2)},
		},
		{
			"inst",
			`#inst "2017-01-01T11:00:00Z"`,
			time.Date(2017, 1, 1, 11, 0, 0, 0, time.UTC),
		},
		{
			"uuid",
			`#uuid "550e8400-e29b-41d4-a716-446655440000"`,
			uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newReader(tc.src)
			got, err := r.read()
			if err != nil {
				t.Fatalf("read(%q): %v", tc.src, err)
			}
			if err := r.rest(); err != nil {
				t.Fatalf("rest(%q): %v", tc.src, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("read(%q) = %#v, want %#v", tc.src, got, tc.want)
			}
		})
	}
}

func TestReader_Errors(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unterminated vector", "[1 2"},
		{"unterminated string", `"abc`},
		{"stray close", "]"},
		{"bare colon", ":"},
		{"unknown escape", `"\q"`},
		{"odd map", "{:a}"},
		{"unknown tag", `#date "2017-01-01"`},
		{"malformed inst", `#inst "yesterday"`},
		{"malformed uuid", `#uuid "zzz"`},
		{"tag on non-string", "#inst 5"},
		{"trailing content", "[1] [2]"},
	}

	for _, tc := range tt {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := newReader(tc.src)
			v, err := r.read()
			if err == nil {
				err = r.rest()
			}
			if err == nil {
				t.Fatalf("read(%q) = %#v, want an error", tc.src, v)
			}
		})
	}
}
