package mem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/loam-project/sdk/engine"
)

type findShape int

const (
	findScalar findShape = iota
	findTuple
	findColl
	findRel
)

func (s findShape) String() string {
	switch s {
	case findScalar:
		return "scalar"
	case findTuple:
		return "tuple"
	case findColl:
		return "collection"
	default:
		return "relation"
	}
}

// term is one position of a where pattern: a variable, a wildcard, or a
// resolved literal.
type term struct {
	variable string
	wild     bool
	lit      value
}

func varTerm(name string) term { return term{variable: name} }
func wildTerm() term           { return term{wild: true} }
func litTerm(v value) term     { return term{lit: v} }

type pattern struct {
	e, a, v term
}

type orderSpec struct {
	variable string
	desc     bool
}

// preparedQuery is one parsed query with its accumulated binds. It is
// handed to the engine by an execute call and evaluated against the store
// it was built on.
type preparedQuery struct {
	s     *memStore
	shape findShape
	find  []string
	in    map[string]bool
	binds map[string]value
	where []pattern
	order *orderSpec
}

// BuildQuery implements engine.Engine.
func (e *Engine) BuildQuery(h engine.StoreHandle, text string) (engine.QueryHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.store(h)
	if err != nil {
		return 0, err
	}
	q, err := parseQuery(s, text)
	if err != nil {
		return 0, err
	}
	qh := engine.QueryHandle(e.handle())
	e.queries[qh] = q
	return qh, nil
}

// parseQuery reads [:find SPEC :in VARS :where CLAUSES :order ORDER],
// resolving attribute keywords against the store as it goes.
func parseQuery(s *memStore, text string) (*preparedQuery, error) {
	r := newReader(text)
	form, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("parsing query: %v", err)
	}
	if err := r.rest(); err != nil {
		return nil, fmt.Errorf("parsing query: %v", err)
	}
	outer, ok := form.(vector)
	if !ok {
		return nil, fmt.Errorf("query is %T, want a vector", form)
	}

	sections, err := splitSections(outer)
	if err != nil {
		return nil, err
	}

	q := &preparedQuery{
		s:     s,
		in:    make(map[string]bool),
		binds: make(map[string]value),
	}

	findForms, ok := sections[":find"]
	if !ok {
		return nil, fmt.Errorf("query has no :find")
	}
	if err := q.parseFind(findForms); err != nil {
		return nil, err
	}

	for _, f := range sections[":in"] {
		name, ok := varName(f)
		if !ok {
			return nil, fmt.Errorf(":in holds %v, want ?variables", f)
		}
		q.in[name] = true
	}

	whereForms, ok := sections[":where"]
	if !ok || len(whereForms) == 0 {
		return nil, fmt.Errorf("query has no :where clauses")
	}
	for _, f := range whereForms {
		p, err := q.parsePattern(f)
		if err != nil {
			return nil, err
		}
		q.where = append(q.where, p)
	}

	if orderForms, ok := sections[":order"]; ok {
		if err := q.parseOrder(orderForms); err != nil {
			return nil, err
		}
	}

	return q, q.validate()
}

// splitSections groups the top-level forms by their leading section
// keyword.
func splitSections(outer vector) (map[string][]any, error) {
	sections := make(map[string][]any)
	current := ""
	for _, f := range outer {
		if kw, ok := f.(keyword); ok {
			switch kw {
			case ":find", ":in", ":where", ":order":
				current = string(kw)
				if _, dup := sections[current]; dup {
					return nil, fmt.Errorf("duplicate %s section", current)
				}
				sections[current] = nil
				continue
			}
		}
		if current == "" {
			return nil, fmt.Errorf("query starts with %v, want :find", f)
		}
		sections[current] = append(sections[current], f)
	}
	return sections, nil
}

func varName(form any) (string, bool) {
	sym, ok := form.(symbol)
	if !ok || len(sym) < 2 || sym[0] != '?' {
		return "", false
	}
	return string(sym), true
}

func (q *preparedQuery) parseFind(forms []any) error {
	if len(forms) == 0 {
		return fmt.Errorf(":find is empty")
	}

	// A single vector is a tuple [?a ?b] or a collection [?v ...].
	if inner, ok := forms[0].(vector); ok {
		if len(forms) != 1 {
			return fmt.Errorf(":find mixes a vector with other forms")
		}
		if len(inner) == 2 {
			if sym, ok := inner[1].(symbol); ok && sym == "..." {
				name, ok := varName(inner[0])
				if !ok {
					return fmt.Errorf("collection find holds %v, want [?v ...]", inner[0])
				}
				q.shape = findColl
				q.find = []string{name}
				return nil
			}
		}
		q.shape = findTuple
		for _, f := range inner {
			name, ok := varName(f)
			if !ok {
				return fmt.Errorf("tuple find holds %v, want ?variables", f)
			}
			q.find = append(q.find, name)
		}
		if len(q.find) == 0 {
			return fmt.Errorf("tuple find is empty")
		}
		return nil
	}

	// Otherwise bare variables: a trailing . marks a scalar.
	scalar := false
	for i, f := range forms {
		if sym, ok := f.(symbol); ok && sym == "." {
			if i != len(forms)-1 {
				return fmt.Errorf(":find holds forms after .")
			}
			scalar = true
			break
		}
		name, ok := varName(f)
		if !ok {
			return fmt.Errorf(":find holds %v, want ?variables", f)
		}
		q.find = append(q.find, name)
	}
	if scalar {
		if len(q.find) != 1 {
			return fmt.Errorf("scalar find names %d variables, want 1", len(q.find))
		}
		q.shape = findScalar
		return nil
	}
	q.shape = findRel
	return nil
}

func (q *preparedQuery) parsePattern(form any) (pattern, error) {
	clause, ok := form.(vector)
	if !ok || len(clause) != 3 {
		return pattern{}, fmt.Errorf("where clause %v, want [e a v]", form)
	}

	e, err := q.parseTerm(clause[0], true)
	if err != nil {
		return pattern{}, err
	}
	a, err := q.parseTerm(clause[1], true)
	if err != nil {
		return pattern{}, err
	}
	v, err := q.parseTerm(clause[2], false)
	if err != nil {
		return pattern{}, err
	}
	return pattern{e: e, a: a, v: v}, nil
}

// parseTerm resolves one pattern position. In the entity and attribute
// positions keywords resolve to entids and longs read as entids; in the
// value position they stay literal values.
func (q *preparedQuery) parseTerm(form any, entityPos bool) (term, error) {
	if sym, ok := form.(symbol); ok {
		if sym == "_" {
			return wildTerm(), nil
		}
		name, ok := varName(form)
		if !ok {
			return term{}, fmt.Errorf("pattern holds symbol %s, want a ?variable, _ or literal", sym)
		}
		return varTerm(name), nil
	}

	if entityPos {
		switch f := form.(type) {
		case int64:
			return litTerm(refValue(f)), nil
		case keyword:
			entid, ok := q.s.idents[string(f)]
			if !ok {
				return term{}, fmt.Errorf("attribute %s not known", f)
			}
			return litTerm(refValue(entid)), nil
		default:
			return term{}, fmt.Errorf("pattern holds %T, want an entid or ident", form)
		}
	}

	v, err := literalValue(form)
	if err != nil {
		return term{}, err
	}
	return litTerm(v), nil
}

func (q *preparedQuery) parseOrder(forms []any) error {
	if len(forms) != 1 {
		return fmt.Errorf(":order holds %d forms, want one", len(forms))
	}

	switch f := forms[0].(type) {
	case symbol:
		name, ok := varName(f)
		if !ok {
			return fmt.Errorf(":order holds %v, want a ?variable", f)
		}
		q.order = &orderSpec{variable: name}
		return nil
	case ednList:
		if len(f) != 2 {
			return fmt.Errorf(":order list holds %d forms, want (asc ?v) or (desc ?v)", len(f))
		}
		dir, ok := f[0].(symbol)
		if !ok || (dir != "asc" && dir != "desc") {
			return fmt.Errorf(":order direction %v, want asc or desc", f[0])
		}
		name, ok := varName(f[1])
		if !ok {
			return fmt.Errorf(":order holds %v, want a ?variable", f[1])
		}
		q.order = &orderSpec{variable: name, desc: dir == "desc"}
		return nil
	default:
		return fmt.Errorf(":order holds %T, want a ?variable or (asc ?v)", forms[0])
	}
}

// validate checks that every find and order variable can be produced by the
// where clauses or an :in bind.
func (q *preparedQuery) validate() error {
	produced := make(map[string]bool)
	for v := range q.in {
		produced[v] = true
	}
	for _, p := range q.where {
		for _, t := range []term{p.e, p.a, p.v} {
			if t.variable != "" {
				produced[t.variable] = true
			}
		}
	}
	for _, v := range q.find {
		if !produced[v] {
			return fmt.Errorf("find variable %s appears in no clause", v)
		}
	}
	if q.order != nil && !produced[q.order.variable] {
		return fmt.Errorf("order variable %s appears in no clause", q.order.variable)
	}
	return nil
}

// bindVar records one :in bind on a prepared query.
func (e *Engine) bindVar(h engine.QueryHandle, name string, v value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queries[h]
	if !ok {
		return fmt.Errorf("%w: query %d", engine.ErrUnknownHandle, h)
	}
	if !q.in[name] {
		return fmt.Errorf("variable %s not in the query's :in", name)
	}
	q.binds[name] = v
	return nil
}

// BindLong implements engine.Engine.
func (e *Engine) BindLong(h engine.QueryHandle, name string, v int64) error {
	return e.bindVar(h, name, longValue(v))
}

// BindRef implements engine.Engine.
func (e *Engine) BindRef(h engine.QueryHandle, name string, ref int64) error {
	return e.bindVar(h, name, refValue(ref))
}

// BindRefKeyword implements engine.Engine.
func (e *Engine) BindRefKeyword(h engine.QueryHandle, name string, ident string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.queries[h]
	if !ok {
		return fmt.Errorf("%w: query %d", engine.ErrUnknownHandle, h)
	}
	entid, known := q.s.idents[ident]
	if !known {
		return fmt.Errorf("ident %s not known", ident)
	}
	if !q.in[name] {
		return fmt.Errorf("variable %s not in the query's :in", name)
	}
	q.binds[name] = refValue(entid)
	return nil
}

// BindKeyword implements engine.Engine.
func (e *Engine) BindKeyword(h engine.QueryHandle, name string, kw string) error {
	return e.bindVar(h, name, keywordValue(kw))
}

// BindBoolean implements engine.Engine.
func (e *Engine) BindBoolean(h engine.QueryHandle, name string, v bool) error {
	return e.bindVar(h, name, boolValue(v))
}

// BindDouble implements engine.Engine.
func (e *Engine) BindDouble(h engine.QueryHandle, name string, v float64) error {
	return e.bindVar(h, name, doubleValue(v))
}

// BindInstant implements engine.Engine.
func (e *Engine) BindInstant(h engine.QueryHandle, name string, micros int64) error {
	return e.bindVar(h, name, instantValue(micros))
}

// BindString implements engine.Engine.
func (e *Engine) BindString(h engine.QueryHandle, name string, v string) error {
	return e.bindVar(h, name, stringValue(v))
}

// BindUUID implements engine.Engine.
func (e *Engine) BindUUID(h engine.QueryHandle, name string, v string) error {
	u, err := uuid.Parse(v)
	if err != nil {
		return fmt.Errorf("malformed uuid %q: %w", v, err)
	}
	return e.bindVar(h, name, uuidValue(u))
}

type binding map[string]value

// matchTerm unifies one pattern position against a concrete value,
// extending the binding when the position is an unbound variable.
func matchTerm(t term, v value, b binding) (binding, bool) {
	if t.wild {
		return b, true
	}
	if t.variable != "" {
		if bound, ok := b[t.variable]; ok {
			return b, bound.equal(v)
		}
		next := make(binding, len(b)+1)
		for k, bv := range b {
			next[k] = bv
		}
		next[t.variable] = v
		return next, true
	}
	return b, t.lit.equal(v)
}

// solve evaluates the where clauses with nested-loop joins, seeding the
// bindings from :in.
func (q *preparedQuery) solve() ([]binding, error) {
	for name := range q.in {
		if _, ok := q.binds[name]; !ok {
			return nil, fmt.Errorf("unbound variable %s", name)
		}
	}

	results := []binding{q.binds}
	for _, p := range q.where {
		var next []binding
		for _, b := range results {
			for _, d := range q.s.datoms {
				b1, ok := matchTerm(p.e, refValue(d.e), b)
				if !ok {
					continue
				}
				b2, ok := matchTerm(p.a, refValue(d.a), b1)
				if !ok {
					continue
				}
				b3, ok := matchTerm(p.v, d.v, b2)
				if !ok {
					continue
				}
				next = append(next, b3)
			}
		}
		results = next
		if len(results) == 0 {
			break
		}
	}

	if q.order != nil {
		o := q.order
		sort.SliceStable(results, func(i, j int) bool {
			vi, vj := results[i][o.variable], results[j][o.variable]
			if o.desc {
				return vj.less(vi)
			}
			return vi.less(vj)
		})
	}
	return results, nil
}

// project maps one solution to the find variables, in find order.
func (q *preparedQuery) project(b binding) []value {
	row := make([]value, len(q.find))
	for i, name := range q.find {
		row[i] = b[name]
	}
	return row
}

// rowKey is a dedup key for set semantics.
func rowKey(row []value) string {
	var sb strings.Builder
	for _, v := range row {
		fmt.Fprintf(&sb, "%d|%d|%g|%s;", v.kind, v.num, v.f, v.str)
	}
	return sb.String()
}

// distinct drops duplicate rows, keeping first-seen order.
func distinct(rows [][]value) [][]value {
	seen := make(map[string]bool, len(rows))
	var out [][]value
	for _, r := range rows {
		k := rowKey(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// takeQuery consumes a prepared query: execute owns the handle on every
// path, success or failure. Caller holds e.mu.
func (e *Engine) takeQuery(h engine.QueryHandle) (*preparedQuery, error) {
	q, ok := e.queries[h]
	if !ok {
		return nil, fmt.Errorf("%w: query %d", engine.ErrUnknownHandle, h)
	}
	delete(e.queries, h)
	return q, nil
}

// run consumes the query, checks the requested shape and evaluates it.
func (e *Engine) run(h engine.QueryHandle, shape findShape) ([][]value, error) {
	q, err := e.takeQuery(h)
	if err != nil {
		return nil, err
	}
	if q.shape != shape {
		return nil, fmt.Errorf("query finds a %s, not a %s", q.shape, shape)
	}
	solutions, err := q.solve()
	if err != nil {
		return nil, err
	}
	rows := make([][]value, 0, len(solutions))
	for _, b := range solutions {
		rows = append(rows, q.project(b))
	}
	return distinct(rows), nil
}

// ExecuteScalar implements engine.Engine.
func (e *Engine) ExecuteScalar(h engine.QueryHandle) (engine.ValueHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.run(h, findScalar)
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	vh := engine.ValueHandle(e.handle())
	e.values[vh] = rows[0][0]
	return vh, true, nil
}

// ExecuteTuple implements engine.Engine.
func (e *Engine) ExecuteTuple(h engine.QueryHandle) (engine.RowHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.run(h, findTuple)
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	rh := engine.RowHandle(e.handle())
	e.rows[rh] = rows[0]
	return rh, true, nil
}

// ExecuteList implements engine.Engine.
func (e *Engine) ExecuteList(h engine.QueryHandle) (engine.ListHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.run(h, findColl)
	if err != nil {
		return 0, err
	}
	list := make([]value, len(rows))
	for i, r := range rows {
		list[i] = r[0]
	}
	lh := engine.ListHandle(e.handle())
	e.lists[lh] = list
	return lh, nil
}

// ExecuteRows implements engine.Engine.
func (e *Engine) ExecuteRows(h engine.QueryHandle) (engine.RowsHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, err := e.run(h, findRel)
	if err != nil {
		return 0, err
	}
	rh := engine.RowsHandle(e.handle())
	e.relations[rh] = rows
	return rh, nil
}
