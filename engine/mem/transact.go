package mem

import (
	"fmt"
)

// txOp is one validated transaction entry before resolution: the entity
// position still holds an entid, tempid string or ident keyword.
type txOp struct {
	retract bool
	e       any
	attr    string
	v       value
}

// resolvedOp is one assertion or retraction with every position resolved to
// a concrete entid or value, ready to apply.
type resolvedOp struct {
	retract bool
	e       int64
	a       int64
	v       value
}

// parseTx reads and fully validates a transaction without touching the
// store. Transactions are atomic: nothing may allocate until the whole
// notation is known to be well-formed, so a rejected transaction leaves no
// trace.
func parseTx(tx string) ([]txOp, error) {
	r := newReader(tx)
	form, err := r.read()
	if err != nil {
		return nil, fmt.Errorf("parsing transaction: %v", err)
	}
	if err := r.rest(); err != nil {
		return nil, fmt.Errorf("parsing transaction: %v", err)
	}
	entries, ok := form.(vector)
	if !ok {
		return nil, fmt.Errorf("transaction is %T, want a vector of entries", form)
	}

	var ops []txOp
	for i, entry := range entries {
		switch entry := entry.(type) {
		case vector:
			op, err := parseAssertion(entry)
			if err != nil {
				return nil, fmt.Errorf("transaction entry %d: %v", i, err)
			}
			ops = append(ops, op)
		case mapLit:
			mapOps, err := parseMapEntry(entry, i)
			if err != nil {
				return nil, fmt.Errorf("transaction entry %d: %v", i, err)
			}
			ops = append(ops, mapOps...)
		default:
			return nil, fmt.Errorf("transaction entry %d is %T, want a vector or map", i, entry)
		}
	}
	return ops, nil
}

// parseAssertion validates one [:db/add e a v] / [:db/retract e a v] entry.
func parseAssertion(entry vector) (txOp, error) {
	if len(entry) != 4 {
		return txOp{}, fmt.Errorf("entry has %d forms, want [op e a v]", len(entry))
	}

	var op txOp
	switch kw, _ := entry[0].(keyword); kw {
	case ":db/add":
	case ":db/retract":
		op.retract = true
	default:
		return txOp{}, fmt.Errorf("entry op is %v, want :db/add or :db/retract", entry[0])
	}

	switch entry[1].(type) {
	case int64, string, keyword:
		op.e = entry[1]
	default:
		return txOp{}, fmt.Errorf("entity position holds %T, want an entid, tempid or ident", entry[1])
	}

	attr, ok := entry[2].(keyword)
	if !ok {
		return txOp{}, fmt.Errorf("attribute position holds %T, want a keyword", entry[2])
	}
	op.attr = string(attr)

	v, err := literalValue(entry[3])
	if err != nil {
		return txOp{}, err
	}
	op.v = v
	return op, nil
}

// anonEntity marks the ops of one {...} map entry without :db/ident; each
// such map gets its own fresh entity, keyed by the entry's index.
type anonEntity int

// parseMapEntry validates a {:db/ident :ns/name ...} map: the ident names
// the entity and every other pair asserts on it. A map without :db/ident
// asserts on a fresh entity.
func parseMapEntry(entry mapLit, index int) ([]txOp, error) {
	var entity any = anonEntity(index)
	for _, kv := range entry {
		if k, ok := kv[0].(keyword); ok && k == ":db/ident" {
			name, ok := kv[1].(keyword)
			if !ok {
				return nil, fmt.Errorf(":db/ident holds %T, want a keyword", kv[1])
			}
			entity = name
		}
	}

	var ops []txOp
	for _, kv := range entry {
		k, ok := kv[0].(keyword)
		if !ok {
			return nil, fmt.Errorf("map key is %T, want a keyword", kv[0])
		}
		v, err := literalValue(kv[1])
		if err != nil {
			return nil, fmt.Errorf("value for %s: %v", k, err)
		}
		ops = append(ops, txOp{e: entity, attr: string(k), v: v})
	}
	return ops, nil
}

// resolve turns validated ops into applicable ones, allocating tempids and
// attribute entids as needed. It cannot fail; all validation happened in
// parseTx. The caller holds the engine lock.
func resolve(s *memStore, ops []txOp) ([]resolvedOp, map[string]int64) {
	tempids := make(map[string]int64)
	tempid := func(name string) int64 {
		if entid, ok := tempids[name]; ok {
			return entid
		}
		entid := s.nextUser
		s.nextUser++
		tempids[name] = entid
		return entid
	}

	anons := make(map[anonEntity]int64)

	resolved := make([]resolvedOp, 0, len(ops))
	for _, op := range ops {
		var e int64
		switch ent := op.e.(type) {
		case int64:
			e = ent
		case string:
			e = tempid(ent)
		case keyword:
			e = s.identEntid(string(ent))
		case anonEntity:
			var ok bool
			if e, ok = anons[ent]; !ok {
				e = s.nextUser
				s.nextUser++
				anons[ent] = e
			}
		}
		resolved = append(resolved, resolvedOp{
			retract: op.retract,
			e:       e,
			a:       s.identEntid(op.attr),
			v:       op.v,
		})
	}

	if len(tempids) == 0 {
		tempids = nil
	}
	return resolved, tempids
}
