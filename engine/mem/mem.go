package mem

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Entid partitions. User entities and transactions are allocated from
// disjoint ranges so a tx id is recognizable on sight.
const (
	firstIdentEntid = 64
	firstUserEntid  = 0x10000
	firstTxEntid    = 0x10000000
)

// Bootstrap attribute entids, seeded into every store.
const (
	entidDBIdent     = 1
	entidDBTxInstant = 3
)

// value is one stored datom value: a kind tag plus the field that kind
// uses. Longs, refs, booleans and instants (microseconds) live in num,
// doubles in f, keywords, strings and uuids in str.
type value struct {
	kind sdk.ValueKind
	num  int64
	f    float64
	str  string
}

func longValue(n int64) value     { return value{kind: sdk.KindLong, num: n} }
func refValue(e int64) value      { return value{kind: sdk.KindRef, num: e} }
func keywordValue(s string) value { return value{kind: sdk.KindKeyword, str: s} }
func doubleValue(f float64) value { return value{kind: sdk.KindDouble, f: f} }
func instantValue(us int64) value { return value{kind: sdk.KindInstant, num: us} }
func stringValue(s string) value  { return value{kind: sdk.KindString, str: s} }
func uuidValue(u uuid.UUID) value { return value{kind: sdk.KindUUID, str: u.String()} }

func boolValue(b bool) value {
	v := value{kind: sdk.KindBoolean}
	if b {
		v.num = 1
	}
	return v
}

func (v value) equal(o value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case sdk.KindDouble:
		return v.f == o.f
	case sdk.KindKeyword, sdk.KindString, sdk.KindUUID:
		return v.str == o.str
	default:
		return v.num == o.num
	}
}

// less orders values of the same kind; across kinds it falls back to the
// kind tag so sorts stay deterministic.
func (v value) less(o value) bool {
	if v.kind != o.kind {
		return v.kind < o.kind
	}
	switch v.kind {
	case sdk.KindDouble:
		return v.f < o.f
	case sdk.KindKeyword, sdk.KindString, sdk.KindUUID:
		return v.str < o.str
	default:
		return v.num < o.num
	}
}

type datom struct {
	e int64
	a int64
	v value
}

type observer struct {
	attrs map[int64]bool
	fn    engine.ObserverFunc
}

// memStore holds one store's datoms, ident table and observers.
type memStore struct {
	datoms    []datom
	idents    map[string]int64
	identOf   map[int64]string
	observers map[string]*observer

	nextIdent int64
	nextUser  int64
	nextTx    int64
}

func newMemStore() *memStore {
	s := &memStore{
		idents:    make(map[string]int64),
		identOf:   make(map[int64]string),
		observers: make(map[string]*observer),
		nextIdent: firstIdentEntid,
		nextUser:  firstUserEntid,
		nextTx:    firstTxEntid,
	}
	s.seedIdent(":db/ident", entidDBIdent)
	s.seedIdent(":db/txInstant", entidDBTxInstant)
	return s
}

func (s *memStore) seedIdent(name string, entid int64) {
	s.idents[name] = entid
	s.identOf[entid] = name
}

// identEntid resolves an attribute ident, allocating an entid on first use.
func (s *memStore) identEntid(name string) int64 {
	if entid, ok := s.idents[name]; ok {
		return entid
	}
	entid := s.nextIdent
	s.nextIdent++
	s.idents[name] = entid
	s.identOf[entid] = name
	return entid
}

// currentValue returns the value of (e, a), scanning newest-first so the
// latest assertion wins.
func (s *memStore) currentValue(e, a int64) (value, bool) {
	for i := len(s.datoms) - 1; i >= 0; i-- {
		d := s.datoms[i]
		if d.e == e && d.a == a {
			return d.v, true
		}
	}
	return value{}, false
}

// assert replaces any existing (e, a) datom with the new value.
func (s *memStore) assert(e, a int64, v value) {
	for i, d := range s.datoms {
		if d.e == e && d.a == a {
			s.datoms[i].v = v
			return
		}
	}
	s.datoms = append(s.datoms, datom{e: e, a: a, v: v})
}

// retract removes the (e, a, v) datom when present.
func (s *memStore) retract(e, a int64, v value) {
	for i, d := range s.datoms {
		if d.e == e && d.a == a && d.v.equal(v) {
			s.datoms = append(s.datoms[:i], s.datoms[i+1:]...)
			return
		}
	}
}

// Engine is an in-memory engine.Engine. The zero value is not usable; create
// one with New.
type Engine struct {
	mu sync.Mutex

	nextHandle uint64
	stores     map[engine.StoreHandle]*memStore
	named      map[string]*memStore
	queries    map[engine.QueryHandle]*preparedQuery
	values     map[engine.ValueHandle]value
	rows       map[engine.RowHandle][]value
	lists      map[engine.ListHandle][]value
	relations  map[engine.RowsHandle][][]value

	now func() time.Time
}

var _ engine.Engine = (*Engine)(nil)

// Option adjusts an Engine during New.
type Option func(*Engine)

// WithClock substitutes the time source used for transaction instants.
// Tests use a fixed clock to make :db/txInstant deterministic.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an empty in-memory engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		stores:    make(map[engine.StoreHandle]*memStore),
		named:     make(map[string]*memStore),
		queries:   make(map[engine.QueryHandle]*preparedQuery),
		values:    make(map[engine.ValueHandle]value),
		rows:      make(map[engine.RowHandle][]value),
		lists:     make(map[engine.ListHandle][]value),
		relations: make(map[engine.RowsHandle][][]value),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// handle allocates the next handle id. Caller holds e.mu.
func (e *Engine) handle() uint64 {
	e.nextHandle++
	return e.nextHandle
}

func (e *Engine) store(h engine.StoreHandle) (*memStore, error) {
	s, ok := e.stores[h]
	if !ok {
		return nil, fmt.Errorf("%w: store %d", engine.ErrUnknownHandle, h)
	}
	return s, nil
}

// Open opens a store. An empty path opens a fresh anonymous store; a named
// path is shared between every open of the same path, which is how daemon
// clients see each other's writes.
func (e *Engine) Open(path string) (engine.StoreHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var s *memStore
	if path == "" {
		s = newMemStore()
	} else {
		s = e.named[path]
		if s == nil {
			s = newMemStore()
			e.named[path] = s
		}
	}
	h := engine.StoreHandle(e.handle())
	e.stores[h] = s
	return h, nil
}

// CloseStore implements engine.Engine. Named stores keep their data for the
// next open; anonymous stores are dropped.
func (e *Engine) CloseStore(h engine.StoreHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.stores[h]; !ok {
		return fmt.Errorf("%w: store %d", engine.ErrUnknownHandle, h)
	}
	delete(e.stores, h)
	return nil
}

// notification is one observer call collected during a transaction and
// delivered after the engine lock is dropped.
type notification struct {
	fn      engine.ObserverFunc
	key     string
	changes []engine.TxChange
}

// commit applies already-resolved datom operations as one transaction.
// Caller holds e.mu. The returned notifications must be delivered after the
// lock is released so observers can call back into the engine.
func (e *Engine) commit(s *memStore, ops []resolvedOp, tempids map[string]int64) (engine.TxReport, []notification) {
	txID := s.nextTx
	s.nextTx++
	instant := e.now().UnixMicro()

	touched := make(map[int64]bool)
	entities := make(map[int64]bool)
	for _, op := range ops {
		if op.retract {
			s.retract(op.e, op.a, op.v)
		} else {
			s.assert(op.e, op.a, op.v)
		}
		touched[op.a] = true
		entities[op.e] = true
	}
	s.assert(txID, entidDBTxInstant, instantValue(instant))

	var entids []int64
	for ent := range entities {
		entids = append(entids, ent)
	}
	sort.Slice(entids, func(i, j int) bool { return entids[i] < entids[j] })

	var notes []notification
	for key, ob := range s.observers {
		hit := false
		for a := range touched {
			if ob.attrs[a] {
				hit = true
				break
			}
		}
		if hit {
			notes = append(notes, notification{
				fn:  ob.fn,
				key: key,
				changes: []engine.TxChange{
					{TxID: txID, Entids: entids},
				},
			})
		}
	}

	report := engine.TxReport{TxID: txID, TxInstant: instant, TempIDs: tempids}
	return report, notes
}

func deliver(notes []notification) {
	for _, n := range notes {
		n.fn(n.key, n.changes)
	}
}

// Transact implements engine.Engine. Transactions are atomic: a rejected
// notation allocates nothing.
func (e *Engine) Transact(h engine.StoreHandle, tx string) (engine.TxReport, error) {
	ops, err := parseTx(tx)
	if err != nil {
		return engine.TxReport{}, err
	}

	e.mu.Lock()
	s, err := e.store(h)
	if err != nil {
		e.mu.Unlock()
		return engine.TxReport{}, err
	}
	resolved, tempids := resolve(s, ops)
	report, notes := e.commit(s, resolved, tempids)
	e.mu.Unlock()

	deliver(notes)
	return report, nil
}

// EntidForAttribute implements engine.Engine.
func (e *Engine) EntidForAttribute(h engine.StoreHandle, attr string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.store(h)
	if err != nil {
		return 0, err
	}
	entid, ok := s.idents[attr]
	if !ok {
		return 0, fmt.Errorf("attribute %s not known", attr)
	}
	return entid, nil
}

// ValueForAttribute implements engine.Engine.
func (e *Engine) ValueForAttribute(h engine.StoreHandle, entid int64, attr string) (engine.ValueHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.store(h)
	if err != nil {
		return 0, false, err
	}
	a, ok := s.idents[attr]
	if !ok {
		return 0, false, fmt.Errorf("attribute %s not known", attr)
	}
	v, ok := s.currentValue(entid, a)
	if !ok {
		return 0, false, nil
	}
	vh := engine.ValueHandle(e.handle())
	e.values[vh] = v
	return vh, true, nil
}

// set asserts one value through the mini-transaction path shared by the
// Set* operations.
func (e *Engine) set(h engine.StoreHandle, entid int64, attr string, v value) error {
	e.mu.Lock()
	s, err := e.store(h)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	a := s.identEntid(attr)
	_, notes := e.commit(s, []resolvedOp{{e: entid, a: a, v: v}}, nil)
	e.mu.Unlock()

	deliver(notes)
	return nil
}

// SetLong implements engine.Engine.
func (e *Engine) SetLong(h engine.StoreHandle, entid int64, attr string, v int64) error {
	return e.set(h, entid, attr, longValue(v))
}

// SetRef implements engine.Engine.
func (e *Engine) SetRef(h engine.StoreHandle, entid int64, attr string, ref int64) error {
	return e.set(h, entid, attr, refValue(ref))
}

// SetRefKeyword implements engine.Engine.
func (e *Engine) SetRefKeyword(h engine.StoreHandle, entid int64, attr string, ident string) error {
	e.mu.Lock()
	s, err := e.store(h)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	ref, ok := s.idents[ident]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("ident %s not known", ident)
	}
	a := s.identEntid(attr)
	_, notes := e.commit(s, []resolvedOp{{e: entid, a: a, v: refValue(ref)}}, nil)
	e.mu.Unlock()

	deliver(notes)
	return nil
}

// SetKeyword implements engine.Engine.
func (e *Engine) SetKeyword(h engine.StoreHandle, entid int64, attr string, kw string) error {
	return e.set(h, entid, attr, keywordValue(kw))
}

// SetBoolean implements engine.Engine.
func (e *Engine) SetBoolean(h engine.StoreHandle, entid int64, attr string, v bool) error {
	return e.set(h, entid, attr, boolValue(v))
}

// SetDouble implements engine.Engine.
func (e *Engine) SetDouble(h engine.StoreHandle, entid int64, attr string, v float64) error {
	return e.set(h, entid, attr, doubleValue(v))
}

// SetInstant implements engine.Engine.
func (e *Engine) SetInstant(h engine.StoreHandle, entid int64, attr string, micros int64) error {
	return e.set(h, entid, attr, instantValue(micros))
}

// SetString implements engine.Engine.
func (e *Engine) SetString(h engine.StoreHandle, entid int64, attr string, v string) error {
	return e.set(h, entid, attr, stringValue(v))
}

// SetUUID implements engine.Engine.
func (e *Engine) SetUUID(h engine.StoreHandle, entid int64, attr string, v string) error {
	u, err := uuid.Parse(v)
	if err != nil {
		return fmt.Errorf("malformed uuid %q: %w", v, err)
	}
	return e.set(h, entid, attr, uuidValue(u))
}

// RegisterObserver implements engine.Engine. Registering an existing key
// replaces its subscription.
func (e *Engine) RegisterObserver(h engine.StoreHandle, key string, attrs []int64, fn engine.ObserverFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.store(h)
	if err != nil {
		return err
	}
	set := make(map[int64]bool, len(attrs))
	for _, a := range attrs {
		set[a] = true
	}
	s.observers[key] = &observer{attrs: set, fn: fn}
	return nil
}

// UnregisterObserver implements engine.Engine.
func (e *Engine) UnregisterObserver(h engine.StoreHandle, key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.store(h)
	if err != nil {
		return err
	}
	if _, ok := s.observers[key]; !ok {
		return fmt.Errorf("observer %s not registered", key)
	}
	delete(s.observers, key)
	return nil
}

// Sync implements engine.Engine. The in-memory engine has nothing to sync
// against.
func (e *Engine) Sync(h engine.StoreHandle, userUUID string, serverURI string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.store(h); err != nil {
		return err
	}
	return fmt.Errorf("%w: sync", engine.ErrNotSupported)
}

// lookupValue fetches a live value handle. Caller holds e.mu.
func (e *Engine) lookupValue(h engine.ValueHandle) (value, error) {
	v, ok := e.values[h]
	if !ok {
		return value{}, fmt.Errorf("%w: value %d", engine.ErrUnknownHandle, h)
	}
	return v, nil
}

// decode fetches a value and checks its kind, wrapping mismatches in
// sdk.ErrTypeMismatch.
func (e *Engine) decode(h engine.ValueHandle, want sdk.ValueKind) (value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookupValue(h)
	if err != nil {
		return value{}, err
	}
	if v.kind != want {
		return value{}, fmt.Errorf("%w: value holds %s, not %s", sdk.ErrTypeMismatch, v.kind, want)
	}
	return v, nil
}

// DecodeLong implements engine.Engine.
func (e *Engine) DecodeLong(h engine.ValueHandle) (int64, error) {
	v, err := e.decode(h, sdk.KindLong)
	if err != nil {
		return 0, err
	}
	return v.num, nil
}

// DecodeRef implements engine.Engine.
func (e *Engine) DecodeRef(h engine.ValueHandle) (int64, error) {
	v, err := e.decode(h, sdk.KindRef)
	if err != nil {
		return 0, err
	}
	return v.num, nil
}

// DecodeKeyword implements engine.Engine.
func (e *Engine) DecodeKeyword(h engine.ValueHandle) (string, error) {
	v, err := e.decode(h, sdk.KindKeyword)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// DecodeBoolean implements engine.Engine.
func (e *Engine) DecodeBoolean(h engine.ValueHandle) (bool, error) {
	v, err := e.decode(h, sdk.KindBoolean)
	if err != nil {
		return false, err
	}
	return v.num != 0, nil
}

// DecodeDouble implements engine.Engine.
func (e *Engine) DecodeDouble(h engine.ValueHandle) (float64, error) {
	v, err := e.decode(h, sdk.KindDouble)
	if err != nil {
		return 0, err
	}
	return v.f, nil
}

// DecodeInstant implements engine.Engine.
func (e *Engine) DecodeInstant(h engine.ValueHandle) (int64, error) {
	v, err := e.decode(h, sdk.KindInstant)
	if err != nil {
		return 0, err
	}
	return v.num, nil
}

// DecodeString implements engine.Engine.
func (e *Engine) DecodeString(h engine.ValueHandle) (string, error) {
	v, err := e.decode(h, sdk.KindString)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// DecodeUUID implements engine.Engine.
func (e *Engine) DecodeUUID(h engine.ValueHandle) (string, error) {
	v, err := e.decode(h, sdk.KindUUID)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

// ValueKind implements engine.Engine.
func (e *Engine) ValueKind(h engine.ValueHandle) (sdk.ValueKind, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, err := e.lookupValue(h)
	if err != nil {
		return sdk.KindInvalid, err
	}
	return v.kind, nil
}

// RowValue implements engine.Engine.
func (e *Engine) RowValue(h engine.RowHandle, i int) (engine.ValueHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[h]
	if !ok {
		return 0, fmt.Errorf("%w: row %d", engine.ErrUnknownHandle, h)
	}
	if i < 0 || i >= len(row) {
		return 0, fmt.Errorf("%w: index %d in a row of %d values", sdk.ErrIndexOutOfRange, i, len(row))
	}
	vh := engine.ValueHandle(e.handle())
	e.values[vh] = row[i]
	return vh, nil
}

// RowLen implements engine.Engine.
func (e *Engine) RowLen(h engine.RowHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[h]
	if !ok {
		return 0, fmt.Errorf("%w: row %d", engine.ErrUnknownHandle, h)
	}
	return len(row), nil
}

// ListValue implements engine.Engine.
func (e *Engine) ListValue(h engine.ListHandle, i int) (engine.ValueHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list, ok := e.lists[h]
	if !ok {
		return 0, fmt.Errorf("%w: list %d", engine.ErrUnknownHandle, h)
	}
	if i < 0 || i >= len(list) {
		return 0, fmt.Errorf("%w: index %d in a list of %d values", sdk.ErrIndexOutOfRange, i, len(list))
	}
	vh := engine.ValueHandle(e.handle())
	e.values[vh] = list[i]
	return vh, nil
}

// ListLen implements engine.Engine.
func (e *Engine) ListLen(h engine.ListHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list, ok := e.lists[h]
	if !ok {
		return 0, fmt.Errorf("%w: list %d", engine.ErrUnknownHandle, h)
	}
	return len(list), nil
}

// RowsRow implements engine.Engine.
func (e *Engine) RowsRow(h engine.RowsHandle, i int) (engine.RowHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rel, ok := e.relations[h]
	if !ok {
		return 0, fmt.Errorf("%w: relation %d", engine.ErrUnknownHandle, h)
	}
	if i < 0 || i >= len(rel) {
		return 0, fmt.Errorf("%w: row %d in a relation of %d rows", sdk.ErrIndexOutOfRange, i, len(rel))
	}
	rh := engine.RowHandle(e.handle())
	e.rows[rh] = rel[i]
	return rh, nil
}

// RowsLen implements engine.Engine.
func (e *Engine) RowsLen(h engine.RowsHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rel, ok := e.relations[h]
	if !ok {
		return 0, fmt.Errorf("%w: relation %d", engine.ErrUnknownHandle, h)
	}
	return len(rel), nil
}

// ReleaseQuery implements engine.Engine.
func (e *Engine) ReleaseQuery(h engine.QueryHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.queries[h]; !ok {
		return fmt.Errorf("%w: query %d", engine.ErrUnknownHandle, h)
	}
	delete(e.queries, h)
	return nil
}

// ReleaseValue implements engine.Engine.
func (e *Engine) ReleaseValue(h engine.ValueHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.values[h]; !ok {
		return fmt.Errorf("%w: value %d", engine.ErrUnknownHandle, h)
	}
	delete(e.values, h)
	return nil
}

// ReleaseRow implements engine.Engine.
func (e *Engine) ReleaseRow(h engine.RowHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.rows[h]; !ok {
		return fmt.Errorf("%w: row %d", engine.ErrUnknownHandle, h)
	}
	delete(e.rows, h)
	return nil
}

// ReleaseList implements engine.Engine.
func (e *Engine) ReleaseList(h engine.ListHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.lists[h]; !ok {
		return fmt.Errorf("%w: list %d", engine.ErrUnknownHandle, h)
	}
	delete(e.lists, h)
	return nil
}

// ReleaseRows implements engine.Engine.
func (e *Engine) ReleaseRows(h engine.RowsHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.relations[h]; !ok {
		return fmt.Errorf("%w: relation %d", engine.ErrUnknownHandle, h)
	}
	delete(e.relations, h)
	return nil
}
