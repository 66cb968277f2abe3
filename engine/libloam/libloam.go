//go:build linux || darwin

package libloam

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
)

// Config controls how the native library is loaded.
type Config struct {
	// SDKConfig carries the shared runtime configuration.
	SDKConfig sdk.RuntimeConfig

	// Path is the name or path handed to the dynamic loader. Empty loads
	// the platform default (libloam.so, or libloam.dylib on darwin) from
	// the loader search path.
	Path string
}

// Engine adapts the Loam native library to engine.Engine. All native calls
// are serialized: loam_errcode and loam_errmsg report the status of the most
// recent call, so a call and its status read must form one critical section.
type Engine struct {
	log *slog.Logger

	mu sync.Mutex

	// Observer routing. The native side delivers callbacks by key only, so
	// keys are engine-global; registering an existing key replaces its
	// route.
	obsMu     sync.Mutex
	observers map[string]engine.ObserverFunc
	cb        uintptr
}

var _ engine.Engine = (*Engine)(nil)

// The library is loaded and its symbols bound once per process. A failed
// load leaves the package unbound so a later New can retry.
var (
	loadMu sync.Mutex
	loaded bool
)

func load(name string) error {
	loadMu.Lock()
	defer loadMu.Unlock()
	if loaded {
		return nil
	}
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	registerLoamFuncs(handle)
	loaded = true
	return nil
}

func defaultLibrary() string {
	if runtime.GOOS == "darwin" {
		return "libloam.dylib"
	}
	return "libloam.so"
}

// New loads the native library and returns an engine backed by it.
func New(config Config) (*Engine, error) {
	name := config.Path
	if name == "" {
		name = defaultLibrary()
	}
	if err := load(name); err != nil {
		return nil, err
	}

	log := config.SDKConfig.Logger
	if log == nil {
		log = sdk.Discard()
	}
	e := &Engine{
		log:       log,
		observers: make(map[string]engine.ObserverFunc),
	}
	e.cb = purego.NewCallback(func(key, changes uintptr) uintptr {
		e.notify(copyCString(key), copyCString(changes))
		return 0
	})

	e.mu.Lock()
	version := copyCString(c_loam_version())
	e.mu.Unlock()
	log.Debug("loam library loaded", "library", name, "version", version)
	return e, nil
}

// statusError maps a non-OK status code to the sentinel the caller can test
// with errors.Is. Plain failures keep the operation name for context.
func statusError(code loamStatusCode, op, msg string) error {
	if msg == "" {
		msg = "no error message"
	}
	switch code {
	case loamTypeMismatch:
		return fmt.Errorf("%w: %s", sdk.ErrTypeMismatch, msg)
	case loamIndexRange:
		return fmt.Errorf("%w: %s", sdk.ErrIndexOutOfRange, msg)
	case loamUnknownHandle:
		return fmt.Errorf("%w: %s", engine.ErrUnknownHandle, msg)
	case loamNotSupported:
		return fmt.Errorf("%w: %s", engine.ErrNotSupported, msg)
	default:
		return fmt.Errorf("%s: %s", op, msg)
	}
}

// lastError reads the library's status slot. Caller holds e.mu and calls it
// immediately after the native call it reports on.
func lastError(op string) error {
	code := loamStatusCode(c_loam_errcode())
	if code == loamOK {
		return nil
	}
	return statusError(code, op, copyCString(c_loam_errmsg()))
}

// do runs one void native call under the engine mutex and returns its
// status.
func (e *Engine) do(op string, call func()) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	call()
	return lastError(op)
}

// Open implements engine.Engine.
func (e *Engine) Open(path string) (engine.StoreHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_store_open(path)
	if err := lastError("open store"); err != nil {
		return 0, err
	}
	return engine.StoreHandle(h), nil
}

// CloseStore implements engine.Engine.
func (e *Engine) CloseStore(store engine.StoreHandle) error {
	return e.do("close store", func() { c_loam_store_close(uint64(store)) })
}

// Transact implements engine.Engine. The library reports the commit as a
// JSON document owned by the caller.
func (e *Engine) Transact(store engine.StoreHandle, tx string) (engine.TxReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := c_loam_transact(uint64(store), tx)
	if err := lastError("transact"); err != nil {
		return engine.TxReport{}, err
	}
	return parseTxReport(takeCString(p))
}

func parseTxReport(s string) (engine.TxReport, error) {
	var raw struct {
		TxID      int64            `json:"txid"`
		TxInstant int64            `json:"tx_instant"`
		TempIDs   map[string]int64 `json:"tempids"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return engine.TxReport{}, fmt.Errorf("malformed tx report: %w", err)
	}
	return engine.TxReport{TxID: raw.TxID, TxInstant: raw.TxInstant, TempIDs: raw.TempIDs}, nil
}

// EntidForAttribute implements engine.Engine.
func (e *Engine) EntidForAttribute(store engine.StoreHandle, attr string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entid := c_loam_entid_for_attribute(uint64(store), attr)
	if err := lastError("entid for attribute"); err != nil {
		return 0, err
	}
	return entid, nil
}

// ValueForAttribute implements engine.Engine. The library returns handle 0
// for an absent attribute.
func (e *Engine) ValueForAttribute(store engine.StoreHandle, entid int64, attr string) (engine.ValueHandle, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h := c_loam_value_for_attribute(uint64(store), entid, attr)
	if err := lastError("value for attribute"); err != nil {
		return 0, false, err
	}
	if h == 0 {
		return 0, false, nil
	}
	return engine.ValueHandle(h), true, nil
}

// SetLong implements engine.Engine.
func (e *Engine) SetLong(store engine.StoreHandle, entid int64, attr string, v int64) error {
	return e.do("set long", func() { c_loam_set_long(uint64(store), entid, attr, v) })
}

// SetRef implements engine.Engine.
func (e *Engine) SetRef(store engine.StoreHandle, entid int64, attr string, ref int64) error {
	return e.do("set ref", func() { c_loam_set_ref(uint64(store), entid, attr, ref) })
}

// SetRefKeyword implements engine.Engine.
func (e *Engine) SetRefKeyword(store engine.StoreHandle, entid int64, attr string, ident string) error {
	return e.do("set ref keyword", func() { c_loam_set_ref_keyword(uint64(store), entid, attr, ident) })
}

// SetKeyword implements engine.Engine.
func (e *Engine) SetKeyword(store engine.StoreHandle, entid int64, attr string, kw string) error {
	return e.do("set keyword", func() { c_loam_set_keyword(uint64(store), entid, attr, kw) })
}

// SetBoolean implements engine.Engine.
func (e *Engine) SetBoolean(store engine.StoreHandle, entid int64, attr string, v bool) error {
	return e.do("set boolean", func() { c_loam_set_boolean(uint64(store), entid, attr, v) })
}

// SetDouble implements engine.Engine.
func (e *Engine) SetDouble(store engine.StoreHandle, entid int64, attr string, v float64) error {
	return e.do("set double", func() { c_loam_set_double(uint64(store), entid, attr, v) })
}

// SetInstant implements engine.Engine.
func (e *Engine) SetInstant(store engine.StoreHandle, entid int64, attr string, micros int64) error {
	return e.do("set instant", func() { c_loam_set_instant(uint64(store), entid, attr, micros) })
}

// SetString implements engine.Engine.
func (e *Engine) SetString(store engine.StoreHandle, entid int64, attr string, v string) error {
	return e.do("set string", func() { c_loam_set_string(uint64(store), entid, attr, v) })
}

// SetUUID implements engine.Engine.
func (e *Engine) SetUUID(store engine.StoreHandle, entid int64, attr string, v string) error {
	return e.do("set uuid", func() { c_loam_set_uuid(uint64(store), entid, attr, v) })
}

// RegisterObserver implements engine.Engine. The native side copies the
// attribute array before returning and delivers callbacks on its own
// notification thread.
func (e *Engine) RegisterObserver(store engine.StoreHandle, key string, attrs []int64, fn engine.ObserverFunc) error {
	e.obsMu.Lock()
	prev, had := e.observers[key]
	e.observers[key] = fn
	e.obsMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	var p unsafe.Pointer
	if len(attrs) > 0 {
		p = unsafe.Pointer(&attrs[0])
	}
	c_loam_register_observer(uint64(store), key, p, uintptr(len(attrs)), e.cb)
	runtime.KeepAlive(attrs)
	if err := lastError("register observer"); err != nil {
		e.obsMu.Lock()
		if had {
			e.observers[key] = prev
		} else {
			delete(e.observers, key)
		}
		e.obsMu.Unlock()
		return err
	}
	return nil
}

// UnregisterObserver implements engine.Engine.
func (e *Engine) UnregisterObserver(store engine.StoreHandle, key string) error {
	if err := e.do("unregister observer", func() { c_loam_unregister_observer(uint64(store), key) }); err != nil {
		return err
	}
	e.obsMu.Lock()
	delete(e.observers, key)
	e.obsMu.Unlock()
	return nil
}

// notify routes one native callback to the function registered under key.
// It runs on the library's notification thread, never under e.mu.
func (e *Engine) notify(key, changesJSON string) {
	e.obsMu.Lock()
	fn := e.observers[key]
	e.obsMu.Unlock()
	if fn == nil {
		return
	}
	changes, err := parseTxChanges(changesJSON)
	if err != nil {
		e.log.Error("observer payload rejected", "key", key, "err", err)
		return
	}
	fn(key, changes)
}

func parseTxChanges(s string) ([]engine.TxChange, error) {
	var raw []struct {
		TxID   int64   `json:"txid"`
		Entids []int64 `json:"entids"`
	}
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("malformed changes: %w", err)
	}
	changes := make([]engine.TxChange, len(raw))
	for i, c := range raw {
		changes[i] = engine.TxChange{TxID: c.TxID, Entids: c.Entids}
	}
	return changes, nil
}

// Sync implements engine.Engine.
func (e *Engine) Sync(store engine.StoreHandle, userUUID string, serverURI string) error {
	return e.do("sync", func() { c_loam_sync(uint64(store), userUUID, serverURI) })
}
