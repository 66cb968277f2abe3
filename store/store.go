package store

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/query"
)

var (
	// ErrEngineNil is returned by Open when no engine was provided.
	ErrEngineNil = errors.New("engine is nil")
)

// Config controls how a Store attaches to an engine.
type Config struct {
	// SDKConfig carries runtime settings shared across clients, notably
	// the logger.
	SDKConfig sdk.RuntimeConfig

	// Engine is the engine the store runs against. Required.
	Engine engine.Engine

	// Path names the store to open. Engines decide what a path means: a
	// filesystem location for embedded engines, an identifier for remote
	// ones. Empty opens an in-memory store on engines that support one.
	Path string
}

// Store is a handle to one open store. All reads and writes go through it:
// assertions via Transact and the Set helpers, queries via Query, change
// notifications via observers.
//
// A Store is safe for concurrent use. Close releases the underlying engine
// store exactly once; every operation after Close fails with
// sdk.ErrReleased.
type Store struct {
	eng engine.Engine
	h   engine.StoreHandle
	log *slog.Logger

	mu       sync.Mutex
	released bool
}

// TxReport describes one committed transaction.
type TxReport struct {
	rep engine.TxReport
}

// TxID returns the entid of the transaction itself.
func (r *TxReport) TxID() int64 { return r.rep.TxID }

// TxInstant returns when the transaction committed, in UTC with millisecond
// precision.
func (r *TxReport) TxInstant() time.Time {
	return time.UnixMilli(r.rep.TxInstant / 1000).UTC()
}

// EntidForTempID resolves a tempid used in the transaction to the entid it
// was allocated.
func (r *TxReport) EntidForTempID(tempid string) (int64, bool) {
	entid, ok := r.rep.TempIDs[tempid]
	return entid, ok
}

// Open opens a store on the configured engine.
func Open(config Config) (*Store, error) {
	if config.Engine == nil {
		return nil, ErrEngineNil
	}

	log := config.SDKConfig.Logger
	if log == nil {
		log = sdk.Discard()
	}

	h, err := config.Engine.Open(config.Path)
	if err != nil {
		log.Error("store open failed", "path", config.Path, "error", err)
		return nil, errors.Join(sdk.ErrEngineFailure, err)
	}

	log.Debug("store opened", "path", config.Path)
	return &Store{eng: config.Engine, h: h, log: log}, nil
}

// live returns nil while the store is still open.
func (s *Store) live() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return sdk.ErrReleased
	}
	return nil
}

// engineErr logs and classifies an engine failure.
func (s *Store) engineErr(op string, err error) error {
	s.log.Error("store operation failed", "op", op, "error", err)
	return errors.Join(sdk.ErrEngineFailure, err)
}

// Transact commits a transaction written in the engine's transaction
// notation and reports what it did.
func (s *Store) Transact(tx string) (*TxReport, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	rep, err := s.eng.Transact(s.h, tx)
	if err != nil {
		return nil, s.engineErr("transact", err)
	}
	s.log.Debug("transaction committed", "tx_id", rep.TxID)
	return &TxReport{rep: rep}, nil
}

// Query prepares a query for one execution. Preparation failures surface
// from the returned builder, so call sites stay fluent:
//
//	err := s.Query(`[:find ?v . :in ?e :where [?e :foo/long ?v]]`).
//		BindRef("?e", entid).
//		ExecuteScalar(func(v *query.TypedValue) error { ... })
func (s *Store) Query(q string) *query.Builder {
	if err := s.live(); err != nil {
		return query.Errored(err)
	}
	return query.Build(s.eng, s.h, q, query.WithLogger(s.log))
}

// EntidForAttribute resolves an attribute ident such as ":foo/long" to its
// entid.
func (s *Store) EntidForAttribute(attr string) (int64, error) {
	if err := s.live(); err != nil {
		return 0, err
	}
	entid, err := s.eng.EntidForAttribute(s.h, attr)
	if err != nil {
		return 0, s.engineErr("entid_for_attribute", err)
	}
	return entid, nil
}

// ValueForAttribute returns the current value of attr on the entity, or nil
// when the entity has no value for it. The caller closes a returned value.
func (s *Store) ValueForAttribute(entid int64, attr string) (*query.TypedValue, error) {
	if err := s.live(); err != nil {
		return nil, err
	}
	vh, ok, err := s.eng.ValueForAttribute(s.h, entid, attr)
	if err != nil {
		return nil, s.engineErr("value_for_attribute", err)
	}
	if !ok {
		return nil, nil
	}
	return query.NewValue(s.eng, vh), nil
}

// SetLong asserts a long value for attr on the entity.
func (s *Store) SetLong(entid int64, attr string, v int64) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetLong(s.h, entid, attr, v); err != nil {
		return s.engineErr("set_long", err)
	}
	return nil
}

// SetRef asserts an entity id reference for attr on the entity.
func (s *Store) SetRef(entid int64, attr string, ref int64) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetRef(s.h, entid, attr, ref); err != nil {
		return s.engineErr("set_ref", err)
	}
	return nil
}

// SetRefKeyword asserts a reference for attr on the entity, naming the
// referent by its ident.
func (s *Store) SetRefKeyword(entid int64, attr string, ident string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetRefKeyword(s.h, entid, attr, ident); err != nil {
		return s.engineErr("set_ref_keyword", err)
	}
	return nil
}

// SetKeyword asserts a keyword value for attr on the entity.
func (s *Store) SetKeyword(entid int64, attr string, kw string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetKeyword(s.h, entid, attr, kw); err != nil {
		return s.engineErr("set_keyword", err)
	}
	return nil
}

// SetBool asserts a boolean value for attr on the entity.
func (s *Store) SetBool(entid int64, attr string, v bool) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetBoolean(s.h, entid, attr, v); err != nil {
		return s.engineErr("set_boolean", err)
	}
	return nil
}

// SetDouble asserts a double value for attr on the entity.
func (s *Store) SetDouble(entid int64, attr string, v float64) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetDouble(s.h, entid, attr, v); err != nil {
		return s.engineErr("set_double", err)
	}
	return nil
}

// SetInstant asserts a point in time for attr on the entity. The instant
// crosses the boundary as microseconds; precision beyond a millisecond is
// dropped.
func (s *Store) SetInstant(entid int64, attr string, t time.Time) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetInstant(s.h, entid, attr, t.UnixMilli()*1000); err != nil {
		return s.engineErr("set_instant", err)
	}
	return nil
}

// SetString asserts a string value for attr on the entity.
func (s *Store) SetString(entid int64, attr string, v string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetString(s.h, entid, attr, v); err != nil {
		return s.engineErr("set_string", err)
	}
	return nil
}

// SetUUID asserts a UUID value for attr on the entity.
func (s *Store) SetUUID(entid int64, attr string, v uuid.UUID) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.SetUUID(s.h, entid, attr, v.String()); err != nil {
		return s.engineErr("set_uuid", err)
	}
	return nil
}

// RegisterObserver subscribes fn to transactions touching any of the given
// attribute entids. The key names the subscription for UnregisterObserver.
// Engines invoke fn on their own goroutine; fn must not block.
func (s *Store) RegisterObserver(key string, attrEntids []int64, fn engine.ObserverFunc) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.RegisterObserver(s.h, key, attrEntids, fn); err != nil {
		return s.engineErr("register_observer", err)
	}
	s.log.Debug("observer registered", "key", key)
	return nil
}

// UnregisterObserver drops the subscription registered under key.
func (s *Store) UnregisterObserver(key string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.UnregisterObserver(s.h, key); err != nil {
		return s.engineErr("unregister_observer", err)
	}
	s.log.Debug("observer unregistered", "key", key)
	return nil
}

// Sync synchronizes the store against a remote server.
func (s *Store) Sync(userUUID uuid.UUID, serverURI string) error {
	if err := s.live(); err != nil {
		return err
	}
	if err := s.eng.Sync(s.h, userUUID.String(), serverURI); err != nil {
		return s.engineErr("sync", err)
	}
	return nil
}

// Close releases the store. The first call releases; later calls are
// no-ops.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.mu.Unlock()

	if err := s.eng.CloseStore(s.h); err != nil {
		return errors.Join(sdk.ErrEngineFailure, err)
	}
	s.log.Debug("store closed")
	return nil
}
