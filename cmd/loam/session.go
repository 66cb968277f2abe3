package main

import (
	"fmt"
	"os"

	"github.com/loam-project/sdk/engine/mem"
	"github.com/loam-project/sdk/engine/remote"
	"github.com/loam-project/sdk/store"
)

// session is one open store plus the connection carrying it, if any.
type session struct {
	st   *store.Store
	conn *remote.Conn
}

// openSession connects per the global flags: a daemon socket by default, a
// throwaway in-process engine with --mem. With --mem, --db names an EDN
// file transacted into the fresh store before the session starts.
func openSession(globals GlobalFlags) (*session, error) {
	if globals.Mem {
		st, err := store.Open(store.Config{Engine: mem.New()})
		if err != nil {
			return nil, err
		}
		if globals.DB != "" {
			data, err := os.ReadFile(globals.DB)
			if err != nil {
				st.Close()
				return nil, fmt.Errorf("read seed file: %w", err)
			}
			if _, err := st.Transact(string(data)); err != nil {
				st.Close()
				return nil, fmt.Errorf("seed %s: %w", globals.DB, err)
			}
		}
		return &session{st: st}, nil
	}

	socket := globals.Socket
	if socket == "" {
		socket = remote.DefaultSocketPath()
	}
	conn, err := remote.Dial(socket)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(store.Config{Engine: conn.Engine(), Path: globals.DB})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &session{st: st, conn: conn}, nil
}

// Close releases the store and drops the connection.
func (s *session) Close() {
	_ = s.st.Close()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}
