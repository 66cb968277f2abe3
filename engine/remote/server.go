package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	sdk "github.com/loam-project/sdk"
	"github.com/loam-project/sdk/engine"
	"github.com/loam-project/sdk/engine/wire"
)

const (
	// DefaultMaxConnections bounds concurrent connection handlers.
	DefaultMaxConnections = 64

	// maxFrame is the largest request frame a server reads. Transact
	// bodies dominate frame size.
	maxFrame = 10 * 1024 * 1024
)

// Server serves an engine to remote clients, one frame at a time per
// connection. All connections share the engine, so handles issued to one
// client are visible to the others; clients are expected to keep their own.
type Server struct {
	eng      engine.Engine
	log      *slog.Logger
	maxConns int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger directs server logs to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxConnections caps concurrent connection handlers.
func WithMaxConnections(n int) Option {
	return func(s *Server) { s.maxConns = n }
}

// NewServer builds a server for eng.
func NewServer(eng engine.Engine, opts ...Option) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine is nil")
	}
	s := &Server{eng: eng, log: sdk.Discard(), maxConns: DefaultMaxConnections}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxConns < 1 {
		return nil, fmt.Errorf("max connections %d, want at least 1", s.maxConns)
	}
	return s, nil
}

// Listen prepares a unix socket at path, replacing a stale socket file and
// restricting it to the owner.
func Listen(path string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}

// Serve accepts connections on ln until ctx is cancelled. Each connection
// runs a decode, dispatch, encode loop on a pooled handler. On shutdown it
// closes active connections and waits for their handlers to drain.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	pool, err := ants.NewPool(s.maxConns, ants.WithPanicHandler(func(v any) {
		s.log.Error("connection handler panicked", "panic", v)
	}))
	if err != nil {
		return fmt.Errorf("create handler pool: %w", err)
	}
	defer func() { _ = pool.ReleaseTimeout(3 * time.Second) }()

	var (
		wg     sync.WaitGroup
		connMu sync.Mutex
		conns  = make(map[net.Conn]struct{})
	)

	go func() {
		<-ctx.Done()
		ln.Close()
		connMu.Lock()
		for c := range conns {
			c.Close()
		}
		connMu.Unlock()
	}()

	s.log.Info("serving engine", "addr", ln.Addr())

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				done := make(chan struct{})
				go func() { wg.Wait(); close(done) }()
				select {
				case <-done:
				case <-time.After(5 * time.Second):
					s.log.Warn("shutdown timed out waiting for handlers")
				}
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}

		connMu.Lock()
		conns[conn] = struct{}{}
		connMu.Unlock()

		wg.Add(1)
		err = pool.Submit(func() {
			defer wg.Done()
			s.handleConn(conn)
			connMu.Lock()
			delete(conns, conn)
			connMu.Unlock()
		})
		if err != nil {
			wg.Done()
			conn.Close()
			connMu.Lock()
			delete(conns, conn)
			connMu.Unlock()
			s.log.Error("refusing connection", "err", err)
		}
	}
}

// handleConn answers frames from one client until it disconnects.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	s.log.Debug("client connected", "remote", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 64*1024), maxFrame)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req wire.Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.writeResponse(conn, wire.Response{
				Code:  wire.CodeFailure,
				Error: fmt.Sprintf("invalid request: %v", err),
			})
			continue
		}
		s.writeResponse(conn, wire.Dispatch(s.eng, req))
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Debug("connection read failed", "err", err)
	}
	s.log.Debug("client disconnected", "remote", conn.RemoteAddr())
}

func (s *Server) writeResponse(conn net.Conn, resp wire.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", "err", err)
		return
	}
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		s.log.Debug("write response", "err", err)
	}
}
