package remote

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/loam-project/sdk/engine/wire"
)

// DefaultSocketPath returns the socket path a loamd daemon serves on when
// not configured otherwise.
func DefaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/loamd.sock"
	}
	return filepath.Join(home, ".loam", "loamd.sock")
}

// Conn is one client connection to a loamd daemon. It keeps a single
// request in flight at a time; concurrent engine calls are serialized on
// the connection.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader
	eng    *wire.Client

	mu     sync.Mutex
	closed bool
}

// Dial connects to the daemon at socketPath.
func Dial(socketPath string) (*Conn, error) {
	nc, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect to loamd at %s: %w", socketPath, err)
	}

	c := &Conn{conn: nc, reader: bufio.NewReader(nc)}
	c.eng, err = wire.NewClient(c.roundTrip)
	if err != nil {
		nc.Close()
		return nil, err
	}
	return c, nil
}

// Engine returns the connection as an engine.Engine for store.Open.
func (c *Conn) Engine() *wire.Client { return c.eng }

// Ping checks that the daemon answers.
func (c *Conn) Ping() error { return c.eng.Ping() }

// Close disconnects from the daemon. Stores opened through the connection
// become unusable; the daemon reclaims their resources when it notices the
// disconnect or shuts down.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// roundTrip writes one newline-delimited JSON frame and reads the answer.
func (c *Conn) roundTrip(req wire.Request) (wire.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return wire.Response{}, errors.New("connection is closed")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return wire.Response{}, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := fmt.Fprintf(c.conn, "%s\n", data); err != nil {
		return wire.Response{}, fmt.Errorf("send request: %w", err)
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return wire.Response{}, fmt.Errorf("read response: %w", err)
	}
	var resp wire.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return wire.Response{}, fmt.Errorf("unmarshal response: %w", err)
	}
	return resp, nil
}
