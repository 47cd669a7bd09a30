package socketrpc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tinytelemetry/hllstatus/internal/model"
)

const (
	dialTimeout = 5 * time.Second
	callTimeout = 30 * time.Second
)

// Client implements model.StatusSource over a Unix domain socket using
// JSON-RPC 2.0. A connection broken by an I/O error or a cancelled call
// is discarded and redialed on the next call.
type Client struct {
	socketPath string

	mu      sync.Mutex
	conn    net.Conn
	nextID  int
	scanner *bufio.Scanner
	encoder *json.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	c := &Client{socketPath: socketPath}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) connect() error {
	conn, err := net.DialTimeout("unix", c.socketPath, dialTimeout)
	if err != nil {
		return fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	c.conn = conn
	c.scanner = scanner
	c.encoder = json.NewEncoder(conn)
	return nil
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.scanner = nil
	c.encoder = nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if c.conn == nil {
		if err := c.connect(); err != nil {
			return err
		}
	}

	c.nextID++
	id := c.nextID

	paramsData, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("socketrpc: marshal params: %w", err)
	}

	req := Request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  paramsData,
	}

	deadline := time.Now().Add(callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn := c.conn
	conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	fail := func(format string, err error) error {
		c.drop()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf(format+": %w", ctxErr)
		}
		return fmt.Errorf(format+": %w", err)
	}

	if err := c.encoder.Encode(req); err != nil {
		return fail("socketrpc: send", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fail("socketrpc: read", err)
		}
		c.drop()
		return fmt.Errorf("socketrpc: connection closed")
	}
	conn.SetDeadline(time.Time{})

	var resp Response
	if err := json.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		c.drop()
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != id {
		c.drop()
		return fmt.Errorf("socketrpc: response id %d does not match request %d", resp.ID, id)
	}

	if resp.Error != nil {
		return resp.Error
	}

	if dest != nil {
		if err := json.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

func (c *Client) GetIdentity(ctx context.Context) (model.ServerIdentity, error) {
	var result model.ServerIdentity
	if err := c.call(ctx, MethodGetIdentity, map[string]any{}, &result); err != nil {
		return model.ServerIdentity{}, err
	}
	return result, nil
}

func (c *Client) GetGameState(ctx context.Context) (model.GameState, error) {
	var result model.GameState
	if err := c.call(ctx, MethodGetGameState, map[string]any{}, &result); err != nil {
		return model.GameState{}, err
	}
	return result, nil
}

// Ping checks that the daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	var result string
	if err := c.call(ctx, MethodPing, map[string]any{}, &result); err != nil {
		return err
	}
	if result != "pong" {
		return fmt.Errorf("socketrpc: unexpected ping reply %q", result)
	}
	return nil
}
