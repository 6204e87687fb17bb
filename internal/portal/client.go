// Package portal is a minimal JSON-RPC 2.0 client for a Portal network node
// reachable over its local IPC socket.
//
// Only content retrieval is implemented. Node diagnostics (client version,
// node info, routing table) are left to other tools.
package portal

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/roach88/glados/internal/contentkey"
)

// MethodRecursiveFindContent asks the node to find content on the history
// network, walking the DHT if it is not held locally.
const MethodRecursiveFindContent = "portal_historyRecursiveFindContent"

// Client sends JSON-RPC requests over one connection.
//
// Calls are serialized: a Client has at most one request in flight.
// Thread-safety: safe for concurrent use.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	enc     *json.Encoder
	dec     *json.Decoder
	nextID  uint64
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each call at the transport level. Zero (the default)
// means a call may block for as long as the node takes to answer.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// Dial connects to the node's IPC socket at path.
func Dial(ctx context.Context, path string, opts ...Option) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("portal: dial %s: %w", path, err)
	}
	return NewClient(conn, opts...), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts ...Option) *Client {
	c := &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// GetContent retrieves the raw payload stored under key.
//
// An empty payload ("0x") is returned as an empty, non-nil slice without
// error. Interpreting it is the caller's business.
func (c *Client) GetContent(ctx context.Context, key contentkey.LookupKey) ([]byte, error) {
	var result json.RawMessage
	if err := c.call(ctx, MethodRecursiveFindContent, []any{key.Hex()}, &result); err != nil {
		return nil, err
	}
	return decodeContent(result)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if params == nil {
		params = []any{}
	}

	c.nextID++
	id := c.nextID

	if err := c.conn.SetDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("portal: %s: set deadline: %w", method, err)
	}

	// Cancelling ctx forces any blocked read or write to fail immediately.
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	req := request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	if err := c.enc.Encode(req); err != nil {
		return fmt.Errorf("portal: %s: send: %w", method, err)
	}

	var resp response
	if err := c.dec.Decode(&resp); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("portal: %s: %w", method, ctx.Err())
		}
		return fmt.Errorf("portal: %s: receive: %w", method, err)
	}

	if resp.ID != id {
		return fmt.Errorf("portal: %s: %w: got id %d, want %d", method, ErrIDMismatch, resp.ID, id)
	}
	if resp.Error != nil {
		return fmt.Errorf("portal: %s: %w", method, resp.Error)
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("portal: %s: decode result: %w", method, err)
	}
	return nil
}

// deadline picks the earlier of the configured timeout and ctx's deadline.
// A zero time clears any deadline left by a previous call.
func (c *Client) deadline(ctx context.Context) time.Time {
	var d time.Time
	if c.timeout > 0 {
		d = time.Now().Add(c.timeout)
	}
	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}
	return d
}

// decodeContent accepts either a bare hex string or an object carrying the
// hex payload under "content".
func decodeContent(raw json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, ErrNoContent
	}

	var s string
	if strings.HasPrefix(trimmed, "{") {
		var obj struct {
			Content *string `json:"content"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("portal: decode content: %w", err)
		}
		if obj.Content == nil {
			return nil, ErrNoContent
		}
		s = *obj.Content
	} else if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("portal: decode content: %w", err)
	}

	return decodeHex(s)
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("portal: decode content hex: %w", err)
	}
	if b == nil {
		b = []byte{}
	}
	return b, nil
}
