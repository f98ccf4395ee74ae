package ipc

import (
	"fmt"
	"net"
	"sync"
	"time"

	"lavinder/command"
)

// DefaultTimeout bounds a single request/response exchange.
const DefaultTimeout = 10 * time.Second

// Client is a connection to a manager socket. Calls are serialized: each
// request waits for its response before the next one is written.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	codec   codec
	enc     Encoding
	timeout time.Duration
}

// Dial connects to the socket at path and announces the encoding.
func Dial(path string, enc Encoding) (*Client, error) {
	c, err := codecFor(enc)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialTimeout("unix", path, DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", path, err)
	}
	if _, err := conn.Write([]byte{byte(enc)}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake with %s: %w", path, err)
	}
	return &Client{conn: conn, codec: c, enc: enc, timeout: DefaultTimeout}, nil
}

// SetTimeout changes the per-call deadline. Zero disables it.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// Encoding returns the encoding negotiated at Dial.
func (c *Client) Encoding() Encoding { return c.enc }

// Send writes req and waits for its outcome.
func (c *Client) Send(req command.Request) (command.Outcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	body, err := c.codec.encodeRequest(req)
	if err != nil {
		return command.Outcome{}, fmt.Errorf("encoding %s: %w", req, err)
	}
	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return command.Outcome{}, err
		}
	}
	if err := WriteFrame(c.conn, body); err != nil {
		return command.Outcome{}, fmt.Errorf("sending %s: %w", req, err)
	}
	resp, err := ReadFrame(c.conn)
	if err != nil {
		return command.Outcome{}, fmt.Errorf("waiting for reply to %s: %w", req, err)
	}
	out, err := c.codec.decodeResponse(resp)
	if err != nil {
		return command.Outcome{}, fmt.Errorf("decoding reply to %s: %w", req, err)
	}
	return out, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

var _ command.Transport = (*Client)(nil)
