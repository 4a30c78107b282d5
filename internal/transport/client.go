package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/DavidWenzler/reAM250-sub000/internal/fault"
	"github.com/DavidWenzler/reAM250-sub000/internal/protocol"
)

// DefaultTimeout bounds one request/response exchange when the context
// carries no deadline.
const DefaultTimeout = 5 * time.Second

// Reply is one decoded response.
type Reply struct {
	Header  protocol.ResponseHeader
	Payload []byte
}

// Status returns the response status code.
func (r Reply) Status() fault.Code { return fault.Code(r.Header.Status) }

// Err returns a fault error for a non-zero status, nil otherwise.
func (r Reply) Err() error {
	if r.Header.Status == 0 {
		return nil
	}
	return fault.Newf(r.Status(), "request %d failed", r.Header.SequenceID)
}

// Client sends frames over one connection and waits for each response.
// Not safe for concurrent use.
type Client struct {
	conn      net.Conn
	signature uint32
	clientID  uint32
	sequence  uint32
	timeout   time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSignature sets the frame signature.
func WithSignature(sig uint32) ClientOption {
	return func(c *Client) { c.signature = sig }
}

// WithClientID sets the client id echoed in every response.
func WithClientID(id uint32) ClientOption {
	return func(c *Client) { c.clientID = id }
}

// WithTimeout sets the exchange timeout used without a context deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// Dial connects to a controller at addr.
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(conn, opts...), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn, opts ...ClientOption) *Client {
	c := &Client{
		conn:      conn,
		signature: protocol.DefaultSignature,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Send writes one request and reads its response. A non-zero status is not
// an error here; use Reply.Err.
func (c *Client) Send(ctx context.Context, commandID uint32, payload protocol.Payload) (Reply, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return Reply{}, fmt.Errorf("set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { c.conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	c.sequence++
	frame := protocol.NewFrame(c.signature, c.clientID, c.sequence, commandID, payload).Encode()
	if _, err := c.conn.Write(frame[:]); err != nil {
		return Reply{}, fmt.Errorf("write command %d: %w", commandID, err)
	}

	head := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(c.conn, head); err != nil {
		return Reply{}, fmt.Errorf("read response header: %w", err)
	}
	h, err := protocol.DecodeResponseHeader(head)
	if err != nil {
		return Reply{}, err
	}
	body := make([]byte, h.PayloadLength)
	if _, err := io.ReadFull(c.conn, body); err != nil {
		return Reply{}, fmt.Errorf("read response payload: %w", err)
	}
	if err := h.VerifyPayload(body); err != nil {
		return Reply{}, err
	}
	if h.SequenceID != c.sequence {
		return Reply{}, fault.Newf(fault.InvalidTCPResponse, "response sequence %d, want %d", h.SequenceID, c.sequence)
	}
	return Reply{Header: h, Payload: body}, nil
}
