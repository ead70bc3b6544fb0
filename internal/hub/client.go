package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yildiz-fatih/lazybook/internal/config"
)

var (
	// ErrConnClosed is returned by Send once the connection is closed.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned by Send when the peer stopped
	// draining its outbound queue.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is the subset of *websocket.Conn the client needs. Tests swap
// in fakes; production always passes a gorilla connection.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client owns one live websocket connection for one authenticated
// user. A client belongs to exactly one user for its entire lifetime.
type Client struct {
	id       string
	userID   uint
	username string
	conn     Conn
	cfg      config.WebSocketConfig

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient wraps an accepted connection for the given user.
func NewClient(userID uint, username string, conn Conn, cfg config.WebSocketConfig) *Client {
	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}

	return &Client{
		id:       uuid.New().String(),
		userID:   userID,
		username: username,
		conn:     conn,
		cfg:      cfg,
		send:     make(chan []byte, buffer),
		closed:   make(chan struct{}),
	}
}

// ID returns the connection's unique handle id.
func (c *Client) ID() string { return c.id }

// UserID returns the owning user's id.
func (c *Client) UserID() uint { return c.userID }

// Username returns the owning user's username.
func (c *Client) Username() string { return c.username }

// Send marshals v and queues it for delivery. It fails when the
// connection is closed or the peer stopped draining its queue; it
// never blocks the caller.
func (c *Client) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-c.closed:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.closed:
		return ErrConnClosed
	default:
		return ErrSendBufferFull
	}
}

// Close marks the connection dead. Safe to call multiple times and
// from any goroutine; pending Sends fail from this point on.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// ReadPump runs the receive loop, invoking handler for every inbound
// frame. It returns when the transport errors or closes; the caller is
// responsible for unregistering the client afterwards.
func (c *Client) ReadPump(handler func(*Client, []byte)) {
	defer func() {
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		handler(c, message)
	}
}

// WritePump drains the outbound queue onto the transport and keeps the
// connection alive with pings. A failed write marks the client closed
// so later Sends report the death.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
