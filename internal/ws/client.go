package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 1024 * 32
)

// Envelope is the wire format in both directions: a named event and its
// payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one websocket connection. UserID stays empty until the client
// identifies itself with a userConnected event.
type Client struct {
	ID     string
	UserID string

	conn *websocket.Conn
	send chan outbound
	hub  *Hub

	mu     sync.Mutex
	closed bool
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{ID: id, conn: conn, send: make(chan outbound, 256), hub: hub}
}

// Emit queues an event for this connection; a slow consumer gets dropped
// rather than blocking the hub. The mutex pairs with closeSend: the hub
// delivers to target snapshots after releasing its own lock, so an emit
// can race the connection's teardown and must never hit a closed channel.
func (c *Client) Emit(event string, payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- outbound{Event: event, Data: payload}:
	default:
	}
}

// closeSend shuts the outbound queue exactly once; later emits become
// no-ops.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// EmitError sends the error event every failed inbound event maps to.
func (c *Client) EmitError(msg string) {
	c.Emit("error", map[string]any{"message": msg})
}

func (c *Client) readPump(handle func(*Client, Envelope)) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// invalid JSON from a client is not a reason to disconnect
			c.EmitError("invalid event payload")
			continue
		}
		handle(c, env)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
