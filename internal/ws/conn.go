package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with a buffered outbound queue and the
// standard keepalive write loop. Reads stay with the caller; all writes go
// through Queue so only the pump goroutine touches the socket.
type Conn struct {
	sock *websocket.Conn
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewConn(sock *websocket.Conn) *Conn {
	return &Conn{
		sock: sock,
		Send: make(chan []byte, 256),
	}
}

// Queue marshals payload and enqueues it. Non-blocking: if the outbound
// buffer is full the frame is dropped, and the subscriber catches up on the
// next change notification. Safe to call after Close; late frames from
// refresher goroutines still finishing a query are silently discarded.
func (c *Conn) Queue(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Close shuts the outbound queue, stopping the write pump. Idempotent.
func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// WritePump drains the outbound queue to the socket and pings on
// pingPeriod. Returns when the queue is closed or a write fails.
func (c *Conn) WritePump(writeWait, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-c.Send:
			if !ok {
				c.sock.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.sock.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
