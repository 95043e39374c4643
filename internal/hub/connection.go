package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pingPeriod       = 30 * time.Second
	defaultQueueSize = 256
)

// ErrConnectionClosed is returned by Send once the connection is shut down.
var ErrConnectionClosed = errors.New("connection closed")

// Connection wraps a websocket and serializes outbound writes through a
// queue drained by a single writer goroutine. Safe for concurrent use:
// Send and Close may race freely; deliveries enqueued around a Close are
// dropped, never panicked on.
type Connection struct {
	ID     string
	UserID string

	ws    *websocket.Conn
	queue chan []byte
	done  chan struct{}
	once  sync.Once
}

// NewConnection constructs a Connection for the given user. queueSize bounds
// the outbound queue; non-positive falls back to the default.
func NewConnection(userID string, ws *websocket.Conn, queueSize int) *Connection {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		ws:     ws,
		queue:  make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the writer. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writer()
}

// Send enqueues payload for delivery. Returns ErrConnectionClosed after
// Close. A full queue means the client cannot keep up; the connection is
// closed so backpressure stays bounded.
//
// The queue channel itself is never closed, so a Send racing a Close simply
// leaves the payload undelivered.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case <-c.done:
		return ErrConnectionClosed
	case c.queue <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("connection buffer exceeded")
	}
}

// Close stops the writer and sends the websocket close frame. Idempotent.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

// writer is the single goroutine allowed to write to the socket. It drains
// the queue, pings on idle, and exits when Close fires.
func (c *Connection) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.queue:
			if err := c.write(websocket.TextMessage, payload); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
