package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var errSendQueueFull = errors.New("send queue full")
var errConnClosed = errors.New("connection closed")

// serverFrame is the outbound wire format.
type serverFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// conn wraps a websocket connection with a buffered outbound queue drained by
// a single writer goroutine, which keeps per-connection delivery ordered.
type conn struct {
	id     string
	sock   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *zap.SugaredLogger
}

func newConn(sock *websocket.Conn, sendBuffer int, logger *zap.SugaredLogger) *conn {
	return &conn{
		id:     uuid.NewString(),
		sock:   sock,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (c *conn) ID() string { return c.id }

// Send enqueues one event frame. It never blocks: a full queue or a closed
// connection drops the frame with an error for the router to count.
func (c *conn) Send(event string, payload any) error {
	data, err := json.Marshal(serverFrame{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return errConnClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSendQueueFull
	}
}

func (c *conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		if c.sock != nil {
			c.sock.Close()
		}
	})
	return nil
}

// writePump drains the outbound queue onto the socket. Runs once per
// connection; a write failure closes the connection.
func (c *conn) writePump() {
	for {
		select {
		case data := <-c.send:
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debugw("websocket write failed", "conn_id", c.id, "error", err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}
