package ws

import (
	"context"
	"net"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relaypoint/push-service/internal/domain"
)

// wsConn wraps one gorilla connection and implements domain.Sink. Writes are
// serialized through a one-slot semaphore so concurrent deliveries racing from
// broadcasts and replies keep per-connection ordering.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	sendMu       chan struct{}
	closed       chan struct{}
}

func newWSConn(c *websocket.Conn, writeTimeout time.Duration) *wsConn {
	return &wsConn{
		conn:         c,
		writeTimeout: writeTimeout,
		sendMu:       make(chan struct{}, 1),
		closed:       make(chan struct{}),
	}
}

func (c *wsConn) Deliver(ctx context.Context, msg domain.Message) error {
	select {
	case c.sendMu <- struct{}{}:
	case <-c.closed:
		return net.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.sendMu }()

	deadline := time.Now().Add(c.writeTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = c.conn.SetWriteDeadline(deadline)

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}
