package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	// sendBuffer is the per-observer queue depth for live events.
	sendBuffer = 64
)

// Client is one connected observer. Events are queued on send and written by
// writePump; a full queue drops the event for this observer only.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// enqueue offers data without blocking. Must be called with the hub lock held
// so send cannot be closed concurrently.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
