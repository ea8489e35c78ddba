package websocket

import (
	"net/http"
	"time"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/bhandras/agbridge/internal/metrics"
	"github.com/bhandras/agbridge/internal/models"
	"github.com/bhandras/agbridge/pkg/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Authenticator validates an observer's token.
type Authenticator interface {
	Authenticate(token string) bool
}

// Backlog runs fn with the pending approvals while no state mutation can
// interleave.
type Backlog interface {
	WithPending(fn func(pending []models.Approval))
}

// Handler upgrades authenticated requests to an observer connection. The
// token is read from the "token" query parameter; a missing or unknown token
// is answered with 401 and the connection is never upgraded.
func (h *Hub) Handler(auth Authenticator, backlog Backlog) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.originAllowed(r.Header.Get("Origin"))
		},
	}

	return func(c *gin.Context) {
		if !auth.Authenticate(c.Query("token")) {
			metrics.AuthFailures.WithLabelValues("ws").Inc()
			logger.Warnf("[WS] Rejected unauthenticated upgrade from %s", c.Request.RemoteAddr)
			c.AbortWithStatusJSON(http.StatusUnauthorized, types.ErrorResponse{Error: "Unauthorized"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warnf("[WS] Upgrade failed: %v", err)
			return
		}

		var client *Client
		backlog.WithPending(func(pending []models.Approval) {
			client = h.attach(func(id uint64, depth int) *Client {
				return &Client{id: id, hub: h, conn: conn, send: make(chan []byte, depth)}
			}, pending)
		})
		if client == nil {
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump()
	}
}

// readPump discards inbound frames, servicing control frames until the peer
// disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.detach(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debugf("[WS] Observer %d read error: %v", c.id, err)
			}
			return
		}
	}
}

// writePump writes one frame per queued event and keeps the connection alive
// with pings. It exits when the hub closes the queue or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debugf("[WS] Observer %d write failed: %v", c.id, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
