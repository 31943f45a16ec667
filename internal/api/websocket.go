package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"qrmenu/internal/monitoring"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // table clients connect from any origin
	},
}

// wsConnection maintains one cart feed connection with a client
type wsConnection struct {
	conn   *websocket.Conn
	send   chan []byte
	mu     sync.Mutex
	closed bool
}

// handleCartFeed upgrades the connection and streams the order's cart change
// events until the client disconnects.
func (s *Server) handleCartFeed(c *gin.Context) {
	orderID := c.Param("orderID")
	if orderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "order id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("api: failed to upgrade connection: %v", err)
		return
	}

	wsConn := &wsConnection{
		conn: conn,
		send: make(chan []byte, 256),
	}

	events, unsubscribe := s.feed.Subscribe(orderID)
	monitoring.ActiveWebsockets.Inc()

	go func() {
		for event := range events {
			data, marshalErr := json.Marshal(event)
			if marshalErr != nil {
				log.Printf("api: marshal cart event: %v", marshalErr)
				continue
			}
			wsConn.enqueue(data)
		}
	}()

	go wsConn.writePump()
	go wsConn.readPump(func() {
		unsubscribe()
		monitoring.ActiveWebsockets.Dec()
	})
}

// readPump discards inbound frames; it exists to react to pings and closes.
func (c *wsConnection) readPump(onClose func()) {
	defer func() {
		onClose()
		c.shutdown()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("api: websocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps queued events to the connection, pinging on a ticker.
func (c *wsConnection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues one frame, dropping it when the client cannot keep up or
// the connection is already torn down.
func (c *wsConnection) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Println("api: websocket buffer full, dropping cart event")
	}
}

// shutdown closes the send channel exactly once.
func (c *wsConnection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
