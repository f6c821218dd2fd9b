package notification

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"petcare/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// Upgrader is shared by the stream handlers.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// connection is one subscribed websocket client.
type connection struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool
}

// Hub fans booking events out to websocket clients. Each booking is a room and
// every owner also has a personal room.
type Hub struct {
	mu          sync.RWMutex
	connections map[*connection]struct{}
}

func NewHub() *Hub {
	return &Hub{connections: make(map[*connection]struct{})}
}

func BookingRoom(bookingID string) string { return "booking:" + bookingID }

func OwnerRoom(ownerID string) string { return "owner:" + ownerID }

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.connections[c]; ok {
		delete(h.connections, c)
		close(c.send)
	}
}

// Broadcast delivers an event to the booking's room and the owner's room.
// Slow clients are skipped rather than blocking the worker.
func (h *Hub) Broadcast(event models.BookingEvent) int {
	data, err := json.Marshal(event)
	if err != nil {
		return 0
	}
	bookingRoom, ownerRoom := BookingRoom(event.BookingID), OwnerRoom(event.OwnerID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for c := range h.connections {
		if !c.rooms[bookingRoom] && !c.rooms[ownerRoom] {
			continue
		}
		select {
		case c.send <- data:
			delivered++
		default:
		}
	}
	return delivered
}

// Online returns the number of connected clients.
func (h *Hub) Online() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// ServeWS subscribes conn to rooms and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string, rooms []string) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 64),
		rooms:  make(map[string]bool, len(rooms)),
	}
	for _, r := range rooms {
		c.rooms[r] = true
	}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
}

// readPump only keeps the connection alive; clients do not send commands.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
