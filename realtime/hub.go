package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 64
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// UserRoom names the private room every connection of a user joins.
func UserRoom(userID int) string {
	return fmt.Sprintf("user:%d", userID)
}

type roomMessage struct {
	room string
	data []byte
}

// Hub fans events out to the websocket connections joined to a room. All
// room bookkeeping happens on the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan roomMessage
	rooms      map[string]map[*Client]struct{}
	done       chan struct{}
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomMessage, 256),
		rooms:      make(map[string]map[*Client]struct{}),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for room, clients := range h.rooms {
				for c := range clients {
					close(c.send)
				}
				delete(h.rooms, room)
			}
			return

		case c := <-h.register:
			if _, ok := h.rooms[c.room]; !ok {
				h.rooms[c.room] = make(map[*Client]struct{})
			}
			h.rooms[c.room][c] = struct{}{}
			h.logger.Debug("websocket client joined", slog.String("room", c.room), slog.Int("clients", len(h.rooms[c.room])))

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			for c := range h.rooms[msg.room] {
				select {
				case c.send <- msg.data:
				default:
					h.logger.Warn("websocket client too slow, dropping", slog.String("room", msg.room))
					h.remove(c)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
}

// BroadcastToRoom queues an event for every client in room. It never blocks
// once the hub has stopped.
func (h *Hub) BroadcastToRoom(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal websocket event", slog.String("type", event.Type), slog.String("error", err.Error()))
		return
	}
	select {
	case h.broadcast <- roomMessage{room: room, data: data}:
	case <-h.done:
	}
}

// PublishToUser sends an event to every open connection of the user.
func (h *Hub) PublishToUser(userID int, eventType string, payload interface{}) {
	h.BroadcastToRoom(UserRoom(userID), Event{Type: eventType, Payload: payload})
}

// Attach registers conn in room and starts its pumps.
func (h *Hub) Attach(conn *websocket.Conn, room string) *Client {
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: room}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return c
	}
	go c.writePump()
	go c.readPump()
	return c
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		// Clients only receive; anything they send is discarded.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", slog.String("room", c.room), slog.String("error", err.Error()))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
