package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/your-org/lpr/internal/models"
	"github.com/your-org/lpr/internal/observability"
	"github.com/your-org/lpr/pkg/dto"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the demo front end may be served from another origin
	},
}

// Client is a connected WebSocket client.
type Client struct {
	conn  *websocket.Conn
	send  chan []byte
	runID string // optional filter
}

type message struct {
	runID string
	data  []byte
}

// Hub fans run notifications out to WebSocket clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub event loop. Call this in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			observability.WSConnections.Inc()
			slog.Debug("ws client connected", "filter", client.runID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				observability.WSConnections.Dec()
			}
			h.mu.Unlock()
			slog.Debug("ws client disconnected")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.runID != "" && client.runID != msg.runID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// slow client, drop it
					delete(h.clients, client)
					close(client.send)
					observability.WSConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements detect.Notifier. It never blocks; events are
// dropped when the broadcast buffer is full.
func (h *Hub) Notify(n models.Notification) {
	evt := dto.WSEvent{
		Type:        string(n.Kind),
		RunID:       n.RunID,
		ModelID:     n.ModelID,
		Title:       n.Title,
		Description: n.Description,
		Count:       n.Count,
		Timestamp:   n.Time.Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(evt)
	if err != nil {
		slog.Error("marshal ws event", "error", err)
		return
	}

	select {
	case h.broadcast <- message{runID: n.RunID.String(), data: data}:
	default:
		slog.Warn("ws broadcast buffer full, dropping event", "run_id", n.RunID, "type", evt.Type)
	}
}

// HandleWS handles WebSocket upgrade requests. ?run_id= limits the
// stream to one run.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("ws upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn:  conn,
		send:  make(chan []byte, 64),
		runID: c.Query("run_id"),
	}

	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	for {
		// Incoming messages are ignored; reading detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
