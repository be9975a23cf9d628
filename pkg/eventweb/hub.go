// Package eventweb forwards bus.Event values to connected WebSocket
// clients as JSON, so a dashboard or TUI can observe ensemble updates,
// decoded PAD objects, and stats snapshots without polling a REST API.
package eventweb

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	edibus "github.com/ohrstrom/edi-dab/pkg/edi/bus"
	"github.com/ohrstrom/edi-dab/pkg/logger"
)

// Event is the JSON envelope forwarded to WebSocket clients.
type Event struct {
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// Marshal converts an event to JSON bytes.
func (e *Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Client represents a WebSocket client connection.
type Client struct {
	ID       string
	conn     *websocket.Conn
	messages chan []byte
}

// Hub subscribes to an edi bus and fans its events out to every
// connected WebSocket client as JSON.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewHub creates a new event-forwarding hub.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.New(logger.Config{Level: "error"})
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     log.WithComponent("eventweb"),
	}
}

// RunWithBus subscribes to b and runs the hub's event loop until ctx is
// canceled, broadcasting every bus event received in the meantime.
func (h *Hub) RunWithBus(ctx context.Context, b *edibus.Bus) {
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client registered", logger.String("client_id", client.ID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.messages)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", logger.String("client_id", client.ID))

		case ev, ok := <-ch:
			if !ok {
				return
			}
			h.broadcastEvent(Event{Kind: string(ev.Kind), Timestamp: ev.Timestamp, Data: ev.Data})

		case <-ctx.Done():
			h.logger.Info("event hub shutting down")
			h.mu.Lock()
			for client := range h.clients {
				close(client.messages)
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) broadcastEvent(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := event.Marshal()
	if err != nil {
		h.logger.Error("failed to marshal event", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.messages <- data:
		default:
			h.logger.Warn("client message buffer full, skipping", logger.String("client_id", client.ID))
		}
	}
}

// Handler returns an HTTP handler that upgrades requests to WebSocket
// connections and registers them with the hub.
func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		client := &Client{ID: uuid.NewString(), conn: conn, messages: make(chan []byte, 256)}
		h.register <- client

		go func() {
			defer func() {
				h.unregister <- client
				_ = client.conn.Close()
			}()
			client.conn.SetReadLimit(1024)
			for {
				if _, _, err := client.conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			for msg := range client.messages {
				_ = client.conn.WriteMessage(websocket.TextMessage, msg)
			}
		}()
	})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
