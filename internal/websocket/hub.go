package notifyws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"

	"github.com/Gokul221/mindfulhaven-app/internal/events"
)

// Hub pushes domain events to the websocket connections of the user they
// concern. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
}

// Client is one websocket connection. send is written by both the hub and the
// read pump, so every send and the final close go through mu.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID int64
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

type Message struct {
	Type      string          `json:"type"`
	EventID   string          `json:"eventId,omitempty"`
	UserID    int64           `json:"-"`
	Data      json.RawMessage `json:"data,omitempty"`
	Content   string          `json:"content,omitempty"`
	Timestamp string          `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 64),
		done:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for userID, set := range h.clients {
				for client := range set {
					client.close()
				}
				delete(h.clients, userID)
			}
			return
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				client.close()
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Register adds client to the registry. After Run has returned the client is
// closed instead.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

// Publish queues an event for the owning user's live connections. A full
// queue drops the event; connected clients can always refetch state.
func (h *Hub) Publish(ctx context.Context, env events.Envelope) error {
	if env.UserID == 0 {
		return nil
	}
	message := &Message{
		Type:      env.Type,
		EventID:   env.ID,
		UserID:    env.UserID,
		Data:      env.Data,
		Timestamp: formatTimestamp(env.OccurredAt),
	}
	select {
	case h.broadcast <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Printf("notification hub queue full, dropping %s for user %d", env.Type, env.UserID)
		return nil
	}
}

func (h *Hub) deliver(message *Message) {
	encoded, err := json.Marshal(message)
	if err != nil {
		log.Printf("notification hub encode message: %v", err)
		return
	}
	h.sendToUser(message.UserID, encoded)
}

func (h *Hub) sendToUser(userID int64, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		if !client.enqueue(payload) {
			delete(set, client)
			client.close()
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump only answers pings; the channel is server to client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			writeControl(c, "error", "invalid message payload")
			continue
		}
		if incoming.Type != "ping" {
			writeControl(c, "error", "unsupported message type")
			continue
		}
		writeControl(c, "pong", "")
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func writeControl(client *Client, kind, content string) {
	payload, err := json.Marshal(Message{
		Type:      kind,
		Content:   content,
		Timestamp: formatTimestamp(time.Now()),
	})
	if err != nil {
		return
	}
	client.enqueue(payload)
}

// enqueue reports whether payload was queued. It never blocks and is a no-op
// once the client is closed.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
