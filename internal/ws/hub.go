package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"carshare-backend/internal/model"
)

// Message types pushed to connected clients.
const (
	MsgTypeBookingUpdate = "booking_update"
)

// Message is the envelope for everything sent over the socket.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// BookingUpdate tells availability views to refresh a vehicle. It is a
// convenience signal only; the authoritative state lives in the store.
type BookingUpdate struct {
	VehicleID int64               `json:"vehicleId"`
	BookingID string              `json:"bookingId"`
	Status    model.BookingStatus `json:"status"`
	StartTime time.Time           `json:"startTime"`
	EndTime   time.Time           `json:"endTime"`
}

// Client is one connected websocket peer.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans booking updates out to every connected client. Clients filter by
// vehicle id on their side.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run processes registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client connected (total %d)", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected (total %d)", total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer, drop the connection.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastBookingUpdate announces a booking change for a vehicle.
func (h *Hub) BroadcastBookingUpdate(b *model.Booking) {
	msg := Message{
		Type: MsgTypeBookingUpdate,
		Data: BookingUpdate{
			VehicleID: b.VehicleID,
			BookingID: b.ID,
			Status:    b.Status,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal booking update: %v", err)
		return
	}
	h.broadcast <- data
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Register adds the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// Unregister removes the client from the hub.
func (c *Client) Unregister() {
	c.hub.unregister <- c
}

// ReadPump drains inbound frames to keep the connection alive. Clients do
// not send application messages.
func (c *Client) ReadPump() {
	defer func() {
		c.Unregister()
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// WritePump forwards broadcast messages to the peer.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}
