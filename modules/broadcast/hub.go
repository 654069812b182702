package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client represents a connected WebSocket client.
type Client struct {
	ID   string
	Conn *websocket.Conn
}

// Hub manages WebSocket connections and per-stream fan-out. A client may
// watch several streams at once, so room membership is tracked in the hub
// rather than on the client.
type Hub struct {
	clients    map[string]*Client         // clientID -> Client
	rooms      map[string]map[string]bool // streamKey -> set of clientIDs
	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// BroadcastMessage represents a message to broadcast. An empty StreamKey
// targets every connected client.
type BroadcastMessage struct {
	StreamKey string
	Payload   any
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It accepts a context for graceful shutdown.
// All fan-out happens on this single goroutine, which keeps delivery for any
// one stream in submission order.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[hub] Shutting down...")
			h.closeAllClients()
			close(h.done)
			return
		case client := <-h.register:
			h.handleRegister(client)
		case client := <-h.unregister:
			h.handleUnregister(client)
		case msg := <-h.broadcast:
			h.handleBroadcast(msg)
		}
	}
}

// Wait blocks until the hub has stopped.
func (h *Hub) Wait() {
	<-h.done
}

// closeAllClients closes all connected client connections.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		_ = client.Conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]bool)
}

func (h *Hub) handleRegister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	log.Printf("[hub] Client %s registered", client.ID)
}

func (h *Hub) handleUnregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)
		for streamKey, members := range h.rooms {
			delete(members, client.ID)
			if len(members) == 0 {
				delete(h.rooms, streamKey)
			}
		}
		log.Printf("[hub] Client %s unregistered", client.ID)
	}
}

func (h *Hub) handleBroadcast(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		log.Printf("[hub] Failed to marshal broadcast message: %v", err)
		return
	}

	if msg.StreamKey == "" {
		for _, client := range h.clients {
			h.sendToClient(client, data)
		}
		return
	}

	if clientIDs, ok := h.rooms[msg.StreamKey]; ok {
		for clientID := range clientIDs {
			if client, ok := h.clients[clientID]; ok {
				h.sendToClient(client, data)
			}
		}
	}
}

func (h *Hub) sendToClient(client *Client, data []byte) {
	if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[hub] Failed to send to client %s: %v", client.ID, err)
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub and from every room.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast queues a payload for every client watching a stream.
func (h *Hub) Broadcast(streamKey string, payload any) {
	h.broadcast <- &BroadcastMessage{
		StreamKey: streamKey,
		Payload:   payload,
	}
}

// BroadcastAll queues a payload for every connected client.
func (h *Hub) BroadcastAll(payload any) {
	h.broadcast <- &BroadcastMessage{Payload: payload}
}

// JoinRoom adds a client to a stream's room. Joining twice is a no-op.
// Membership is recorded even if the client's registration is still in
// flight on the register channel; fan-out skips ids with no connection and
// handleUnregister sweeps membership on disconnect.
func (h *Hub) JoinRoom(clientID, streamKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[streamKey] == nil {
		h.rooms[streamKey] = make(map[string]bool)
	}
	h.rooms[streamKey][clientID] = true
	log.Printf("[hub] Client %s joined room %s", clientID, streamKey)
}

// LeaveRoom removes a client from a stream's room.
func (h *Hub) LeaveRoom(clientID, streamKey string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[streamKey] == nil {
		return
	}
	delete(h.rooms[streamKey], clientID)
	if len(h.rooms[streamKey]) == 0 {
		delete(h.rooms, streamKey)
	}
	log.Printf("[hub] Client %s left room %s", clientID, streamKey)
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomClientCount returns the number of clients in a stream's room.
func (h *Hub) RoomClientCount(streamKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.rooms[streamKey]; ok {
		return len(clients)
	}
	return 0
}

// RoomCount returns the number of rooms with at least one client.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
