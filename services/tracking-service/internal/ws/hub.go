package ws

import (
	"encoding/json"
	"sync"

	"delivery-order-system/shared/pkg/metrics"
	"delivery-order-system/shared/pkg/models"
)

// Hub tracks one room per order. Clients with a full send buffer are
// dropped rather than allowed to stall a broadcast.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

type Client struct {
	OrderID string
	UserID  string
	Role    models.Role

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

const sendBuffer = 32

func NewClient(orderID, userID string, role models.Role) *Client {
	return &Client{
		OrderID: orderID,
		UserID:  userID,
		Role:    role,
		send:    make(chan []byte, sendBuffer),
	}
}

// Outbound returns the channel the write pump drains. It is closed when
// the client leaves the hub.
func (c *Client) Outbound() <-chan []byte { return c.send }

// trySend queues a frame for the write pump. False when the client has
// left the hub or its buffer is full. The read pump may still try to
// send errors after the hub dropped the client, so the closed check and
// the channel send share one lock.
func (c *Client) trySend(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- b:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (h *Hub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.OrderID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.OrderID] = room
	}
	room[c] = struct{}{}
	metrics.WSConnections.Inc()
}

func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.OrderID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.OrderID)
	}
	c.close()
	metrics.WSConnections.Dec()
}

// RoomSize reports how many clients watch an order.
func (h *Hub) RoomSize(orderID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}

// Broadcast sends the frame to every client in the order's room. Clients
// that cannot keep up are removed.
func (h *Hub) Broadcast(orderID string, frame any) {
	b, err := json.Marshal(frame)
	if err != nil {
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.rooms[orderID] {
		if !c.trySend(b) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.Leave(c)
	}
}
