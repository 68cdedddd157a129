package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"hutang/internal/models"
)

const (
	EventCreated = "hutang.created"
	EventUpdated = "hutang.updated"
	EventDeleted = "hutang.deleted"
	EventPayment = "hutang.payment"
	EventOverdue = "hutang.overdue"
)

// HutangUpdate is pushed to the debtor of an entry whenever it changes.
// Hutang is omitted for deletions.
type HutangUpdate struct {
	Event    string         `json:"event"`
	HutangID string         `json:"hutangId"`
	Hutang   *models.Hutang `json:"hutang,omitempty"`
	At       time.Time      `json:"at"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) Subscribers(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastHutang delivers update to every connection of userID. Slow
// clients whose buffer is full miss the message.
func (h *Hub) BroadcastHutang(userID string, update HutangUpdate) {
	payload, err := json.Marshal(update)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
