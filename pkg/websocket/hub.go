// Package websocket fans messages out to WebSocket clients grouped by topic.
// Topics are plain strings such as "user_42" or "chat_3_7".
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Client represents a single WebSocket connection.
type Client struct {
	ID     string
	UserID int64
	Topics []string
	Send   chan []byte
}

// NewClient creates a client with a buffered send channel subscribed to topics.
func NewClient(userID int64, topics ...string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Topics: topics,
		Send:   make(chan []byte, 256),
	}
}

// Hub tracks clients and their topic subscriptions. It is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}

	onChange func(delta int)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// OnConnectionChange registers a callback invoked with +1/-1 as clients come and go.
func (h *Hub) OnConnectionChange(fn func(delta int)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = fn
}

// Register adds a client to the hub and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; ok {
		return
	}
	h.all[client] = struct{}{}

	for _, topic := range client.Topics {
		h.subscribeLocked(client, topic)
	}
	if h.onChange != nil {
		h.onChange(1)
	}
}

// Unregister removes a client from all topics and closes its Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, topic := range client.Topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
	if h.onChange != nil {
		h.onChange(-1)
	}
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	for _, topic := range topics {
		h.subscribeLocked(client, topic)
		client.Topics = append(client.Topics, topic)
	}
}

func (h *Hub) subscribeLocked(client *Client, topic string) {
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

// Broadcast marshals v and sends it to every client subscribed to topic.
func (h *Hub) Broadcast(topic string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("websocket: failed to marshal message")
		return
	}
	h.BroadcastRaw(topic, data)
}

// BroadcastRaw sends pre-encoded data to every client subscribed to topic.
// Clients with a full buffer are skipped.
func (h *Hub) BroadcastRaw(topic string, data []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.clients[topic] {
		select {
		case client.Send <- data:
			delivered++
		default:
			log.Warn().Str("client_id", client.ID).Str("topic", topic).Msg("websocket: client buffer full, dropping message")
		}
	}
	return delivered
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a specific topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
