package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"battle-pollster/internal/domain/poll"
)

// registration adds a client together with the channels it listens on, so a
// client is never visible to broadcasts without its subscriptions.
type registration struct {
	client   *Client
	channels []string
}

// TallyMessage is what live subscribers of a poll receive.
type TallyMessage struct {
	Type   string     `json:"type"`
	PollID string     `json:"poll_id"`
	Tally  poll.Tally `json:"tally"`
}

const tallyMessageType = "tally"

// PollChannel names the hub channel of a poll.
func PollChannel(pollID string) string {
	return "poll:" + pollID
}

// Hub manages WebSocket client connections and poll subscriptions
type Hub struct {
	mu sync.RWMutex

	// clients maps client ID to client (for cleanup)
	clients map[string]*Client

	// channels maps channel name to set of clients subscribed to it
	channels map[string]map[*Client]struct{}

	register   chan registration
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:      make(map[string]*Client),
		channels:     make(map[string]map[*Client]struct{}),
		register:   make(chan registration, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reg := <-h.register:
			h.addClient(reg.client, reg.channels)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Register adds client to the hub subscribed to channels.
func (h *Hub) Register(client *Client, channels ...string) {
	h.register <- registration{client: client, channels: channels}
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to all clients subscribed to a channel
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	for c := range h.channels[channel] {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// PublishTally pushes a fresh tally to everyone watching the poll.
func (h *Hub) PublishTally(pollID string, t poll.Tally) {
	payload, err := EncodeTally(pollID, t)
	if err != nil {
		return
	}
	h.Broadcast(PollChannel(pollID), payload)
}

func EncodeTally(pollID string, t poll.Tally) ([]byte, error) {
	return json.Marshal(TallyMessage{Type: tallyMessageType, PollID: pollID, Tally: t})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[channel])
}

func (h *Hub) addClient(client *Client, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client
	for _, channel := range channels {
		if _, ok := h.channels[channel]; !ok {
			h.channels[channel] = make(map[*Client]struct{})
		}
		h.channels[channel][client] = struct{}{}
		client.subscribe(channel)
	}
}

// removeClient removes a client and all its subscriptions
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	for channel := range client.channels {
		if subscribers, ok := h.channels[channel]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.channels, channel)
			}
		}
	}
	delete(h.clients, client.ID)
	close(client.Send)
}
