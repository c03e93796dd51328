package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/meja-pos/api/internal/pubsub"
)

// Event is a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// topicEvent routes an event to the clients watching one topic.
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients, one room per snapshot topic.
type Hub struct {
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.topic] == nil {
				h.rooms[client.topic] = make(map[*Client]bool)
			}
			h.rooms[client.topic][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.topic]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.topic)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Topic]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Topic], client)
					if len(h.rooms[event.Topic]) == 0 {
						delete(h.rooms, event.Topic)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastTopic sends an event to all clients watching a topic.
func (h *Hub) BroadcastTopic(topic string, event Event) {
	h.broadcast <- &topicEvent{Topic: topic, Event: event}
}

// AttachBus subscribes the hub to every core snapshot topic so WebSocket
// clients see settled snapshots as they are published. Returns a detach
// function; the caller that attaches owns the detach.
func (h *Hub) AttachBus(bus *pubsub.Bus) func() {
	topics := []string{
		pubsub.TopicActiveOrders,
		pubsub.TopicHistoryOrders,
		pubsub.TopicTables,
		pubsub.TopicReservations,
		pubsub.TopicHolds,
	}
	unsubs := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubs = append(unsubs, bus.Subscribe(topic, func(topic string, snapshot any) {
			payload, err := json.Marshal(snapshot)
			if err != nil {
				log.Printf("ws: marshal %s snapshot: %v", topic, err)
				return
			}
			h.BroadcastTopic(topic, Event{Type: topic, Payload: payload})
		}))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
