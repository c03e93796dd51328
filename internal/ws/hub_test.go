package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/meja-pos/api/internal/pubsub"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, topic string) *Client {
	return &Client{
		hub:   hub,
		topic: topic,
		send:  make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, pubsub.TopicTables)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[pubsub.TopicTables] == nil {
		t.Fatal("topic room not created")
	}
	if !hub.rooms[pubsub.TopicTables][client] {
		t.Fatal("client not registered in topic room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, pubsub.TopicTables)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[pubsub.TopicTables] != nil {
		t.Fatal("topic room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSingleTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	tablesClient := mockClient(hub, pubsub.TopicTables)
	holdsClient := mockClient(hub, pubsub.TopicHolds)

	// Register both clients
	hub.register <- tablesClient
	hub.register <- holdsClient
	time.Sleep(10 * time.Millisecond)

	// Broadcast to the tables topic only
	testPayload := json.RawMessage(`[{"id":3,"status":"OCCUPIED"}]`)
	event := Event{
		Type:    pubsub.TopicTables,
		Payload: testPayload,
	}
	hub.BroadcastTopic(pubsub.TopicTables, event)

	// Check the tables client receives the message
	select {
	case msg := <-tablesClient.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != pubsub.TopicTables {
			t.Errorf("expected type '%s', got '%s'", pubsub.TopicTables, received.Type)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("tables client did not receive message")
	}

	// Check the holds client does NOT receive the message
	select {
	case <-holdsClient.send:
		t.Fatal("holds client should not have received a tables message")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsInSameTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	first := mockClient(hub, pubsub.TopicActiveOrders)
	second := mockClient(hub, pubsub.TopicActiveOrders)

	hub.register <- first
	hub.register <- second
	time.Sleep(10 * time.Millisecond)

	hub.BroadcastTopic(pubsub.TopicActiveOrders, Event{Type: pubsub.TopicActiveOrders, Payload: json.RawMessage(`[]`)})

	for i, client := range []*Client{first, second} {
		select {
		case <-client.send:
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client %d did not receive message", i)
		}
	}
}

func TestAttachBus_ForwardsSnapshots(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bus := pubsub.NewBus()
	detach := hub.AttachBus(bus)
	defer detach()

	client := mockClient(hub, pubsub.TopicHolds)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	bus.Publish(pubsub.TopicHolds, map[string]any{"tables": []any{}, "global": []any{}})

	select {
	case msg := <-client.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != pubsub.TopicHolds {
			t.Errorf("expected type '%s', got '%s'", pubsub.TopicHolds, received.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("snapshot was not forwarded to the topic room")
	}
}

func TestAttachBus_DetachStopsForwarding(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bus := pubsub.NewBus()
	detach := hub.AttachBus(bus)

	client := mockClient(hub, pubsub.TopicTables)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	detach()
	bus.Publish(pubsub.TopicTables, []any{})

	select {
	case <-client.send:
		t.Fatal("detached hub should not forward snapshots")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}
