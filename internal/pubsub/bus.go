// Package pubsub is the in-process snapshot channel between the state stores
// and presentation collaborators. Stores publish a topic's full snapshot
// after a mutation has settled; subscribers never observe a half-applied
// composite operation.
package pubsub

import "sync"

// Topics published by the core.
const (
	TopicActiveOrders  = "orders.active"
	TopicHistoryOrders = "orders.history"
	TopicTables        = "tables"
	TopicReservations  = "reservations"
	TopicHolds         = "holds"
)

// Publisher is the write side consumed by the stores.
type Publisher interface {
	Publish(topic string, snapshot any)
}

// Handler receives a settled snapshot for a topic.
type Handler func(topic string, snapshot any)

// Batcher coalesces a run of publishes into one delivery per topic.
type Batcher interface {
	Batch(fn func())
}

// Batch runs fn with pub's publishes coalesced when the publisher supports
// batching, and directly otherwise. A nil publisher just runs fn.
func Batch(pub Publisher, fn func()) {
	if b, ok := pub.(Batcher); ok {
		b.Batch(fn)
		return
	}
	fn()
}

// Bus is a synchronous callback registry. Dispatch happens on the caller's
// goroutine after the store has released its own lock, so handlers may call
// back into the core. Composite operations wrap their mutations in Batch so
// subscribers only ever see the snapshot of a fully settled step.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]Handler

	batchMu sync.Mutex
	depth   int
	pending []pendingSnapshot
}

type pendingSnapshot struct {
	topic    string
	snapshot any
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for a topic and returns an unsubscribe
// function. The caller that subscribes owns the unsubscribe.
func (b *Bus) Subscribe(topic string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.next
	b.next++
	b.subs[topic][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.subs[topic]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subs, topic)
			}
		}
	}
}

// Publish delivers the snapshot to every handler subscribed to the topic.
// Inside a batch the snapshot is held back; a later publish for the same
// topic replaces it.
func (b *Bus) Publish(topic string, snapshot any) {
	b.batchMu.Lock()
	if b.depth > 0 {
		for i := range b.pending {
			if b.pending[i].topic == topic {
				b.pending[i].snapshot = snapshot
				b.batchMu.Unlock()
				return
			}
		}
		b.pending = append(b.pending, pendingSnapshot{topic: topic, snapshot: snapshot})
		b.batchMu.Unlock()
		return
	}
	b.batchMu.Unlock()

	b.dispatch(topic, snapshot)
}

// Batch holds back every publish made while fn runs and delivers each
// topic's latest snapshot once after fn returns. Batches nest; delivery
// happens when the outermost batch ends.
func (b *Bus) Batch(fn func()) {
	b.batchMu.Lock()
	b.depth++
	b.batchMu.Unlock()

	fn()

	b.batchMu.Lock()
	b.depth--
	var flush []pendingSnapshot
	if b.depth == 0 {
		flush = b.pending
		b.pending = nil
	}
	b.batchMu.Unlock()

	for _, p := range flush {
		b.dispatch(p.topic, p.snapshot)
	}
}

func (b *Bus) dispatch(topic string, snapshot any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[topic]))
	for _, h := range b.subs[topic] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(topic, snapshot)
	}
}

// Close drops every subscriber. Published events after Close go nowhere.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string]map[int]Handler)
}
