package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meja-pos/api/internal/pubsub"
	"github.com/shopspring/decimal"
)

// Errors returned by the hold buffer.
var (
	ErrNoHeldOrder = errors.New("no held order")
)

// HeldOrder is a parked cart snapshot. TableID nil means the global scope.
type HeldOrder struct {
	ID      uuid.UUID       `json:"id"`
	TableID *int64          `json:"table_id"`
	Items   []OrderItem     `json:"items"`
	Total   decimal.Decimal `json:"total"`
	HeldBy  string          `json:"held_by"`
	HeldAt  time.Time       `json:"held_at"`
}

// HoldsSnapshot is the published view of the buffer.
type HoldsSnapshot struct {
	Tables []HeldOrder `json:"tables"`
	Global []HeldOrder `json:"global"`
}

// Holds parks suspended carts. Each table scope keeps at most one record
// (a new hold overwrites), the global scope is an append-only list.
type Holds struct {
	mu  sync.Mutex
	pub pubsub.Publisher
	now func() time.Time

	byTable map[int64]*HeldOrder
	global  []*HeldOrder
}

// NewHolds creates an empty hold buffer.
func NewHolds(pub pubsub.Publisher) *Holds {
	return &Holds{pub: pub, now: time.Now, byTable: make(map[int64]*HeldOrder)}
}

// HoldForTable parks a cart for a table, replacing any previous hold for
// that table.
func (s *Holds) HoldForTable(tableID int64, items []OrderItem, heldBy string) (HeldOrder, error) {
	held, err := newHeld(&tableID, items, heldBy, s.now())
	if err != nil {
		return HeldOrder{}, err
	}

	s.mu.Lock()
	s.byTable[tableID] = &held
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return held, nil
}

// HoldGlobal appends a cart to the global scope.
func (s *Holds) HoldGlobal(items []OrderItem, heldBy string) (HeldOrder, error) {
	held, err := newHeld(nil, items, heldBy, s.now())
	if err != nil {
		return HeldOrder{}, err
	}

	s.mu.Lock()
	s.global = append(s.global, &held)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return held, nil
}

// RecallForTable removes and returns the table's held cart. Callers must
// handle ErrNoHeldOrder; a second recall for the same table fails.
func (s *Holds) RecallForTable(tableID int64) (HeldOrder, error) {
	s.mu.Lock()
	held, ok := s.byTable[tableID]
	if !ok {
		s.mu.Unlock()
		return HeldOrder{}, ErrNoHeldOrder
	}
	delete(s.byTable, tableID)
	recalled := *held
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return recalled, nil
}

// RecallGlobal removes and returns the global hold at the given index.
func (s *Holds) RecallGlobal(index int) (HeldOrder, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.global) {
		s.mu.Unlock()
		return HeldOrder{}, ErrNoHeldOrder
	}
	recalled := *s.global[index]
	s.global = append(s.global[:index], s.global[index+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return recalled, nil
}

// RecallNewestGlobal removes and returns the most recently parked global
// hold. Selection and removal happen in one critical section.
func (s *Holds) RecallNewestGlobal() (HeldOrder, error) {
	s.mu.Lock()
	n := len(s.global)
	if n == 0 {
		s.mu.Unlock()
		return HeldOrder{}, ErrNoHeldOrder
	}
	recalled := *s.global[n-1]
	s.global = s.global[:n-1]
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return recalled, nil
}

// ClearForTable drops the table's held cart without recalling it. Used when
// a table session is force-closed; clearing an empty scope is fine.
func (s *Holds) ClearForTable(tableID int64) {
	s.mu.Lock()
	_, ok := s.byTable[tableID]
	if ok {
		delete(s.byTable, tableID)
	}
	var snap HoldsSnapshot
	if ok {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if ok {
		s.publish(snap)
	}
}

// Snapshot returns the current buffer contents.
func (s *Holds) Snapshot() HoldsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// --- Internals ---

func newHeld(tableID *int64, items []OrderItem, heldBy string, at time.Time) (HeldOrder, error) {
	if len(items) == 0 {
		return HeldOrder{}, ErrEmptyItems
	}
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return HeldOrder{}, ErrInvalidQuantity
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return HeldOrder{
		ID:      uuid.New(),
		TableID: tableID,
		Items:   append([]OrderItem(nil), items...),
		Total:   total,
		HeldBy:  heldBy,
		HeldAt:  at,
	}, nil
}

func (s *Holds) snapshotLocked() HoldsSnapshot {
	snap := HoldsSnapshot{
		Tables: make([]HeldOrder, 0, len(s.byTable)),
		Global: make([]HeldOrder, len(s.global)),
	}
	for _, h := range s.byTable {
		held := *h
		held.Items = append([]OrderItem(nil), h.Items...)
		snap.Tables = append(snap.Tables, held)
	}
	sort.Slice(snap.Tables, func(i, j int) bool { return *snap.Tables[i].TableID < *snap.Tables[j].TableID })
	for i, h := range s.global {
		snap.Global[i] = *h
		snap.Global[i].Items = append([]OrderItem(nil), h.Items...)
	}
	return snap
}

func (s *Holds) publish(snap HoldsSnapshot) {
	if s.pub != nil {
		s.pub.Publish(pubsub.TopicHolds, snap)
	}
}
