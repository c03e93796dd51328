package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meja-pos/api/internal/enum"
	"github.com/meja-pos/api/internal/pubsub"
	"github.com/shopspring/decimal"
)

// DefaultArea always exists and cannot be removed.
const DefaultArea = "MAIN"

// DefaultPriorityThreshold is how long a table may stay occupied before the
// priority scan flags it.
const DefaultPriorityThreshold = 15 * time.Minute

// Errors returned by the table store.
var (
	ErrTableNotFound     = errors.New("table not found")
	ErrTableOccupied     = errors.New("table is already occupied")
	ErrTableNotOccupied  = errors.New("table is not occupied")
	ErrInvalidTransition = errors.New("invalid table transition")
	ErrInvalidCapacity   = errors.New("capacity must be > 0")
	ErrDuplicateTableNo  = errors.New("table number already exists")
	ErrAreaNotFound      = errors.New("area not found")
	ErrAreaExists        = errors.New("area already exists")
	ErrAreaNotEmpty      = errors.New("area still contains tables")
	ErrDefaultArea       = errors.New("default area cannot be removed")
	ErrNegativeAmount    = errors.New("amount must be >= 0")
)

// Table is one physical table. Occupancy metadata (order reference, staff,
// start time, running amount, priority flag) is only meaningful while the
// table is OCCUPIED and is cleared atomically on every transition out.
type Table struct {
	ID             int64           `json:"id"`
	Number         int             `json:"number"`
	Name           string          `json:"name"`
	Status         string          `json:"status"`
	Capacity       int             `json:"capacity"`
	Area           string          `json:"area"`
	CurrentOrderID *int64          `json:"current_order_id"`
	Staff          string          `json:"staff"`
	OccupiedAt     *time.Time      `json:"occupied_at"`
	Amount         decimal.Decimal `json:"amount"`
	IsPriority     bool            `json:"is_priority"`
}

// Tables is the per-table occupancy state machine plus area grouping.
type Tables struct {
	mu     sync.Mutex
	pub    pubsub.Publisher
	now    func() time.Time
	nextID int64

	tables []*Table
	areas  map[string]bool

	threshold time.Duration
}

// NewTables creates an empty floor with only the default area.
func NewTables(pub pubsub.Publisher) *Tables {
	return &Tables{
		pub:       pub,
		now:       time.Now,
		nextID:    1,
		areas:     map[string]bool{DefaultArea: true},
		threshold: DefaultPriorityThreshold,
	}
}

// SetPriorityThreshold overrides the occupancy duration after which the
// scan flags a table. Zero or negative keeps the current threshold.
func (s *Tables) SetPriorityThreshold(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.threshold = d
	s.mu.Unlock()
}

// Add creates a table in the given area (default area when empty).
func (s *Tables) Add(number int, name string, capacity int, area string) (Table, error) {
	if capacity <= 0 {
		return Table{}, ErrInvalidCapacity
	}
	if area == "" {
		area = DefaultArea
	}

	s.mu.Lock()
	if !s.areas[area] {
		s.mu.Unlock()
		return Table{}, ErrAreaNotFound
	}
	for _, t := range s.tables {
		if t.Number == number {
			s.mu.Unlock()
			return Table{}, ErrDuplicateTableNo
		}
	}
	if name == "" {
		name = fmt.Sprintf("Table %d", number)
	}
	table := &Table{
		ID:       s.nextID,
		Number:   number,
		Name:     name,
		Status:   enum.TableStatusAvailable,
		Capacity: capacity,
		Area:     area,
		Amount:   decimal.Zero,
	}
	s.nextID++
	s.tables = append(s.tables, table)
	created := *table
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return created, nil
}

// Remove deletes a table. Only AVAILABLE tables may be removed.
func (s *Tables) Remove(id int64) error {
	s.mu.Lock()
	idx := -1
	for i, t := range s.tables {
		if t.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrTableNotFound
	}
	if s.tables[idx].Status != enum.TableStatusAvailable {
		s.mu.Unlock()
		return fmt.Errorf("%w: table is %s", ErrInvalidTransition, s.tables[idx].Status)
	}
	s.tables = append(s.tables[:idx], s.tables[idx+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// Get returns the table with the given id.
func (s *Tables) Get(id int64) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.findLocked(id)
	if t == nil {
		return Table{}, ErrTableNotFound
	}
	return *t, nil
}

// Occupy seats a party at the table. Allowed from AVAILABLE and from
// RESERVED (the caller confirms the reservation override); an OCCUPIED
// table conflicts, CLEANING is not seatable.
func (s *Tables) Occupy(id, orderID int64, staff string) (Table, error) {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	switch t.Status {
	case enum.TableStatusOccupied:
		s.mu.Unlock()
		return Table{}, ErrTableOccupied
	case enum.TableStatusCleaning:
		s.mu.Unlock()
		return Table{}, fmt.Errorf("%w: table is %s", ErrInvalidTransition, t.Status)
	}
	now := s.now()
	t.Status = enum.TableStatusOccupied
	t.CurrentOrderID = &orderID
	t.Staff = staff
	t.OccupiedAt = &now
	t.Amount = decimal.Zero
	t.IsPriority = false
	updated := *t
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// Release returns the table to AVAILABLE from any state, clearing all
// occupancy metadata in the same step.
func (s *Tables) Release(id int64) (Table, error) {
	return s.vacate(id, enum.TableStatusAvailable)
}

// SetCleaning marks the table as being bussed. Valid from any state; the
// table is not seatable until released.
func (s *Tables) SetCleaning(id int64) (Table, error) {
	return s.vacate(id, enum.TableStatusCleaning)
}

func (s *Tables) vacate(id int64, status string) (Table, error) {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	t.Status = status
	t.CurrentOrderID = nil
	t.Staff = ""
	t.OccupiedAt = nil
	t.Amount = decimal.Zero
	t.IsPriority = false
	updated := *t
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// Reserve marks an AVAILABLE table as reserved.
func (s *Tables) Reserve(id int64) (Table, error) {
	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	if t.Status != enum.TableStatusAvailable {
		s.mu.Unlock()
		return Table{}, fmt.Errorf("%w: table is %s", ErrInvalidTransition, t.Status)
	}
	t.Status = enum.TableStatusReserved
	updated := *t
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// UpdateAmount sets the running amount of an OCCUPIED table. On a table in
// any other state it is a no-op; an unknown table still fails.
func (s *Tables) UpdateAmount(id int64, amount decimal.Decimal) (Table, error) {
	if amount.IsNegative() {
		return Table{}, ErrNegativeAmount
	}

	s.mu.Lock()
	t := s.findLocked(id)
	if t == nil {
		s.mu.Unlock()
		return Table{}, ErrTableNotFound
	}
	if t.Status != enum.TableStatusOccupied {
		updated := *t
		s.mu.Unlock()
		return updated, nil
	}
	t.Amount = amount
	updated := *t
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// --- Priority escalation ---

// CheckPriorities flags every OCCUPIED table past the threshold. A table is
// flagged exactly once; the flag clears only when the table is vacated.
// Returns how many tables were newly flagged.
func (s *Tables) CheckPriorities() int {
	s.mu.Lock()
	now := s.now()
	flagged := 0
	for _, t := range s.tables {
		if t.Status != enum.TableStatusOccupied || t.IsPriority || t.OccupiedAt == nil {
			continue
		}
		if now.Sub(*t.OccupiedAt) > s.threshold {
			t.IsPriority = true
			flagged++
		}
	}
	var snap []Table
	if flagged > 0 {
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if flagged > 0 {
		s.publish(snap)
	}
	return flagged
}

// StartPriorityScan runs CheckPriorities on the given interval until the
// context is cancelled. Cancelling the context is the only way to stop the
// scan.
func (s *Tables) StartPriorityScan(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CheckPriorities()
			}
		}
	}()
}

// --- Areas ---

// AddArea registers a named area.
func (s *Tables) AddArea(name string) error {
	if name == "" {
		return ErrAreaNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.areas[name] {
		return ErrAreaExists
	}
	s.areas[name] = true
	return nil
}

// RemoveArea deletes an empty, non-default area.
func (s *Tables) RemoveArea(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == DefaultArea {
		return ErrDefaultArea
	}
	if !s.areas[name] {
		return ErrAreaNotFound
	}
	for _, t := range s.tables {
		if t.Area == name {
			return ErrAreaNotEmpty
		}
	}
	delete(s.areas, name)
	return nil
}

// Areas returns all area names, default area first, rest sorted.
func (s *Tables) Areas() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	rest := make([]string, 0, len(s.areas)-1)
	for name := range s.areas {
		if name != DefaultArea {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append([]string{DefaultArea}, rest...)
}

// --- Read views ---

// List returns a snapshot of all tables: priority-flagged tables first,
// then by table number.
func (s *Tables) List() []Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// ListByArea returns the snapshot filtered to one area.
func (s *Tables) ListByArea(area string) []Table {
	var out []Table
	for _, t := range s.List() {
		if t.Area == area {
			out = append(out, t)
		}
	}
	return out
}

// FindForParty returns the smallest-capacity AVAILABLE table seating at
// least size guests. Ties break toward the lower table number.
func (s *Tables) FindForParty(size int) (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *Table
	for _, t := range s.tables {
		if t.Status != enum.TableStatusAvailable || t.Capacity < size {
			continue
		}
		if best == nil || t.Capacity < best.Capacity ||
			(t.Capacity == best.Capacity && t.Number < best.Number) {
			best = t
		}
	}
	if best == nil {
		return Table{}, false
	}
	return *best, true
}

// --- Internals ---

func (s *Tables) findLocked(id int64) *Table {
	for _, t := range s.tables {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Tables) snapshotLocked() []Table {
	out := make([]Table, len(s.tables))
	for i, t := range s.tables {
		out[i] = *t
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].IsPriority != out[j].IsPriority {
			return out[i].IsPriority
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (s *Tables) publish(snap []Table) {
	if s.pub != nil {
		s.pub.Publish(pubsub.TopicTables, snap)
	}
}
