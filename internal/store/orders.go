// Package store holds the in-memory state of the POS core: the order
// ledger, the table state machine, reservations and the hold buffer.
// Stores are plain values constructed with New... and injected where
// needed; there is no package-level state.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/meja-pos/api/internal/enum"
	"github.com/meja-pos/api/internal/pubsub"
	"github.com/shopspring/decimal"
)

// Errors returned by the order store.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyItems       = errors.New("items are required")
	ErrEmptyItemName    = errors.New("item name is required")
	ErrInvalidQuantity  = errors.New("quantity must be > 0")
	ErrInvalidUnitPrice = errors.New("unit price must be >= 0")
	ErrInvalidAmount    = errors.New("total amount must be > 0")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidPriority  = errors.New("invalid priority")
	ErrInvalidOrderType = errors.New("invalid order_type")
	ErrEmptyBulkUpdate  = errors.New("bulk update patch is empty")
)

// OrderItem is a single line on an order.
type OrderItem struct {
	Name      string          `json:"name"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is one ledger entry. Orders move between the active and history
// partitions as their status changes; they are never duplicated.
type Order struct {
	ID           int64           `json:"id"`
	OrderNumber  string          `json:"order_number"`
	Status       string          `json:"status"`
	Priority     string          `json:"priority"`
	Type         string          `json:"type"`
	Items        []OrderItem     `json:"items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	TableID      *int64          `json:"table_id"`
	CustomerName string          `json:"customer_name"`
	WaiterName   string          `json:"waiter_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CreateOrder is the validated input for a complete order.
type CreateOrder struct {
	Type         string
	Priority     string
	Items        []OrderItem
	TableID      *int64
	CustomerName string
	WaiterName   string
}

// OpenOrder starts an empty dine-in cart for a table session. Items and
// totals accrue afterwards, so item validation does not apply.
type OpenOrder struct {
	TableID      *int64
	Type         string
	CustomerName string
	WaiterName   string
}

// OrderPatch is a partial update applied by BulkUpdate. Nil fields are
// left untouched.
type OrderPatch struct {
	Status   *string
	Priority *string
	Type     *string
}

// OrderStats is a pure summary of an order list.
type OrderStats struct {
	Count        int             `json:"count"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	AverageValue decimal.Decimal `json:"average_value"`
	Completed    int             `json:"completed"`
}

// Orders is the order ledger. Non-terminal orders live in the active
// partition, SERVED and CANCELLED orders in history; no id appears in both.
type Orders struct {
	mu     sync.Mutex
	pub    pubsub.Publisher
	now    func() time.Time
	nextID int64
	seq    int

	active  []*Order
	history []*Order
}

// NewOrders creates an empty ledger. pub may be nil (no subscribers).
func NewOrders(pub pubsub.Publisher) *Orders {
	return &Orders{pub: pub, now: time.Now, nextID: 1}
}

// Create validates and inserts a complete order into the active partition.
func (s *Orders) Create(req CreateOrder) (Order, error) {
	if !enum.IsValidOrderType(req.Type) {
		return Order{}, ErrInvalidOrderType
	}
	if req.Priority == "" {
		req.Priority = enum.PriorityMedium
	}
	if !enum.IsValidPriority(req.Priority) {
		return Order{}, ErrInvalidPriority
	}
	if len(req.Items) == 0 {
		return Order{}, ErrEmptyItems
	}
	total := decimal.Zero
	for i, item := range req.Items {
		if item.Name == "" {
			return Order{}, fmt.Errorf("item[%d]: %w", i, ErrEmptyItemName)
		}
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if item.UnitPrice.IsNegative() {
			return Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidUnitPrice)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	if !total.IsPositive() {
		return Order{}, ErrInvalidAmount
	}

	s.mu.Lock()
	order := s.insertLocked(req.TableID, req.Type, req.Priority, req.Items, total, req.CustomerName, req.WaiterName)
	snap := copyOrders(s.active)
	s.mu.Unlock()

	s.publishActive(snap)
	return order, nil
}

// Open starts an empty cart order for a table session. The order enters the
// active partition with status PENDING and a zero total.
func (s *Orders) Open(req OpenOrder) (Order, error) {
	if req.Type == "" {
		req.Type = enum.OrderTypeDineIn
	}
	if !enum.IsValidOrderType(req.Type) {
		return Order{}, ErrInvalidOrderType
	}

	s.mu.Lock()
	order := s.insertLocked(req.TableID, req.Type, enum.PriorityMedium, nil, decimal.Zero, req.CustomerName, req.WaiterName)
	snap := copyOrders(s.active)
	s.mu.Unlock()

	s.publishActive(snap)
	return order, nil
}

func (s *Orders) insertLocked(tableID *int64, typ, priority string, items []OrderItem, total decimal.Decimal, customer, waiter string) Order {
	s.seq++
	order := &Order{
		ID:           s.nextID,
		OrderNumber:  fmt.Sprintf("ORD-%03d", s.seq),
		Status:       enum.OrderStatusPending,
		Priority:     priority,
		Type:         typ,
		Items:        append([]OrderItem(nil), items...),
		TotalAmount:  total,
		TableID:      tableID,
		CustomerName: customer,
		WaiterName:   waiter,
		CreatedAt:    s.now(),
	}
	s.nextID++
	s.active = append(s.active, order)
	return *order
}

// Get returns the order with the given id from either partition.
func (s *Orders) Get(id int64) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, _, _ := s.findLocked(id)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	return *order, nil
}

// UpdateStatus changes an order's status. The partition follows the status:
// moving into SERVED or CANCELLED relocates the order from active to the
// front of history; moving back out relocates it to active. An unknown id
// fails with ErrOrderNotFound, never a silent no-op.
func (s *Orders) UpdateStatus(id int64, status string) (Order, error) {
	if !enum.IsValidOrderStatus(status) {
		return Order{}, ErrInvalidStatus
	}

	s.mu.Lock()
	order, err := s.updateStatusLocked(id, status)
	if err != nil {
		s.mu.Unlock()
		return Order{}, err
	}
	active, history := copyOrders(s.active), copyOrders(s.history)
	s.mu.Unlock()

	s.publishActive(active)
	s.publishHistory(history)
	return order, nil
}

func (s *Orders) updateStatusLocked(id int64, status string) (Order, error) {
	order, inActive, idx := s.findLocked(id)
	if order == nil {
		return Order{}, ErrOrderNotFound
	}
	order.Status = status

	switch {
	case inActive && enum.IsTerminalOrderStatus(status):
		s.active = append(s.active[:idx], s.active[idx+1:]...)
		s.history = append([]*Order{order}, s.history...)
	case !inActive && !enum.IsTerminalOrderStatus(status):
		s.history = append(s.history[:idx], s.history[idx+1:]...)
		s.active = append(s.active, order)
	}
	return *order, nil
}

// UpdatePriority mutates the order in place; the partition is unchanged.
func (s *Orders) UpdatePriority(id int64, priority string) (Order, error) {
	if !enum.IsValidPriority(priority) {
		return Order{}, ErrInvalidPriority
	}

	s.mu.Lock()
	order, inActive, _ := s.findLocked(id)
	if order == nil {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	order.Priority = priority
	updated := *order
	active, history := copyOrders(s.active), copyOrders(s.history)
	s.mu.Unlock()

	if inActive {
		s.publishActive(active)
	} else {
		s.publishHistory(history)
	}
	return updated, nil
}

// ReplaceItems swaps the order's line items and recomputes its total.
// Used when a held cart is recalled onto a table's current order.
func (s *Orders) ReplaceItems(id int64, items []OrderItem) (Order, error) {
	total := decimal.Zero
	for i, item := range items {
		if item.Name == "" {
			return Order{}, fmt.Errorf("item[%d]: %w", i, ErrEmptyItemName)
		}
		if item.Quantity <= 0 {
			return Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	s.mu.Lock()
	order, _, _ := s.findLocked(id)
	if order == nil {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	order.Items = append([]OrderItem(nil), items...)
	order.TotalAmount = total
	updated := *order
	active := copyOrders(s.active)
	s.mu.Unlock()

	s.publishActive(active)
	return updated, nil
}

// SetTotal overrides the order's total amount. Used when a table session is
// finalized from the table's running amount rather than itemized lines.
func (s *Orders) SetTotal(id int64, total decimal.Decimal) (Order, error) {
	if total.IsNegative() {
		return Order{}, ErrInvalidAmount
	}

	s.mu.Lock()
	order, _, _ := s.findLocked(id)
	if order == nil {
		s.mu.Unlock()
		return Order{}, ErrOrderNotFound
	}
	order.TotalAmount = total
	updated := *order
	active := copyOrders(s.active)
	s.mu.Unlock()

	s.publishActive(active)
	return updated, nil
}

// Delete removes the order from whichever partition holds it.
func (s *Orders) Delete(id int64) error {
	s.mu.Lock()
	order, inActive, idx := s.findLocked(id)
	if order == nil {
		s.mu.Unlock()
		return ErrOrderNotFound
	}
	if inActive {
		s.active = append(s.active[:idx], s.active[idx+1:]...)
	} else {
		s.history = append(s.history[:idx], s.history[idx+1:]...)
	}
	active, history := copyOrders(s.active), copyOrders(s.history)
	s.mu.Unlock()

	if inActive {
		s.publishActive(active)
	} else {
		s.publishHistory(history)
	}
	return nil
}

// BulkUpdate applies the same patch to every listed order. All ids and the
// patch are validated before any order is touched, so a failure leaves the
// ledger unchanged. The terminal-state partition rule applies per id.
func (s *Orders) BulkUpdate(ids []int64, patch OrderPatch) error {
	if patch.Status == nil && patch.Priority == nil && patch.Type == nil {
		return ErrEmptyBulkUpdate
	}
	if patch.Status != nil && !enum.IsValidOrderStatus(*patch.Status) {
		return ErrInvalidStatus
	}
	if patch.Priority != nil && !enum.IsValidPriority(*patch.Priority) {
		return ErrInvalidPriority
	}
	if patch.Type != nil && !enum.IsValidOrderType(*patch.Type) {
		return ErrInvalidOrderType
	}

	s.mu.Lock()
	for _, id := range ids {
		if order, _, _ := s.findLocked(id); order == nil {
			s.mu.Unlock()
			return fmt.Errorf("order %d: %w", id, ErrOrderNotFound)
		}
	}
	for _, id := range ids {
		if patch.Priority != nil || patch.Type != nil {
			order, _, _ := s.findLocked(id)
			if patch.Priority != nil {
				order.Priority = *patch.Priority
			}
			if patch.Type != nil {
				order.Type = *patch.Type
			}
		}
		if patch.Status != nil {
			// Relocates between partitions as needed.
			if _, err := s.updateStatusLocked(id, *patch.Status); err != nil {
				s.mu.Unlock()
				return fmt.Errorf("order %d: %w", id, err)
			}
		}
	}
	active, history := copyOrders(s.active), copyOrders(s.history)
	s.mu.Unlock()

	s.publishActive(active)
	s.publishHistory(history)
	return nil
}

// --- Read views ---
// All query views are recomputed from the live partitions on every call.

// Active returns a copy of the active partition in insertion order.
func (s *Orders) Active() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.active)
}

// History returns a copy of the history partition, most recently closed first.
func (s *Orders) History() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrders(s.history)
}

// QueryByStatus returns all orders (both partitions) with the given status.
func (s *Orders) QueryByStatus(status string) []Order {
	return s.filter(func(o *Order) bool { return o.Status == status })
}

// QueryByType returns all orders with the given order type.
func (s *Orders) QueryByType(orderType string) []Order {
	return s.filter(func(o *Order) bool { return o.Type == orderType })
}

// QueryByPriority returns all orders with the given priority.
func (s *Orders) QueryByPriority(priority string) []Order {
	return s.filter(func(o *Order) bool { return o.Priority == priority })
}

// QueryByDateRange returns all orders created in [start, end] inclusive.
func (s *Orders) QueryByDateRange(start, end time.Time) []Order {
	return s.filter(func(o *Order) bool {
		return !o.CreatedAt.Before(start) && !o.CreatedAt.After(end)
	})
}

// Search matches the text case-insensitively against order number, customer,
// waiter and item names across both partitions.
func (s *Orders) Search(text string) []Order {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return nil
	}
	return s.filter(func(o *Order) bool {
		if strings.Contains(strings.ToLower(o.OrderNumber), needle) ||
			strings.Contains(strings.ToLower(o.CustomerName), needle) ||
			strings.Contains(strings.ToLower(o.WaiterName), needle) {
			return true
		}
		for _, item := range o.Items {
			if strings.Contains(strings.ToLower(item.Name), needle) {
				return true
			}
		}
		return false
	})
}

func (s *Orders) filter(keep func(*Order) bool) []Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Order
	for _, o := range s.active {
		if keep(o) {
			out = append(out, *o)
		}
	}
	for _, o := range s.history {
		if keep(o) {
			out = append(out, *o)
		}
	}
	return out
}

// --- Internals ---

// findLocked locates an order by id. Returns the order, whether it lives in
// the active partition, and its index there.
func (s *Orders) findLocked(id int64) (order *Order, inActive bool, idx int) {
	for i, o := range s.active {
		if o.ID == id {
			return o, true, i
		}
	}
	for i, o := range s.history {
		if o.ID == id {
			return o, false, i
		}
	}
	return nil, false, 0
}

func (s *Orders) publishActive(snap []Order) {
	if s.pub != nil {
		s.pub.Publish(pubsub.TopicActiveOrders, snap)
	}
}

func (s *Orders) publishHistory(snap []Order) {
	if s.pub != nil {
		s.pub.Publish(pubsub.TopicHistoryOrders, snap)
	}
}

func copyOrders(src []*Order) []Order {
	out := make([]Order, len(src))
	for i, o := range src {
		out[i] = *o
		out[i].Items = append([]OrderItem(nil), o.Items...)
	}
	return out
}

// SortForDisplay orders the list most urgent first, ties broken by creation
// time ascending. Presentation surfaces rely on exactly this rule.
func SortForDisplay(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		ri, rj := enum.PriorityRank(orders[i].Priority), enum.PriorityRank(orders[j].Priority)
		if ri != rj {
			return ri < rj
		}
		return orders[i].CreatedAt.Before(orders[j].CreatedAt)
	})
}

// Statistics summarizes an order list. Pure function; no store state.
func Statistics(orders []Order) OrderStats {
	stats := OrderStats{Count: len(orders), TotalRevenue: decimal.Zero, AverageValue: decimal.Zero}
	for _, o := range orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		if o.Status == enum.OrderStatusServed {
			stats.Completed++
		}
	}
	if stats.Count > 0 {
		stats.AverageValue = stats.TotalRevenue.Div(decimal.NewFromInt(int64(stats.Count))).Round(2)
	}
	return stats
}
