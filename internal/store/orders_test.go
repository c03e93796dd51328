package store

import (
	"errors"
	"testing"
	"time"

	"github.com/meja-pos/api/internal/enum"
	"github.com/shopspring/decimal"
)

func price(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func basicItems() []OrderItem {
	return []OrderItem{
		{Name: "Nasi Goreng", Quantity: 2, UnitPrice: price("45000")},
		{Name: "Es Teh Manis", Quantity: 2, UnitPrice: price("8000")},
	}
}

func basicCreate() CreateOrder {
	return CreateOrder{
		Type:         enum.OrderTypeDineIn,
		Items:        basicItems(),
		CustomerName: "Budi",
		WaiterName:   "Sari",
	}
}

func mustCreate(t *testing.T, s *Orders, req CreateOrder) Order {
	t.Helper()
	order, err := s.Create(req)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

// inPartition reports whether the id is present, and where.
func locate(s *Orders, id int64) (active, history bool) {
	for _, o := range s.Active() {
		if o.ID == id {
			active = true
		}
	}
	for _, o := range s.History() {
		if o.ID == id {
			history = true
		}
	}
	return
}

// =====================
// Validation
// =====================

func TestCreate_EmptyItems(t *testing.T) {
	s := NewOrders(nil)
	req := basicCreate()
	req.Items = nil
	if _, err := s.Create(req); !errors.Is(err, ErrEmptyItems) {
		t.Fatalf("expected ErrEmptyItems, got: %v", err)
	}
}

func TestCreate_ZeroQuantity(t *testing.T) {
	s := NewOrders(nil)
	req := basicCreate()
	req.Items[0].Quantity = 0
	if _, err := s.Create(req); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got: %v", err)
	}
}

func TestCreate_InvalidType(t *testing.T) {
	s := NewOrders(nil)
	req := basicCreate()
	req.Type = "DRIVE_THRU"
	if _, err := s.Create(req); !errors.Is(err, ErrInvalidOrderType) {
		t.Fatalf("expected ErrInvalidOrderType, got: %v", err)
	}
}

func TestCreate_ZeroTotal(t *testing.T) {
	s := NewOrders(nil)
	req := basicCreate()
	req.Items = []OrderItem{{Name: "Water", Quantity: 1, UnitPrice: decimal.Zero}}
	if _, err := s.Create(req); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got: %v", err)
	}
}

func TestCreate_DefaultsAndTotal(t *testing.T) {
	s := NewOrders(nil)
	order := mustCreate(t, s, basicCreate())

	if order.Status != enum.OrderStatusPending {
		t.Fatalf("expected PENDING, got %s", order.Status)
	}
	if order.Priority != enum.PriorityMedium {
		t.Fatalf("expected MEDIUM default priority, got %s", order.Priority)
	}
	if order.OrderNumber != "ORD-001" {
		t.Fatalf("expected ORD-001, got %s", order.OrderNumber)
	}
	if !order.TotalAmount.Equal(price("106000")) {
		t.Fatalf("expected total 106000, got %s", order.TotalAmount)
	}
}

// =====================
// Partition invariant
// =====================

func TestUpdateStatus_TerminalMovesToHistory(t *testing.T) {
	s := NewOrders(nil)
	req := basicCreate()
	req.Type = enum.OrderTypeDelivery
	order := mustCreate(t, s, req)

	if active, history := locate(s, order.ID); !active || history {
		t.Fatalf("new order should be active only, got active=%v history=%v", active, history)
	}

	for _, status := range []string{enum.OrderStatusPreparing, enum.OrderStatusReady} {
		if _, err := s.UpdateStatus(order.ID, status); err != nil {
			t.Fatalf("update to %s: %v", status, err)
		}
		if active, history := locate(s, order.ID); !active || history {
			t.Fatalf("%s order should stay active, got active=%v history=%v", status, active, history)
		}
	}

	if _, err := s.UpdateStatus(order.ID, enum.OrderStatusServed); err != nil {
		t.Fatalf("update to SERVED: %v", err)
	}
	if active, history := locate(s, order.ID); active || !history {
		t.Fatalf("served order should be history only, got active=%v history=%v", active, history)
	}
}

func TestUpdateStatus_HistoryIsPrepended(t *testing.T) {
	s := NewOrders(nil)
	first := mustCreate(t, s, basicCreate())
	second := mustCreate(t, s, basicCreate())

	if _, err := s.UpdateStatus(first.ID, enum.OrderStatusServed); err != nil {
		t.Fatalf("serve first: %v", err)
	}
	if _, err := s.UpdateStatus(second.ID, enum.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel second: %v", err)
	}

	history := s.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history orders, got %d", len(history))
	}
	if history[0].ID != second.ID {
		t.Fatalf("most recently closed order should lead history, got id %d", history[0].ID)
	}
}

func TestUpdateStatus_ReopenMovesBackToActive(t *testing.T) {
	s := NewOrders(nil)
	order := mustCreate(t, s, basicCreate())

	if _, err := s.UpdateStatus(order.ID, enum.OrderStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := s.UpdateStatus(order.ID, enum.OrderStatusPending); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if active, history := locate(s, order.ID); !active || history {
		t.Fatalf("reopened order should be active only, got active=%v history=%v", active, history)
	}
}

func TestUpdateStatus_UnknownID(t *testing.T) {
	s := NewOrders(nil)
	if _, err := s.UpdateStatus(42, enum.OrderStatusReady); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	s := NewOrders(nil)
	order := mustCreate(t, s, basicCreate())
	if _, err := s.UpdateStatus(order.ID, "EATEN"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got: %v", err)
	}
}

func TestUpdatePriority_InPlace(t *testing.T) {
	s := NewOrders(nil)
	order := mustCreate(t, s, basicCreate())

	updated, err := s.UpdatePriority(order.ID, enum.PriorityUrgent)
	if err != nil {
		t.Fatalf("update priority: %v", err)
	}
	if updated.Priority != enum.PriorityUrgent {
		t.Fatalf("expected URGENT, got %s", updated.Priority)
	}
	if active, history := locate(s, order.ID); !active || history {
		t.Fatal("priority update must not change the partition")
	}
}

func TestUpdatePriority_UnknownID(t *testing.T) {
	s := NewOrders(nil)
	if _, err := s.UpdatePriority(7, enum.PriorityLow); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
}

func TestDelete_FromEitherPartition(t *testing.T) {
	s := NewOrders(nil)
	kept := mustCreate(t, s, basicCreate())
	gone := mustCreate(t, s, basicCreate())

	if _, err := s.UpdateStatus(gone.ID, enum.OrderStatusServed); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if err := s.Delete(gone.ID); err != nil {
		t.Fatalf("delete from history: %v", err)
	}
	if err := s.Delete(kept.ID); err != nil {
		t.Fatalf("delete from active: %v", err)
	}
	if err := s.Delete(kept.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on double delete, got: %v", err)
	}
	if len(s.Active()) != 0 || len(s.History()) != 0 {
		t.Fatal("expected empty ledger")
	}
}

// =====================
// Bulk update
// =====================

func TestBulkUpdate_AppliesPatchAndMigrates(t *testing.T) {
	s := NewOrders(nil)
	a := mustCreate(t, s, basicCreate())
	b := mustCreate(t, s, basicCreate())

	served := enum.OrderStatusServed
	high := enum.PriorityHigh
	if err := s.BulkUpdate([]int64{a.ID, b.ID}, OrderPatch{Status: &served, Priority: &high}); err != nil {
		t.Fatalf("bulk update: %v", err)
	}
	for _, id := range []int64{a.ID, b.ID} {
		if active, history := locate(s, id); active || !history {
			t.Fatalf("order %d should have migrated to history", id)
		}
	}
	for _, o := range s.History() {
		if o.Priority != enum.PriorityHigh {
			t.Fatalf("order %d priority not patched", o.ID)
		}
	}
}

func TestBulkUpdate_UnknownIDLeavesLedgerUntouched(t *testing.T) {
	s := NewOrders(nil)
	a := mustCreate(t, s, basicCreate())

	served := enum.OrderStatusServed
	err := s.BulkUpdate([]int64{a.ID, 999}, OrderPatch{Status: &served})
	if !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got: %v", err)
	}
	if active, _ := locate(s, a.ID); !active {
		t.Fatal("failed bulk update must not apply partially")
	}
}

func TestBulkUpdate_EmptyPatch(t *testing.T) {
	s := NewOrders(nil)
	a := mustCreate(t, s, basicCreate())
	if err := s.BulkUpdate([]int64{a.ID}, OrderPatch{}); !errors.Is(err, ErrEmptyBulkUpdate) {
		t.Fatalf("expected ErrEmptyBulkUpdate, got: %v", err)
	}
}

// =====================
// Read views
// =====================

func TestQueries_SpanBothPartitions(t *testing.T) {
	s := NewOrders(nil)
	a := mustCreate(t, s, basicCreate())
	req := basicCreate()
	req.Type = enum.OrderTypeTakeaway
	b := mustCreate(t, s, req)
	if _, err := s.UpdateStatus(b.ID, enum.OrderStatusServed); err != nil {
		t.Fatalf("serve: %v", err)
	}

	if got := s.QueryByType(enum.OrderTypeTakeaway); len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("type query should see history orders, got %v", got)
	}
	if got := s.QueryByStatus(enum.OrderStatusPending); len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("status query wrong, got %v", got)
	}
}

func TestSearch_MatchesItemsAndNames(t *testing.T) {
	s := NewOrders(nil)
	order := mustCreate(t, s, basicCreate())

	for _, q := range []string{"nasi", "BUDI", "sari", "ord-001"} {
		got := s.Search(q)
		if len(got) != 1 || got[0].ID != order.ID {
			t.Fatalf("search %q: expected 1 hit, got %d", q, len(got))
		}
	}
	if got := s.Search("pizza"); len(got) != 0 {
		t.Fatalf("search pizza: expected no hits, got %d", len(got))
	}
}

func TestQueryByDateRange_Inclusive(t *testing.T) {
	s := NewOrders(nil)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	order := mustCreate(t, s, basicCreate())

	if got := s.QueryByDateRange(base, base); len(got) != 1 || got[0].ID != order.ID {
		t.Fatal("range bounds should be inclusive")
	}
	if got := s.QueryByDateRange(base.Add(time.Minute), base.Add(time.Hour)); len(got) != 0 {
		t.Fatal("order outside range should not match")
	}
}

// =====================
// Display sort
// =====================

func TestSortForDisplay_PriorityThenAge(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: 1, Priority: enum.PriorityLow, CreatedAt: base},
		{ID: 2, Priority: enum.PriorityUrgent, CreatedAt: base.Add(3 * time.Minute)},
		{ID: 3, Priority: enum.PriorityMedium, CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, Priority: enum.PriorityMedium, CreatedAt: base.Add(time.Minute)},
		{ID: 5, Priority: enum.PriorityUrgent, CreatedAt: base},
	}
	SortForDisplay(orders)

	want := []int64{5, 2, 4, 3, 1}
	for i, id := range want {
		if orders[i].ID != id {
			t.Fatalf("position %d: expected order %d, got %d", i, id, orders[i].ID)
		}
	}
}

func TestSortForDisplay_StableOnTies(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := []Order{
		{ID: 1, Priority: enum.PriorityHigh, CreatedAt: base},
		{ID: 2, Priority: enum.PriorityHigh, CreatedAt: base},
		{ID: 3, Priority: enum.PriorityHigh, CreatedAt: base},
	}
	SortForDisplay(orders)
	for i, id := range []int64{1, 2, 3} {
		if orders[i].ID != id {
			t.Fatalf("equal keys must keep input order, got %v", orders)
		}
	}
}

// =====================
// Statistics
// =====================

func TestStatistics(t *testing.T) {
	orders := []Order{
		{Status: enum.OrderStatusServed, TotalAmount: price("100")},
		{Status: enum.OrderStatusPending, TotalAmount: price("50")},
		{Status: enum.OrderStatusServed, TotalAmount: price("30")},
	}
	stats := Statistics(orders)

	if stats.Count != 3 {
		t.Fatalf("count: expected 3, got %d", stats.Count)
	}
	if !stats.TotalRevenue.Equal(price("180")) {
		t.Fatalf("revenue: expected 180, got %s", stats.TotalRevenue)
	}
	if !stats.AverageValue.Equal(price("60")) {
		t.Fatalf("average: expected 60, got %s", stats.AverageValue)
	}
	if stats.Completed != 2 {
		t.Fatalf("completed: expected 2, got %d", stats.Completed)
	}
}

func TestStatistics_Empty(t *testing.T) {
	stats := Statistics(nil)
	if stats.Count != 0 || !stats.TotalRevenue.IsZero() || !stats.AverageValue.IsZero() {
		t.Fatalf("empty stats should be zero, got %+v", stats)
	}
}
