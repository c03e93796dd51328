// Package service composes the state stores into the cross-entity
// operations callers use. Every operation validates its preconditions
// before mutating anything, so a failure leaves the stores consistent.
package service

import (
	"errors"
	"sync"

	"github.com/meja-pos/api/internal/enum"
	"github.com/meja-pos/api/internal/pubsub"
	"github.com/meja-pos/api/internal/store"
)

// Errors returned by the coordinator.
var (
	ErrTableNotSeatable = errors.New("table cannot be seated")
	ErrNoCurrentOrder   = errors.New("table has no current order")
)

// Coordinator owns the composite table-session operations: opening a table,
// settling its bill, cancelling it, and recalling a parked cart onto it.
// Each operation runs inside a publish batch, so subscribers only ever see
// the snapshot of the fully settled step.
type Coordinator struct {
	pub    pubsub.Publisher
	orders *store.Orders
	tables *store.Tables
	holds  *store.Holds

	rotation   sync.Mutex
	waiters    []string
	nextWaiter int
}

// NewCoordinator wires the coordinator to its stores. pub must be the same
// publisher the stores use. waiters is the roster used for round-robin
// auto-assignment; it may be empty.
func NewCoordinator(pub pubsub.Publisher, orders *store.Orders, tables *store.Tables, holds *store.Holds, waiters []string) *Coordinator {
	return &Coordinator{
		pub:     pub,
		orders:  orders,
		tables:  tables,
		holds:   holds,
		waiters: append([]string(nil), waiters...),
	}
}

// StartOrderForTable opens a new PENDING cart order and occupies the table
// with it, all or nothing. An empty staff name takes the next waiter from
// the rotation.
func (c *Coordinator) StartOrderForTable(tableID int64, staff string) (store.Order, error) {
	var (
		order store.Order
		err   error
	)
	pubsub.Batch(c.pub, func() { order, err = c.startOrderForTable(tableID, staff) })
	return order, err
}

func (c *Coordinator) startOrderForTable(tableID int64, staff string) (store.Order, error) {
	table, err := c.tables.Get(tableID)
	if err != nil {
		return store.Order{}, err
	}
	switch table.Status {
	case enum.TableStatusAvailable, enum.TableStatusReserved:
	case enum.TableStatusOccupied:
		return store.Order{}, store.ErrTableOccupied
	default:
		return store.Order{}, ErrTableNotSeatable
	}

	if staff == "" {
		staff = c.takeNextWaiter()
	}

	order, err := c.orders.Open(store.OpenOrder{
		TableID:    &tableID,
		Type:       enum.OrderTypeDineIn,
		WaiterName: staff,
	})
	if err != nil {
		return store.Order{}, err
	}
	if _, err := c.tables.Occupy(tableID, order.ID, staff); err != nil {
		// Neither half survives a failed occupy.
		_ = c.orders.Delete(order.ID)
		return store.Order{}, err
	}
	return order, nil
}

// FinalizeBill settles a table: the current order is served into history,
// the table is released and any parked cart for it is dropped. When the
// cart order was never itemized, the table's running amount becomes the
// order total.
func (c *Coordinator) FinalizeBill(tableID int64) (store.Order, error) {
	var (
		order store.Order
		err   error
	)
	pubsub.Batch(c.pub, func() { order, err = c.finalizeBill(tableID) })
	return order, err
}

func (c *Coordinator) finalizeBill(tableID int64) (store.Order, error) {
	table, err := c.tables.Get(tableID)
	if err != nil {
		return store.Order{}, err
	}
	if table.Status != enum.TableStatusOccupied || table.CurrentOrderID == nil {
		return store.Order{}, store.ErrTableNotOccupied
	}
	orderID := *table.CurrentOrderID
	order, err := c.orders.Get(orderID)
	if err != nil {
		return store.Order{}, err
	}

	if order.TotalAmount.IsZero() && table.Amount.IsPositive() {
		if _, err := c.orders.SetTotal(orderID, table.Amount); err != nil {
			return store.Order{}, err
		}
	}
	served, err := c.orders.UpdateStatus(orderID, enum.OrderStatusServed)
	if err != nil {
		return store.Order{}, err
	}
	if _, err := c.tables.Release(tableID); err != nil {
		return store.Order{}, err
	}
	c.holds.ClearForTable(tableID)
	return served, nil
}

// CancelForTable voids the table's current order and releases the table.
func (c *Coordinator) CancelForTable(tableID int64) (store.Order, error) {
	var (
		order store.Order
		err   error
	)
	pubsub.Batch(c.pub, func() { order, err = c.cancelForTable(tableID) })
	return order, err
}

func (c *Coordinator) cancelForTable(tableID int64) (store.Order, error) {
	table, err := c.tables.Get(tableID)
	if err != nil {
		return store.Order{}, err
	}
	if table.Status != enum.TableStatusOccupied || table.CurrentOrderID == nil {
		return store.Order{}, store.ErrTableNotOccupied
	}
	orderID := *table.CurrentOrderID
	if _, err := c.orders.Get(orderID); err != nil {
		return store.Order{}, err
	}

	cancelled, err := c.orders.UpdateStatus(orderID, enum.OrderStatusCancelled)
	if err != nil {
		return store.Order{}, err
	}
	if _, err := c.tables.Release(tableID); err != nil {
		return store.Order{}, err
	}
	return cancelled, nil
}

// RecallOrderToTable pulls a parked cart (the table's own hold first, the
// newest global hold otherwise) and reinstates it as the occupied table's
// current cart. The existing order record is reused, never duplicated.
func (c *Coordinator) RecallOrderToTable(tableID int64) (store.Order, error) {
	var (
		order store.Order
		err   error
	)
	pubsub.Batch(c.pub, func() { order, err = c.recallOrderToTable(tableID) })
	return order, err
}

func (c *Coordinator) recallOrderToTable(tableID int64) (store.Order, error) {
	table, err := c.tables.Get(tableID)
	if err != nil {
		return store.Order{}, err
	}
	if table.Status != enum.TableStatusOccupied || table.CurrentOrderID == nil {
		return store.Order{}, store.ErrTableNotOccupied
	}
	orderID := *table.CurrentOrderID
	if _, err := c.orders.Get(orderID); err != nil {
		return store.Order{}, err
	}

	held, err := c.holds.RecallForTable(tableID)
	if errors.Is(err, store.ErrNoHeldOrder) {
		held, err = c.holds.RecallNewestGlobal()
	}
	if err != nil {
		return store.Order{}, err
	}

	order, err := c.orders.ReplaceItems(orderID, held.Items)
	if err != nil {
		return store.Order{}, err
	}
	if _, err := c.tables.UpdateAmount(tableID, order.TotalAmount); err != nil {
		return store.Order{}, err
	}
	return order, nil
}

// takeNextWaiter returns the next name in the rotation, or "" with no
// roster.
func (c *Coordinator) takeNextWaiter() string {
	c.rotation.Lock()
	defer c.rotation.Unlock()
	if len(c.waiters) == 0 {
		return ""
	}
	w := c.waiters[c.nextWaiter%len(c.waiters)]
	c.nextWaiter++
	return w
}
