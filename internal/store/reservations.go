package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meja-pos/api/internal/enum"
	"github.com/meja-pos/api/internal/pubsub"
)

// Errors returned by the reservation manager.
var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationClosed   = errors.New("reservation is already closed")
	ErrNoTableCapacity     = errors.New("no table can seat the party")
	ErrEmptyCustomerName   = errors.New("customer name is required")
	ErrInvalidPartySize    = errors.New("party size must be > 0")
	ErrInvalidTime         = errors.New("reservation time is required")
)

// Reservation is a future-dated booking for a table. ARRIVED and CANCELLED
// are terminal.
type Reservation struct {
	ID           uuid.UUID `json:"id"`
	TableID      int64     `json:"table_id"`
	CustomerName string    `json:"customer_name"`
	Phone        string    `json:"phone"`
	PartySize    int       `json:"party_size"`
	Time         time.Time `json:"time"`
	Status       string    `json:"status"`
}

// CreateReservation is the validated input for a booking. TableID nil lets
// the manager select the smallest AVAILABLE table that fits the party.
type CreateReservation struct {
	TableID      *int64
	CustomerName string
	Phone        string
	PartySize    int
	Time         time.Time
}

// Reservations manages bookings and keeps them synchronized with the table
// state machine: creating a booking reserves the table, arrival occupies it,
// cancellation releases it.
type Reservations struct {
	mu     sync.Mutex
	pub    pubsub.Publisher
	now    func() time.Time
	tables *Tables
	orders *Orders

	list []*Reservation
}

// NewReservations creates a manager bound to the table and order stores.
func NewReservations(pub pubsub.Publisher, tables *Tables, orders *Orders) *Reservations {
	return &Reservations{pub: pub, now: time.Now, tables: tables, orders: orders}
}

// Create books a table. An explicit table must seat the party; otherwise the
// smallest-capacity AVAILABLE table that fits is chosen. The chosen table is
// reserved as part of the same step; subscribers see the table and the
// booking change together.
func (s *Reservations) Create(req CreateReservation) (Reservation, error) {
	var (
		res Reservation
		err error
	)
	pubsub.Batch(s.pub, func() { res, err = s.create(req) })
	return res, err
}

func (s *Reservations) create(req CreateReservation) (Reservation, error) {
	if req.CustomerName == "" {
		return Reservation{}, ErrEmptyCustomerName
	}
	if req.PartySize <= 0 {
		return Reservation{}, ErrInvalidPartySize
	}
	if req.Time.IsZero() {
		return Reservation{}, ErrInvalidTime
	}

	var table Table
	if req.TableID != nil {
		t, err := s.tables.Get(*req.TableID)
		if err != nil {
			return Reservation{}, err
		}
		if t.Capacity < req.PartySize {
			return Reservation{}, fmt.Errorf("%w: table %d seats %d", ErrNoTableCapacity, t.Number, t.Capacity)
		}
		table = t
	} else {
		t, ok := s.tables.FindForParty(req.PartySize)
		if !ok {
			return Reservation{}, ErrNoTableCapacity
		}
		table = t
	}

	if _, err := s.tables.Reserve(table.ID); err != nil {
		return Reservation{}, err
	}

	s.mu.Lock()
	res := &Reservation{
		ID:           uuid.New(),
		TableID:      table.ID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		Time:         req.Time,
		Status:       enum.ReservationStatusPending,
	}
	s.list = append(s.list, res)
	created := *res
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return created, nil
}

// Confirm moves a PENDING reservation to CONFIRMED.
func (s *Reservations) Confirm(id uuid.UUID) (Reservation, error) {
	s.mu.Lock()
	res := s.findLocked(id)
	if res == nil {
		s.mu.Unlock()
		return Reservation{}, ErrReservationNotFound
	}
	if res.Status != enum.ReservationStatusPending {
		s.mu.Unlock()
		return Reservation{}, fmt.Errorf("%w: reservation is %s", ErrReservationClosed, res.Status)
	}
	res.Status = enum.ReservationStatusConfirmed
	updated := *res
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// MarkArrived seats the party: the reservation becomes ARRIVED and the
// linked table becomes OCCUPIED in one atomic step. A cart order is opened
// to back the occupancy, since an occupied table always references an order.
// If the table cannot be occupied (already seated, or reserved for a
// different booking) nothing changes.
func (s *Reservations) MarkArrived(id uuid.UUID) (Reservation, error) {
	var (
		res Reservation
		err error
	)
	pubsub.Batch(s.pub, func() { res, err = s.markArrived(id) })
	return res, err
}

func (s *Reservations) markArrived(id uuid.UUID) (Reservation, error) {
	s.mu.Lock()
	res := s.findLocked(id)
	if res == nil {
		s.mu.Unlock()
		return Reservation{}, ErrReservationNotFound
	}
	if enum.IsTerminalReservationStatus(res.Status) {
		s.mu.Unlock()
		return Reservation{}, fmt.Errorf("%w: reservation is %s", ErrReservationClosed, res.Status)
	}
	resCopy := *res
	otherHolds := s.otherActiveForLocked(res.TableID, res.ID)
	s.mu.Unlock()

	// Preconditions first, mutations after: the table must be free, or
	// reserved by this very booking.
	table, err := s.tables.Get(resCopy.TableID)
	if err != nil {
		return Reservation{}, err
	}
	switch table.Status {
	case enum.TableStatusAvailable:
	case enum.TableStatusReserved:
		if otherHolds {
			return Reservation{}, fmt.Errorf("%w: table %d reserved for another booking", ErrTableOccupied, table.Number)
		}
	default:
		if table.Status == enum.TableStatusOccupied {
			return Reservation{}, ErrTableOccupied
		}
		return Reservation{}, fmt.Errorf("%w: table is %s", ErrInvalidTransition, table.Status)
	}

	order, err := s.orders.Open(OpenOrder{
		TableID:      &resCopy.TableID,
		Type:         enum.OrderTypeDineIn,
		CustomerName: resCopy.CustomerName,
	})
	if err != nil {
		return Reservation{}, err
	}
	if _, err := s.tables.Occupy(resCopy.TableID, order.ID, ""); err != nil {
		// Roll back the opened order; the reservation stays as it was.
		_ = s.orders.Delete(order.ID)
		return Reservation{}, err
	}

	return s.completeArrival(id, order.ID)
}

// completeArrival records the arrival once the table is seated. A
// cancellation that landed in the meantime wins: the seating is rolled back
// and the terminal status stands.
func (s *Reservations) completeArrival(id uuid.UUID, orderID int64) (Reservation, error) {
	s.mu.Lock()
	res := s.findLocked(id)
	if res == nil || enum.IsTerminalReservationStatus(res.Status) {
		var tableID int64
		status := ""
		if res != nil {
			tableID = res.TableID
			status = res.Status
		}
		s.mu.Unlock()

		_ = s.orders.Delete(orderID)
		if res == nil {
			return Reservation{}, ErrReservationNotFound
		}
		_, _ = s.tables.Release(tableID)
		return Reservation{}, fmt.Errorf("%w: reservation is %s", ErrReservationClosed, status)
	}
	res.Status = enum.ReservationStatusArrived
	updated := *res
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publish(snap)
	return updated, nil
}

// Cancel closes the reservation and, when the table is still held in
// RESERVED for it, releases the table back to AVAILABLE.
func (s *Reservations) Cancel(id uuid.UUID) (Reservation, error) {
	var (
		res Reservation
		err error
	)
	pubsub.Batch(s.pub, func() { res, err = s.cancel(id) })
	return res, err
}

func (s *Reservations) cancel(id uuid.UUID) (Reservation, error) {
	s.mu.Lock()
	res := s.findLocked(id)
	if res == nil {
		s.mu.Unlock()
		return Reservation{}, ErrReservationNotFound
	}
	if enum.IsTerminalReservationStatus(res.Status) {
		s.mu.Unlock()
		return Reservation{}, fmt.Errorf("%w: reservation is %s", ErrReservationClosed, res.Status)
	}
	res.Status = enum.ReservationStatusCancelled
	tableID := res.TableID
	updated := *res
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if t, err := s.tables.Get(tableID); err == nil && t.Status == enum.TableStatusReserved {
		_, _ = s.tables.Release(tableID)
	}

	s.publish(snap)
	return updated, nil
}

// Get returns the reservation with the given id.
func (s *Reservations) Get(id uuid.UUID) (Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.findLocked(id)
	if res == nil {
		return Reservation{}, ErrReservationNotFound
	}
	return *res, nil
}

// Upcoming returns future PENDING and CONFIRMED reservations, soonest first.
func (s *Reservations) Upcoming() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var out []Reservation
	for _, res := range s.list {
		if !enum.IsTerminalReservationStatus(res.Status) && res.Time.After(now) {
			out = append(out, *res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// List returns every reservation in creation order.
func (s *Reservations) List() []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// --- Internals ---

func (s *Reservations) findLocked(id uuid.UUID) *Reservation {
	for _, res := range s.list {
		if res.ID == id {
			return res
		}
	}
	return nil
}

// otherActiveForLocked reports whether a different open booking targets the
// same table.
func (s *Reservations) otherActiveForLocked(tableID int64, except uuid.UUID) bool {
	for _, res := range s.list {
		if res.ID != except && res.TableID == tableID && !enum.IsTerminalReservationStatus(res.Status) {
			return true
		}
	}
	return false
}

func (s *Reservations) snapshotLocked() []Reservation {
	out := make([]Reservation, len(s.list))
	for i, res := range s.list {
		out[i] = *res
	}
	return out
}

func (s *Reservations) publish(snap []Reservation) {
	if s.pub != nil {
		s.pub.Publish(pubsub.TopicReservations, snap)
	}
}
