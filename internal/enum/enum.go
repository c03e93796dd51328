package enum

// ── Order lifecycle ──

const (
	OrderStatusPending   = "PENDING"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusServed    = "SERVED"
	OrderStatusCancelled = "CANCELLED"
)

// IsTerminalOrderStatus reports whether orders in this status belong to the
// history partition.
func IsTerminalOrderStatus(s string) bool {
	return s == OrderStatusServed || s == OrderStatusCancelled
}

func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady,
		OrderStatusServed, OrderStatusCancelled:
		return true
	}
	return false
}

// ── Order priority ──

const (
	PriorityUrgent = "URGENT"
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// PriorityRank maps a priority to its sort rank. Most urgent sorts first.
// Unknown priorities rank after LOW so they never jump the queue.
func PriorityRank(p string) int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

func IsValidPriority(p string) bool {
	return PriorityRank(p) < 4
}

// ── Order type ──

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

func IsValidOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

// ── Table occupancy ──

const (
	TableStatusAvailable = "AVAILABLE"
	TableStatusOccupied  = "OCCUPIED"
	TableStatusReserved  = "RESERVED"
	TableStatusCleaning  = "CLEANING"
)

// ── Reservation lifecycle ──

const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusConfirmed = "CONFIRMED"
	ReservationStatusArrived   = "ARRIVED"
	ReservationStatusCancelled = "CANCELLED"
)

// IsTerminalReservationStatus reports whether a reservation can no longer
// transition.
func IsTerminalReservationStatus(s string) bool {
	return s == ReservationStatusArrived || s == ReservationStatusCancelled
}
