package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/meja-pos/api/internal/store"
)

// ReservationHandler handles reservation endpoints.
type ReservationHandler struct {
	store *store.Reservations
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservations *store.Reservations) *ReservationHandler {
	return &ReservationHandler{store: reservations}
}

// RegisterRoutes registers reservation endpoints on the given Chi router.
func (h *ReservationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Upcoming)
	r.Get("/all", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/confirm", h.Confirm)
	r.Post("/{id}/arrive", h.MarkArrived)
	r.Post("/{id}/cancel", h.Cancel)
}

type createReservationRequest struct {
	TableID      *int64 `json:"table_id"`
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	PartySize    int    `json:"party_size"`
	Time         string `json:"time"` // RFC3339
}

// Upcoming handles GET /reservations: future open bookings, soonest first.
func (h *ReservationHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Upcoming())
}

// List handles GET /reservations/all.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	at, err := time.Parse(time.RFC3339, req.Time)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid time, want RFC3339"})
		return
	}
	res, err := h.store.Create(store.CreateReservation{
		TableID:      req.TableID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		Time:         at,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Confirm handles POST /reservations/{id}/confirm.
func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.Confirm)
}

// MarkArrived handles POST /reservations/{id}/arrive.
func (h *ReservationHandler) MarkArrived(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.MarkArrived)
}

// Cancel handles POST /reservations/{id}/cancel.
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.store.Cancel)
}

func (h *ReservationHandler) transition(w http.ResponseWriter, r *http.Request, fn func(uuid.UUID) (store.Reservation, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid reservation ID"})
		return
	}
	res, err := fn(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
