package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meja-pos/api/internal/service"
)

// SessionHandler exposes the coordinator's composite table-session
// operations. Mounted on the tables subrouter.
type SessionHandler struct {
	coord *service.Coordinator
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(coord *service.Coordinator) *SessionHandler {
	return &SessionHandler{coord: coord}
}

// RegisterRoutes registers session endpoints on the given Chi router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/{id}/start", h.Start)
	r.Post("/{id}/finalize", h.Finalize)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/recall", h.Recall)
}

type startSessionRequest struct {
	Staff string `json:"staff"`
}

// Start handles POST /tables/{id}/start: a new cart order plus occupancy,
// all or nothing.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req startSessionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // staff is optional
	}
	order, err := h.coord.StartOrderForTable(id, req.Staff)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Finalize handles POST /tables/{id}/finalize.
func (h *SessionHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	order, err := h.coord.FinalizeBill(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /tables/{id}/cancel.
func (h *SessionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	order, err := h.coord.CancelForTable(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// Recall handles POST /tables/{id}/recall: reinstates a parked cart as the
// table's current order.
func (h *SessionHandler) Recall(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	order, err := h.coord.RecallOrderToTable(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
