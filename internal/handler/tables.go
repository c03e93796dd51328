package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meja-pos/api/internal/store"
	"github.com/shopspring/decimal"
)

// TableHandler handles table and area endpoints.
type TableHandler struct {
	store *store.Tables
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(tables *store.Tables) *TableHandler {
	return &TableHandler{store: tables}
}

// RegisterRoutes registers table endpoints on the given Chi router.
func (h *TableHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Add)
	r.Route("/areas", func(r chi.Router) {
		r.Get("/", h.ListAreas)
		r.Post("/", h.AddArea)
		r.Delete("/{name}", h.RemoveArea)
	})
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Remove)
	r.Post("/{id}/occupy", h.Occupy)
	r.Post("/{id}/release", h.Release)
	r.Post("/{id}/reserve", h.Reserve)
	r.Post("/{id}/cleaning", h.SetCleaning)
	r.Patch("/{id}/amount", h.UpdateAmount)
}

// --- Request types ---

type addTableRequest struct {
	Number   int    `json:"number"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	Area     string `json:"area"`
}

type occupyRequest struct {
	OrderID int64  `json:"order_id"`
	Staff   string `json:"staff"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type areaRequest struct {
	Name string `json:"name"`
}

// --- Handlers ---

// List handles GET /tables, optionally filtered by ?area=.
func (h *TableHandler) List(w http.ResponseWriter, r *http.Request) {
	if area := r.URL.Query().Get("area"); area != "" {
		writeJSON(w, http.StatusOK, h.store.ListByArea(area))
		return
	}
	writeJSON(w, http.StatusOK, h.store.List())
}

// Add handles POST /tables.
func (h *TableHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addTableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	table, err := h.store.Add(req.Number, req.Name, req.Capacity, req.Area)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, table)
}

// Get handles GET /tables/{id}.
func (h *TableHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	table, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Remove handles DELETE /tables/{id}. Only AVAILABLE tables may go.
func (h *TableHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	if err := h.store.Remove(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Occupy handles POST /tables/{id}/occupy.
func (h *TableHandler) Occupy(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req occupyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id is required"})
		return
	}
	table, err := h.store.Occupy(id, req.OrderID, req.Staff)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Release handles POST /tables/{id}/release.
func (h *TableHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	table, err := h.store.Release(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// Reserve handles POST /tables/{id}/reserve.
func (h *TableHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	table, err := h.store.Reserve(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// SetCleaning handles POST /tables/{id}/cleaning.
func (h *TableHandler) SetCleaning(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	table, err := h.store.SetCleaning(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// UpdateAmount handles PATCH /tables/{id}/amount.
func (h *TableHandler) UpdateAmount(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}
	table, err := h.store.UpdateAmount(id, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// ListAreas handles GET /tables/areas.
func (h *TableHandler) ListAreas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Areas())
}

// AddArea handles POST /tables/areas.
func (h *TableHandler) AddArea(w http.ResponseWriter, r *http.Request) {
	var req areaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if err := h.store.AddArea(req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": req.Name})
}

// RemoveArea handles DELETE /tables/areas/{name}.
func (h *TableHandler) RemoveArea(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RemoveArea(chi.URLParam(r, "name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
