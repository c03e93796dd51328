package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meja-pos/api/internal/store"
)

// HoldHandler handles hold buffer endpoints.
type HoldHandler struct {
	store *store.Holds
}

// NewHoldHandler creates a new HoldHandler.
func NewHoldHandler(holds *store.Holds) *HoldHandler {
	return &HoldHandler{store: holds}
}

// RegisterRoutes registers hold endpoints on the given Chi router.
func (h *HoldHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Snapshot)
	r.Post("/table/{tid}", h.HoldForTable)
	r.Post("/table/{tid}/recall", h.RecallForTable)
	r.Delete("/table/{tid}", h.ClearForTable)
	r.Post("/global", h.HoldGlobal)
	r.Post("/global/{index}/recall", h.RecallGlobal)
}

type holdRequest struct {
	Items  []orderItemRequest `json:"items"`
	HeldBy string             `json:"held_by"`
}

// Snapshot handles GET /holds.
func (h *HoldHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// HoldForTable handles POST /holds/table/{tid}; replaces the table's hold.
func (h *HoldHandler) HoldForTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	items, err := parseItems(req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	held, err := h.store.HoldForTable(tableID, items, req.HeldBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, held)
}

// RecallForTable handles POST /holds/table/{tid}/recall.
func (h *HoldHandler) RecallForTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	held, err := h.store.RecallForTable(tableID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, held)
}

// ClearForTable handles DELETE /holds/table/{tid}.
func (h *HoldHandler) ClearForTable(w http.ResponseWriter, r *http.Request) {
	tableID, ok := urlID(r, "tid")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return
	}
	h.store.ClearForTable(tableID)
	w.WriteHeader(http.StatusNoContent)
}

// HoldGlobal handles POST /holds/global; appends to the global list.
func (h *HoldHandler) HoldGlobal(w http.ResponseWriter, r *http.Request) {
	var req holdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	items, err := parseItems(req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	held, err := h.store.HoldGlobal(items, req.HeldBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, held)
}

// RecallGlobal handles POST /holds/global/{index}/recall.
func (h *HoldHandler) RecallGlobal(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid index"})
		return
	}
	held, err := h.store.RecallGlobal(index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, held)
}
