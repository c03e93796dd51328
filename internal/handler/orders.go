package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meja-pos/api/internal/store"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	store *store.Orders
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *store.Orders) *OrderHandler {
	return &OrderHandler{store: orders}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.ListActive)
	r.Get("/history", h.ListHistory)
	r.Get("/filter", h.Filter)
	r.Get("/stats", h.Stats)
	r.Post("/bulk", h.BulkUpdate)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/priority", h.UpdatePriority)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type orderItemRequest struct {
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type createOrderRequest struct {
	Type         string             `json:"type"`
	Priority     string             `json:"priority"`
	TableID      *int64             `json:"table_id"`
	CustomerName string             `json:"customer_name"`
	WaiterName   string             `json:"waiter_name"`
	Items        []orderItemRequest `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updatePriorityRequest struct {
	Priority string `json:"priority"`
}

type bulkUpdateRequest struct {
	IDs      []int64 `json:"ids"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Type     *string `json:"type"`
}

func parseItems(reqs []orderItemRequest) ([]store.OrderItem, error) {
	items := make([]store.OrderItem, len(reqs))
	for i, it := range reqs {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			return nil, store.ErrInvalidUnitPrice
		}
		items[i] = store.OrderItem{Name: it.Name, Quantity: it.Quantity, UnitPrice: price}
	}
	return items, nil
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	items, err := parseItems(req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	order, err := h.store.Create(store.CreateOrder{
		Type:         req.Type,
		Priority:     req.Priority,
		TableID:      req.TableID,
		CustomerName: req.CustomerName,
		WaiterName:   req.WaiterName,
		Items:        items,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// ListActive handles GET /orders: the active partition in display order.
func (h *OrderHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	orders := h.store.Active()
	store.SortForDisplay(orders)
	writeJSON(w, http.StatusOK, orders)
}

// ListHistory handles GET /orders/history.
func (h *OrderHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.History())
}

// Filter handles GET /orders/filter with exactly one criterion:
// q, status, type, priority, or from/to (RFC3339).
func (h *OrderHandler) Filter(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var orders []store.Order
	switch {
	case q.Get("q") != "":
		orders = h.store.Search(q.Get("q"))
	case q.Get("status") != "":
		orders = h.store.QueryByStatus(q.Get("status"))
	case q.Get("type") != "":
		orders = h.store.QueryByType(q.Get("type"))
	case q.Get("priority") != "":
		orders = h.store.QueryByPriority(q.Get("priority"))
	case q.Get("from") != "" && q.Get("to") != "":
		from, err := time.Parse(time.RFC3339, q.Get("from"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid from"})
			return
		}
		to, err := time.Parse(time.RFC3339, q.Get("to"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid to"})
			return
		}
		orders = h.store.QueryByDateRange(from, to)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a filter criterion is required"})
		return
	}
	store.SortForDisplay(orders)
	writeJSON(w, http.StatusOK, orders)
}

// Stats handles GET /orders/stats over both partitions.
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	all := append(h.store.Active(), h.store.History()...)
	writeJSON(w, http.StatusOK, store.Statistics(all))
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	order, err := h.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	order, err := h.store.UpdateStatus(id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// UpdatePriority handles PATCH /orders/{id}/priority.
func (h *OrderHandler) UpdatePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	var req updatePriorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Priority == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "priority is required"})
		return
	}
	order, err := h.store.UpdatePriority(id, req.Priority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// BulkUpdate handles POST /orders/bulk.
func (h *OrderHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ids are required"})
		return
	}
	err := h.store.BulkUpdate(req.IDs, store.OrderPatch{
		Status:   req.Status,
		Priority: req.Priority,
		Type:     req.Type,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.IDs)})
}

// Delete handles DELETE /orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}
	if err := h.store.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
