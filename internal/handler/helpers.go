// Package handler exposes the core's commands and queries over HTTP for
// presentation clients. Handlers translate requests, call the stores or the
// coordinator, and map sentinel errors onto statuses; they hold no state.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meja-pos/api/internal/service"
	"github.com/meja-pos/api/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a core error onto its HTTP status: missing entities are
// 404, state conflicts 409, bad input 400.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrOrderNotFound),
		errors.Is(err, store.ErrTableNotFound),
		errors.Is(err, store.ErrReservationNotFound),
		errors.Is(err, store.ErrAreaNotFound),
		errors.Is(err, store.ErrNoHeldOrder):
		return http.StatusNotFound
	case errors.Is(err, store.ErrTableOccupied),
		errors.Is(err, store.ErrTableNotOccupied),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrNoTableCapacity),
		errors.Is(err, store.ErrReservationClosed),
		errors.Is(err, store.ErrDuplicateTableNo),
		errors.Is(err, store.ErrAreaExists),
		errors.Is(err, store.ErrAreaNotEmpty),
		errors.Is(err, store.ErrDefaultArea),
		errors.Is(err, service.ErrTableNotSeatable),
		errors.Is(err, service.ErrNoCurrentOrder):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}
