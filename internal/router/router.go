package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/meja-pos/api/internal/handler"
	"github.com/meja-pos/api/internal/service"
	"github.com/meja-pos/api/internal/store"
	"github.com/meja-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
func New(orders *store.Orders, tables *store.Tables, reservations *store.Reservations, holds *store.Holds, coord *service.Coordinator, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"}, // dev UI
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Snapshot streams
	r.Get("/ws/{topic}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	orderHandler := handler.NewOrderHandler(orders)
	r.Route("/orders", orderHandler.RegisterRoutes)

	tableHandler := handler.NewTableHandler(tables)
	sessionHandler := handler.NewSessionHandler(coord)
	r.Route("/tables", func(r chi.Router) {
		tableHandler.RegisterRoutes(r)
		sessionHandler.RegisterRoutes(r)
	})

	reservationHandler := handler.NewReservationHandler(reservations)
	r.Route("/reservations", reservationHandler.RegisterRoutes)

	holdHandler := handler.NewHoldHandler(holds)
	r.Route("/holds", holdHandler.RegisterRoutes)

	return r
}
