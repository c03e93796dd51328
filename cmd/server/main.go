package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/meja-pos/api/internal/config"
	"github.com/meja-pos/api/internal/pubsub"
	"github.com/meja-pos/api/internal/router"
	"github.com/meja-pos/api/internal/seed"
	"github.com/meja-pos/api/internal/service"
	"github.com/meja-pos/api/internal/store"
	"github.com/meja-pos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bus := pubsub.NewBus()
	defer bus.Close()

	orders := store.NewOrders(bus)
	tables := store.NewTables(bus)
	tables.SetPriorityThreshold(cfg.PriorityThreshold)
	reservations := store.NewReservations(bus, tables, orders)
	holds := store.NewHolds(bus)
	coord := service.NewCoordinator(bus, orders, tables, holds, cfg.Waiters)

	if cfg.Seed != 0 {
		ds := seed.Generate(cfg.Seed, time.Now(), 8, 12, 3)
		if err := seed.Apply(ds, tables, orders, reservations); err != nil {
			log.Fatalf("seed: %v", err)
		}
		log.Printf("seeded demo dataset (seed=%d)", cfg.Seed)
	}

	hub := ws.NewHub()
	go hub.Run()
	detach := hub.AttachBus(bus)
	defer detach()

	// The scan stops when ctx is cancelled on shutdown; nothing keeps
	// mutating table state after teardown.
	tables.StartPriorityScan(ctx, cfg.ScanInterval)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.New(orders, tables, reservations, holds, coord, hub),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
