package seed

import (
	"testing"
	"time"

	"github.com/meja-pos/api/internal/store"
)

var fixedBase = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(42, fixedBase, 8, 12, 4)
	b := Generate(42, fixedBase, 8, 12, 4)

	if len(a.Tables) != len(b.Tables) || len(a.Orders) != len(b.Orders) || len(a.Reservations) != len(b.Reservations) {
		t.Fatal("same seed produced datasets of different sizes")
	}
	for i := range a.Tables {
		if a.Tables[i] != b.Tables[i] {
			t.Fatalf("table %d differs across runs: %+v vs %+v", i, a.Tables[i], b.Tables[i])
		}
	}
	for i := range a.Orders {
		if a.Orders[i].CustomerName != b.Orders[i].CustomerName ||
			a.Orders[i].Type != b.Orders[i].Type ||
			a.Orders[i].Priority != b.Orders[i].Priority ||
			len(a.Orders[i].Items) != len(b.Orders[i].Items) {
			t.Fatalf("order %d differs across runs", i)
		}
		for j := range a.Orders[i].Items {
			x, y := a.Orders[i].Items[j], b.Orders[i].Items[j]
			if x.Name != y.Name || x.Quantity != y.Quantity || !x.UnitPrice.Equal(y.UnitPrice) {
				t.Fatalf("order %d item %d differs across runs", i, j)
			}
		}
	}
	for i := range a.Reservations {
		if a.Reservations[i].CustomerName != b.Reservations[i].CustomerName ||
			a.Reservations[i].Phone != b.Reservations[i].Phone ||
			a.Reservations[i].PartySize != b.Reservations[i].PartySize ||
			!a.Reservations[i].Time.Equal(b.Reservations[i].Time) {
			t.Fatalf("reservation %d differs across runs", i)
		}
	}
}

func TestGenerate_FixedBaseAnchorsReservationTimes(t *testing.T) {
	ds := Generate(42, fixedBase, 4, 0, 6)

	for i, r := range ds.Reservations {
		offset := r.Time.Sub(fixedBase)
		if offset < 2*time.Hour || offset > 48*time.Hour {
			t.Fatalf("reservation %d not anchored to the base: %s", i, r.Time)
		}
	}
}

func TestGenerate_ZeroBaseFallsBackToNow(t *testing.T) {
	before := time.Now()
	ds := Generate(42, time.Time{}, 4, 0, 3)

	for i, r := range ds.Reservations {
		if r.Time.Before(before) {
			t.Fatalf("reservation %d should land in the future, got %s", i, r.Time)
		}
	}
}

func TestGenerate_DifferentSeeds(t *testing.T) {
	a := Generate(1, fixedBase, 8, 12, 0)
	b := Generate(2, fixedBase, 8, 12, 0)

	same := true
	for i := range a.Orders {
		if a.Orders[i].CustomerName != b.Orders[i].CustomerName {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical customer names")
	}
}

func TestApply(t *testing.T) {
	orders := store.NewOrders(nil)
	tables := store.NewTables(nil)
	reservations := store.NewReservations(nil, tables, orders)

	ds := Generate(7, time.Now(), 10, 15, 5)
	if err := Apply(ds, tables, orders, reservations); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := len(tables.List()); got != 10 {
		t.Fatalf("expected 10 tables, got %d", got)
	}
	if got := len(orders.Active()); got != 15 {
		t.Fatalf("expected 15 active orders, got %d", got)
	}
	areas := tables.Areas()
	if len(areas) != 4 {
		t.Fatalf("expected default plus 3 seeded areas, got %v", areas)
	}
}

func TestApply_FullFloorSkipsReservations(t *testing.T) {
	orders := store.NewOrders(nil)
	tables := store.NewTables(nil)
	reservations := store.NewReservations(nil, tables, orders)

	// One tiny table; most seeded parties will not fit.
	ds := Generate(7, time.Now(), 0, 0, 6)
	ds.Tables = []TableSeed{{Number: 1, Name: "Table 1", Capacity: 2, Area: store.DefaultArea}}
	ds.Orders = nil

	if err := Apply(ds, tables, orders, reservations); err != nil {
		t.Fatalf("apply should skip unplaceable reservations, got: %v", err)
	}
	if got := len(reservations.List()); got > 1 {
		t.Fatalf("at most one reservation fits a single table, got %d", got)
	}
}
