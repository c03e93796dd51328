// Command seed prints a deterministic demo dataset as JSON. The same seed
// and base time always yield the same dataset, so the output is usable as
// a fixture.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/meja-pos/api/internal/seed"
)

func main() {
	seedVal := flag.Int64("seed", 1, "seed value for the generator")
	baseStr := flag.String("base", "", "RFC 3339 base time for reservation slots (default: now)")
	tables := flag.Int("tables", 8, "number of tables")
	orders := flag.Int("orders", 12, "number of orders")
	reservations := flag.Int("reservations", 3, "number of reservations")
	flag.Parse()

	var base time.Time
	if *baseStr != "" {
		var err error
		base, err = time.Parse(time.RFC3339, *baseStr)
		if err != nil {
			log.Fatalf("parse -base: %v", err)
		}
	}

	ds := seed.Generate(*seedVal, base, *tables, *orders, *reservations)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		log.Fatalf("encode dataset: %v", err)
	}
}
