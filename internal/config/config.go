package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Occupancy duration after which a table is flagged priority, and how
	// often the scan runs.
	PriorityThreshold time.Duration
	ScanInterval      time.Duration

	// Round-robin waiter roster for auto-assignment.
	Waiters []string

	// Deterministic demo dataset on startup; 0 disables seeding.
	Seed int64
}

func Load() *Config {
	return &Config{
		Port:              getEnv("PORT", "8081"),
		PriorityThreshold: getEnvDuration("PRIORITY_THRESHOLD", 15*time.Minute),
		ScanInterval:      getEnvDuration("PRIORITY_SCAN_INTERVAL", 30*time.Second),
		Waiters:           getEnvList("WAITERS"),
		Seed:              getEnvInt64("SEED", 0),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
