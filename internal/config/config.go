// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"runtime"
)

// Storage backend identifiers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Dedupe backend identifiers.
const (
	DedupeMemory = "memory"
	DedupeRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of balancing workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the in-memory deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// BootstrapTeams sets how many empty teams are created on first start.
	BootstrapTeams int `koanf:"bootstrap_teams"`

	// RandomSeed fixes the balancing tie-break and shuffle source when
	// non-zero. Zero means a time-derived seed.
	RandomSeed int64 `koanf:"random_seed"`

	// Storage selects the persistence backend: memory or postgres.
	Storage string `koanf:"storage"`

	// PostgresDSN is the connection string when storage is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`

	// DedupeBackend selects the idempotency backend: memory or redis.
	DedupeBackend string `koanf:"dedupe_backend"`

	// RedisAddr is the redis address when dedupe_backend is redis.
	RedisAddr string `koanf:"redis_addr"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and is
// currently unused.
func New(_ context.Context) *Config {
	c := &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		EventQueueSize: 100_000,
		WorkerCount:    runtime.NumCPU() * 2,
		DedupeSize:     500_000,
		BootstrapTeams: 2,
		Storage:        StorageMemory,
		DedupeBackend:  DedupeMemory,
	}
	return c
}
