// Package storage holds per-browser key/value state behind a small interface
// so the session layer can run against Redis, Postgres or memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("storage: key not found")

// Storage is one browser's namespace. Set and Remove apply all of their
// entries atomically so readers never observe a partial write.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, entries map[string]string) error
	Remove(ctx context.Context, keys ...string) error
	// SetIfAbsent stores value only when key is missing and returns whatever
	// value the key holds afterwards.
	SetIfAbsent(ctx context.Context, key, value string) (string, error)
}

// Backend hands out namespaced Storage values over one shared connection.
type Backend interface {
	Scope(namespace string) Storage
	Close() error
}

// Pruner is a Backend that must be swept for idle namespaces. Redis expires
// keys on its own and does not need it.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Options configures Open. DSN is ignored by the memory driver.
type Options struct {
	Driver string
	DSN    string
	// TTL is how long a namespace survives without being read or written.
	// Zero keeps data forever. The memory driver ignores it.
	TTL time.Duration
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch opts.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverRedis:
		return OpenRedis(ctx, opts.DSN, opts.TTL)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.DSN, opts.TTL)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
