// Package store persists registry profiles and terminal job snapshots in
// PostgreSQL.
//
// Persistence is optional: without a configured database the service runs
// fully in memory, and every caller treats store failures as
// log-and-continue. Shared dependencies (pool, logger) are carried by the
// Base struct.
package store

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/croissant-tools/dlsim/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for the store.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// Store is the data-access layer for profiles and archived jobs.
type Store struct {
	Base
}

// New creates a Store.
func New(base Base) *Store {
	return &Store{Base: base}
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}
