// Package repository defines the session store interface and its backends.
package repository

import (
	"context"

	"github.com/okian/lensfit/internal/domain/model"
)

// Eviction reasons reported to metrics.
const (
	EvictExpired  = "expired"
	EvictCapacity = "capacity"
)

// Store provides read/write access to fitting sessions. Sessions handed out
// by Get are copies; changes become visible only through Save.
type Store interface {
	// Create stores a new session. Returns ErrExists if the ID is taken.
	Create(ctx context.Context, s model.Session) error

	// Get returns the session with the given ID, refreshing its expiry.
	// Returns ErrNotFound if the session is unknown or expired.
	Get(ctx context.Context, id string) (model.Session, error)

	// Save replaces an existing session. Returns ErrNotFound if it is gone.
	Save(ctx context.Context, s model.Session) error

	// Delete removes a session. Returns ErrNotFound if it is unknown.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Close releases background goroutines and connections.
	Close() error
}
