package repository

import (
	"context"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
)

// SessionRepository holds per-browser working copies of the catalog
type SessionRepository interface {
	// Create stores a new session
	Create(ctx context.Context, session entity.Session) error

	// Get returns a snapshot of the session
	Get(ctx context.Context, id string) (*entity.Session, error)

	// Update runs fn on the live session under the session lock
	Update(ctx context.Context, id string, fn func(*entity.Session) error) error

	// Delete drops the session
	Delete(ctx context.Context, id string) error

	// Expire drops sessions idle for longer than the repository TTL
	Expire(ctx context.Context) (int, error)
}

// ActivityRepository records catalog actions
type ActivityRepository interface {
	// LogAction appends one action
	LogAction(ctx context.Context, action entity.Activity) error

	// Recent returns the newest actions first
	Recent(ctx context.Context, limit int) ([]entity.Activity, error)

	// Close releases the underlying store
	Close() error
}
