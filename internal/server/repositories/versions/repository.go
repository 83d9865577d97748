// Package versions provides storage for the per-user version ledger.
package versions

import (
	"context"

	"github.com/indiarose/sync-server/internal/server/models"
)

type Repository interface {
	// Create claims the next version number for the user and opens it for
	// the given device. Returns ErrorNumberConflict when a concurrent
	// writer claimed the same number first; callers retry.
	Create(ctx context.Context, userID, deviceID int64) (*models.Version, error)
	// Close marks the open version owned by the device as closed.
	// ErrorNotFound when no such open version exists.
	Close(ctx context.Context, userID, deviceID, number int64) error
	// CanPush reports whether the version exists, is open, and is owned by
	// the device.
	CanPush(ctx context.Context, userID, deviceID, number int64) (bool, error)
	// Get returns the version row, ErrorNotFound when the number was never
	// claimed for the user.
	Get(ctx context.Context, userID, number int64) (*models.Version, error)
	// List returns closed versions of the user with number >= from, newest
	// first. from <= 0 means all closed versions.
	List(ctx context.Context, userID, from int64) ([]*models.Version, error)
}
