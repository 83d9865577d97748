// Package indiagrams provides storage for the collection content log: the
// indiagram identities, their append-only info snapshots, and the per-device
// enablement overlay.
package indiagrams

import (
	"context"

	"github.com/indiarose/sync-server/internal/server/models"
)

type Repository interface {
	// Create allocates a new indiagram identity for the user.
	Create(ctx context.Context, userID int64) (*models.Indiagram, error)
	// Get returns the indiagram, ErrorNotFound when it does not exist or
	// belongs to another user.
	Get(ctx context.Context, userID, indiagramID int64) (*models.Indiagram, error)

	// InsertInfo appends a snapshot row and fills info.ID.
	InsertInfo(ctx context.Context, info *models.IndiagramInfo) error
	// UpdateInfoFields rewrites the content fields of an existing snapshot
	// in place. Media columns are untouched.
	UpdateInfoFields(ctx context.Context, infoID, parentID int64, position int, text string, isCategory bool) error
	// GetLatestInfo returns the snapshot with the greatest version.
	GetLatestInfo(ctx context.Context, indiagramID int64) (*models.IndiagramInfo, error)
	// GetInfoAt returns the snapshot with the greatest version <= version.
	GetInfoAt(ctx context.Context, indiagramID, version int64) (*models.IndiagramInfo, error)

	// CopyStates clones every device's overlay row from one snapshot to
	// another.
	CopyStates(ctx context.Context, fromInfoID, toInfoID int64) error
	// UpsertState records the device's enablement choice for a snapshot.
	UpsertState(ctx context.Context, infoID, deviceID int64, isEnabled bool) error

	// SetImage attaches image metadata to a snapshot. A snapshot accepts
	// media once; ErrorConflict when a hash is already set.
	SetImage(ctx context.Context, infoID int64, path, hash string) error
	SetSound(ctx context.Context, infoID int64, path, hash string) error

	// ListForDevice resolves the newest visible snapshot of every
	// indiagram of the user, as seen by the device. Open versions of
	// other devices are invisible.
	ListForDevice(ctx context.Context, userID, deviceID int64) ([]*models.IndiagramForDevice, error)
	// ListForDeviceAt resolves snapshots as of the given version.
	ListForDeviceAt(ctx context.Context, userID, deviceID, version int64) ([]*models.IndiagramForDevice, error)
	GetForDevice(ctx context.Context, userID, deviceID, indiagramID int64) (*models.IndiagramForDevice, error)
	GetForDeviceAt(ctx context.Context, userID, deviceID, indiagramID, version int64) (*models.IndiagramForDevice, error)
}
