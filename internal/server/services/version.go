package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/repositories/repomanager"
)

// claimAttempts bounds retry loops around constraint-backed number claims.
const claimAttempts = 5

// VersionService maintains the per-user version ledger. Numbers are claimed
// through the unique (user_id, number) constraint; ownership of an open
// version is the single write-authorization gate for the collection.
type VersionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVersionService(db *sql.DB, m repomanager.RepositoryManager) *VersionService {
	return &VersionService{db: db, repomanager: m}
}

// Create opens a new version for the device with number = previous max + 1.
// When two devices race for the same number, the loser retries against the
// fresh maximum.
func (s *VersionService) Create(ctx context.Context, userID, deviceID int64) (*models.Version, error) {
	repo := s.repomanager.Versions(s.db)

	for attempt := 0; attempt < claimAttempts; attempt++ {
		v, err := repo.Create(ctx, userID, deviceID)
		if err != nil {
			if errors.Is(err, common.ErrorNumberConflict) {
				continue
			}
			return nil, fmt.Errorf("error creating version: %w", err)
		}
		return v, nil
	}
	return nil, common.ErrorInternal
}

// Close makes the version permanently read-only. Only the owning device can
// close it, and only while it is open; everything else is NotFound, matching
// the conditional update underneath.
func (s *VersionService) Close(ctx context.Context, userID, deviceID, number int64) (*models.Version, error) {
	repo := s.repomanager.Versions(s.db)

	if err := repo.Close(ctx, userID, deviceID, number); err != nil {
		return nil, err
	}
	return repo.Get(ctx, userID, number)
}

// CanPush reports whether the device may write into the version: it must
// exist, be open, and be owned by the device.
func (s *VersionService) CanPush(ctx context.Context, userID, deviceID, number int64) (bool, error) {
	return s.repomanager.Versions(s.db).CanPush(ctx, userID, deviceID, number)
}

// Has reports whether the number was ever claimed for the user.
func (s *VersionService) Has(ctx context.Context, userID, number int64) (bool, error) {
	_, err := s.repomanager.Versions(s.db).Get(ctx, userID, number)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// IsOpen reports whether the version exists and is still open.
func (s *VersionService) IsOpen(ctx context.Context, userID, number int64) (bool, error) {
	v, err := s.repomanager.Versions(s.db).Get(ctx, userID, number)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return v.IsOpen, nil
}

// List returns the user's closed versions, newest first. from <= 0 lists all.
func (s *VersionService) List(ctx context.Context, userID, from int64) ([]*models.Version, error) {
	return s.repomanager.Versions(s.db).List(ctx, userID, from)
}
