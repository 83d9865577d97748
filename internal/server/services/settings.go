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

// SettingsService stores per-device settings blobs. Writes are append-only;
// every write gets the next version number for the device.
type SettingsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSettingsService(db *sql.DB, m repomanager.RepositoryManager) *SettingsService {
	return &SettingsService{db: db, repomanager: m}
}

// Update appends a new settings revision. The number claim is backed by the
// unique constraint; a concurrent writer that takes the number first makes
// this attempt retry with the next one.
func (s *SettingsService) Update(ctx context.Context, deviceID int64, serialized string) (*models.Settings, error) {
	repo := s.repomanager.Settings(s.db)

	for attempt := 0; attempt < claimAttempts; attempt++ {
		settings, err := repo.Create(ctx, deviceID, serialized)
		if err != nil {
			if errors.Is(err, common.ErrorNumberConflict) {
				continue
			}
			return nil, fmt.Errorf("error saving settings: %w", err)
		}
		return settings, nil
	}
	return nil, common.ErrorInternal
}

// GetLast returns the newest settings revision of the device.
func (s *SettingsService) GetLast(ctx context.Context, deviceID int64) (*models.Settings, error) {
	return s.repomanager.Settings(s.db).GetLast(ctx, deviceID)
}

// Get returns one specific settings revision.
func (s *SettingsService) Get(ctx context.Context, deviceID, versionNumber int64) (*models.Settings, error) {
	return s.repomanager.Settings(s.db).GetByVersion(ctx, deviceID, versionNumber)
}

// List returns all settings revisions of the device, newest first.
func (s *SettingsService) List(ctx context.Context, deviceID int64) ([]*models.Settings, error) {
	return s.repomanager.Settings(s.db).List(ctx, deviceID)
}
