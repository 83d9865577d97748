package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/repositories/repomanager"
)

// DeviceService manages the devices of a user account. Devices carry no
// content; they scope settings, overlay states and version ownership.
type DeviceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDeviceService(db *sql.DB, m repomanager.RepositoryManager) *DeviceService {
	return &DeviceService{db: db, repomanager: m}
}

// Create registers a device name for the user. Names are unique per user.
func (s *DeviceService) Create(ctx context.Context, userID int64, name string) (*models.Device, error) {
	if name == "" {
		return nil, common.ErrorBadRequest
	}

	repo := s.repomanager.Devices(s.db)

	exists, err := repo.Exists(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("error checking device name: %w", err)
	}
	if exists {
		return nil, common.ErrorConflict
	}

	device, err := repo.Create(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("error creating device: %w", err)
	}
	return device, nil
}

// Rename changes a device name, keeping per-user uniqueness.
func (s *DeviceService) Rename(ctx context.Context, userID int64, oldName, newName string) error {
	if newName == "" {
		return common.ErrorBadRequest
	}

	repo := s.repomanager.Devices(s.db)

	exists, err := repo.Exists(ctx, userID, newName)
	if err != nil {
		return fmt.Errorf("error checking device name: %w", err)
	}
	if exists {
		return common.ErrorConflict
	}

	return repo.Rename(ctx, userID, oldName, newName)
}

func (s *DeviceService) GetByName(ctx context.Context, userID int64, name string) (*models.Device, error) {
	return s.repomanager.Devices(s.db).GetByName(ctx, userID, name)
}

func (s *DeviceService) List(ctx context.Context, userID int64) ([]*models.Device, error) {
	return s.repomanager.Devices(s.db).List(ctx, userID)
}
