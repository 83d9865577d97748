package settings

import (
	"context"

	"github.com/indiarose/sync-server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, deviceID int64, serialized string) (*models.Settings, error)
	GetLast(ctx context.Context, deviceID int64) (*models.Settings, error)
	GetByVersion(ctx context.Context, deviceID, versionNumber int64) (*models.Settings, error)
	List(ctx context.Context, deviceID int64) ([]*models.Settings, error)
}
