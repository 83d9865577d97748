package devices

import (
	"context"

	"github.com/indiarose/sync-server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, userID int64, name string) (*models.Device, error)
	GetByName(ctx context.Context, userID int64, name string) (*models.Device, error)
	Exists(ctx context.Context, userID int64, name string) (bool, error)
	Rename(ctx context.Context, userID int64, oldName, newName string) error
	List(ctx context.Context, userID int64) ([]*models.Device, error)
}
