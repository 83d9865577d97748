// Package devices provides the PostgreSQL-backed repository for the devices
// of a user account.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/models"
)

// PostgresRepository implements device storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, name string) (*models.Device, error) {
	device := &models.Device{UserID: userID, Name: name}

	query :=
		`INSERT INTO devices (user_id, name)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	if err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&device.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, userID int64, name string) (*models.Device, error) {
	query :=
		`SELECT id, user_id, name FROM devices
		 WHERE user_id = $1 AND name = $2
		 `

	device := &models.Device{}
	err := r.db.QueryRowContext(ctx, query, userID, name).Scan(&device.ID, &device.UserID, &device.Name)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return device, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userID int64, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM devices WHERE user_id = $1 AND name = $2)`, userID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// Rename changes a device name. Renaming a name that does not exist for the
// user returns ErrorNotFound.
func (r *PostgresRepository) Rename(ctx context.Context, userID int64, oldName, newName string) error {
	query :=
		`UPDATE devices SET name = $3
		 WHERE user_id = $1 AND name = $2
		 `

	res, err := r.db.ExecContext(ctx, query, userID, oldName, newName)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID int64) ([]*models.Device, error) {
	query :=
		`SELECT id, user_id, name FROM devices
		 WHERE user_id = $1
		 ORDER BY name
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select devices: %w", err)
	}
	defer rows.Close()

	var result []*models.Device
	for rows.Next() {
		var item models.Device
		if err := rows.Scan(&item.ID, &item.UserID, &item.Name); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
