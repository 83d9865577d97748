// Package settings provides the PostgreSQL-backed repository for per-device
// settings blobs. Writes are append-only: each write claims the next version
// number for the device inside a single statement.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/models"
)

// PostgresRepository implements settings storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a new settings row with version_number = previous max + 1.
// The insert-select is a single statement so concurrent writers race on the
// (device_id, version_number) unique constraint rather than on application
// state; a loser surfaces ErrorNumberConflict and may retry.
func (r *PostgresRepository) Create(ctx context.Context, deviceID int64, serialized string) (*models.Settings, error) {
	query :=
		`INSERT INTO settings (device_id, version_number, serialized)
		 SELECT $1, COALESCE(MAX(version_number), 0) + 1, $2
		 FROM settings WHERE device_id = $1
		 RETURNING id, version_number, created_at
		 `

	s := &models.Settings{DeviceID: deviceID, Serialized: serialized}
	err := r.db.QueryRowContext(ctx, query, deviceID, serialized).
		Scan(&s.ID, &s.VersionNumber, &s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorNumberConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetLast(ctx context.Context, deviceID int64) (*models.Settings, error) {
	query :=
		`SELECT id, device_id, version_number, serialized, created_at FROM settings
		 WHERE device_id = $1
		 ORDER BY version_number DESC
		 LIMIT 1
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, deviceID))
}

func (r *PostgresRepository) GetByVersion(ctx context.Context, deviceID, versionNumber int64) (*models.Settings, error) {
	query :=
		`SELECT id, device_id, version_number, serialized, created_at FROM settings
		 WHERE device_id = $1 AND version_number = $2
		 `

	return r.scanOne(r.db.QueryRowContext(ctx, query, deviceID, versionNumber))
}

func (r *PostgresRepository) List(ctx context.Context, deviceID int64) ([]*models.Settings, error) {
	query :=
		`SELECT id, device_id, version_number, serialized, created_at FROM settings
		 WHERE device_id = $1
		 ORDER BY version_number DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select settings: %w", err)
	}
	defer rows.Close()

	var result []*models.Settings
	for rows.Next() {
		var item models.Settings
		if err := rows.Scan(&item.ID, &item.DeviceID, &item.VersionNumber, &item.Serialized, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Settings, error) {
	s := &models.Settings{}
	err := row.Scan(&s.ID, &s.DeviceID, &s.VersionNumber, &s.Serialized, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}
