package versions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create claims number = previous max + 1 in a single statement. The
// UNIQUE(user_id, number) constraint decides races between devices; the
// loser gets ErrorNumberConflict.
func (r *PostgresRepository) Create(ctx context.Context, userID, deviceID int64) (*models.Version, error) {
	query :=
		`INSERT INTO versions (user_id, device_id, number, is_open)
		 SELECT $1, $2, COALESCE(MAX(number), 0) + 1, TRUE
		 FROM versions WHERE user_id = $1
		 RETURNING id, number, created_at
		 `

	v := &models.Version{UserID: userID, DeviceID: deviceID, IsOpen: true}
	err := r.db.QueryRowContext(ctx, query, userID, deviceID).
		Scan(&v.ID, &v.Number, &v.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorNumberConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) Close(ctx context.Context, userID, deviceID, number int64) error {
	query :=
		`UPDATE versions SET is_open = FALSE
		 WHERE user_id = $1 AND device_id = $2 AND number = $3 AND is_open
		 `

	res, err := r.db.ExecContext(ctx, query, userID, deviceID, number)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if affected == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CanPush(ctx context.Context, userID, deviceID, number int64) (bool, error) {
	query :=
		`SELECT EXISTS (
		   SELECT 1 FROM versions
		   WHERE user_id = $1 AND device_id = $2 AND number = $3 AND is_open
		 )`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, deviceID, number).Scan(&ok); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return ok, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, number int64) (*models.Version, error) {
	query :=
		`SELECT id, user_id, device_id, number, is_open, created_at FROM versions
		 WHERE user_id = $1 AND number = $2
		 `

	v := &models.Version{}
	err := r.db.QueryRowContext(ctx, query, userID, number).
		Scan(&v.ID, &v.UserID, &v.DeviceID, &v.Number, &v.IsOpen, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return v, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID, from int64) ([]*models.Version, error) {
	query :=
		`SELECT id, user_id, device_id, number, is_open, created_at FROM versions
		 WHERE user_id = $1 AND NOT is_open AND number >= $2
		 ORDER BY number DESC
		 `

	if from <= 0 {
		from = 1
	}

	rows, err := r.db.QueryContext(ctx, query, userID, from)
	if err != nil {
		return nil, fmt.Errorf("failed to select versions: %w", err)
	}
	defer rows.Close()

	var result []*models.Version
	for rows.Next() {
		var v models.Version
		if err := rows.Scan(&v.ID, &v.UserID, &v.DeviceID, &v.Number, &v.IsOpen, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
