package indiagrams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64) (*models.Indiagram, error) {
	query := `INSERT INTO indiagrams (user_id) VALUES ($1) RETURNING id`

	ind := &models.Indiagram{UserID: userID}
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&ind.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ind, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, indiagramID int64) (*models.Indiagram, error) {
	query := `SELECT id, user_id FROM indiagrams WHERE id = $1 AND user_id = $2`

	ind := &models.Indiagram{}
	err := r.db.QueryRowContext(ctx, query, indiagramID, userID).Scan(&ind.ID, &ind.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ind, nil
}

func (r *PostgresRepository) InsertInfo(ctx context.Context, info *models.IndiagramInfo) error {
	query :=
		`INSERT INTO indiagram_infos
		 (indiagram_id, version, parent_id, position, text, image_path, image_hash, sound_path, sound_hash, is_category)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		info.IndiagramID, info.Version, info.ParentID, info.Position, info.Text,
		info.ImagePath, info.ImageHash, info.SoundPath, info.SoundHash, info.IsCategory,
	).Scan(&info.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateInfoFields(ctx context.Context, infoID, parentID int64, position int, text string, isCategory bool) error {
	query :=
		`UPDATE indiagram_infos
		 SET parent_id = $2, position = $3, text = $4, is_category = $5
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, infoID, parentID, position, text, isCategory)
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

const infoColumns = `id, indiagram_id, version, parent_id, position, text, image_path, image_hash, sound_path, sound_hash, is_category`

func (r *PostgresRepository) GetLatestInfo(ctx context.Context, indiagramID int64) (*models.IndiagramInfo, error) {
	query :=
		`SELECT ` + infoColumns + ` FROM indiagram_infos
		 WHERE indiagram_id = $1
		 ORDER BY version DESC
		 LIMIT 1
		 `

	return r.scanInfo(r.db.QueryRowContext(ctx, query, indiagramID))
}

func (r *PostgresRepository) GetInfoAt(ctx context.Context, indiagramID, version int64) (*models.IndiagramInfo, error) {
	query :=
		`SELECT ` + infoColumns + ` FROM indiagram_infos
		 WHERE indiagram_id = $1 AND version <= $2
		 ORDER BY version DESC
		 LIMIT 1
		 `

	return r.scanInfo(r.db.QueryRowContext(ctx, query, indiagramID, version))
}

func (r *PostgresRepository) scanInfo(row *sql.Row) (*models.IndiagramInfo, error) {
	info := &models.IndiagramInfo{}
	err := row.Scan(&info.ID, &info.IndiagramID, &info.Version, &info.ParentID, &info.Position,
		&info.Text, &info.ImagePath, &info.ImageHash, &info.SoundPath, &info.SoundHash, &info.IsCategory)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return info, nil
}

func (r *PostgresRepository) CopyStates(ctx context.Context, fromInfoID, toInfoID int64) error {
	query :=
		`INSERT INTO indiagram_states (info_id, device_id, is_enabled)
		 SELECT $2, device_id, is_enabled FROM indiagram_states WHERE info_id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, fromInfoID, toInfoID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpsertState(ctx context.Context, infoID, deviceID int64, isEnabled bool) error {
	query :=
		`INSERT INTO indiagram_states (info_id, device_id, is_enabled)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (info_id, device_id) DO UPDATE SET is_enabled = EXCLUDED.is_enabled
		 `

	if _, err := r.db.ExecContext(ctx, query, infoID, deviceID, isEnabled); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetImage(ctx context.Context, infoID int64, path, hash string) error {
	return r.setMedia(ctx, "image", infoID, path, hash)
}

func (r *PostgresRepository) SetSound(ctx context.Context, infoID int64, path, hash string) error {
	return r.setMedia(ctx, "sound", infoID, path, hash)
}

func (r *PostgresRepository) setMedia(ctx context.Context, kind string, infoID int64, path, hash string) error {
	// The empty-hash guard makes the attach one-shot. A second attempt
	// matches no rows and surfaces as a conflict.
	query := fmt.Sprintf(
		`UPDATE indiagram_infos SET %[1]s_path = $2, %[1]s_hash = $3
		 WHERE id = $1 AND %[1]s_hash = ''
		 `, kind)

	res, err := r.db.ExecContext(ctx, query, infoID, path, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if affected == 0 {
		return common.ErrorConflict
	}
	return nil
}

// forDeviceQuery resolves the newest snapshot of each indiagram that the
// device is allowed to see, joined with its own overlay row. Snapshots in an
// open version are visible only to the device that owns the version.
const forDeviceQuery = `SELECT DISTINCT ON (ii.indiagram_id)
   ii.indiagram_id, ii.version, ii.parent_id, ii.position, ii.text,
   ii.image_path, ii.image_hash, ii.sound_path, ii.sound_hash, ii.is_category,
   COALESCE(st.is_enabled, TRUE)
 FROM indiagram_infos ii
 JOIN indiagrams i ON i.id = ii.indiagram_id
 JOIN versions v ON v.user_id = i.user_id AND v.number = ii.version
 LEFT JOIN indiagram_states st ON st.info_id = ii.id AND st.device_id = $2
 WHERE i.user_id = $1 AND (NOT v.is_open OR v.device_id = $2)`

const forDeviceOrder = ` ORDER BY ii.indiagram_id, ii.version DESC`

func (r *PostgresRepository) ListForDevice(ctx context.Context, userID, deviceID int64) ([]*models.IndiagramForDevice, error) {
	query := forDeviceQuery + forDeviceOrder
	return r.queryForDevice(ctx, query, userID, deviceID)
}

func (r *PostgresRepository) ListForDeviceAt(ctx context.Context, userID, deviceID, version int64) ([]*models.IndiagramForDevice, error) {
	query := forDeviceQuery + ` AND ii.version <= $3` + forDeviceOrder
	return r.queryForDevice(ctx, query, userID, deviceID, version)
}

func (r *PostgresRepository) GetForDevice(ctx context.Context, userID, deviceID, indiagramID int64) (*models.IndiagramForDevice, error) {
	query := forDeviceQuery + ` AND ii.indiagram_id = $3` + forDeviceOrder
	return r.oneForDevice(ctx, query, userID, deviceID, indiagramID)
}

func (r *PostgresRepository) GetForDeviceAt(ctx context.Context, userID, deviceID, indiagramID, version int64) (*models.IndiagramForDevice, error) {
	query := forDeviceQuery + ` AND ii.indiagram_id = $3 AND ii.version <= $4` + forDeviceOrder
	return r.oneForDevice(ctx, query, userID, deviceID, indiagramID, version)
}

func (r *PostgresRepository) queryForDevice(ctx context.Context, query string, args ...any) ([]*models.IndiagramForDevice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select indiagrams: %w", err)
	}
	defer rows.Close()

	var result []*models.IndiagramForDevice
	for rows.Next() {
		item, err := scanForDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(a, b int) bool {
		return result[a].Position < result[b].Position
	})
	return result, nil
}

func (r *PostgresRepository) oneForDevice(ctx context.Context, query string, args ...any) (*models.IndiagramForDevice, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select indiagram: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrorNotFound
	}
	return scanForDevice(rows)
}

func scanForDevice(rows *sql.Rows) (*models.IndiagramForDevice, error) {
	item := &models.IndiagramForDevice{}
	err := rows.Scan(&item.ID, &item.Version, &item.ParentID, &item.Position, &item.Text,
		&item.ImagePath, &item.ImageHash, &item.SoundPath, &item.SoundHash, &item.IsCategory, &item.IsEnabled)
	if err != nil {
		return nil, err
	}
	return item, nil
}
