package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/cryptox"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/config"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/repositories/repomanager"
	"github.com/indiarose/sync-server/internal/server/storage"
)

// IndiagramUpdate is one create or update request against an open version.
// ID < 0 means create; IDs below -1 double as batch-local placeholders that
// other requests in the same batch may target through ParentID.
type IndiagramUpdate struct {
	ID         int64
	Version    int64
	ParentID   int64
	Position   int
	Text       string
	IsCategory bool
	IsEnabled  bool
}

// MappedIndiagram reports the outcome of one batch request: the id the
// client sent, the id the database assigned, and the resolved parent.
type MappedIndiagram struct {
	SentID     int64
	DatabaseID int64
	ParentID   int64
}

// CollectionService implements the versioned content collection: snapshot
// resolution, copy-forward editing, the per-device overlay, batch ordering
// and media attachments.
type CollectionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       storage.BlobStore
	config      *config.Config
}

func NewCollectionService(db *sql.DB, m repomanager.RepositoryManager, blobs storage.BlobStore, cfg *config.Config) *CollectionService {
	return &CollectionService{db: db, repomanager: m, blobs: blobs, config: cfg}
}

// List resolves the newest snapshot of every indiagram visible to the
// device, with its overlay applied, ordered by position.
func (s *CollectionService) List(ctx context.Context, userID, deviceID int64) ([]*models.IndiagramForDevice, error) {
	return s.repomanager.Indiagrams(s.db).ListForDevice(ctx, userID, deviceID)
}

// ListAt resolves snapshots as of the given version. A version that does not
// exist, or is still open by another device, is not readable.
func (s *CollectionService) ListAt(ctx context.Context, userID, deviceID, version int64) ([]*models.IndiagramForDevice, error) {
	if err := s.checkReadable(ctx, userID, deviceID, version); err != nil {
		return nil, err
	}
	return s.repomanager.Indiagrams(s.db).ListForDeviceAt(ctx, userID, deviceID, version)
}

// Get resolves one indiagram at its newest visible snapshot.
func (s *CollectionService) Get(ctx context.Context, userID, deviceID, indiagramID int64) (*models.IndiagramForDevice, error) {
	return s.repomanager.Indiagrams(s.db).GetForDevice(ctx, userID, deviceID, indiagramID)
}

// GetAt resolves one indiagram as of the given version.
func (s *CollectionService) GetAt(ctx context.Context, userID, deviceID, indiagramID, version int64) (*models.IndiagramForDevice, error) {
	if err := s.checkReadable(ctx, userID, deviceID, version); err != nil {
		return nil, err
	}
	return s.repomanager.Indiagrams(s.db).GetForDeviceAt(ctx, userID, deviceID, indiagramID, version)
}

// checkReadable hides versions a device must not see: absent numbers and
// other devices' open versions both surface as NotFound.
func (s *CollectionService) checkReadable(ctx context.Context, userID, deviceID, version int64) error {
	v, err := s.repomanager.Versions(s.db).Get(ctx, userID, version)
	if err != nil {
		return err
	}
	if v.IsOpen && v.DeviceID != deviceID {
		return common.ErrorNotFound
	}
	return nil
}

// Create allocates a new indiagram with its first snapshot in the target
// version and an overlay row for the creating device.
func (s *CollectionService) Create(ctx context.Context, userID, deviceID int64, req *IndiagramUpdate) (*models.IndiagramForDevice, error) {
	if req.Text == "" {
		return nil, common.ErrorBadRequest
	}

	var info *models.IndiagramInfo
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkPush(ctx, tx, userID, deviceID, req.Version); err != nil {
			return err
		}
		repo := s.repomanager.Indiagrams(tx)

		ind, err := repo.Create(ctx, userID)
		if err != nil {
			return err
		}

		info = &models.IndiagramInfo{
			IndiagramID: ind.ID,
			Version:     req.Version,
			ParentID:    req.ParentID,
			Position:    req.Position,
			Text:        req.Text,
			IsCategory:  req.IsCategory,
		}
		if err := repo.InsertInfo(ctx, info); err != nil {
			return err
		}
		return repo.UpsertState(ctx, info.ID, deviceID, req.IsEnabled)
	})
	if err != nil {
		return nil, err
	}

	return resolved(info, req.IsEnabled), nil
}

// Update applies a content edit to an existing indiagram via copy-forward:
// an edit in the snapshot's own version coalesces in place; an edit in a
// later version clones the latest snapshot first and carries every device's
// overlay row over to the clone. Edits targeting a version below the latest
// snapshot are rejected, history is append-only.
func (s *CollectionService) Update(ctx context.Context, userID, deviceID int64, req *IndiagramUpdate) (*models.IndiagramForDevice, error) {
	if req.Text == "" {
		return nil, common.ErrorBadRequest
	}

	var info *models.IndiagramInfo
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkPush(ctx, tx, userID, deviceID, req.Version); err != nil {
			return err
		}
		repo := s.repomanager.Indiagrams(tx)

		if _, err := repo.Get(ctx, userID, req.ID); err != nil {
			return err
		}

		latest, err := repo.GetLatestInfo(ctx, req.ID)
		if err != nil {
			return err
		}

		switch {
		case latest.Version > req.Version:
			// Append-only: closed history cannot be rewritten.
			return common.ErrorNotFound

		case latest.Version == req.Version:
			if err := repo.UpdateInfoFields(ctx, latest.ID, req.ParentID, req.Position, req.Text, req.IsCategory); err != nil {
				return err
			}
			info = latest
			info.ParentID = req.ParentID
			info.Position = req.Position
			info.Text = req.Text
			info.IsCategory = req.IsCategory

		default:
			info = &models.IndiagramInfo{
				IndiagramID: latest.IndiagramID,
				Version:     req.Version,
				ParentID:    req.ParentID,
				Position:    req.Position,
				Text:        req.Text,
				ImagePath:   latest.ImagePath,
				ImageHash:   latest.ImageHash,
				SoundPath:   latest.SoundPath,
				SoundHash:   latest.SoundHash,
				IsCategory:  req.IsCategory,
			}
			if err := repo.InsertInfo(ctx, info); err != nil {
				return err
			}
			if err := repo.CopyStates(ctx, latest.ID, info.ID); err != nil {
				return err
			}
		}

		return repo.UpsertState(ctx, info.ID, deviceID, req.IsEnabled)
	})
	if err != nil {
		return nil, err
	}

	return resolved(info, req.IsEnabled), nil
}

// checkPush is the single authorization gate for collection writes. It runs
// on the same transaction as the write it guards.
func (s *CollectionService) checkPush(ctx context.Context, db dbx.DBTX, userID, deviceID, version int64) error {
	ok, err := s.repomanager.Versions(db).CanPush(ctx, userID, deviceID, version)
	if err != nil {
		return fmt.Errorf("error checking version ownership: %w", err)
	}
	if !ok {
		return common.ErrorForbidden
	}
	return nil
}

// Batch orders and executes a set of create/update requests that may
// reference each other's placeholder ids. Ordering errors abort before any
// write; an execution error aborts the batch leaving the committed prefix.
func (s *CollectionService) Batch(ctx context.Context, userID, deviceID int64, reqs []*IndiagramUpdate) ([]*MappedIndiagram, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	version := reqs[0].Version
	for _, r := range reqs {
		if r.Version != version {
			return nil, common.ErrorBadRequest
		}
	}

	ordered, err := orderBatch(reqs)
	if err != nil {
		return nil, err
	}

	if err := s.checkPush(ctx, s.db, userID, deviceID, version); err != nil {
		return nil, err
	}

	mapped := make(map[int64]int64)
	results := make([]*MappedIndiagram, 0, len(ordered))

	for _, r := range ordered {
		req := *r
		if req.ParentID < models.RootParentID {
			req.ParentID = mapped[req.ParentID]
		}

		var item *models.IndiagramForDevice
		if req.ID < 0 {
			item, err = s.Create(ctx, userID, deviceID, &req)
		} else {
			item, err = s.Update(ctx, userID, deviceID, &req)
		}
		if err != nil {
			return nil, err
		}

		if r.ID < models.RootParentID {
			mapped[r.ID] = item.ID
		}
		results = append(results, &MappedIndiagram{
			SentID:     r.ID,
			DatabaseID: item.ID,
			ParentID:   req.ParentID,
		})
	}
	return results, nil
}

// resolved builds the device view of a snapshot that was just written.
func resolved(info *models.IndiagramInfo, isEnabled bool) *models.IndiagramForDevice {
	return &models.IndiagramForDevice{
		ID:         info.IndiagramID,
		Version:    info.Version,
		ParentID:   info.ParentID,
		Position:   info.Position,
		Text:       info.Text,
		ImagePath:  info.ImagePath,
		ImageHash:  info.ImageHash,
		SoundPath:  info.SoundPath,
		SoundHash:  info.SoundHash,
		IsCategory: info.IsCategory,
		IsEnabled:  isEnabled,
	}
}

// SetImage attaches image content to the indiagram's snapshot in the target
// version. A snapshot takes media once; re-uploading requires a new version.
func (s *CollectionService) SetImage(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte) error {
	return s.setMedia(ctx, userID, deviceID, indiagramID, version, filename, content, true)
}

// SetSound attaches sound content, same rules as SetImage.
func (s *CollectionService) SetSound(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte) error {
	return s.setMedia(ctx, userID, deviceID, indiagramID, version, filename, content, false)
}

func (s *CollectionService) setMedia(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte, image bool) error {
	// The hash column update and the blob write commit or fail together;
	// a failed upload rolls the one-shot marker back.
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.checkPush(ctx, tx, userID, deviceID, version); err != nil {
			return err
		}
		repo := s.repomanager.Indiagrams(tx)

		if _, err := repo.Get(ctx, userID, indiagramID); err != nil {
			return err
		}
		info, err := repo.GetLatestInfo(ctx, indiagramID)
		if err != nil {
			return err
		}
		if info.Version != version {
			return common.ErrorNotFound
		}

		hash := cryptox.FileHash(content)
		bucket := s.config.S3SoundBucket
		if image {
			bucket = s.config.S3ImageBucket
			err = repo.SetImage(ctx, info.ID, filename, hash)
		} else {
			err = repo.SetSound(ctx, info.ID, filename, hash)
		}
		if err != nil {
			return err
		}

		return s.blobs.Upload(ctx, bucket, blobKey(indiagramID, version), content)
	})
}

// GetImage returns the image filename and bytes of the snapshot resolved for
// the device, optionally as of a version (version <= 0 means latest).
func (s *CollectionService) GetImage(ctx context.Context, userID, deviceID, indiagramID, version int64) (string, []byte, error) {
	return s.getMedia(ctx, userID, deviceID, indiagramID, version, true)
}

// GetSound is the sound counterpart of GetImage.
func (s *CollectionService) GetSound(ctx context.Context, userID, deviceID, indiagramID, version int64) (string, []byte, error) {
	return s.getMedia(ctx, userID, deviceID, indiagramID, version, false)
}

func (s *CollectionService) getMedia(ctx context.Context, userID, deviceID, indiagramID, version int64, image bool) (string, []byte, error) {
	var item *models.IndiagramForDevice
	var err error
	if version > 0 {
		item, err = s.GetAt(ctx, userID, deviceID, indiagramID, version)
	} else {
		item, err = s.Get(ctx, userID, deviceID, indiagramID)
	}
	if err != nil {
		return "", nil, err
	}

	bucket, path, hash := s.config.S3SoundBucket, item.SoundPath, item.SoundHash
	if image {
		bucket, path, hash = s.config.S3ImageBucket, item.ImagePath, item.ImageHash
	}
	if hash == "" {
		return "", nil, common.ErrorNotFound
	}

	// Media lives under the version the resolved snapshot was introduced in.
	content, err := s.blobs.Download(ctx, bucket, blobKey(indiagramID, item.Version))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", nil, common.ErrorNotFound
		}
		return "", nil, fmt.Errorf("error downloading media: %w", err)
	}
	return path, content, nil
}

func blobKey(indiagramID, version int64) string {
	return fmt.Sprintf("%d_%d", indiagramID, version)
}
