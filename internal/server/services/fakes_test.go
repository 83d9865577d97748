package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/models"
	devicesrepo "github.com/indiarose/sync-server/internal/server/repositories/devices"
	indiagramsrepo "github.com/indiarose/sync-server/internal/server/repositories/indiagrams"
	settingsrepo "github.com/indiarose/sync-server/internal/server/repositories/settings"
	usersrepo "github.com/indiarose/sync-server/internal/server/repositories/users"
	versionsrepo "github.com/indiarose/sync-server/internal/server/repositories/versions"
	_ "modernc.org/sqlite"
)

// In-memory repository fakes mirroring the SQL semantics, so service-level
// behavior (copy-forward, visibility, claim retries) can be exercised
// without a real Postgres.

type fakeUsersRepo struct {
	nextID int64
	users  []*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.nextID++
	u.ID = f.nextID
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, u := range f.users {
		if u.Login == login {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) LoginExists(ctx context.Context, login string) (bool, error) {
	_, err := f.GetByLogin(ctx, login)
	return err == nil, nil
}

func (f *fakeUsersRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeDevicesRepo struct {
	nextID  int64
	devices []*models.Device
}

func (f *fakeDevicesRepo) Create(ctx context.Context, userID int64, name string) (*models.Device, error) {
	f.nextID++
	d := &models.Device{ID: f.nextID, UserID: userID, Name: name}
	f.devices = append(f.devices, d)
	return d, nil
}

func (f *fakeDevicesRepo) GetByName(ctx context.Context, userID int64, name string) (*models.Device, error) {
	for _, d := range f.devices {
		if d.UserID == userID && d.Name == name {
			return d, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDevicesRepo) Exists(ctx context.Context, userID int64, name string) (bool, error) {
	_, err := f.GetByName(ctx, userID, name)
	return err == nil, nil
}

func (f *fakeDevicesRepo) Rename(ctx context.Context, userID int64, oldName, newName string) error {
	d, err := f.GetByName(ctx, userID, oldName)
	if err != nil {
		return common.ErrorNotFound
	}
	d.Name = newName
	return nil
}

func (f *fakeDevicesRepo) List(ctx context.Context, userID int64) ([]*models.Device, error) {
	var out []*models.Device
	for _, d := range f.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	nextID      int64
	rows        []*models.Settings
	failCreates int
}

func (f *fakeSettingsRepo) Create(ctx context.Context, deviceID int64, serialized string) (*models.Settings, error) {
	if f.failCreates > 0 {
		f.failCreates--
		return nil, common.ErrorNumberConflict
	}
	var max int64
	for _, s := range f.rows {
		if s.DeviceID == deviceID && s.VersionNumber > max {
			max = s.VersionNumber
		}
	}
	f.nextID++
	s := &models.Settings{
		ID:            f.nextID,
		DeviceID:      deviceID,
		VersionNumber: max + 1,
		Serialized:    serialized,
		CreatedAt:     time.Now(),
	}
	f.rows = append(f.rows, s)
	return s, nil
}

func (f *fakeSettingsRepo) GetLast(ctx context.Context, deviceID int64) (*models.Settings, error) {
	var best *models.Settings
	for _, s := range f.rows {
		if s.DeviceID == deviceID && (best == nil || s.VersionNumber > best.VersionNumber) {
			best = s
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

func (f *fakeSettingsRepo) GetByVersion(ctx context.Context, deviceID, versionNumber int64) (*models.Settings, error) {
	for _, s := range f.rows {
		if s.DeviceID == deviceID && s.VersionNumber == versionNumber {
			return s, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeSettingsRepo) List(ctx context.Context, deviceID int64) ([]*models.Settings, error) {
	var out []*models.Settings
	for _, s := range f.rows {
		if s.DeviceID == deviceID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].VersionNumber > out[b].VersionNumber })
	return out, nil
}

type fakeVersionsRepo struct {
	nextID      int64
	versions    []*models.Version
	failCreates int
}

func (f *fakeVersionsRepo) Create(ctx context.Context, userID, deviceID int64) (*models.Version, error) {
	if f.failCreates > 0 {
		f.failCreates--
		return nil, common.ErrorNumberConflict
	}
	var max int64
	for _, v := range f.versions {
		if v.UserID == userID && v.Number > max {
			max = v.Number
		}
	}
	f.nextID++
	v := &models.Version{
		ID:        f.nextID,
		UserID:    userID,
		DeviceID:  deviceID,
		Number:    max + 1,
		IsOpen:    true,
		CreatedAt: time.Now(),
	}
	f.versions = append(f.versions, v)
	return v, nil
}

func (f *fakeVersionsRepo) Close(ctx context.Context, userID, deviceID, number int64) error {
	for _, v := range f.versions {
		if v.UserID == userID && v.DeviceID == deviceID && v.Number == number && v.IsOpen {
			v.IsOpen = false
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeVersionsRepo) CanPush(ctx context.Context, userID, deviceID, number int64) (bool, error) {
	for _, v := range f.versions {
		if v.UserID == userID && v.DeviceID == deviceID && v.Number == number && v.IsOpen {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVersionsRepo) Get(ctx context.Context, userID, number int64) (*models.Version, error) {
	for _, v := range f.versions {
		if v.UserID == userID && v.Number == number {
			return v, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeVersionsRepo) List(ctx context.Context, userID, from int64) ([]*models.Version, error) {
	if from <= 0 {
		from = 1
	}
	var out []*models.Version
	for _, v := range f.versions {
		if v.UserID == userID && !v.IsOpen && v.Number >= from {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Number > out[b].Number })
	return out, nil
}

type stateKey struct {
	infoID   int64
	deviceID int64
}

type fakeIndiagramsRepo struct {
	versions *fakeVersionsRepo

	nextID     int64
	nextInfoID int64
	indiagrams []*models.Indiagram
	infos      []*models.IndiagramInfo
	states     map[stateKey]bool
}

func newFakeIndiagramsRepo(versions *fakeVersionsRepo) *fakeIndiagramsRepo {
	return &fakeIndiagramsRepo{versions: versions, states: make(map[stateKey]bool)}
}

func (f *fakeIndiagramsRepo) Create(ctx context.Context, userID int64) (*models.Indiagram, error) {
	f.nextID++
	ind := &models.Indiagram{ID: f.nextID, UserID: userID}
	f.indiagrams = append(f.indiagrams, ind)
	return ind, nil
}

func (f *fakeIndiagramsRepo) Get(ctx context.Context, userID, indiagramID int64) (*models.Indiagram, error) {
	for _, ind := range f.indiagrams {
		if ind.ID == indiagramID && ind.UserID == userID {
			return ind, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeIndiagramsRepo) InsertInfo(ctx context.Context, info *models.IndiagramInfo) error {
	f.nextInfoID++
	info.ID = f.nextInfoID
	cp := *info
	f.infos = append(f.infos, &cp)
	return nil
}

func (f *fakeIndiagramsRepo) UpdateInfoFields(ctx context.Context, infoID, parentID int64, position int, text string, isCategory bool) error {
	for _, i := range f.infos {
		if i.ID == infoID {
			i.ParentID = parentID
			i.Position = position
			i.Text = text
			i.IsCategory = isCategory
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeIndiagramsRepo) GetLatestInfo(ctx context.Context, indiagramID int64) (*models.IndiagramInfo, error) {
	return f.GetInfoAt(ctx, indiagramID, int64(1<<62))
}

func (f *fakeIndiagramsRepo) GetInfoAt(ctx context.Context, indiagramID, version int64) (*models.IndiagramInfo, error) {
	var best *models.IndiagramInfo
	for _, i := range f.infos {
		if i.IndiagramID == indiagramID && i.Version <= version && (best == nil || i.Version > best.Version) {
			best = i
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeIndiagramsRepo) CopyStates(ctx context.Context, fromInfoID, toInfoID int64) error {
	for k, enabled := range f.states {
		if k.infoID == fromInfoID {
			f.states[stateKey{toInfoID, k.deviceID}] = enabled
		}
	}
	return nil
}

func (f *fakeIndiagramsRepo) UpsertState(ctx context.Context, infoID, deviceID int64, isEnabled bool) error {
	f.states[stateKey{infoID, deviceID}] = isEnabled
	return nil
}

func (f *fakeIndiagramsRepo) SetImage(ctx context.Context, infoID int64, path, hash string) error {
	for _, i := range f.infos {
		if i.ID == infoID {
			if i.ImageHash != "" {
				return common.ErrorConflict
			}
			i.ImagePath = path
			i.ImageHash = hash
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeIndiagramsRepo) SetSound(ctx context.Context, infoID int64, path, hash string) error {
	for _, i := range f.infos {
		if i.ID == infoID {
			if i.SoundHash != "" {
				return common.ErrorConflict
			}
			i.SoundPath = path
			i.SoundHash = hash
			return nil
		}
	}
	return common.ErrorNotFound
}

func (f *fakeIndiagramsRepo) visibleTo(version, userID, deviceID int64) bool {
	for _, v := range f.versions.versions {
		if v.UserID == userID && v.Number == version {
			return !v.IsOpen || v.DeviceID == deviceID
		}
	}
	return false
}

func (f *fakeIndiagramsRepo) resolve(userID, deviceID, indiagramID, maxVersion int64) *models.IndiagramForDevice {
	var best *models.IndiagramInfo
	for _, i := range f.infos {
		if i.IndiagramID != indiagramID || i.Version > maxVersion {
			continue
		}
		if !f.visibleTo(i.Version, userID, deviceID) {
			continue
		}
		if best == nil || i.Version > best.Version {
			best = i
		}
	}
	if best == nil {
		return nil
	}
	enabled, ok := f.states[stateKey{best.ID, deviceID}]
	if !ok {
		enabled = true
	}
	return &models.IndiagramForDevice{
		ID:         best.IndiagramID,
		Version:    best.Version,
		ParentID:   best.ParentID,
		Position:   best.Position,
		Text:       best.Text,
		ImagePath:  best.ImagePath,
		ImageHash:  best.ImageHash,
		SoundPath:  best.SoundPath,
		SoundHash:  best.SoundHash,
		IsCategory: best.IsCategory,
		IsEnabled:  enabled,
	}
}

func (f *fakeIndiagramsRepo) list(userID, deviceID, maxVersion int64) []*models.IndiagramForDevice {
	var out []*models.IndiagramForDevice
	for _, ind := range f.indiagrams {
		if ind.UserID != userID {
			continue
		}
		if item := f.resolve(userID, deviceID, ind.ID, maxVersion); item != nil {
			out = append(out, item)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out
}

func (f *fakeIndiagramsRepo) ListForDevice(ctx context.Context, userID, deviceID int64) ([]*models.IndiagramForDevice, error) {
	return f.list(userID, deviceID, int64(1<<62)), nil
}

func (f *fakeIndiagramsRepo) ListForDeviceAt(ctx context.Context, userID, deviceID, version int64) ([]*models.IndiagramForDevice, error) {
	return f.list(userID, deviceID, version), nil
}

func (f *fakeIndiagramsRepo) GetForDevice(ctx context.Context, userID, deviceID, indiagramID int64) (*models.IndiagramForDevice, error) {
	item := f.resolve(userID, deviceID, indiagramID, int64(1<<62))
	if item == nil {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

func (f *fakeIndiagramsRepo) GetForDeviceAt(ctx context.Context, userID, deviceID, indiagramID, version int64) (*models.IndiagramForDevice, error) {
	item := f.resolve(userID, deviceID, indiagramID, version)
	if item == nil {
		return nil, common.ErrorNotFound
	}
	return item, nil
}

type fakeRepoManager struct {
	users      *fakeUsersRepo
	devices    *fakeDevicesRepo
	settings   *fakeSettingsRepo
	versions   *fakeVersionsRepo
	indiagrams *fakeIndiagramsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	versions := &fakeVersionsRepo{}
	return &fakeRepoManager{
		users:      &fakeUsersRepo{},
		devices:    &fakeDevicesRepo{},
		settings:   &fakeSettingsRepo{},
		versions:   versions,
		indiagrams: newFakeIndiagramsRepo(versions),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error          { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                { return m.users }
func (m *fakeRepoManager) Devices(db dbx.DBTX) devicesrepo.Repository            { return m.devices }
func (m *fakeRepoManager) Settings(db dbx.DBTX) settingsrepo.Repository          { return m.settings }
func (m *fakeRepoManager) Versions(db dbx.DBTX) versionsrepo.Repository          { return m.versions }
func (m *fakeRepoManager) Indiagrams(db dbx.DBTX) indiagramsrepo.Repository      { return m.indiagrams }

var testDBSeq int

// newTestDB returns a real database handle so transaction begin/commit works;
// all data access happens in the fakes above.
func newTestDB() (*sql.DB, error) {
	testDBSeq++
	return sql.Open("sqlite", fmt.Sprintf("file:svc_tests_%d?mode=memory&cache=shared", testDBSeq))
}
