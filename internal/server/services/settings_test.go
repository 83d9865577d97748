package services

import (
	"context"
	"testing"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/stretchr/testify/require"
)

func newSettingsService(t *testing.T, rm *fakeRepoManager) *SettingsService {
	t.Helper()
	db, err := newTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSettingsService(db, rm)
}

func TestSettingsUpdate_AppendsIncreasingNumbers(t *testing.T) {
	rm := newFakeRepoManager()
	s := newSettingsService(t, rm)
	ctx := context.Background()

	first, err := s.Update(ctx, 7, `{"a":1}`)
	require.NoError(t, err)
	require.Equal(t, int64(1), first.VersionNumber)

	second, err := s.Update(ctx, 7, `{"a":2}`)
	require.NoError(t, err)
	require.Equal(t, int64(2), second.VersionNumber)

	// Older revisions stay put.
	old, err := s.Get(ctx, 7, 1)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, old.Serialized)
}

func TestSettingsUpdate_IndependentPerDevice(t *testing.T) {
	rm := newFakeRepoManager()
	s := newSettingsService(t, rm)
	ctx := context.Background()

	_, err := s.Update(ctx, 7, "{}")
	require.NoError(t, err)

	other, err := s.Update(ctx, 8, "{}")
	require.NoError(t, err)
	require.Equal(t, int64(1), other.VersionNumber)
}

func TestSettingsUpdate_RetriesOnNumberConflict(t *testing.T) {
	rm := newFakeRepoManager()
	rm.settings.failCreates = 2
	s := newSettingsService(t, rm)

	got, err := s.Update(context.Background(), 7, "{}")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.VersionNumber)
}

func TestSettingsUpdate_GivesUpAfterRepeatedConflicts(t *testing.T) {
	rm := newFakeRepoManager()
	rm.settings.failCreates = claimAttempts
	s := newSettingsService(t, rm)

	_, err := s.Update(context.Background(), 7, "{}")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestSettingsGetLast(t *testing.T) {
	rm := newFakeRepoManager()
	s := newSettingsService(t, rm)
	ctx := context.Background()

	_, err := s.Update(ctx, 7, `{"a":1}`)
	require.NoError(t, err)
	_, err = s.Update(ctx, 7, `{"a":2}`)
	require.NoError(t, err)

	last, err := s.GetLast(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, `{"a":2}`, last.Serialized)
}

func TestSettingsGetLast_NoRows(t *testing.T) {
	rm := newFakeRepoManager()
	s := newSettingsService(t, rm)

	_, err := s.GetLast(context.Background(), 7)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSettingsList_NewestFirst(t *testing.T) {
	rm := newFakeRepoManager()
	s := newSettingsService(t, rm)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Update(ctx, 7, "{}")
		require.NoError(t, err)
	}

	list, err := s.List(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, int64(3), list[0].VersionNumber)
	require.Equal(t, int64(1), list[2].VersionNumber)
}
