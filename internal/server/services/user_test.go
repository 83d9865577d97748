package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/auth"
	"github.com/indiarose/sync-server/internal/server/config"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, rm *fakeRepoManager) *UserService {
	t.Helper()
	db, err := newTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{SecretKey: "k", TokenValidityDuration: time.Hour}
	return NewUserService(db, rm, cfg)
}

func TestRegister_StoresUppercaseHash(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	u, err := s.Register(context.Background(), "alice", "alice@example.com", "5e884898da")
	require.NoError(t, err)
	require.Equal(t, "5E884898DA", u.Password)
	require.NotZero(t, u.ID)
}

func TestRegister_LoginCollision(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "a@example.com", "X")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "alice", "other@example.com", "X")
	require.ErrorIs(t, err, common.ErrorLoginExists)
}

func TestRegister_EmailCollision(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "a@example.com", "X")
	require.NoError(t, err)

	_, err = s.Register(context.Background(), "bob", "a@example.com", "X")
	require.ErrorIs(t, err, common.ErrorEmailExists)
}

func TestAuthenticate_CaseInsensitiveHash(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "a@example.com", "ABCD1234")
	require.NoError(t, err)

	u, err := s.Authenticate(context.Background(), "alice", "abcd1234")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Login)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "a@example.com", "ABCD1234")
	require.NoError(t, err)

	_, err = s.Authenticate(context.Background(), "alice", "FFFF0000")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAuthenticate_UnknownLoginIndistinguishable(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Authenticate(context.Background(), "nobody", "ABCD1234")
	require.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestLogin_MintsTokenBoundToDevice(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	u, err := s.Register(context.Background(), "alice", "a@example.com", "ABCD")
	require.NoError(t, err)
	device, err := rm.devices.Create(context.Background(), u.ID, "tablet")
	require.NoError(t, err)

	token, err := s.Login(context.Background(), "alice", "abcd", "tablet")
	require.NoError(t, err)

	userID, deviceID, err := auth.ParseToken(token, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)
	require.Equal(t, device.ID, deviceID)
}

func TestLogin_UnknownDevice(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	_, err := s.Register(context.Background(), "alice", "a@example.com", "ABCD")
	require.NoError(t, err)

	_, err = s.Login(context.Background(), "alice", "abcd", "ghost")
	require.True(t, errors.Is(err, common.ErrorUnauthorized))
}

func TestLogin_NoDeviceName(t *testing.T) {
	rm := newFakeRepoManager()
	s := newUserService(t, rm)

	u, err := s.Register(context.Background(), "alice", "a@example.com", "ABCD")
	require.NoError(t, err)

	token, err := s.Login(context.Background(), "alice", "abcd", "")
	require.NoError(t, err)

	userID, deviceID, err := auth.ParseToken(token, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, u.ID, userID)
	require.Zero(t, deviceID)
}
