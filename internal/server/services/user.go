// Package services contains server-side business logic. This file implements
// UserService, which handles registration, credential checks, and issuing
// JWTs for bearer authentication.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/auth"
	"github.com/indiarose/sync-server/internal/server/config"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/repositories/repomanager"
)

// UserService provides account operations:
// - Register: create users
// - Authenticate: verify login/password-hash pairs
// - Login: mint access tokens
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register creates a new user. The password is a hash computed on the client;
// it is normalized to uppercase before storage so comparisons are
// case-insensitive over hex digests. Login and email collisions surface as
// distinct errors because the wire protocol reports them with different codes.
func (s *UserService) Register(ctx context.Context, login, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	exists, err := repo.LoginExists(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("error checking login: %w", err)
	}
	if exists {
		return nil, common.ErrorLoginExists
	}

	exists, err = repo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return nil, common.ErrorEmailExists
	}

	user := &models.User{Login: login, Email: email, Password: strings.ToUpper(password)}
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Authenticate verifies the login/password-hash pair and returns the user.
// Unknown logins and wrong hashes are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !s.checkPassword(user.Password, password) {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Login verifies credentials and mints an access token bound to the user and,
// when a device name is given, to that device.
func (s *UserService) Login(ctx context.Context, login, password, deviceName string) (string, error) {
	user, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return "", err
	}

	var deviceID int64
	if deviceName != "" {
		device, err := s.repomanager.Devices(s.db).GetByName(ctx, user.ID, deviceName)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return "", common.ErrorUnauthorized
			}
			return "", common.ErrorInternal
		}
		deviceID = device.ID
	}

	token, err := auth.GenerateToken(user.ID, deviceID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

func (s *UserService) checkPassword(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(strings.ToUpper(candidate))) == 1
}
