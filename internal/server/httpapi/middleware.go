package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/auth"
	"github.com/indiarose/sync-server/internal/server/models"
)

// Request headers carried by the existing clients.
const (
	headerLogin    = "x-indiarose-login"
	headerPassword = "x-indiarose-password"
	headerDevice   = "x-indiarose-device"
)

type contextKey int

const principalKey contextKey = iota

// Principal identifies the authenticated caller. DeviceID is zero when the
// request did not bind to a device.
type Principal struct {
	UserID   int64
	DeviceID int64
}

func principalFrom(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

type credentialChecker interface {
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
}

type deviceResolver interface {
	GetByName(ctx context.Context, userID int64, name string) (*models.Device, error)
}

// authMiddleware resolves the caller either from a bearer token minted by
// /users/login or from the per-request credential headers.
type authMiddleware struct {
	users     credentialChecker
	devices   deviceResolver
	jwtSecret []byte
	rs        *responder
}

// RequireUser authenticates the caller; the device binding stays optional.
func (m *authMiddleware) RequireUser(next http.Handler) http.Handler {
	return m.authenticate(next, false)
}

// RequireDevice authenticates the caller and refuses requests that do not
// resolve to a device.
func (m *authMiddleware) RequireDevice(next http.Handler) http.Handler {
	return m.authenticate(next, true)
}

func (m *authMiddleware) authenticate(next http.Handler, deviceRequired bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		p, err := m.resolve(r)
		if err != nil {
			m.rs.writeError(ctx, w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if deviceRequired && p.DeviceID == 0 {
			m.rs.writeError(ctx, w, http.StatusUnauthorized, "missing or invalid device name")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, principalKey, p)))
	})
}

func (m *authMiddleware) resolve(r *http.Request) (*Principal, error) {
	if token, ok := bearerToken(r); ok {
		userID, deviceID, err := auth.ParseToken(token, m.jwtSecret)
		if err != nil {
			return nil, common.ErrorUnauthorized
		}
		return &Principal{UserID: userID, DeviceID: deviceID}, nil
	}

	login := r.Header.Get(headerLogin)
	password := r.Header.Get(headerPassword)
	if login == "" || password == "" {
		return nil, common.ErrorUnauthorized
	}

	user, err := m.users.Authenticate(r.Context(), login, password)
	if err != nil {
		return nil, common.ErrorUnauthorized
	}

	p := &Principal{UserID: user.ID}
	if name := r.Header.Get(headerDevice); name != "" {
		device, err := m.devices.GetByName(r.Context(), user.ID, name)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
			// An unknown device name only matters on device-required routes.
		} else {
			p.DeviceID = device.ID
		}
	}
	return p, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	return token, ok && token != ""
}
