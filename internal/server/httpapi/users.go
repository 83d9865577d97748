package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/indiarose/sync-server/internal/common"
	"github.com/indiarose/sync-server/internal/server/models"
)

type userService interface {
	Register(ctx context.Context, login, email, password string) (*models.User, error)
	Login(ctx context.Context, login, password, deviceName string) (string, error)
}

type UserHandler struct {
	users userService
	rs    *responder
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UserRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.Login == "" || req.Email == "" || req.Password == "" {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	if _, err := h.users.Register(ctx, req.Login, req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, common.ErrorLoginExists):
			h.rs.writeCustomError(ctx, w, errorCodeLoginExists, "Login already exists")
		case errors.Is(err, common.ErrorEmailExists):
			h.rs.writeCustomError(ctx, w, errorCodeEmailExists, "Email already registered")
		default:
			h.rs.writeServiceError(ctx, w, err)
		}
		return
	}

	h.rs.writeEmpty(ctx, w, http.StatusOK)
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UserLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.Login == "" || req.Password == "" {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	token, err := h.users.Login(ctx, req.Login, req.Password, req.Device)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	h.rs.writeContent(ctx, w, &UserLoginResponse{Token: token})
}
