package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/indiarose/sync-server/internal/server/models"
)

type deviceService interface {
	Create(ctx context.Context, userID int64, name string) (*models.Device, error)
	Rename(ctx context.Context, userID int64, oldName, newName string) error
	List(ctx context.Context, userID int64) ([]*models.Device, error)
}

type DeviceHandler struct {
	devices deviceService
	rs      *responder
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	var req DeviceCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.Name == "" {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	if _, err := h.devices.Create(ctx, p.UserID, req.Name); err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	h.rs.writeEmpty(ctx, w, http.StatusCreated)
}

func (h *DeviceHandler) Rename(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	var req DeviceRenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.ActualName == "" || req.NewName == "" {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	if err := h.devices.Rename(ctx, p.UserID, req.ActualName, req.NewName); err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	h.rs.writeEmpty(ctx, w, http.StatusAccepted)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	devices, err := h.devices.List(ctx, p.UserID)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	out := make([]*DeviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, &DeviceResponse{Name: d.Name})
	}
	h.rs.writeContent(ctx, w, out)
}
