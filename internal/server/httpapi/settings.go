package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/indiarose/sync-server/internal/server/models"
)

type settingsService interface {
	Update(ctx context.Context, deviceID int64, serialized string) (*models.Settings, error)
	GetLast(ctx context.Context, deviceID int64) (*models.Settings, error)
	Get(ctx context.Context, deviceID, versionNumber int64) (*models.Settings, error)
	List(ctx context.Context, deviceID int64) ([]*models.Settings, error)
}

type SettingsHandler struct {
	settings settingsService
	rs       *responder
}

func (h *SettingsHandler) Last(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	settings, err := h.settings.GetLast(ctx, p.DeviceID)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toSettingsResponse(settings))
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	var req SettingsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.Data == "" {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	settings, err := h.settings.Update(ctx, p.DeviceID, req.Data)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toSettingsResponse(settings))
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	version, err := strconv.ParseInt(chi.URLParam(r, "versionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	settings, err := h.settings.Get(ctx, p.DeviceID, version)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toSettingsResponse(settings))
}

func (h *SettingsHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	list, err := h.settings.List(ctx, p.DeviceID)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	out := make([]*SettingsResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSettingsResponse(s))
	}
	h.rs.writeContent(ctx, w, out)
}
