package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/indiarose/sync-server/internal/server/models"
)

type versionService interface {
	Create(ctx context.Context, userID, deviceID int64) (*models.Version, error)
	Close(ctx context.Context, userID, deviceID, number int64) (*models.Version, error)
	List(ctx context.Context, userID, from int64) ([]*models.Version, error)
}

type VersionHandler struct {
	versions versionService
	rs       *responder
}

func (h *VersionHandler) All(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, 0)
}

func (h *VersionHandler) AllFrom(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.ParseInt(chi.URLParam(r, "fromVersionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(r.Context(), w)
		return
	}
	h.list(w, r, from)
}

func (h *VersionHandler) list(w http.ResponseWriter, r *http.Request, from int64) {
	ctx := r.Context()
	p := principalFrom(ctx)

	versions, err := h.versions.List(ctx, p.UserID, from)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	out := make([]*VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	h.rs.writeContent(ctx, w, out)
}

func (h *VersionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	version, err := h.versions.Create(ctx, p.UserID, p.DeviceID)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toVersionResponse(version))
}

func (h *VersionHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	number, err := strconv.ParseInt(chi.URLParam(r, "versionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	version, err := h.versions.Close(ctx, p.UserID, p.DeviceID, number)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toVersionResponse(version))
}
