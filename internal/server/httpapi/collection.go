package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/services"
)

type collectionService interface {
	List(ctx context.Context, userID, deviceID int64) ([]*models.IndiagramForDevice, error)
	ListAt(ctx context.Context, userID, deviceID, version int64) ([]*models.IndiagramForDevice, error)
	Get(ctx context.Context, userID, deviceID, indiagramID int64) (*models.IndiagramForDevice, error)
	GetAt(ctx context.Context, userID, deviceID, indiagramID, version int64) (*models.IndiagramForDevice, error)
	Create(ctx context.Context, userID, deviceID int64, req *services.IndiagramUpdate) (*models.IndiagramForDevice, error)
	Update(ctx context.Context, userID, deviceID int64, req *services.IndiagramUpdate) (*models.IndiagramForDevice, error)
	Batch(ctx context.Context, userID, deviceID int64, reqs []*services.IndiagramUpdate) ([]*services.MappedIndiagram, error)
	SetImage(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte) error
	SetSound(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte) error
	GetImage(ctx context.Context, userID, deviceID, indiagramID, version int64) (string, []byte, error)
	GetSound(ctx context.Context, userID, deviceID, indiagramID, version int64) (string, []byte, error)
}

type CollectionHandler struct {
	collection collectionService
	rs         *responder
}

func (h *CollectionHandler) All(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	items, err := h.collection.List(ctx, p.UserID, p.DeviceID)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toIndiagramTree(services.BuildCollectionTree(items)))
}

func (h *CollectionHandler) AllAt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	version, err := strconv.ParseInt(chi.URLParam(r, "versionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	items, err := h.collection.ListAt(ctx, p.UserID, p.DeviceID, version)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toIndiagramTree(services.BuildCollectionTree(items)))
}

func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	item, err := h.collection.Get(ctx, p.UserID, p.DeviceID, id)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toIndiagramResponse(item))
}

func (h *CollectionHandler) GetAt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	version, err := strconv.ParseInt(chi.URLParam(r, "versionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	item, err := h.collection.GetAt(ctx, p.UserID, p.DeviceID, id, version)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toIndiagramResponse(item))
}

// Update creates (Id < 0) or edits (Id >= 0) a single indiagram.
func (h *CollectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	var req IndiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	var item *models.IndiagramForDevice
	var err error
	if req.ID < 0 {
		item, err = h.collection.Create(ctx, p.UserID, p.DeviceID, toUpdate(&req))
	} else {
		item, err = h.collection.Update(ctx, p.UserID, p.DeviceID, toUpdate(&req))
	}
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, toIndiagramResponse(item))
}

// Updates applies a whole batch in one call, resolving placeholder parents.
func (h *CollectionHandler) Updates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := principalFrom(ctx)

	var reqs []*IndiagramRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	updates := make([]*services.IndiagramUpdate, 0, len(reqs))
	for _, req := range reqs {
		if req.Text == "" {
			h.rs.writeBadRequest(ctx, w)
			return
		}
		updates = append(updates, toUpdate(req))
	}

	mapped, err := h.collection.Batch(ctx, p.UserID, p.DeviceID, updates)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}

	out := make([]*MappedIndiagramResponse, 0, len(mapped))
	for _, m := range mapped {
		out = append(out, &MappedIndiagramResponse{
			SentID:     m.SentID,
			DatabaseID: m.DatabaseID,
			ParentID:   m.ParentID,
		})
	}
	h.rs.writeContent(ctx, w, out)
}

func (h *CollectionHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	h.getMedia(w, r, h.collection.GetImage)
}

func (h *CollectionHandler) GetSound(w http.ResponseWriter, r *http.Request) {
	h.getMedia(w, r, h.collection.GetSound)
}

func (h *CollectionHandler) getMedia(w http.ResponseWriter, r *http.Request,
	fetch func(ctx context.Context, userID, deviceID, indiagramID, version int64) (string, []byte, error)) {

	ctx := r.Context()
	p := principalFrom(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	var version int64
	if raw := chi.URLParam(r, "versionNumber"); raw != "" {
		if version, err = strconv.ParseInt(raw, 10, 64); err != nil {
			h.rs.writeBadRequest(ctx, w)
			return
		}
	}

	filename, content, err := fetch(ctx, p.UserID, p.DeviceID, id, version)
	if err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeContent(ctx, w, &FileDownloadResponse{FileName: filename, Content: content})
}

func (h *CollectionHandler) PostImage(w http.ResponseWriter, r *http.Request) {
	h.postMedia(w, r, h.collection.SetImage)
}

func (h *CollectionHandler) PostSound(w http.ResponseWriter, r *http.Request) {
	h.postMedia(w, r, h.collection.SetSound)
}

func (h *CollectionHandler) postMedia(w http.ResponseWriter, r *http.Request,
	store func(ctx context.Context, userID, deviceID, indiagramID, version int64, filename string, content []byte) error) {

	ctx := r.Context()
	p := principalFrom(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	version, err := strconv.ParseInt(chi.URLParam(r, "versionNumber"), 10, 64)
	if err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	var req FileUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rs.writeBadRequest(ctx, w)
		return
	}
	if req.Filename == "" || len(req.Content) == 0 {
		h.rs.writeBadRequest(ctx, w)
		return
	}

	if err := store(ctx, p.UserID, p.DeviceID, id, version, req.Filename, req.Content); err != nil {
		h.rs.writeServiceError(ctx, w, err)
		return
	}
	h.rs.writeEmpty(ctx, w, http.StatusOK)
}
