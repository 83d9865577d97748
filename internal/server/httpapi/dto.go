package httpapi

import (
	"time"

	"github.com/indiarose/sync-server/internal/server/models"
	"github.com/indiarose/sync-server/internal/server/services"
)

// Wire DTOs. Field names are serialized in PascalCase to stay compatible
// with the clients already in the field.

type UserRegisterRequest struct {
	Login    string `json:"Login"`
	Email    string `json:"Email"`
	Password string `json:"Password"`
}

type UserLoginRequest struct {
	Login    string `json:"Login"`
	Password string `json:"Password"`
	Device   string `json:"Device,omitempty"`
}

type UserLoginResponse struct {
	Token string `json:"Token"`
}

type DeviceCreateRequest struct {
	Name string `json:"Name"`
}

type DeviceRenameRequest struct {
	ActualName string `json:"ActualName"`
	NewName    string `json:"NewName"`
}

type DeviceResponse struct {
	Name string `json:"Name"`
}

type SettingsUpdateRequest struct {
	Data string `json:"Data"`
}

type SettingsResponse struct {
	Settings string    `json:"Settings"`
	Version  int64     `json:"Version"`
	Date     time.Time `json:"Date"`
}

type VersionResponse struct {
	Version int64     `json:"Version"`
	Date    time.Time `json:"Date"`
}

type IndiagramRequest struct {
	ID         int64  `json:"Id"`
	Version    int64  `json:"Version"`
	Text       string `json:"Text"`
	ParentID   int64  `json:"ParentId"`
	Position   int    `json:"Position"`
	IsEnabled  bool   `json:"IsEnabled"`
	IsCategory bool   `json:"IsCategory"`
}

type IndiagramResponse struct {
	DatabaseID int64                `json:"DatabaseId"`
	ParentID   int64                `json:"ParentId"`
	Version    int64                `json:"Version"`
	Text       string               `json:"Text"`
	HasImage   bool                 `json:"HasImage"`
	HasSound   bool                 `json:"HasSound"`
	ImageHash  string               `json:"ImageHash"`
	SoundHash  string               `json:"SoundHash"`
	ImageFile  string               `json:"ImageFile"`
	SoundFile  string               `json:"SoundFile"`
	Position   int                  `json:"Position"`
	IsEnabled  bool                 `json:"IsEnabled"`
	IsCategory bool                 `json:"IsCategory"`
	Children   []*IndiagramResponse `json:"Children"`
}

type MappedIndiagramResponse struct {
	SentID     int64 `json:"SentId"`
	DatabaseID int64 `json:"DatabaseId"`
	ParentID   int64 `json:"ParentId"`
}

type FileUploadRequest struct {
	Filename string `json:"Filename"`
	Content  []byte `json:"Content"`
}

type FileDownloadResponse struct {
	FileName string `json:"FileName"`
	Content  []byte `json:"Content"`
}

func toSettingsResponse(s *models.Settings) *SettingsResponse {
	return &SettingsResponse{Settings: s.Serialized, Version: s.VersionNumber, Date: s.CreatedAt}
}

func toVersionResponse(v *models.Version) *VersionResponse {
	return &VersionResponse{Version: v.Number, Date: v.CreatedAt}
}

func toIndiagramResponse(item *models.IndiagramForDevice) *IndiagramResponse {
	return &IndiagramResponse{
		DatabaseID: item.ID,
		ParentID:   item.ParentID,
		Version:    item.Version,
		Text:       item.Text,
		HasImage:   item.ImageHash != "",
		HasSound:   item.SoundHash != "",
		ImageHash:  item.ImageHash,
		SoundHash:  item.SoundHash,
		ImageFile:  item.ImagePath,
		SoundFile:  item.SoundPath,
		Position:   item.Position,
		IsEnabled:  item.IsEnabled,
		IsCategory: item.IsCategory,
		Children:   []*IndiagramResponse{},
	}
}

func toIndiagramTree(nodes []*services.CollectionNode) []*IndiagramResponse {
	out := make([]*IndiagramResponse, 0, len(nodes))
	for _, n := range nodes {
		resp := toIndiagramResponse(n.Item)
		resp.Children = toIndiagramTree(n.Children)
		out = append(out, resp)
	}
	return out
}

func toUpdate(req *IndiagramRequest) *services.IndiagramUpdate {
	return &services.IndiagramUpdate{
		ID:         req.ID,
		Version:    req.Version,
		ParentID:   req.ParentID,
		Position:   req.Position,
		Text:       req.Text,
		IsCategory: req.IsCategory,
		IsEnabled:  req.IsEnabled,
	}
}
