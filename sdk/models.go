package sdk

import "time"

type Device struct {
	Name string `json:"Name"`
}

type Settings struct {
	Settings string    `json:"Settings"`
	Version  int64     `json:"Version"`
	Date     time.Time `json:"Date"`
}

type Version struct {
	Version int64     `json:"Version"`
	Date    time.Time `json:"Date"`
}

// IndiagramUpdate is one create or update request. ID < 0 creates a new
// item; IDs below -1 act as batch-local placeholders.
type IndiagramUpdate struct {
	ID         int64  `json:"Id"`
	Version    int64  `json:"Version"`
	Text       string `json:"Text"`
	ParentID   int64  `json:"ParentId"`
	Position   int    `json:"Position"`
	IsEnabled  bool   `json:"IsEnabled"`
	IsCategory bool   `json:"IsCategory"`
}

// Indiagram is one node of the collection tree as the server resolves it for
// the bound device.
type Indiagram struct {
	DatabaseID int64        `json:"DatabaseId"`
	ParentID   int64        `json:"ParentId"`
	Version    int64        `json:"Version"`
	Text       string       `json:"Text"`
	HasImage   bool         `json:"HasImage"`
	HasSound   bool         `json:"HasSound"`
	ImageHash  string       `json:"ImageHash"`
	SoundHash  string       `json:"SoundHash"`
	ImageFile  string       `json:"ImageFile"`
	SoundFile  string       `json:"SoundFile"`
	Position   int          `json:"Position"`
	IsEnabled  bool         `json:"IsEnabled"`
	IsCategory bool         `json:"IsCategory"`
	Children   []*Indiagram `json:"Children"`
}

type MappedIndiagram struct {
	SentID     int64 `json:"SentId"`
	DatabaseID int64 `json:"DatabaseId"`
	ParentID   int64 `json:"ParentId"`
}

// File is a downloaded attachment.
type File struct {
	FileName string `json:"FileName"`
	Content  []byte `json:"Content"`
}

type fileUpload struct {
	Filename string `json:"Filename"`
	Content  []byte `json:"Content"`
}
