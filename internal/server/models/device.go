package models

// Device is a pure identity/scoping key: it owns no content, only settings,
// overlay states and version ownership resolve through it. Names are unique
// per user and renameable.
type Device struct {
	ID     int64
	UserID int64
	Name   string
}
