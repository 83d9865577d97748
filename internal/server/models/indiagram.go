package models

// RootParentID marks an indiagram that sits at the top level of the
// collection tree.
const RootParentID int64 = -1

// Indiagram is a logical content item (category or pictogram). It carries no
// mutable fields itself; its content lives in the append-only IndiagramInfo
// log.
type Indiagram struct {
	ID     int64
	UserID int64
}

// IndiagramInfo is a content snapshot of an indiagram introduced in a given
// version. For one indiagram there is at most one info per version, and the
// snapshot visible "as of version V" is the one with the greatest
// Version <= V. Infos are never created below the current maximum version
// of their indiagram.
type IndiagramInfo struct {
	ID          int64
	IndiagramID int64
	Version     int64
	ParentID    int64
	Position    int
	Text        string
	ImagePath   string
	ImageHash   string
	SoundPath   string
	SoundHash   string
	IsCategory  bool
}

// IndiagramState is the per-device enablement overlay for one info snapshot.
// Absence of a row means enabled.
type IndiagramState struct {
	ID        int64
	InfoID    int64
	DeviceID  int64
	IsEnabled bool
}

// IndiagramForDevice is an info snapshot resolved for one device: content
// fields from the info plus the device's overlay choice.
type IndiagramForDevice struct {
	ID         int64
	Version    int64
	ParentID   int64
	Position   int
	Text       string
	ImagePath  string
	ImageHash  string
	SoundPath  string
	SoundHash  string
	IsCategory bool
	IsEnabled  bool
}
