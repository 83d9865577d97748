package models

import "time"

// Version is a numbered synchronization checkpoint for one user's
// collection. Numbers are unique and strictly increasing per user. A version
// is open (writable by the device that created it, invisible to others) or
// closed (permanently read-only for everyone).
type Version struct {
	ID        int64
	UserID    int64
	DeviceID  int64
	Number    int64
	IsOpen    bool
	CreatedAt time.Time
}
