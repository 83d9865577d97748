package models

import "time"

// Settings is an opaque serialized blob per device. Writes are append-only:
// each write creates a new row with VersionNumber = previous max + 1. The
// numbering is independent from the collection version ledger.
type Settings struct {
	ID            int64
	DeviceID      int64
	VersionNumber int64
	Serialized    string
	CreatedAt     time.Time
}
