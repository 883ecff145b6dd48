package profile

import "context"

// Backup document constants. Version is an integer format revision, not a
// release version.
const (
	BackupVersion = 2
	BackupType    = "profile"
)

// Backup is the snapshot format produced by Profile.Backup and consumed by
// Profile.CheckUpdate. The same shape serves local export/restore and
// remote synchronization.
// Profile and Values are pointers/maps so an absent field is
// distinguishable from an empty one; CheckUpdate rejects documents missing
// either.
type Backup struct {
	Version int            `json:"version"`
	Type    string         `json:"type"`
	Profile *Metadata      `json:"profile"`
	Toggled bool           `json:"toggled"`
	Values  map[string]any `json:"values"`
}

// Fetcher retrieves a backup document from a remote URL. Implementations
// validate shape before returning; CheckUpdate additionally re-checks the
// fields it depends on. No retry or timeout policy is implied here.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Backup, error)
}
