package model

import "time"

// BackupInfo is one entry in a backup listing, newest first.
type BackupInfo struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Timestamp time.Time `json:"timestamp"`
}

// RestoreResult describes a completed synchronous restore.
type RestoreResult struct {
	RestoredFrom string `json:"restored_from"`
	RestoredTo   string `json:"restored_to"`
	Size         int64  `json:"size"`
}
