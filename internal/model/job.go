package model

// JobKind identifies the variant of background work a Job tracks.
const (
	JobKindBackup         = "backup"
	JobKindRestore        = "restore"
	JobKindPackageInstall = "package-install"
)

// Job status constants. Backup/restore jobs move pending -> running ->
// success|failed. Package installs move pending -> downloading ->
// installing -> completed|failed. Success, completed and failed are
// terminal; everything else is active.
const (
	StatusPending     = "pending"
	StatusRunning     = "running"
	StatusSuccess     = "success"
	StatusDownloading = "downloading"
	StatusInstalling  = "installing"
	StatusCompleted   = "completed"
	StatusFailed      = "failed"
)

// TerminalStatus reports whether a job status can no longer change.
func TerminalStatus(status string) bool {
	switch status {
	case StatusSuccess, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Progress is an advisory phase descriptor updated by the owning task.
// It is never authoritative; poll Status for the state machine.
type Progress struct {
	Phase        string `json:"phase,omitempty"`
	CurrentFile  string `json:"current_file,omitempty"`
	CurrentIndex int    `json:"current_index,omitempty"`
	TotalFiles   int    `json:"total_files,omitempty"`
}

// BackupResult is populated when a backup job reaches success.
type BackupResult struct {
	BackupPath string `json:"backup_path"`
	SizeBytes  int64  `json:"size_bytes"`
}

// InstallResult is populated when a package-install job completes.
type InstallResult struct {
	Loader           string `json:"loader,omitempty"`
	GameVersion      string `json:"game_version,omitempty"`
	Profile          string `json:"profile,omitempty"`
	PackName         string `json:"pack_name,omitempty"`
	FilesInstalled   int    `json:"files_installed"`
	OverridesApplied bool   `json:"overrides_applied"`
}

// Job is the in-memory record of one background unit of work. It lives for
// the process lifetime only; a restart loses job history and callers must
// treat an unknown id as "unknown", not "failed".
type Job struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Directory string `json:"directory,omitempty"`
	Source    string `json:"source,omitempty"`

	// Millisecond wall-clock timestamps.
	StartedAt   int64 `json:"started_at"`
	UpdatedAt   int64 `json:"updated_at"`
	CompletedAt int64 `json:"completed_at,omitempty"`

	Progress      Progress       `json:"progress"`
	BackupResult  *BackupResult  `json:"backup_result,omitempty"`
	InstallResult *InstallResult `json:"install_result,omitempty"`
	Error         string         `json:"error,omitempty"`
}
