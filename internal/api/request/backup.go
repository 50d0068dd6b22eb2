package request

type StartBackup struct {
	Directory string `json:"directory" validate:"required"`
	// BackupID makes the trigger idempotent; generated when omitted.
	BackupID string `json:"backup_id"`
}

type RestoreBackup struct {
	Directory string `json:"directory" validate:"required"`
	BackupKey string `json:"backup_key" validate:"required"`
}
