package request

type InstallPack struct {
	Source string `json:"source" validate:"required,oneof=modrinth curseforge"`

	// Modrinth: a direct pack URL, or a project slug plus optional version.
	URL     string `json:"url" validate:"omitempty,url"`
	Project string `json:"project"`
	Version string `json:"version"`

	// CurseForge: numeric project/file pair.
	ProjectID int `json:"project_id"`
	FileID    int `json:"file_id"`
}
