package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shulkerhost/shulker/internal/api/request"
	"github.com/shulkerhost/shulker/internal/api/response"
	"github.com/shulkerhost/shulker/internal/backup"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/model"
)

type Backup struct {
	svc      *backup.Service
	registry job.Registry
}

func NewBackup(svc *backup.Service, registry job.Registry) *Backup {
	return &Backup{svc: svc, registry: registry}
}

func (h *Backup) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartBackup
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, started, err := h.svc.StartBackup(r.Context(), req.Directory, req.BackupID)
	if err != nil {
		response.WriteFault(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]any{
		"id":         rec.ID,
		"started":    started,
		"directory":  rec.Directory,
		"status":     rec.Status,
		"started_at": rec.StartedAt,
	})
}

type backupJobView struct {
	ID          string              `json:"id"`
	Directory   string              `json:"directory"`
	Status      string              `json:"status"`
	StartedAt   int64               `json:"started_at"`
	CompletedAt *int64              `json:"completed_at"`
	Progress    model.Progress      `json:"progress"`
	Result      *model.BackupResult `json:"result"`
	Error       *string             `json:"error"`
}

// Status reports a backup job. An unknown id yields status "not_found"
// rather than an error: job history does not survive restarts, and a
// missing record means "unknown", not "failed".
func (h *Backup) Status(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.registry.Get(id)
	if !ok {
		response.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "not_found"})
		return
	}

	view := backupJobView{
		ID:        rec.ID,
		Directory: rec.Directory,
		Status:    rec.Status,
		StartedAt: rec.StartedAt,
		Progress:  rec.Progress,
		Result:    rec.BackupResult,
	}
	if rec.CompletedAt != 0 {
		view.CompletedAt = &rec.CompletedAt
	}
	if rec.Error != "" {
		view.Error = &rec.Error
	}
	response.WriteJSON(w, http.StatusOK, view)
}

func (h *Backup) Restore(w http.ResponseWriter, r *http.Request) {
	var req request.RestoreBackup
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.svc.Restore(r.Context(), req.Directory, req.BackupKey)
	if err != nil {
		response.WriteFault(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"restored_from": res.RestoredFrom,
		"restored_to":   res.RestoredTo,
		"size":          res.Size,
		"note":          "restart the server to pick up restored data",
	})
}

func (h *Backup) List(w http.ResponseWriter, r *http.Request) {
	dir := r.URL.Query().Get("directory")
	if dir == "" {
		response.WriteError(w, http.StatusBadRequest, "directory query parameter is required")
		return
	}

	backups, err := h.svc.ListBackups(r.Context(), dir)
	if err != nil {
		response.WriteFault(w, err)
		return
	}
	if backups == nil {
		backups = []model.BackupInfo{}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"directory": dir,
		"backups":   backups,
	})
}
