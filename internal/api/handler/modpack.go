package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shulkerhost/shulker/internal/api/request"
	"github.com/shulkerhost/shulker/internal/api/response"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/modpack"
)

type Modpack struct {
	installer *modpack.Installer
	registry  job.Registry
}

func NewModpack(installer *modpack.Installer, registry job.Registry) *Modpack {
	return &Modpack{installer: installer, registry: registry}
}

func (h *Modpack) Install(w http.ResponseWriter, r *http.Request) {
	var req request.InstallPack
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.installer.Install(r.Context(), req.Source, modpack.Locator{
		URL:       req.URL,
		Project:   req.Project,
		Version:   req.Version,
		ProjectID: req.ProjectID,
		FileID:    req.FileID,
	})
	if err != nil {
		response.WriteFault(w, err)
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{
		"id":     rec.ID,
		"status": rec.Status,
	})
}

func (h *Modpack) Status(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, ok := h.registry.Get(id)
	if !ok {
		response.WriteError(w, http.StatusNotFound, "job not found: "+id)
		return
	}
	response.WriteJSON(w, http.StatusOK, rec)
}
