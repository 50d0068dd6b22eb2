package handler

import (
	"net/http"

	"github.com/shulkerhost/shulker/internal/api/request"
	"github.com/shulkerhost/shulker/internal/api/response"
	"github.com/shulkerhost/shulker/internal/files"
)

type Files struct {
	gateway *files.Gateway
}

func NewFiles(gateway *files.Gateway) *Files {
	return &Files{gateway: gateway}
}

func (h *Files) List(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	entries, err := h.gateway.List(path)
	if err != nil {
		response.WriteFault(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"entries": entries,
	})
}

func (h *Files) Read(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	data, err := h.gateway.Read(path)
	if err != nil {
		response.WriteFault(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"path":    path,
		"content": string(data),
	})
}

func (h *Files) Write(w http.ResponseWriter, r *http.Request) {
	var req request.WriteFile
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.gateway.Write(req.Path, []byte(req.Content)); err != nil {
		response.WriteFault(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "path": req.Path})
}

func (h *Files) Delete(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if err := h.gateway.Delete(path); err != nil {
		response.WriteFault(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "path": path})
}

func (h *Files) Mkdir(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDirectory
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.gateway.Mkdir(req.Path); err != nil {
		response.WriteFault(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, map[string]any{"success": true, "path": req.Path})
}
