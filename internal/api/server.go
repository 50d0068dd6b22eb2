package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shulkerhost/shulker/internal/api/handler"
	mw "github.com/shulkerhost/shulker/internal/api/middleware"
	"github.com/shulkerhost/shulker/internal/backup"
	"github.com/shulkerhost/shulker/internal/files"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/modpack"
)

type Server struct {
	router chi.Router
	logger zerolog.Logger
}

func NewServer(logger zerolog.Logger, backups *backup.Service, installer *modpack.Installer,
	gateway *files.Gateway, registry job.Registry) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes(backups, installer, gateway, registry)

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes(backups *backup.Service, installer *modpack.Installer,
	gateway *files.Gateway, registry job.Registry) {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		b := handler.NewBackup(backups, registry)
		r.Post("/backups", b.Start)
		r.Get("/backups", b.List)
		r.Post("/backups/restore", b.Restore)
		r.Get("/backups/jobs/{id}", b.Status)

		m := handler.NewModpack(installer, registry)
		r.Post("/modpacks/install", m.Install)
		r.Get("/modpacks/jobs/{id}", m.Status)

		f := handler.NewFiles(gateway)
		r.Get("/files", f.List)
		r.Get("/files/content", f.Read)
		r.Put("/files/content", f.Write)
		r.Delete("/files", f.Delete)
		r.Post("/files/directories", f.Mkdir)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
