package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shulkerhost/shulker/internal/api"
	"github.com/shulkerhost/shulker/internal/backup"
	"github.com/shulkerhost/shulker/internal/config"
	"github.com/shulkerhost/shulker/internal/files"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/logging"
	"github.com/shulkerhost/shulker/internal/maintenance"
	"github.com/shulkerhost/shulker/internal/metrics"
	"github.com/shulkerhost/shulker/internal/modpack"
	"github.com/shulkerhost/shulker/internal/storage"
	"github.com/shulkerhost/shulker/internal/transfer"
)

func main() {
	// Optional; the daemon is normally configured by its supervisor.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	store := storage.NewS3Client(logger, cfg)
	engine := transfer.NewEngine(logger, store, transfer.Options{
		LargeThreshold: cfg.LargeThresholdBytes,
		ChunkSize:      cfg.ChunkSizeBytes,
		MaxConcurrent:  cfg.MaxConcurrentParts,
		MaxRetries:     cfg.MaxPartRetries,
		BaseDelay:      time.Duration(cfg.RetryBaseDelayMS) * time.Millisecond,
	})

	flag := maintenance.FileFlag{Path: cfg.MaintenanceFile}
	registry := job.NewMemoryRegistry()
	gateway := files.NewGateway(logger, cfg.ManagedRoots, flag)
	backups := backup.NewService(logger, store, engine, registry, gateway, cfg.BackupExcludes)

	curseforge := &modpack.CurseforgeProvider{BaseURL: cfg.CurseforgeAPIURL, APIKey: cfg.CurseforgeAPIKey}
	providers := map[string]modpack.Provider{
		"modrinth":   &modpack.ModrinthProvider{BaseURL: cfg.ModrinthAPIURL},
		"curseforge": curseforge,
	}
	installer := modpack.NewInstaller(logger, registry, gateway, flag,
		providers, curseforge, cfg.ManagedRoots[0], cfg.ModsDir)

	srv := api.NewServer(logger, backups, installer, gateway, registry)

	httpServer := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: srv,
		// Backups and restores run for tens of minutes on multi-gigabyte
		// archives; only the read side gets a short timeout.
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if cfg.MetricsListenAddr != "" {
		metricsServer := metrics.NewServer(cfg.MetricsListenAddr)
		go func() {
			logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting shulkerd API server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
}
