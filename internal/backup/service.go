// Package backup drives archive creation and upload, and the inverse
// restore path, against the object store. Backups run as detached jobs
// tracked in the registry; restores are synchronous.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shulkerhost/shulker/internal/archive"
	"github.com/shulkerhost/shulker/internal/fault"
	"github.com/shulkerhost/shulker/internal/files"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/metrics"
	"github.com/shulkerhost/shulker/internal/model"
	"github.com/shulkerhost/shulker/internal/platform"
	"github.com/shulkerhost/shulker/internal/storage"
	"github.com/shulkerhost/shulker/internal/transfer"
)

type Service struct {
	store    storage.Client
	engine   *transfer.Engine
	registry job.Registry
	gateway  *files.Gateway
	logger   zerolog.Logger
	excludes []string
	tempDir  string
	now      func() time.Time
}

func NewService(logger zerolog.Logger, store storage.Client, engine *transfer.Engine,
	registry job.Registry, gateway *files.Gateway, excludes []string) *Service {
	return &Service{
		store:    store,
		engine:   engine,
		registry: registry,
		gateway:  gateway,
		logger:   logger.With().Str("component", "backup").Logger(),
		excludes: excludes,
		tempDir:  os.TempDir(),
		now:      time.Now,
	}
}

// StartBackup registers a backup job for dirPath and launches it in the
// background, returning immediately. When backupID names an existing job
// the existing record is returned with started=false, so duplicate
// triggers are safe. The detached task cannot be cancelled; abandoning the
// job leaks the work until it reaches a terminal state.
func (s *Service) StartBackup(_ context.Context, dirPath, backupID string) (*model.Job, bool, error) {
	abs, err := s.gateway.ResolvePath(dirPath)
	if err != nil {
		return nil, false, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, false, fault.Validationf("directory %q does not exist", dirPath)
	}

	id := backupID
	if id == "" {
		id = platform.NewJobID("backup")
	}

	rec, created := s.registry.Create(id, model.JobKindBackup, func(j *model.Job) {
		j.Directory = abs
	})
	if !created {
		return rec, false, nil
	}

	go s.runBackup(context.Background(), id, abs)
	return rec, true, nil
}

func (s *Service) runBackup(ctx context.Context, id, dir string) {
	s.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusRunning
		j.Progress.Phase = "archiving"
	})

	archivePath := filepath.Join(s.tempDir, fmt.Sprintf("shulker-backup-%s.tar.gz", id))
	defer os.Remove(archivePath)

	if err := archive.Create(dir, archivePath, s.excludes); err != nil {
		s.fail(id, fmt.Errorf("archive %s: %w", dir, err))
		return
	}

	// Hook point for content-addressed dedup would go here, once the
	// archive exists but before it is uploaded.

	key := storage.BackupKey(filepath.Base(dir), s.now())
	s.registry.Mutate(id, func(j *model.Job) {
		j.Progress.Phase = "uploading"
	})

	size, err := s.engine.Upload(ctx, archivePath, key, "application/gzip")
	if err != nil {
		s.fail(id, fmt.Errorf("upload %s: %w", key, err))
		return
	}

	s.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusSuccess
		j.Progress.Phase = "done"
		j.BackupResult = &model.BackupResult{BackupPath: key, SizeBytes: size}
	})
	metrics.JobsTotal.WithLabelValues(model.JobKindBackup, model.StatusSuccess).Inc()
	s.logger.Info().Str("job", id).Str("key", key).Int64("size", size).Msg("backup complete")
}

func (s *Service) fail(id string, err error) {
	s.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusFailed
		j.Error = err.Error()
	})
	metrics.JobsTotal.WithLabelValues(model.JobKindBackup, model.StatusFailed).Inc()
	s.logger.Error().Err(err).Str("job", id).Msg("backup failed")
}

// ValidBackupKey reports whether key is confined to the backups/ namespace
// and free of parent-directory traversal segments.
func ValidBackupKey(key string) bool {
	if !strings.HasPrefix(key, storage.BackupPrefix) {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// Restore downloads backupKey and extracts it into the parent of dirPath,
// overwriting whatever is there. It is synchronous; the transfer engine
// still parallelizes large downloads internally.
func (s *Service) Restore(ctx context.Context, dirPath, backupKey string) (*model.RestoreResult, error) {
	if !ValidBackupKey(backupKey) {
		return nil, fault.Validationf("invalid backup key %q", backupKey)
	}
	abs, err := s.gateway.ResolvePath(dirPath)
	if err != nil {
		return nil, err
	}

	tempPath := filepath.Join(s.tempDir, fmt.Sprintf("shulker-restore-%s.tar.gz", platform.NewID()))
	defer os.Remove(tempPath)

	size, err := s.engine.Download(ctx, backupKey, tempPath)
	if err != nil {
		return nil, err
	}

	// Extraction failure is the authoritative signal for a corrupt or
	// truncated archive; the engine's size check only warns.
	if err := archive.Extract(tempPath, filepath.Dir(abs)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("key", backupKey).Str("dir", abs).Int64("size", size).Msg("restore complete")
	return &model.RestoreResult{
		RestoredFrom: backupKey,
		RestoredTo:   abs,
		Size:         size,
	}, nil
}

// ListBackups returns the stored backups of dirPath, newest first.
func (s *Service) ListBackups(ctx context.Context, dirPath string) ([]model.BackupInfo, error) {
	abs, err := s.gateway.ResolvePath(dirPath)
	if err != nil {
		return nil, err
	}
	suffix := storage.BackupKeySuffix(filepath.Base(abs))

	objects, err := s.store.List(ctx, storage.BackupPrefix)
	if err != nil {
		return nil, err
	}

	var backups []model.BackupInfo
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, suffix) {
			continue
		}
		ts := storage.ParseBackupTime(obj.Key)
		if ts.IsZero() {
			ts = obj.LastModified
		}
		backups = append(backups, model.BackupInfo{
			Path:      obj.Key,
			Size:      obj.Size,
			Timestamp: ts,
		})
	}

	// Newest first; reverse-epoch key order already encodes that, so it is
	// the tiebreaker when timestamps are unknown or equal.
	sort.SliceStable(backups, func(i, j int) bool {
		ti, tj := backups[i].Timestamp, backups[j].Timestamp
		if !ti.Equal(tj) && !ti.IsZero() && !tj.IsZero() {
			return ti.After(tj)
		}
		return backups[i].Path < backups[j].Path
	})
	return backups, nil
}
