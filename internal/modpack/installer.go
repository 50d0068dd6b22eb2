// Package modpack installs third-party mod packs onto the managed data
// directory: resolve the pack archive, download and extract it, then
// reconcile its manifest against the filesystem as a tracked job.
package modpack

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/shulkerhost/shulker/internal/archive"
	"github.com/shulkerhost/shulker/internal/fault"
	"github.com/shulkerhost/shulker/internal/files"
	"github.com/shulkerhost/shulker/internal/job"
	"github.com/shulkerhost/shulker/internal/maintenance"
	"github.com/shulkerhost/shulker/internal/metrics"
	"github.com/shulkerhost/shulker/internal/model"
	"github.com/shulkerhost/shulker/internal/platform"
)

type Installer struct {
	registry     job.Registry
	gateway      *files.Gateway
	flag         maintenance.Flag
	logger       zerolog.Logger
	client       *http.Client
	providers    map[string]Provider
	fileResolver FileResolver
	root         string
	modsDir      string
	tempBase     string

	// One install at a time; two concurrent installs would corrupt each
	// other's mods directory.
	mu     sync.Mutex
	active bool
}

func NewInstaller(logger zerolog.Logger, registry job.Registry, gateway *files.Gateway,
	flag maintenance.Flag, providers map[string]Provider, fileResolver FileResolver,
	root, modsDir string) *Installer {
	return &Installer{
		registry:     registry,
		gateway:      gateway,
		flag:         flag,
		logger:       logger.With().Str("component", "modpack").Logger(),
		client:       http.DefaultClient,
		providers:    providers,
		fileResolver: fileResolver,
		root:         filepath.Clean(root),
		modsDir:      modsDir,
		tempBase:     os.TempDir(),
	}
}

// Install validates preconditions, registers a package-install job and
// launches the pipeline in the background. The job id is returned
// immediately; progress is visible only through polling.
func (i *Installer) Install(_ context.Context, source string, loc Locator) (*model.Job, error) {
	provider, ok := i.providers[source]
	if !ok {
		return nil, fault.Validationf("unknown pack source %q", source)
	}
	if !i.flag.Enabled() {
		return nil, fault.MaintenanceRequiredf("maintenance mode must be enabled before installing packs")
	}
	if !i.acquire() {
		return nil, fault.Conflictf("another install is already in progress")
	}

	id := platform.NewJobID(source)
	rec, _ := i.registry.Create(id, model.JobKindPackageInstall, func(j *model.Job) {
		j.Source = source
	})

	go i.run(context.Background(), id, provider, loc)
	return rec, nil
}

func (i *Installer) acquire() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.active {
		return false
	}
	i.active = true
	return true
}

func (i *Installer) release() {
	i.mu.Lock()
	i.active = false
	i.mu.Unlock()
}

func (i *Installer) run(ctx context.Context, id string, provider Provider, loc Locator) {
	defer i.release()

	tempDir := filepath.Join(i.tempBase, "shulker-install-"+id)
	defer i.cleanupTemp(tempDir)
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		i.fail(id, fmt.Errorf("create temp dir: %w", err))
		return
	}

	i.setPhase(id, "resolving")
	pack, err := provider.Resolve(ctx, loc)
	if err != nil {
		i.fail(id, fmt.Errorf("resolve pack: %w", err))
		return
	}

	i.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusDownloading
		j.Progress.Phase = "downloading"
	})
	archivePath := filepath.Join(tempDir, "pack.zip")
	if err := i.downloadToFile(ctx, pack.ArchiveURL, archivePath); err != nil {
		i.fail(id, fmt.Errorf("download pack archive: %w", err))
		return
	}

	i.setPhase(id, "extracting")
	extractDir := filepath.Join(tempDir, "extracted")
	if err := archive.Unzip(archivePath, extractDir); err != nil {
		i.fail(id, err)
		return
	}

	i.setPhase(id, "parsing manifest")
	plan, err := ParseManifest(extractDir)
	if err != nil {
		i.fail(id, err)
		return
	}
	i.logger.Info().Str("job", id).Str("pack", plan.String()).Msg("resolved install plan")

	i.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusInstalling
		j.Progress.Phase = "resetting mods"
	})
	if err := i.resetModsDir(); err != nil {
		i.fail(id, err)
		return
	}

	overridesApplied, err := i.applyOverrides(id, extractDir, plan.OverridesDir)
	if err != nil {
		i.fail(id, err)
		return
	}

	installed, err := i.installFiles(ctx, id, plan)
	if err != nil {
		i.fail(id, err)
		return
	}

	i.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusCompleted
		j.Progress.Phase = "done"
		j.InstallResult = &model.InstallResult{
			Loader:           plan.Loader,
			GameVersion:      plan.GameVersion,
			Profile:          SuggestedProfile(plan.Loader),
			PackName:         plan.PackName,
			FilesInstalled:   installed,
			OverridesApplied: overridesApplied,
		}
	})
	metrics.JobsTotal.WithLabelValues(model.JobKindPackageInstall, model.StatusCompleted).Inc()
	i.logger.Info().Str("job", id).Int("files", installed).Msg("pack install complete")
}

func (i *Installer) setPhase(id, phase string) {
	i.registry.Mutate(id, func(j *model.Job) {
		j.Progress.Phase = phase
	})
}

func (i *Installer) fail(id string, err error) {
	i.registry.Mutate(id, func(j *model.Job) {
		j.Status = model.StatusFailed
		j.Error = err.Error()
	})
	metrics.JobsTotal.WithLabelValues(model.JobKindPackageInstall, model.StatusFailed).Inc()
	i.logger.Error().Err(err).Str("job", id).Msg("pack install failed")
}

// resetModsDir empties and recreates the managed mods directory. This is
// destructive and only reachable after the maintenance precondition held.
func (i *Installer) resetModsDir() error {
	abs, err := i.gateway.ResolvePath(i.modsDir)
	if err != nil {
		return err
	}
	if abs == i.root {
		return fault.Validationf("mods directory must not be the managed root")
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("reset mods dir %s: %w", abs, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("recreate mods dir %s: %w", abs, err)
	}
	return nil
}

// applyOverrides copies the pack's overrides tree over the managed root,
// overwriting existing files. Returns whether anything was applied.
func (i *Installer) applyOverrides(id, extractDir, overridesDir string) (bool, error) {
	if overridesDir == "" {
		return false, nil
	}
	src := filepath.Join(extractDir, overridesDir)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return false, nil
	}
	i.setPhase(id, "applying overrides")

	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil || rel == "." {
			return err
		}
		target := filepath.Join(i.root, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
	if err != nil {
		return false, fmt.Errorf("apply overrides: %w", err)
	}
	return true, nil
}

// installFiles runs the shared per-file loop: resolve a URL if needed,
// confine the target path to the managed root, download, verify supplied
// digests, write. A single failure fails the whole job.
func (i *Installer) installFiles(ctx context.Context, id string, plan *InstallPlan) (int, error) {
	targets := plan.effective()
	installed := 0

	for idx, f := range targets {
		fileURL := f.URL
		if fileURL == "" {
			if i.fileResolver == nil {
				return installed, fault.Validationf("no file resolver configured for %s entries", plan.Format)
			}
			resolved, err := i.fileResolver.DownloadURL(ctx, f.ProjectID, f.FileID)
			if err != nil {
				return installed, fmt.Errorf("resolve file %d/%d: %w", f.ProjectID, f.FileID, err)
			}
			fileURL = resolved
		}

		relPath := f.Path
		if relPath == "" {
			base, err := urlBasename(fileURL)
			if err != nil {
				return installed, err
			}
			relPath = path.Join("mods", base)
		}

		target, err := i.gateway.ResolvePath(filepath.Join(i.root, filepath.FromSlash(relPath)))
		if err != nil {
			return installed, fault.Validationf("manifest path %q escapes managed root", relPath)
		}

		i.registry.Mutate(id, func(j *model.Job) {
			j.Progress.Phase = "installing files"
			j.Progress.CurrentFile = relPath
			j.Progress.CurrentIndex = idx + 1
			j.Progress.TotalFiles = len(targets)
		})

		data, err := i.downloadBytes(ctx, fileURL)
		if err != nil {
			return installed, fmt.Errorf("download %s: %w", relPath, err)
		}
		if err := verifyHashes(relPath, data, f.Hashes); err != nil {
			return installed, err
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return installed, fmt.Errorf("mkdir for %s: %w", target, err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, fmt.Errorf("write %s: %w", target, err)
		}
		installed++
	}
	return installed, nil
}

// verifyHashes checks data against every supplied digest. Unknown
// algorithms are ignored; any mismatch is fatal and never retried.
func verifyHashes(name string, data []byte, hashes map[string]string) error {
	for algo, want := range hashes {
		var got string
		switch algo {
		case "sha1":
			sum := sha1.Sum(data)
			got = hex.EncodeToString(sum[:])
		case "sha256":
			sum := sha256.Sum256(data)
			got = hex.EncodeToString(sum[:])
		case "sha512":
			sum := sha512.Sum512(data)
			got = hex.EncodeToString(sum[:])
		case "md5":
			sum := md5.Sum(data)
			got = hex.EncodeToString(sum[:])
		default:
			continue
		}
		if got != want {
			return fault.Integrityf("%s checksum mismatch for %s: expected %s, got %s", algo, name, want, got)
		}
	}
	return nil
}

func (i *Installer) downloadToFile(ctx context.Context, fileURL, dest string) error {
	resp, err := i.get(ctx, fileURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return out.Close()
}

func (i *Installer) downloadBytes(ctx context.Context, fileURL string) ([]byte, error) {
	resp, err := i.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (i *Installer) get(ctx context.Context, fileURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fault.Validationf("bad url %q: %v", fileURL, err)
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fault.Storagef("get %s: %v", fileURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fault.Storagef("get %s: unexpected status %d", fileURL, resp.StatusCode)
	}
	return resp, nil
}

// cleanupTemp removes the per-job temp directory. It refuses to touch a
// managed root, whatever the configuration says.
func (i *Installer) cleanupTemp(tempDir string) {
	if tempDir == "" || tempDir == i.root {
		return
	}
	if _, err := i.gateway.ResolvePath(tempDir); err == nil {
		// Temp space inside a managed root would mean RemoveAll on live
		// data if the path is ever misconfigured; skip and log instead.
		i.logger.Warn().Str("dir", tempDir).Msg("temp dir inside managed root, leaving in place")
		return
	}
	os.RemoveAll(tempDir)
}

func urlBasename(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil || path.Base(u.Path) == "." || path.Base(u.Path) == "/" {
		return "", fault.Validationf("cannot derive file name from url %q", fileURL)
	}
	return path.Base(u.Path), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
