// Package files is the sandboxed filesystem gateway. Every path handed in
// by a caller must resolve under one of the configured managed roots, and
// every mutation additionally requires maintenance mode to be enabled.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shulkerhost/shulker/internal/fault"
	"github.com/shulkerhost/shulker/internal/maintenance"
)

// Entry is one directory listing row.
type Entry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

type Gateway struct {
	roots  []string
	flag   maintenance.Flag
	logger zerolog.Logger
}

func NewGateway(logger zerolog.Logger, roots []string, flag maintenance.Flag) *Gateway {
	cleaned := make([]string, 0, len(roots))
	for _, r := range roots {
		cleaned = append(cleaned, filepath.Clean(r))
	}
	return &Gateway{
		roots:  cleaned,
		flag:   flag,
		logger: logger.With().Str("component", "files").Logger(),
	}
}

// ResolvePath cleans p to an absolute path and verifies it equals or nests
// under a managed root. Anything else is refused.
func (g *Gateway) ResolvePath(p string) (string, error) {
	if p == "" {
		return "", fault.Validationf("path is required")
	}
	abs, err := filepath.Abs(filepath.Clean(p))
	if err != nil {
		return "", fault.Validationf("invalid path %q: %v", p, err)
	}
	for _, root := range g.roots {
		if abs == root || strings.HasPrefix(abs, withSeparator(root)) {
			return abs, nil
		}
	}
	return "", fault.Forbiddenf("path %q is outside managed roots", p)
}

func withSeparator(root string) string {
	if root == string(os.PathSeparator) {
		return root
	}
	return root + string(os.PathSeparator)
}

func (g *Gateway) requireMaintenance() error {
	if !g.flag.Enabled() {
		return fault.MaintenanceRequiredf("maintenance mode must be enabled")
	}
	return nil
}

func (g *Gateway) List(dir string) ([]Entry, error) {
	abs, err := g.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.NotFoundf("directory %q not found", dir)
		}
		return nil, fmt.Errorf("list %s: %w", abs, err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		row := Entry{
			Name:  e.Name(),
			Path:  filepath.Join(abs, e.Name()),
			IsDir: e.IsDir(),
		}
		if info, err := e.Info(); err == nil && !e.IsDir() {
			row.Size = info.Size()
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (g *Gateway) Read(path string) ([]byte, error) {
	abs, err := g.ResolvePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.NotFoundf("file %q not found", path)
		}
		return nil, fmt.Errorf("read %s: %w", abs, err)
	}
	return data, nil
}

func (g *Gateway) Write(path string, data []byte) error {
	if err := g.requireMaintenance(); err != nil {
		return err
	}
	abs, err := g.ResolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", abs, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", abs, err)
	}
	g.logger.Info().Str("path", abs).Int("bytes", len(data)).Msg("wrote file")
	return nil
}

func (g *Gateway) Delete(path string) error {
	if err := g.requireMaintenance(); err != nil {
		return err
	}
	abs, err := g.ResolvePath(path)
	if err != nil {
		return err
	}
	for _, root := range g.roots {
		if abs == root {
			return fault.Validationf("refusing to delete managed root %q", root)
		}
	}
	if _, err := os.Lstat(abs); os.IsNotExist(err) {
		return fault.NotFoundf("path %q not found", path)
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("delete %s: %w", abs, err)
	}
	g.logger.Info().Str("path", abs).Msg("deleted path")
	return nil
}

func (g *Gateway) Mkdir(path string) error {
	if err := g.requireMaintenance(); err != nil {
		return err
	}
	abs, err := g.ResolvePath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", abs, err)
	}
	return nil
}
