package modpack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shulkerhost/shulker/internal/fault"
)

// Pack archive formats. Each maps to one manifest variant; both variants
// lower into the same InstallPlan so the file-installation loop is shared.
const (
	FormatModrinth   = "modrinth"
	FormatCurseforge = "curseforge"
)

// PlanFile is one file the install loop must place under the managed root.
// URL may be empty for CurseForge entries; the loop resolves those through
// the FileResolver using ProjectID/FileID.
type PlanFile struct {
	Path      string
	URL       string
	Hashes    map[string]string // algo name -> hex digest
	ProjectID int
	FileID    int
	Skip      bool // server-unsupported or optional entries
}

// InstallPlan is the provider-independent result of parsing a pack
// manifest.
type InstallPlan struct {
	Format       string
	PackName     string
	Loader       string
	LoaderVer    string
	GameVersion  string
	Files        []PlanFile
	OverridesDir string // relative to the extracted archive, empty if none
}

// launchProfiles maps a mod loader to the launch profile suggested to the
// lifecycle controller on completion.
var launchProfiles = map[string]string{
	"fabric":   "fabric-server",
	"forge":    "forge-server",
	"neoforge": "neoforge-server",
	"quilt":    "quilt-server",
}

// SuggestedProfile returns the launch profile for a loader, or
// "vanilla-server" when the loader is unknown.
func SuggestedProfile(loader string) string {
	if p, ok := launchProfiles[loader]; ok {
		return p
	}
	return "vanilla-server"
}

// ModrinthManifest is the modrinth.index.json embedded in a .mrpack.
type ModrinthManifest struct {
	FormatVersion int               `json:"formatVersion"`
	Game          string            `json:"game"`
	VersionID     string            `json:"versionId"`
	Name          string            `json:"name"`
	Dependencies  map[string]string `json:"dependencies"`
	Files         []ModrinthFile    `json:"files"`
}

type ModrinthFile struct {
	Path      string            `json:"path"`
	Hashes    map[string]string `json:"hashes"`
	Env       *ModrinthEnv      `json:"env"`
	Downloads []string          `json:"downloads"`
	FileSize  int64             `json:"fileSize"`
}

type ModrinthEnv struct {
	Client string `json:"client"`
	Server string `json:"server"`
}

var modrinthLoaderKeys = []string{"fabric-loader", "forge", "neoforge", "quilt-loader"}

func (m *ModrinthManifest) Plan() *InstallPlan {
	plan := &InstallPlan{
		Format:       FormatModrinth,
		PackName:     m.Name,
		GameVersion:  m.Dependencies["minecraft"],
		OverridesDir: "overrides",
	}
	for _, key := range modrinthLoaderKeys {
		if v, ok := m.Dependencies[key]; ok {
			plan.Loader = strings.TrimSuffix(key, "-loader")
			plan.LoaderVer = v
			break
		}
	}
	for _, f := range m.Files {
		var url string
		if len(f.Downloads) > 0 {
			url = f.Downloads[0]
		}
		plan.Files = append(plan.Files, PlanFile{
			Path:   f.Path,
			URL:    url,
			Hashes: f.Hashes,
			Skip:   f.Env != nil && f.Env.Server == "unsupported",
		})
	}
	return plan
}

// CurseforgeManifest is the manifest.json embedded in a CurseForge pack
// zip. File download URLs are not in the manifest; they are resolved
// per entry against the CurseForge API during the install loop.
type CurseforgeManifest struct {
	Minecraft struct {
		Version    string `json:"version"`
		ModLoaders []struct {
			ID      string `json:"id"`
			Primary bool   `json:"primary"`
		} `json:"modLoaders"`
	} `json:"minecraft"`
	Name      string `json:"name"`
	Version   string `json:"version"`
	Files     []struct {
		ProjectID int  `json:"projectID"`
		FileID    int  `json:"fileID"`
		Required  bool `json:"required"`
	} `json:"files"`
	Overrides string `json:"overrides"`
}

func (m *CurseforgeManifest) Plan() *InstallPlan {
	plan := &InstallPlan{
		Format:       FormatCurseforge,
		PackName:     m.Name,
		GameVersion:  m.Minecraft.Version,
		OverridesDir: m.Overrides,
	}
	for _, l := range m.Minecraft.ModLoaders {
		if !l.Primary && plan.Loader != "" {
			continue
		}
		// IDs look like "forge-47.2.0" or "fabric-0.15.3".
		name, ver, _ := strings.Cut(l.ID, "-")
		plan.Loader = name
		plan.LoaderVer = ver
	}
	for _, f := range m.Files {
		plan.Files = append(plan.Files, PlanFile{
			ProjectID: f.ProjectID,
			FileID:    f.FileID,
			Skip:      !f.Required,
		})
	}
	return plan
}

// ParseManifest locates and parses the manifest inside an extracted pack
// directory, trying the Modrinth index first and the CurseForge manifest
// second.
func ParseManifest(dir string) (*InstallPlan, error) {
	if data, err := os.ReadFile(filepath.Join(dir, "modrinth.index.json")); err == nil {
		var m ModrinthManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fault.Validationf("parse modrinth.index.json: %v", err)
		}
		return m.Plan(), nil
	}
	if data, err := os.ReadFile(filepath.Join(dir, "manifest.json")); err == nil {
		var m CurseforgeManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fault.Validationf("parse manifest.json: %v", err)
		}
		return m.Plan(), nil
	}
	return nil, fault.Validationf("no pack manifest found in archive")
}

// effective returns the files the install loop will actually place.
func (p *InstallPlan) effective() []PlanFile {
	out := make([]PlanFile, 0, len(p.Files))
	for _, f := range p.Files {
		if !f.Skip {
			out = append(out, f)
		}
	}
	return out
}

func (p *InstallPlan) String() string {
	return fmt.Sprintf("%s pack %q (%s %s, mc %s, %d files)",
		p.Format, p.PackName, p.Loader, p.LoaderVer, p.GameVersion, len(p.Files))
}
