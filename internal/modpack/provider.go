package modpack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/shulkerhost/shulker/internal/fault"
)

// Locator identifies a pack at one provider. Which fields matter depends
// on the source: Modrinth takes a direct pack URL or a project slug plus
// optional version; CurseForge takes a numeric project/file pair.
type Locator struct {
	URL       string
	Project   string
	Version   string
	ProjectID int
	FileID    int
}

// ResolvedPack is the concrete archive a provider resolved a locator to.
type ResolvedPack struct {
	Name       string
	ArchiveURL string
	Format     string
}

// Provider resolves a locator to a downloadable pack archive.
type Provider interface {
	Resolve(ctx context.Context, loc Locator) (*ResolvedPack, error)
}

// FileResolver resolves a CurseForge project/file pair to a download URL.
// Pack manifests from that provider carry ids, not URLs.
type FileResolver interface {
	DownloadURL(ctx context.Context, projectID, fileID int) (string, error)
}

// ModrinthProvider resolves packs against the Modrinth API.
type ModrinthProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *ModrinthProvider) Resolve(ctx context.Context, loc Locator) (*ResolvedPack, error) {
	if loc.URL != "" {
		return &ResolvedPack{ArchiveURL: loc.URL, Format: FormatModrinth}, nil
	}
	if loc.Project == "" {
		return nil, fault.Validationf("modrinth locator needs a url or project")
	}

	var versions []struct {
		ID            string `json:"id"`
		VersionNumber string `json:"version_number"`
		Files         []struct {
			URL     string `json:"url"`
			Primary bool   `json:"primary"`
		} `json:"files"`
	}
	url := fmt.Sprintf("%s/project/%s/version", p.BaseURL, loc.Project)
	if err := getJSON(ctx, p.Client, url, nil, &versions); err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fault.NotFoundf("modrinth project %s has no versions", loc.Project)
	}

	for _, v := range versions {
		if loc.Version != "" && v.VersionNumber != loc.Version && v.ID != loc.Version {
			continue
		}
		for _, f := range v.Files {
			if f.Primary || len(v.Files) == 1 {
				return &ResolvedPack{
					Name:       loc.Project,
					ArchiveURL: f.URL,
					Format:     FormatModrinth,
				}, nil
			}
		}
	}
	return nil, fault.NotFoundf("modrinth project %s version %q not found", loc.Project, loc.Version)
}

// CurseforgeProvider resolves packs and individual mod files against the
// CurseForge API. It doubles as the FileResolver for the install loop.
type CurseforgeProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func (p *CurseforgeProvider) Resolve(ctx context.Context, loc Locator) (*ResolvedPack, error) {
	if loc.ProjectID == 0 || loc.FileID == 0 {
		return nil, fault.Validationf("curseforge locator needs project_id and file_id")
	}
	url, err := p.DownloadURL(ctx, loc.ProjectID, loc.FileID)
	if err != nil {
		return nil, err
	}
	return &ResolvedPack{ArchiveURL: url, Format: FormatCurseforge}, nil
}

func (p *CurseforgeProvider) DownloadURL(ctx context.Context, projectID, fileID int) (string, error) {
	var resp struct {
		Data string `json:"data"`
	}
	url := fmt.Sprintf("%s/mods/%d/files/%d/download-url", p.BaseURL, projectID, fileID)
	headers := map[string]string{"x-api-key": p.APIKey}
	if err := getJSON(ctx, p.Client, url, headers, &resp); err != nil {
		return "", err
	}
	if resp.Data == "" {
		return "", fault.NotFoundf("no download url for file %d of project %d", fileID, projectID)
	}
	return resp.Data, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fault.Storagef("build request %s: %v", url, err)
	}
	for k, val := range headers {
		req.Header.Set(k, val)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fault.Storagef("get %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fault.NotFoundf("%s: not found", url)
	}
	if resp.StatusCode != http.StatusOK {
		return fault.Storagef("%s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fault.Storagef("decode %s: %v", url, err)
	}
	return nil
}
