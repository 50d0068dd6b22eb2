package modpack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulkerhost/shulker/internal/fault"
)

func TestModrinthProvider_DirectURL(t *testing.T) {
	p := &ModrinthProvider{}
	pack, err := p.Resolve(context.Background(), Locator{URL: "https://cdn.modrinth.com/pack.mrpack"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.modrinth.com/pack.mrpack", pack.ArchiveURL)
	assert.Equal(t, FormatModrinth, pack.Format)
}

func TestModrinthProvider_ProjectVersion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/project/sop/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[
			{"id": "abc123", "version_number": "2.0", "files": [{"url": "https://cdn/sop-2.0.mrpack", "primary": true}]},
			{"id": "def456", "version_number": "1.0", "files": [{"url": "https://cdn/sop-1.0.mrpack", "primary": true}]}
		]`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := &ModrinthProvider{BaseURL: server.URL, Client: server.Client()}

	// Latest version when none requested.
	pack, err := p.Resolve(context.Background(), Locator{Project: "sop"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/sop-2.0.mrpack", pack.ArchiveURL)

	// Pinned version.
	pack, err = p.Resolve(context.Background(), Locator{Project: "sop", Version: "1.0"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/sop-1.0.mrpack", pack.ArchiveURL)

	// Unknown version.
	_, err = p.Resolve(context.Background(), Locator{Project: "sop", Version: "9.9"})
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestModrinthProvider_MissingLocator(t *testing.T) {
	p := &ModrinthProvider{}
	_, err := p.Resolve(context.Background(), Locator{})
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestCurseforgeProvider_DownloadURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/mods/238222/files/4712345/download-url", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		w.Write([]byte(`{"data": "https://edge.forgecdn.net/jei.jar"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := &CurseforgeProvider{BaseURL: server.URL, APIKey: "test-key", Client: server.Client()}

	url, err := p.DownloadURL(context.Background(), 238222, 4712345)
	require.NoError(t, err)
	assert.Equal(t, "https://edge.forgecdn.net/jei.jar", url)

	_, err = p.DownloadURL(context.Background(), 1, 2)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestCurseforgeProvider_Resolve_MissingIDs(t *testing.T) {
	p := &CurseforgeProvider{}
	_, err := p.Resolve(context.Background(), Locator{})
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}
