package modpack

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulkerhost/shulker/internal/fault"
)

const modrinthIndex = `{
  "formatVersion": 1,
  "game": "minecraft",
  "versionId": "1.2.0",
  "name": "Fabric Kitchen Sink",
  "dependencies": {
    "minecraft": "1.21.1",
    "fabric-loader": "0.16.9"
  },
  "files": [
    {
      "path": "mods/alpha.jar",
      "hashes": {"sha1": "aaaa"},
      "downloads": ["https://cdn.example/alpha.jar"],
      "fileSize": 10
    },
    {
      "path": "mods/client-shaders.jar",
      "hashes": {"sha1": "bbbb"},
      "env": {"client": "required", "server": "unsupported"},
      "downloads": ["https://cdn.example/shaders.jar"],
      "fileSize": 20
    }
  ]
}`

const curseforgeManifest = `{
  "minecraft": {
    "version": "1.20.1",
    "modLoaders": [{"id": "forge-47.2.0", "primary": true}]
  },
  "name": "Forge Adventure",
  "version": "3.1",
  "files": [
    {"projectID": 238222, "fileID": 4712345, "required": true},
    {"projectID": 999999, "fileID": 4700001, "required": false}
  ],
  "overrides": "overrides"
}`

func TestModrinthManifest_Plan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "modrinth.index.json"), []byte(modrinthIndex), 0o644))

	plan, err := ParseManifest(dir)
	require.NoError(t, err)

	assert.Equal(t, FormatModrinth, plan.Format)
	assert.Equal(t, "Fabric Kitchen Sink", plan.PackName)
	assert.Equal(t, "fabric", plan.Loader)
	assert.Equal(t, "0.16.9", plan.LoaderVer)
	assert.Equal(t, "1.21.1", plan.GameVersion)
	assert.Equal(t, "overrides", plan.OverridesDir)

	require.Len(t, plan.Files, 2)
	assert.False(t, plan.Files[0].Skip)
	assert.Equal(t, "https://cdn.example/alpha.jar", plan.Files[0].URL)
	assert.True(t, plan.Files[1].Skip, "server-unsupported entries are skipped")

	assert.Len(t, plan.effective(), 1)
}

func TestCurseforgeManifest_Plan(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(curseforgeManifest), 0o644))

	plan, err := ParseManifest(dir)
	require.NoError(t, err)

	assert.Equal(t, FormatCurseforge, plan.Format)
	assert.Equal(t, "Forge Adventure", plan.PackName)
	assert.Equal(t, "forge", plan.Loader)
	assert.Equal(t, "47.2.0", plan.LoaderVer)
	assert.Equal(t, "1.20.1", plan.GameVersion)

	require.Len(t, plan.Files, 2)
	assert.Equal(t, 238222, plan.Files[0].ProjectID)
	assert.Empty(t, plan.Files[0].URL, "curseforge urls are resolved per entry later")
	assert.True(t, plan.Files[1].Skip, "optional entries are skipped")
}

func TestParseManifest_Missing(t *testing.T) {
	_, err := ParseManifest(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestSuggestedProfile(t *testing.T) {
	assert.Equal(t, "fabric-server", SuggestedProfile("fabric"))
	assert.Equal(t, "neoforge-server", SuggestedProfile("neoforge"))
	assert.Equal(t, "vanilla-server", SuggestedProfile(""))
	assert.Equal(t, "vanilla-server", SuggestedProfile("something-new"))
}
