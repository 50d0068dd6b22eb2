package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulkerhost/shulker/internal/fault"
	"github.com/shulkerhost/shulker/internal/maintenance"
)

func newGateway(roots []string, enabled bool) *Gateway {
	return NewGateway(zerolog.Nop(), roots, maintenance.StaticFlag(enabled))
}

func TestResolvePath_DataRoot(t *testing.T) {
	g := newGateway([]string{"/data"}, true)

	for _, p := range []string{"/data", "/data/world", "/data/world/region/r.0.0.mca"} {
		abs, err := g.ResolvePath(p)
		require.NoError(t, err, p)
		assert.Equal(t, p, abs)
	}

	for _, p := range []string{
		"/etc/passwd",
		"/data/../etc/passwd",
		"/data/world/../../etc",
		"/database", // shares the prefix string but is a sibling
		"",
	} {
		_, err := g.ResolvePath(p)
		require.Error(t, err, p)
		kind := fault.KindOf(err)
		assert.Contains(t, []fault.Kind{fault.KindForbidden, fault.KindValidation}, kind, p)
	}
}

func TestResolvePath_SlashRoot(t *testing.T) {
	g := newGateway([]string{"/"}, true)

	abs, err := g.ResolvePath("/anything/at/all")
	require.NoError(t, err)
	assert.Equal(t, "/anything/at/all", abs)

	abs, err = g.ResolvePath("/")
	require.NoError(t, err)
	assert.Equal(t, "/", abs)
}

func TestMutations_RequireMaintenance(t *testing.T) {
	root := t.TempDir()
	g := newGateway([]string{root}, false)
	target := filepath.Join(root, "server.properties")

	err := g.Write(target, []byte("motd=hi"))
	require.Error(t, err)
	assert.Equal(t, fault.KindMaintenanceRequired, fault.KindOf(err))

	err = g.Delete(target)
	assert.Equal(t, fault.KindMaintenanceRequired, fault.KindOf(err))

	err = g.Mkdir(filepath.Join(root, "mods"))
	assert.Equal(t, fault.KindMaintenanceRequired, fault.KindOf(err))

	// The maintenance check fires even for invalid paths; the two
	// preconditions are independent.
	err = g.Write("/outside/root", []byte("x"))
	assert.Equal(t, fault.KindMaintenanceRequired, fault.KindOf(err))
}

func TestMutations_WithMaintenance(t *testing.T) {
	root := t.TempDir()
	g := newGateway([]string{root}, true)
	target := filepath.Join(root, "config", "server.toml")

	require.NoError(t, g.Write(target, []byte("seed=42")))

	data, err := g.Read(target)
	require.NoError(t, err)
	assert.Equal(t, "seed=42", string(data))

	require.NoError(t, g.Mkdir(filepath.Join(root, "mods")))
	require.NoError(t, g.Delete(target))

	_, err = g.Read(target)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestDelete_RefusesRoot(t *testing.T) {
	root := t.TempDir()
	g := newGateway([]string{root}, true)

	err := g.Delete(root)
	require.Error(t, err)
	assert.Equal(t, fault.KindValidation, fault.KindOf(err))
}

func TestList(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "world"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server.jar"), []byte("jar"), 0o644))

	g := newGateway([]string{root}, false)
	entries, err := g.List(root)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "server.jar", entries[0].Name)
	assert.False(t, entries[0].IsDir)
	assert.Equal(t, int64(3), entries[0].Size)
	assert.Equal(t, "world", entries[1].Name)
	assert.True(t, entries[1].IsDir)

	_, err = g.List(filepath.Join(root, "missing"))
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}
