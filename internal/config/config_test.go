package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8420", cfg.HTTPListenAddr)
	assert.Equal(t, []string{"/data"}, cfg.ManagedRoots)
	assert.Equal(t, int64(100<<20), cfg.LargeThresholdBytes)
	assert.Equal(t, int64(50<<20), cfg.ChunkSizeBytes)
	assert.Equal(t, 5, cfg.MaxConcurrentParts)
	assert.Equal(t, 3, cfg.MaxPartRetries)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MANAGED_ROOTS", "/srv/a, /srv/b")
	t.Setenv("TRANSFER_CHUNK_SIZE", "1048576")
	t.Setenv("TRANSFER_MAX_CONCURRENT", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/a", "/srv/b"}, cfg.ManagedRoots)
	assert.Equal(t, int64(1<<20), cfg.ChunkSizeBytes)
	assert.Equal(t, 2, cfg.MaxConcurrentParts)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		S3Bucket:            "backups",
		S3AccessKey:         "ak",
		S3SecretKey:         "sk",
		ManagedRoots:        []string{"/data"},
		LargeThresholdBytes: 1,
		ChunkSizeBytes:      1,
		MaxConcurrentParts:  1,
		MaxPartRetries:      1,
	}
	require.NoError(t, cfg.Validate())

	cfg.S3Bucket = ""
	assert.Error(t, cfg.Validate())
}
