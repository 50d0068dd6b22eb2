package storage

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupKey_Shape(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	key := BackupKey("world", at)

	re := regexp.MustCompile(`^backups/\d{18}_2026031409_world\.tar\.gz$`)
	assert.Regexp(t, re, key)
}

func TestBackupKey_ReverseOrdering(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	deltas := []time.Duration{0, time.Second, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour}

	for i := 0; i < len(deltas)-1; i++ {
		for j := i + 1; j < len(deltas); j++ {
			earlier := BackupKey("world", base.Add(deltas[i]))
			later := BackupKey("world", base.Add(deltas[j]))
			// Newer backups must sort lexicographically first.
			assert.Greater(t, earlier, later,
				fmt.Sprintf("delta %v vs %v", deltas[i], deltas[j]))
		}
	}
}

func TestParseBackupTime_RoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 31, 17, 0, 4, 0, time.UTC)
	key := BackupKey("world", at)

	got := ParseBackupTime(key)
	require.False(t, got.IsZero())
	assert.True(t, got.Equal(at))
}

func TestParseBackupTime_Malformed(t *testing.T) {
	for _, key := range []string{
		"backups/garbage_world.tar.gz",
		"backups/123_2026010100_world.tar.gz",
		"something-else.tar.gz",
		"",
	} {
		assert.True(t, ParseBackupTime(key).IsZero(), key)
	}
}

func TestBackupKeySuffix(t *testing.T) {
	assert.Equal(t, "_world.tar.gz", BackupKeySuffix("world"))
}
