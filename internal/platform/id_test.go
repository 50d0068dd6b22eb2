package platform

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_IsUUID(t *testing.T) {
	id := NewID()
	assert.Len(t, id, 36)
	assert.NotEqual(t, id, NewID())
}

func TestNewJobID_Shape(t *testing.T) {
	id := NewJobID("modrinth")

	parts := strings.Split(id, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "modrinth", parts[0])

	ts, err := strconv.ParseInt(parts[1], 36, 64)
	require.NoError(t, err)
	assert.InDelta(t, time.Now().UnixMilli(), ts, 5000)

	assert.Len(t, parts[2], shortIDLength)
}

func TestNewJobID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := NewJobID("backup")
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
