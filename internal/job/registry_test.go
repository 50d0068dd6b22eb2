package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shulkerhost/shulker/internal/model"
)

func TestCreate_Idempotent(t *testing.T) {
	r := NewMemoryRegistry()

	first, created := r.Create("b1", model.JobKindBackup, func(j *model.Job) {
		j.Directory = "/data/world"
	})
	require.True(t, created)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.Equal(t, "/data/world", first.Directory)
	assert.NotZero(t, first.StartedAt)

	// A duplicate trigger must return the existing record unmodified.
	r.Mutate("b1", func(j *model.Job) { j.Status = model.StatusRunning })
	second, created := r.Create("b1", model.JobKindBackup, func(j *model.Job) {
		j.Directory = "/data/other"
	})
	assert.False(t, created)
	assert.Equal(t, model.StatusRunning, second.Status)
	assert.Equal(t, "/data/world", second.Directory)
}

func TestGet_Unknown(t *testing.T) {
	r := NewMemoryRegistry()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestMutate_TerminalIsFrozen(t *testing.T) {
	r := NewMemoryRegistry()
	r.Create("b1", model.JobKindBackup, nil)

	r.Mutate("b1", func(j *model.Job) { j.Status = model.StatusRunning })
	r.Mutate("b1", func(j *model.Job) {
		j.Status = model.StatusSuccess
		j.BackupResult = &model.BackupResult{BackupPath: "backups/x", SizeBytes: 42}
	})

	j, ok := r.Get("b1")
	require.True(t, ok)
	assert.Equal(t, model.StatusSuccess, j.Status)
	assert.NotZero(t, j.CompletedAt)

	// Forward-only: a late mutation after the terminal state is ignored.
	r.Mutate("b1", func(j *model.Job) { j.Status = model.StatusFailed })
	j, _ = r.Get("b1")
	assert.Equal(t, model.StatusSuccess, j.Status)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	r := NewMemoryRegistry()
	r.Create("b1", model.JobKindBackup, nil)

	j, _ := r.Get("b1")
	j.Status = model.StatusFailed

	fresh, _ := r.Get("b1")
	assert.Equal(t, model.StatusPending, fresh.Status)
}

func TestRegistry_ConcurrentPollers(t *testing.T) {
	r := NewMemoryRegistry()
	r.Create("b1", model.JobKindBackup, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 500 {
				r.Get("b1")
			}
		}()
	}
	for i := range 500 {
		r.Mutate("b1", func(j *model.Job) { j.Progress.CurrentIndex = i })
	}
	wg.Wait()
}
