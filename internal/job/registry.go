// Package job tracks long-running background work in memory. Records live
// for the process lifetime only; there is deliberately no persistence.
package job

import (
	"sync"
	"time"

	"github.com/shulkerhost/shulker/internal/model"
)

// Registry is the repository contract for job records. Create is
// idempotent so duplicate trigger calls are safe; Mutate is called only by
// the goroutine that owns the job, pollers only ever Get.
type Registry interface {
	Create(id, kind string, seed func(*model.Job)) (*model.Job, bool)
	Get(id string) (*model.Job, bool)
	Mutate(id string, patch func(*model.Job))
}

// MemoryRegistry is the in-process Registry. Reads return copies so a
// poller never observes a record mid-mutation.
type MemoryRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{jobs: make(map[string]*model.Job)}
}

// Create registers a new job record, or returns the existing record
// unmodified when the id is already taken. The second return reports
// whether a record was created.
func (r *MemoryRegistry) Create(id, kind string, seed func(*model.Job)) (*model.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.jobs[id]; ok {
		snapshot := *existing
		return &snapshot, false
	}

	now := time.Now().UnixMilli()
	j := &model.Job{
		ID:        id,
		Kind:      kind,
		Status:    model.StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	if seed != nil {
		seed(j)
	}
	r.jobs[id] = j

	snapshot := *j
	return &snapshot, true
}

func (r *MemoryRegistry) Get(id string) (*model.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *j
	return &snapshot, true
}

// Mutate applies patch to the job under the registry lock and refreshes
// UpdatedAt. Terminal records are left untouched; the state machines are
// strictly forward-moving.
func (r *MemoryRegistry) Mutate(id string, patch func(*model.Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok || model.TerminalStatus(j.Status) {
		return
	}
	patch(j)
	j.UpdatedAt = time.Now().UnixMilli()
	if model.TerminalStatus(j.Status) && j.CompletedAt == 0 {
		j.CompletedAt = j.UpdatedAt
	}
}
