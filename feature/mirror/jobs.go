package mirror

import (
	"context"
	"sort"
	"sync"
	"time"

	"stock-mirror/feature/mirror/models"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an asynchronous sync run.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous sync run.
type Job struct {
	ID          string              `json:"id"`
	StoreID     string              `json:"store_id"`
	StoreName   string              `json:"store_name"`
	Status      JobStatus           `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Summary     *models.SyncSummary `json:"summary,omitempty"`
	Error       string              `json:"error,omitempty"`

	cancel context.CancelFunc
}

// Registry keeps jobs in memory. Job history does not survive a restart;
// the durable record of a run is its audit archive.
type Registry struct {
	mu    sync.RWMutex
	jobs  map[string]*Job
	clock func() time.Time
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{
		jobs:  make(map[string]*Job),
		clock: time.Now,
	}
}

// Create registers a new running job and returns a copy of it.
func (r *Registry) Create(storeID, storeName string, cancel context.CancelFunc) Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := &Job{
		ID:        uuid.NewString(),
		StoreID:   storeID,
		StoreName: storeName,
		Status:    JobRunning,
		StartedAt: r.clock(),
		cancel:    cancel,
	}
	r.jobs[job.ID] = job
	return *job
}

// Complete marks a job as finished with its summary.
func (r *Registry) Complete(id string, summary *models.SyncSummary) {
	r.finish(id, JobCompleted, summary, "")
}

// Fail marks a job as failed, keeping whatever partial summary exists.
func (r *Registry) Fail(id string, summary *models.SyncSummary, message string) {
	r.finish(id, JobFailed, summary, message)
}

func (r *Registry) finish(id string, status JobStatus, summary *models.SyncSummary, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != JobRunning {
		return
	}
	now := r.clock()
	job.Status = status
	job.CompletedAt = &now
	job.Summary = summary
	job.Error = message
	job.cancel = nil
}

// Cancel requests cancellation of a running job. The job transitions to
// failed once its run observes the cancellation between items.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != JobRunning || job.cancel == nil {
		return false
	}
	job.cancel()
	return true
}

// Get returns a copy of one job.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns copies of all jobs, newest first.
func (r *Registry) List() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
