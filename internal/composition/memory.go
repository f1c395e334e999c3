package composition

import (
	"context"
	"sort"
	"sync"
)

// MemoryRecorder keeps job snapshots in memory. It is the default recorder
// when no persistent store is configured.
type MemoryRecorder struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	history map[string][]Status
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{jobs: make(map[string]*Job), history: make(map[string][]Status)}
}

// Save stores a copy of job and appends its status to the job's history when
// the status changed.
func (r *MemoryRecorder) Save(_ context.Context, job *Job) error {
	if job == nil {
		return errNilJob
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job.Clone()
	h := r.history[job.ID]
	if len(h) == 0 || h[len(h)-1] != job.Status {
		r.history[job.ID] = append(h, job.Status)
	}
	return nil
}

// Get returns a copy of the stored job, or nil.
func (r *MemoryRecorder) Get(id string) *Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobs[id].Clone()
}

// History returns the distinct statuses a job moved through, in order.
func (r *MemoryRecorder) History(id string) []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.history[id]...)
}

// Jobs returns copies of all stored jobs ordered by creation time.
func (r *MemoryRecorder) Jobs() []*Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
