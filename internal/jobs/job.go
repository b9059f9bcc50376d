// Package jobs orchestrates background analysis work: one-shot batches,
// long-running continuous jobs, and the scheduled recurring path.
package jobs

import (
	"context"
	"sync"
	"time"
)

// Status is the lifecycle state of a continuous job.
// RUNNING is the only non-terminal state.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusFailed    Status = "FAILED"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

// Job is an immutable snapshot of a continuous job's state.
type Job struct {
	ID          string     `json:"id"`
	Status      Status     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Iterations  int        `json:"iterations"`
	Error       string     `json:"error,omitempty"`
}

// job is the live handle behind a continuous job. The first terminal
// transition wins; later ones are ignored, so a cancel racing the worker's
// natural completion always yields CANCELLED.
type job struct {
	id        string
	cancel    context.CancelFunc
	startedAt time.Time

	mu          sync.Mutex
	status      Status
	completedAt time.Time
	iterations  int
	err         error
}

func newJob(id string, cancel context.CancelFunc) *job {
	return &job{
		id:        id,
		cancel:    cancel,
		startedAt: time.Now().UTC(),
		status:    StatusRunning,
	}
}

// finish transitions the job to a terminal status. Returns false if the job
// already reached a terminal state.
func (j *job) finish(status Status, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status.Terminal() {
		return false
	}
	j.status = status
	j.completedAt = time.Now().UTC()
	j.err = err
	return true
}

func (j *job) addIteration() {
	j.mu.Lock()
	j.iterations++
	j.mu.Unlock()
}

// snapshot copies the current state for external observation.
func (j *job) snapshot() Job {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := Job{
		ID:         j.id,
		Status:     j.status,
		StartedAt:  j.startedAt,
		Iterations: j.iterations,
	}
	if !j.completedAt.IsZero() {
		t := j.completedAt
		out.CompletedAt = &t
	}
	if j.err != nil {
		out.Error = j.err.Error()
	}
	return out
}
