package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned when a cancel or query names no running job.
var ErrJobNotFound = errors.New("job not found")

// UserSource yields the next user waiting for analysis. An empty string
// means the queue is exhausted. An error from the source is fatal to the
// calling batch, unlike per-user processing failures.
type UserSource interface {
	NextPendingUser(ctx context.Context) (string, error)
}

// UserProcessor analyzes a single user end to end. Failures are scoped to
// that user and never abort the surrounding batch.
type UserProcessor interface {
	ProcessUser(ctx context.Context, userID string) error
}

// BatchResult summarizes one batch run.
type BatchResult struct {
	Processed int           `json:"processed"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// jobHistoryLimit bounds how many terminal jobs stay queryable after leaving
// the active registry.
const jobHistoryLimit = 64

// Orchestrator owns background analysis execution: one-shot batches over the
// pending-user queue, continuous jobs, and the process-wide pause flag
// consulted by the scheduled path. The active registry holds only RUNNING
// jobs; terminal ones move into a bounded finished history so status queries
// keep working without the registry growing forever. One instance per
// process, constructed explicitly at startup.
type Orchestrator struct {
	source    UserSource
	processor UserProcessor

	paused atomic.Bool

	mu            sync.Mutex
	jobs          map[string]*job
	finished      map[string]*job
	finishedOrder []string
	historyLimit  int
	wg            sync.WaitGroup
}

// NewOrchestrator wires the orchestrator to its user source and processor.
func NewOrchestrator(source UserSource, processor UserProcessor) *Orchestrator {
	return &Orchestrator{
		source:       source,
		processor:    processor,
		jobs:         make(map[string]*job),
		finished:     make(map[string]*job),
		historyLimit: jobHistoryLimit,
	}
}

// ProcessBatch drains up to maxUsers pending users. It stops early when the
// queue is exhausted, when maxDuration elapses (if positive), or when ctx is
// cancelled. A single user's processing failure is counted and logged but
// never aborts the batch; a failure to fetch the next pending user is fatal
// and returned alongside the partial result.
func (o *Orchestrator) ProcessBatch(ctx context.Context, maxUsers int, maxDuration, delayBetweenUsers time.Duration) (BatchResult, error) {
	start := time.Now()
	var result BatchResult

	for i := 0; i < maxUsers; i++ {
		if ctx.Err() != nil {
			break
		}
		if maxDuration > 0 && time.Since(start) > maxDuration {
			slog.Info("[Orchestrator] Batch time budget exhausted",
				"processed", result.Processed,
				"max_duration", maxDuration,
			)
			break
		}

		userID, err := o.source.NextPendingUser(ctx)
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("fetch next pending user: %w", err)
		}
		if userID == "" {
			break
		}

		result.Processed++
		if err := o.processor.ProcessUser(ctx, userID); err != nil {
			result.Failed++
			slog.Error("[Orchestrator] User processing failed",
				"user_id", userID,
				"error", err,
			)
		} else {
			result.Succeeded++
		}

		// Inter-user delay, skipped after the last iteration. An
		// interrupted sleep ends the batch cleanly.
		if delayBetweenUsers > 0 && i < maxUsers-1 {
			if !sleepCtx(ctx, delayBetweenUsers) {
				break
			}
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

// StartContinuous registers a new continuous job and launches its worker.
// The worker runs batch iterations separated by interval sleeps until
// maxIterations is reached (COMPLETED), an iteration fails (FAILED), or the
// job is cancelled (CANCELLED). maxIterations <= 0 means unbounded.
func (o *Orchestrator) StartContinuous(usersPerBatch int, interval time.Duration, maxIterations int) string {
	ctx, cancel := context.WithCancel(context.Background())
	j := newJob(uuid.NewString(), cancel)

	o.mu.Lock()
	o.jobs[j.id] = j
	o.mu.Unlock()

	slog.Info("[Orchestrator] Continuous job started",
		"job_id", j.id,
		"users_per_batch", usersPerBatch,
		"interval", interval,
		"max_iterations", maxIterations,
	)

	o.wg.Add(1)
	go o.runContinuous(ctx, j, usersPerBatch, interval, maxIterations)
	return j.id
}

func (o *Orchestrator) runContinuous(ctx context.Context, j *job, usersPerBatch int, interval time.Duration, maxIterations int) {
	defer o.wg.Done()

	for iteration := 0; maxIterations <= 0 || iteration < maxIterations; iteration++ {
		if ctx.Err() != nil {
			o.finishJob(j, StatusCancelled, nil)
			return
		}

		result, err := o.ProcessBatch(ctx, usersPerBatch, 0, 0)
		if err != nil {
			o.finishJob(j, StatusFailed, err)
			return
		}
		j.addIteration()

		if ctx.Err() != nil {
			o.finishJob(j, StatusCancelled, nil)
			return
		}

		slog.Debug("[Orchestrator] Continuous iteration complete",
			"job_id", j.id,
			"iteration", iteration+1,
			"processed", result.Processed,
			"failed", result.Failed,
		)

		last := maxIterations > 0 && iteration == maxIterations-1
		if !last && interval > 0 {
			if !sleepCtx(ctx, interval) {
				o.finishJob(j, StatusCancelled, nil)
				return
			}
		}
	}

	o.finishJob(j, StatusCompleted, nil)
}

// finishJob applies a terminal transition once, removes the job from the
// active registry, and logs it. Losing a transition race (e.g. the worker
// completing while a cancel is in flight) is silent: whoever won already
// retired the job.
func (o *Orchestrator) finishJob(j *job, status Status, err error) {
	if !j.finish(status, err) {
		return
	}
	o.retire(j)
	switch status {
	case StatusFailed:
		slog.Error("[Orchestrator] Continuous job failed", "job_id", j.id, "error", err)
	default:
		slog.Info("[Orchestrator] Continuous job finished", "job_id", j.id, "status", status)
	}
}

// retire moves a job out of the active registry into the finished history,
// evicting the oldest history entries past the limit. Only the goroutine
// that won the terminal transition may call it.
func (o *Orchestrator) retire(j *job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retireLocked(j)
}

func (o *Orchestrator) retireLocked(j *job) {
	delete(o.jobs, j.id)
	o.finished[j.id] = j
	o.finishedOrder = append(o.finishedOrder, j.id)
	for len(o.finishedOrder) > o.historyLimit {
		delete(o.finished, o.finishedOrder[0])
		o.finishedOrder = o.finishedOrder[1:]
	}
}

// CancelContinuous interrupts a running job, effective both mid-iteration
// and during the inter-iteration sleep, and removes it from the active
// registry. Returns ErrJobNotFound if no job with that id is currently
// running: cancelling an already-terminal job reports not found.
func (o *Orchestrator) CancelContinuous(jobID string) error {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	o.mu.Unlock()
	if !ok {
		return ErrJobNotFound
	}

	if !j.finish(StatusCancelled, nil) {
		return ErrJobNotFound
	}
	j.cancel()
	o.retire(j)

	slog.Info("[Orchestrator] Continuous job cancelled", "job_id", jobID)
	return nil
}

// GetJob returns a snapshot of the job. Terminal jobs stay queryable while
// they remain in the finished history.
func (o *Orchestrator) GetJob(jobID string) (Job, error) {
	o.mu.Lock()
	j, ok := o.jobs[jobID]
	if !ok {
		j, ok = o.finished[jobID]
	}
	o.mu.Unlock()
	if !ok {
		return Job{}, ErrJobNotFound
	}
	return j.snapshot(), nil
}

// Jobs returns snapshots of every running job plus the retained finished
// history.
func (o *Orchestrator) Jobs() []Job {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Job, 0, len(o.jobs)+len(o.finished))
	for _, j := range o.jobs {
		out = append(out, j.snapshot())
	}
	for _, j := range o.finished {
		out = append(out, j.snapshot())
	}
	return out
}

// PauseScheduled stops the scheduled recurring path from doing work.
// Continuous jobs and explicit batch requests are unaffected.
func (o *Orchestrator) PauseScheduled() {
	o.paused.Store(true)
	slog.Info("[Orchestrator] Scheduled processing paused")
}

// ResumeScheduled re-enables the scheduled recurring path.
func (o *Orchestrator) ResumeScheduled() {
	o.paused.Store(false)
	slog.Info("[Orchestrator] Scheduled processing resumed")
}

// Paused reports the scheduled-path pause flag.
func (o *Orchestrator) Paused() bool {
	return o.paused.Load()
}

// Shutdown cancels every running job and waits for the workers to exit.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	for _, j := range o.jobs {
		if j.finish(StatusCancelled, nil) {
			j.cancel()
			o.retireLocked(j)
		}
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// sleepCtx sleeps for d or until ctx is cancelled. Returns false when the
// sleep was interrupted.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
