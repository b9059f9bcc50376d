package jobs

import (
	"context"
	"log/slog"
	"time"
)

// SchedulerOptions tunes the recurring batch invocation.
type SchedulerOptions struct {
	Interval          time.Duration
	UsersPerBatch     int
	MaxBatchDuration  time.Duration
	DelayBetweenUsers time.Duration
}

func (o SchedulerOptions) normalized() SchedulerOptions {
	if o.Interval <= 0 {
		o.Interval = time.Minute
	}
	if o.UsersPerBatch <= 0 {
		o.UsersPerBatch = 50
	}
	return o
}

// Scheduler drives the orchestrator's batch step on a periodic interval.
// It is stateless: each tick independently drains pending users, and skips
// entirely while the orchestrator's pause flag is set.
type Scheduler struct {
	orchestrator *Orchestrator
	opts         SchedulerOptions
}

// NewScheduler creates the recurring analysis scheduler.
func NewScheduler(orchestrator *Orchestrator, opts SchedulerOptions) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		opts:         opts.normalized(),
	}
}

// Start begins periodic batch processing. Runs until context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	slog.Info("[Scheduler] Starting analysis scheduler",
		"interval", s.opts.Interval,
		"users_per_batch", s.opts.UsersPerBatch,
	)

	// Initial run to catch up with any backlog before the first tick.
	s.tick(ctx)

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("[Scheduler] Stopping (context cancelled)")
			return nil
		}
	}
}

// tick runs one scheduled batch unless paused. Work skipped while paused
// alters no job bookkeeping.
func (s *Scheduler) tick(ctx context.Context) {
	if s.orchestrator.Paused() {
		slog.Debug("[Scheduler] Paused, skipping scheduled batch")
		return
	}

	result, err := s.orchestrator.ProcessBatch(ctx, s.opts.UsersPerBatch, s.opts.MaxBatchDuration, s.opts.DelayBetweenUsers)
	if err != nil {
		slog.Error("[Scheduler] Scheduled batch failed",
			"error", err,
			"processed", result.Processed,
		)
		return
	}
	if result.Processed > 0 {
		slog.Info("[Scheduler] Scheduled batch complete",
			"processed", result.Processed,
			"succeeded", result.Succeeded,
			"failed", result.Failed,
			"duration", result.Duration,
		)
	}
}
