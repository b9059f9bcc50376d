package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSchedulerOptions_Normalized(t *testing.T) {
	opts := SchedulerOptions{}.normalized()
	require.Equal(t, time.Minute, opts.Interval)
	require.Equal(t, 50, opts.UsersPerBatch)

	custom := SchedulerOptions{Interval: 5 * time.Second, UsersPerBatch: 10}.normalized()
	require.Equal(t, 5*time.Second, custom.Interval)
	require.Equal(t, 10, custom.UsersPerBatch)
}

func TestScheduler_TickDrainsPendingUsers(t *testing.T) {
	source := &sliceSource{pending: []string{"u1", "u2"}}
	processor := &recordingProcessor{}
	o := NewOrchestrator(source, processor)
	s := NewScheduler(o, SchedulerOptions{UsersPerBatch: 10})

	s.tick(context.Background())
	require.Equal(t, 2, processor.count())
}

func TestScheduler_PausedTickDoesNothing(t *testing.T) {
	source := &sliceSource{pending: []string{"u1"}}
	processor := &recordingProcessor{}
	o := NewOrchestrator(source, processor)
	o.PauseScheduled()
	s := NewScheduler(o, SchedulerOptions{UsersPerBatch: 10})

	s.tick(context.Background())
	require.Equal(t, 0, processor.count())

	o.ResumeScheduled()
	s.tick(context.Background())
	require.Equal(t, 1, processor.count())
}

func TestScheduler_StartRunsInitialBatchAndStopsOnCancel(t *testing.T) {
	source := &sliceSource{pending: []string{"u1"}}
	processor := &recordingProcessor{}
	o := NewOrchestrator(source, processor)
	s := NewScheduler(o, SchedulerOptions{Interval: time.Hour, UsersPerBatch: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool {
		return processor.count() == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
