package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnce(t *testing.T) {
	s := NewScheduler(context.Background())
	var calls []string

	s.AddJob("first", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "first")
		return nil
	})
	s.AddJob("failing", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "failing")
		return errors.New("boom")
	})
	s.AddJob("panicking", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "panicking")
		panic("unexpected")
	})
	s.AddJob("last", time.Hour, func(ctx context.Context) error {
		calls = append(calls, "last")
		return nil
	})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing: boom")
	assert.Contains(t, err.Error(), "job panicking panicked")
	assert.Equal(t, []string{"first", "failing", "panicking", "last"}, calls)
	assert.Equal(t, []string{"first", "failing", "panicking", "last"}, s.Jobs())
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	s := NewScheduler(context.Background())
	var runs atomic.Int32
	started := make(chan struct{}, 1)

	s.AddJob("tick", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		return nil
	})

	s.Start()
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	s.Stop()

	assert.Equal(t, int32(1), runs.Load())
}

func TestParentCancellationStopsJobs(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := NewScheduler(parent)
	seen := make(chan context.Context, 1)

	s.AddJob("observer", time.Hour, func(ctx context.Context) error {
		seen <- ctx
		return nil
	})
	s.Start()

	jobCtx := <-seen
	cancel()
	s.Stop()

	assert.ErrorIs(t, jobCtx.Err(), context.Canceled)
}
