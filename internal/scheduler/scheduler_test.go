package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunNowExecutesImmediately(t *testing.T) {
	s := New(zerolog.Nop())
	var ran atomic.Bool
	job := NewIncrementalJob(func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})

	require.NoError(t, s.RunNow(context.Background(), job))
	assert.True(t, ran.Load())
}

func TestRunNowPropagatesJobError(t *testing.T) {
	s := New(zerolog.Nop())
	job := NewIncrementalJob(func(ctx context.Context) error {
		return errors.New("boom")
	})

	err := s.RunNow(context.Background(), job)
	assert.Error(t, err)
}

func TestAddJobTriggersOnSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	var count atomic.Int32
	job := NewIncrementalJob(func(ctx context.Context) error {
		count.Add(1)
		return nil
	})

	require.NoError(t, s.AddJob("@every 50ms", job))
	s.Start()
	defer s.Stop()

	require.Eventually(t, func() bool { return count.Load() > 0 }, 500*time.Millisecond, 10*time.Millisecond)
}

func TestJobNameIsStable(t *testing.T) {
	job := NewIncrementalJob(func(ctx context.Context) error { return nil })
	assert.Equal(t, "incremental_append", job.Name())
}
