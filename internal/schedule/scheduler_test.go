package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsTaskRepeatedly(t *testing.T) {
	s, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int64
	id, err := s.Every(ctx, "check-references", 30*time.Millisecond, func(context.Context) {
		runs.Add(1)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerRejectsNonPositiveInterval(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	_, err = s.Every(context.Background(), "x", 0, func(context.Context) {})
	require.Error(t, err)
	require.NoError(t, s.scheduler.Shutdown())
}
