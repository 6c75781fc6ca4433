package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topoview/internal/domain"
)

func TestSchedulerRunsImmediatelyAndOnInterval(t *testing.T) {
	var calls atomic.Int32
	discover := func(_ context.Context, targets []string) ([]domain.ObjectRef, error) {
		assert.Equal(t, []string{"10.0.0.0/24"}, targets)
		calls.Add(1)
		return nil, nil
	}

	s := NewScheduler(discover, []string{"10.0.0.0/24"}, 20*time.Millisecond, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerRunning)

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	n := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, calls.Load())

	last, err := s.LastRun()
	assert.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestSchedulerRecordsErrors(t *testing.T) {
	boom := errors.New("boom")
	s := NewScheduler(func(context.Context, []string) ([]domain.ObjectRef, error) {
		return nil, boom
	}, nil, time.Hour, nil)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool {
		_, err := s.LastRun()
		return err != nil
	}, time.Second, 5*time.Millisecond)
	s.Stop()

	_, err := s.LastRun()
	assert.ErrorIs(t, err, boom)
}
