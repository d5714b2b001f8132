package periodic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/ecosystem/internal/logger"
)

func TestRunFiresUntilCancelled(t *testing.T) {
	var calls atomic.Int32
	task := &Task{
		Name:     "tick",
		Interval: 5 * time.Millisecond,
		Pass: func(context.Context) error {
			calls.Add(1)
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- task.Run(ctx, logger.Discard()) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop")
	}
	stopped := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load(), "no passes after cancellation")
}

func TestPassErrorsDoNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	task := &Task{
		Name:     "report",
		Interval: 2 * time.Millisecond,
		Pass: func(context.Context) error {
			calls.Add(1)
			return errors.New("write failed")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = task.Run(ctx, logger.Discard()) }()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestFireSkipsOverlappingPass(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	task := &Task{
		Name:     "slow",
		Interval: time.Hour,
		Pass: func(context.Context) error {
			close(entered)
			<-release
			return nil
		},
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.True(t, task.Fire(context.Background(), logger.Discard()))
	}()
	<-entered

	assert.False(t, task.Fire(context.Background(), logger.Discard()))
	close(release)
	wg.Wait()
	assert.Equal(t, uint64(1), task.Runs())
}

func TestFireAppliesTimeout(t *testing.T) {
	task := &Task{
		Name:     "bounded",
		Interval: time.Hour,
		Timeout:  10 * time.Millisecond,
		Pass: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	start := time.Now()
	assert.True(t, task.Fire(context.Background(), logger.Discard()))
	assert.Less(t, time.Since(start), time.Second)
}
