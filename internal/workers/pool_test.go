package workers

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remi/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Format: "text", Output: "stdout"})
	require.NoError(t, err)
	return log
}

func newStartedPool(t *testing.T, workers, queueSize int) *Pool {
	t.Helper()
	p := NewPool(workers, queueSize, nil, testLogger(t))
	p.Start()
	t.Cleanup(p.Stop)
	return p
}

func TestPool_Execute(t *testing.T) {
	p := newStartedPool(t, 2, 10)

	err := p.Execute(context.Background(), "job-1", func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestPool_ExecuteReturnsJobError(t *testing.T) {
	p := newStartedPool(t, 2, 10)
	jobErr := errors.New("send failed")

	err := p.Execute(context.Background(), "job-1", func(context.Context) error {
		return jobErr
	})
	assert.ErrorIs(t, err, jobErr)
}

func TestPool_ConcurrentJobs(t *testing.T) {
	p := newStartedPool(t, 4, 32)

	var ran int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.Execute(context.Background(), "job", func(context.Context) error {
				atomic.AddInt32(&ran, 1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(20), atomic.LoadInt32(&ran))
}

func TestPool_PanicRecovered(t *testing.T) {
	p := newStartedPool(t, 1, 10)

	err := p.Execute(context.Background(), "job-1", func(context.Context) error {
		panic("boom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic during job execution")

	// The worker survives the panic.
	err = p.Execute(context.Background(), "job-2", func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestPool_CancelledCallerContext(t *testing.T) {
	p := newStartedPool(t, 1, 10)

	// Occupy the single worker.
	release := make(chan struct{})
	go func() {
		_ = p.Execute(context.Background(), "blocker", func(context.Context) error {
			<-release
			return nil
		})
	}()

	// Give the blocker time to reach the worker.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := p.Execute(ctx, "waiting", func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
