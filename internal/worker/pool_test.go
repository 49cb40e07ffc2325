package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"task-manager/api/internal/logging"
)

func TestPoolRunsJob(t *testing.T) {
	p := NewPool(2, logging.Discard())
	defer p.Stop()

	ran := false
	require.NoError(t, p.Do(context.Background(), func() error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.Equal(t, int64(1), p.Stats().Completed)
}

func TestPoolPropagatesJobError(t *testing.T) {
	p := NewPool(1, logging.Discard())
	defer p.Stop()

	boom := errors.New("boom")
	assert.ErrorIs(t, p.Do(context.Background(), func() error { return boom }), boom)
	assert.Equal(t, int64(1), p.Stats().Failed)
}

func TestPoolRecoversPanic(t *testing.T) {
	p := NewPool(1, logging.Discard())
	defer p.Stop()

	err := p.Do(context.Background(), func() error { panic("bad") })
	assert.ErrorContains(t, err, "panicked")

	assert.NoError(t, p.Do(context.Background(), func() error { return nil }))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const limit = 3
	p := NewPool(limit, logging.Discard())
	defer p.Stop()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func() error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, int64(20), p.Stats().Completed)
}

func TestPoolHonoursContextWhileWaiting(t *testing.T) {
	p := NewPool(1, logging.Discard())
	defer p.Stop()

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func() error {
		t.Error("job should not run")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int64(1), p.Stats().Rejected)

	close(release)
}

func TestPoolStopRejectsNewJobs(t *testing.T) {
	p := NewPool(1, logging.Discard())
	p.Stop()
	p.Stop()

	assert.ErrorIs(t, p.Do(context.Background(), func() error { return nil }), ErrPoolStopped)
}
