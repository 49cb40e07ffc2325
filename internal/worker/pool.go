package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

var ErrPoolStopped = errors.New("worker pool stopped")

// Pool bounds how many CPU-heavy jobs run at once. Callers block in Do until
// a slot frees up or their context is done.
type Pool struct {
	sem         *semaphore.Weighted
	concurrency int
	logger      logrus.FieldLogger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup

	completed atomic.Int64
	failed    atomic.Int64
	rejected  atomic.Int64
}

type PoolStats struct {
	Concurrency int   `json:"concurrency"`
	Completed   int64 `json:"completed"`
	Failed      int64 `json:"failed"`
	Rejected    int64 `json:"rejected"`
}

func NewPool(concurrency int, logger logrus.FieldLogger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	logger.WithField("concurrency", concurrency).Info("Starting worker pool")

	return &Pool{
		sem:         semaphore.NewWeighted(int64(concurrency)),
		concurrency: concurrency,
		logger:      logger,
	}
}

// Do runs job on the calling goroutine once a slot is acquired. A job that
// panics is reported as an error.
func (p *Pool) Do(ctx context.Context, job func() error) (err error) {
	p.mu.RLock()
	if p.stopped {
		p.mu.RUnlock()
		p.rejected.Add(1)
		return ErrPoolStopped
	}
	p.wg.Add(1)
	p.mu.RUnlock()
	defer p.wg.Done()

	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.rejected.Add(1)
		return fmt.Errorf("waiting for worker slot: %w", err)
	}
	defer p.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithField("panic", r).Error("Worker job panicked")
			err = fmt.Errorf("worker job panicked: %v", r)
		}
		if err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
	}()

	return job()
}

// Stop refuses new jobs and waits for in-flight ones.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Concurrency: p.concurrency,
		Completed:   p.completed.Load(),
		Failed:      p.failed.Load(),
		Rejected:    p.rejected.Load(),
	}
}
