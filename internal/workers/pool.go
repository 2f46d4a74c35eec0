package workers

import (
	"context"
	"errors"
	"sync"

	"media-pipeline/internal/logging"
	"media-pipeline/internal/metrics"
)

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("workers: pool is shut down")

// Job is a unit of background work. The context is cancelled only when
// Shutdown gives up waiting.
type Job func(ctx context.Context)

// Pool runs jobs on a fixed number of goroutines with a bounded queue.
type Pool struct {
	jobs   chan Job
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers sharing a queue of queueSize pending jobs.
func NewPool(size, queueSize int) *Pool {
	if size < 1 {
		size = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		jobs:   make(chan Job, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	logging.Debug("Worker pool started: %d workers, queue %d", size, queueSize)
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		metrics.WorkerQueueDepth.Dec()
		metrics.WorkerJobsInProgress.Inc()
		p.run(job)
		metrics.WorkerJobsInProgress.Dec()
	}
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Worker job panicked: %v", r)
		}
	}()
	job(p.ctx)
}

// Submit queues job, blocking while the queue is full.
func (p *Pool) Submit(job func(ctx context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	metrics.WorkerQueueDepth.Inc()
	p.jobs <- job
	return nil
}

// Shutdown stops accepting jobs and waits for queued and running jobs to
// finish. If ctx ends first, running jobs see their context cancelled and
// Shutdown returns ctx.Err() without waiting further.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		logging.Debug("Worker pool drained")
		return nil
	case <-ctx.Done():
		p.cancel()
		logging.Warn("Worker pool shutdown timed out; cancelling in-flight jobs")
		return ctx.Err()
	}
}
