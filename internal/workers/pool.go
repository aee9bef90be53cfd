// Package workers provides the bounded worker pool all outbound sends run
// through. Callback handlers hand a send job to the pool and wait for its
// outcome, so a burst of queue deliveries cannot open an unbounded number
// of provider connections.
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"remi/internal/logger"
)

const (
	defaultPoolSize  = 5
	defaultQueueSize = 100
)

// job is one unit of work with its completion channel.
type job struct {
	id   string
	ctx  context.Context
	fn   func(context.Context) error
	done chan error
}

// Pool manages a fixed set of worker goroutines.
type Pool struct {
	jobs    chan job
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *logger.Logger
	metrics *Metrics
}

// NewPool creates a worker pool. Metrics may be nil.
func NewPool(workers, queueSize int, metrics *Metrics, log *logger.Logger) *Pool {
	if workers <= 0 {
		workers = defaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		jobs:    make(chan job, queueSize),
		workers: workers,
		ctx:     ctx,
		cancel:  cancel,
		logger:  log,
		metrics: metrics,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	p.logger.Info("starting send worker pool",
		logger.Field{Key: "workers", Value: p.workers},
		logger.Field{Key: "queue_size", Value: cap(p.jobs)})

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop shuts the pool down and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("send worker pool stopped")
}

// Execute submits a job and blocks until a worker has run it, returning
// the job's error. Submission respects both the caller's context and pool
// shutdown.
func (p *Pool) Execute(ctx context.Context, id string, fn func(context.Context) error) error {
	j := job{
		id:   id,
		ctx:  ctx,
		fn:   fn,
		done: make(chan error, 1),
	}

	if p.metrics != nil {
		p.metrics.setQueueDepth(len(p.jobs) + 1)
	}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker is the main worker goroutine that processes jobs from the queue.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("worker started",
		logger.Field{Key: "worker_id", Value: id})

	for {
		select {
		case j := <-p.jobs:
			p.process(id, j)

		case <-p.ctx.Done():
			p.logger.Debug("worker stopping",
				logger.Field{Key: "worker_id", Value: id})
			return
		}
	}
}

// process runs a single job with panic recovery and metrics.
func (p *Pool) process(workerID int, j job) {
	start := time.Now()

	if p.metrics != nil {
		p.metrics.setQueueDepth(len(p.jobs))
		p.metrics.workerBusy(1)
		defer p.metrics.workerBusy(-1)
	}

	err := p.run(j)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if p.metrics != nil {
		p.metrics.RecordJob(status, duration)
	}

	p.logger.Debug("job processed",
		logger.Field{Key: "worker_id", Value: workerID},
		logger.Field{Key: "job_id", Value: j.id},
		logger.Field{Key: "duration_ms", Value: duration.Milliseconds()},
		logger.Field{Key: "error", Value: err})

	j.done <- err
}

func (p *Pool) run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during job execution: %v", r)
			p.logger.Error("job panic recovered", err,
				logger.Field{Key: "job_id", Value: j.id})
		}
	}()

	select {
	case <-j.ctx.Done():
		return j.ctx.Err()
	default:
	}

	return j.fn(j.ctx)
}
