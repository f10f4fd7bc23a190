// Package worker provides a bounded worker pool for the blocking steps of
// ingestion and querying: extraction, embedding, catalog and index calls.
//
// Jobs run detached from their caller's cancellation. A caller that gives up
// stops waiting, but the job it submitted still runs to completion.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("worker pool closed")

// Job is a unit of work for the worker pool to execute.
type Job func(ctx context.Context)

type task struct {
	ctx context.Context
	job Job
}

// Config is the configuration options for the worker pool.
type Config struct {
	// NumWorkers is the number of goroutines in the pool (defaults to 3).
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	Logger *slog.Logger
}

// Pool runs jobs on a fixed set of goroutines.
type Pool struct {
	queue  chan task
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	wp := &Pool{
		queue:  make(chan task, c.QueueSize),
		logger: logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job without blocking. It returns false when the queue is
// full or the pool is closed; the job was not queued and the caller decides
// whether to run it some other way.
func (p *Pool) Enqueue(ctx context.Context, job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.queue <- task{ctx: context.WithoutCancel(ctx), job: job}:
		return true
	default:
		p.logger.Warn("job not queued, queue full")
		return false
	}
}

// Submit blocks until the job is queued or ctx is done.
func (p *Pool) Submit(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.queue <- task{ctx: context.WithoutCancel(ctx), job: job}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for queued and in-flight jobs to
// drain.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for t := range p.queue {
		p.run(t)
	}

	p.logger.Debug("worker stopped", "worker_id", id)
}

func (p *Pool) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job panicked", "panic", r)
		}
	}()
	t.job(t.ctx)
}

// Do runs fn on the pool and waits for its result. If ctx ends first, Do
// returns ctx.Err() while fn keeps running on a context that is never
// canceled. A nil pool runs fn inline.
func Do[T any](ctx context.Context, p *Pool, fn func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return fn(ctx)
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)

	err := p.Submit(ctx, func(jobCtx context.Context) {
		var res result
		defer func() {
			if r := recover(); r != nil {
				res.err = fmt.Errorf("job panicked: %v", r)
			}
			done <- res
		}()
		res.val, res.err = fn(jobCtx)
	})
	if err != nil {
		var zero T
		return zero, err
	}

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
