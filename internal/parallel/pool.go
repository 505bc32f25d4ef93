package parallel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// WorkerPool runs units of work with bounded concurrency.
type WorkerPool struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	errors     []error
	completed  atomic.Int64
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool with bounded concurrency.
// If maxWorkers is 0, unlimited workers are allowed.
// If failFast is true, the pool context is cancelled on the first error.
func NewWorkerPool(ctx context.Context, maxWorkers int, failFast bool) *WorkerPool {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit schedules fn. If the pool is at capacity, Submit blocks until a
// worker becomes available or the pool is cancelled. Work submitted after
// the pool is cancelled is dropped, and it reports whether fn was scheduled.
//
// fn must not call Submit on a bounded pool; it would hold the slot it waits for.
func (p *WorkerPool) Submit(id string, fn func() error) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	if p.maxWorkers > 0 {
		select {
		case p.semaphore <- struct{}{}:
		case <-p.ctx.Done():
			return false
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if p.maxWorkers > 0 {
			defer func() { <-p.semaphore }()
		}

		select {
		case <-p.ctx.Done():
			return
		default:
		}

		err := fn()
		p.completed.Add(1)
		if err == nil {
			return
		}

		p.mu.Lock()
		p.errors = append(p.errors, fmt.Errorf("%s: %w", id, err))
		p.mu.Unlock()
		if p.failFast {
			p.cancel()
		}
	}()
	return true
}

// Wait waits for all submitted work to finish, then cancels the pool
// context and returns the collected errors.
func (p *WorkerPool) Wait() []error {
	p.wg.Wait()
	p.cancel()
	return p.Errors()
}

// Errors returns a snapshot of the errors so far.
func (p *WorkerPool) Errors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()

	errs := make([]error, len(p.errors))
	copy(errs, p.errors)
	return errs
}

// Completed returns how many units of work have run to completion.
func (p *WorkerPool) Completed() int64 {
	return p.completed.Load()
}

// Done returns a channel closed when the pool is cancelled, either by
// Cancel, by a fail-fast error or by the parent context.
func (p *WorkerPool) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Err returns the pool context's error.
func (p *WorkerPool) Err() error {
	return p.ctx.Err()
}

// MaxWorkers returns the concurrency bound, 0 meaning unbounded.
func (p *WorkerPool) MaxWorkers() int {
	return p.maxWorkers
}

// Cancel cancels all pending work in the pool.
func (p *WorkerPool) Cancel() {
	p.cancel()
}
