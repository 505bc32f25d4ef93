package warden

import (
	"context"
	"errors"
	"runtime"
	"strconv"

	"github.com/nibzard/switchroom/internal/agent"
	"github.com/nibzard/switchroom/internal/parallel"
	"github.com/nibzard/switchroom/internal/rng"
)

// concurrent runs visits on a bounded worker pool. Each agent is queued at
// most once; after a visit it goes to the back of the queue. Which queued
// agent wins the room is left to the goroutine scheduler and the gate.
type concurrent struct {
	src  *rng.Source
	opts Options
}

func (w *concurrent) Mode() Mode { return Concurrent }

func (w *concurrent) workers(n int) int {
	workers := w.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	return workers
}

func (w *concurrent) Run(ctx context.Context, roster []*agent.Agent, visit VisitFunc, sig *agent.Signal) error {
	if len(roster) == 0 {
		return ErrEmptyRoster
	}

	pool := parallel.NewWorkerPool(ctx, w.workers(len(roster)), true)
	limit := &limiter{max: w.opts.MaxVisits}

	// Capacity len(roster) with each agent present at most once means
	// requeueing never blocks.
	ready := make(chan *agent.Agent, len(roster))
	for _, idx := range w.src.Perm(len(roster)) {
		ready <- roster[idx]
	}

dispatch:
	for {
		select {
		case <-sig.Done():
			break dispatch
		case <-pool.Done():
			break dispatch
		case a := <-ready:
			if sig.IsSet() {
				break dispatch
			}
			pool.Submit(strconv.Itoa(a.ID()), func() error {
				defer func() { ready <- a }()
				if !limit.take() {
					return limit.err()
				}
				visit(a)
				return nil
			})
		}
	}

	errs := pool.Wait()
	if sig.IsSet() {
		return nil
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return pool.Err()
}
