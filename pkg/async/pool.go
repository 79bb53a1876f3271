package async

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Pool runs tasks on goroutines with an optional cap on how many run at once.
// A zero-limit pool never waits for a slot.
type Pool struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	active atomic.Int32
}

// NewPool creates a pool running at most limit tasks concurrently.
// A limit of zero or less means unlimited.
func NewPool(limit int) *Pool {
	p := &Pool{}
	if limit > 0 {
		p.sem = make(chan struct{}, limit)
	}
	return p
}

// Go schedules fn and returns its future. With a limited pool it blocks until
// a slot is free. If ctx ends first, fn still runs over the limit so accepted
// work is never lost; the limit only yields during shutdown.
//
// fn receives a context detached from ctx cancellation: stopping the caller
// does not abort tasks that were already scheduled.
func (p *Pool) Go(ctx context.Context, fn func(context.Context) error) *ExecFuture {
	acquired := false
	if p.sem != nil {
		select {
		case p.sem <- struct{}{}:
			acquired = true
		case <-ctx.Done():
		}
	}

	f := newExecFuture()
	taskCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	p.active.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.active.Add(-1)
		if acquired {
			defer func() { <-p.sem }()
		}
		defer func() {
			if r := recover(); r != nil {
				f.complete(fmt.Errorf("%w: %v", ErrTaskPanicked, r))
			}
		}()

		f.complete(fn(taskCtx))
	}()

	return f
}

// Active returns the number of running tasks.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Limit returns the concurrency cap, zero when unlimited.
func (p *Pool) Limit() int {
	return cap(p.sem)
}

// Wait blocks until every scheduled task has finished or ctx ends.
func (p *Pool) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
