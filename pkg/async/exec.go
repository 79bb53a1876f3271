package async

import "sync"

// ExecFuture represents the result of an asynchronous task that only returns an error.
type ExecFuture struct {
	mu        sync.Mutex
	err       error
	completed bool
	callbacks []func(error)
}

func newExecFuture() *ExecFuture {
	return &ExecFuture{}
}

// complete records the task result and runs the registered callbacks.
// Only the first call has an effect.
func (f *ExecFuture) complete(err error) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.err = err
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, fn := range callbacks {
		fn(err)
	}
}

// OnComplete registers fn to receive the task result. Callbacks run on the
// task's goroutine before the pool counts the task as finished, so Pool.Wait
// also waits for them. If the task is already complete fn runs immediately
// on the caller's goroutine.
func (f *ExecFuture) OnComplete(fn func(error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()

	fn(err)
}
