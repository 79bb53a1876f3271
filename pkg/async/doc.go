// Package async provides futures and a bounded goroutine pool.
//
// ExecFuture represents the completion of a task that only returns an error.
// Its result is delivered to callbacks registered with OnComplete.
//
// Pool runs tasks with an optional concurrency limit:
//
//	pool := async.NewPool(64)
//
//	future := pool.Go(ctx, func(ctx context.Context) error {
//		return conn.Flush(ctx)
//	})
//
//	future.OnComplete(func(err error) {
//		if errors.Is(err, async.ErrTaskPanicked) {
//			log.Println("flush panicked:", err)
//		}
//	})
//
//	// Wait for everything that was scheduled, bounded by a deadline.
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//	_ = pool.Wait(ctx)
//
// Tasks receive a context detached from the scheduling context's
// cancellation, so shutting down the producer of tasks never aborts tasks
// that were already accepted. A panicking task completes its future with an
// error wrapping ErrTaskPanicked.
package async
