package broadcast

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/fanout/pkg/async"
)

// ReceiverID identifies a receiver attached to a broker.
type ReceiverID uint64

// Delivery is produced once per message dequeued by the broker.
type Delivery struct {
	Seq        uint64     // 1-based sequence number of the message within this broker
	ReceiverID ReceiverID // receiver the message was taken from
	Targets    int        // sinks in the registry snapshot
	At         time.Time
}

// BrokerStats provides observability metrics for monitoring and debugging.
type BrokerStats struct {
	Delivered       uint64
	Writes          uint64 // attempted writes, failed ones included
	WriteFailures   uint64
	DroppedWrites   uint64 // dispatched writes discarded because their sink had failed
	PrunedReceivers uint64
	Scans           uint64
	ActiveReceivers int
	Sinks           int
	InFlightWrites  int
	IsRunning       bool
	Sealed          bool
	LastActivityAt  time.Time
}

type attachedReceiver[T any] struct {
	id ReceiverID
	r  *Receiver[T]
}

// Broker merges messages from any number of receivers and broadcasts each one
// to every sink in a registry.
//
// Receivers are serviced round-robin. When no receiver has a message the
// broker parks until a message arrives, a receiver is attached, the registry
// changes or the broker is sealed. Each sink is written by its own task, so a
// slow connection delays neither other sinks nor message intake.
type Broker[T any] struct {
	registry        *Registry
	serialize       Serializer[T]
	reporter        Reporter
	onDelivery      func(context.Context, Delivery)
	pool            *async.Pool
	shutdownTimeout time.Duration

	mu     sync.Mutex
	active []attachedReceiver[T]
	cursor int
	sealed bool
	lastID ReceiverID

	wake chan struct{}
	step sync.Mutex

	lifeMu  sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	seq            atomic.Uint64
	writes         atomic.Uint64
	writeFailures  atomic.Uint64
	droppedWrites  atomic.Uint64
	pruned         atomic.Uint64
	scans          atomic.Uint64
	lastActivityAt atomic.Int64
}

// NewBroker creates a broker with no attached receivers.
//
// Example:
//
//	registry := broadcast.NewRegistry()
//	broker := broadcast.NewBroker(registry,
//	    broadcast.WithReporter[string](broadcast.NewLogReporter(log)),
//	)
//	tx, rx := broadcast.NewChannel[string]()
//	_ = broker.Attach(rx)
//	go broker.Start(ctx)
func NewBroker[T any](registry *Registry, opts ...BrokerOption[T]) *Broker[T] {
	o := brokerOptions[T]{
		serializer:      DefaultSerializer[T](),
		reporter:        nopReporter{},
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Broker[T]{
		registry:        registry,
		serialize:       o.serializer,
		reporter:        o.reporter,
		onDelivery:      o.onDelivery,
		pool:            async.NewPool(o.maxConcurrentWrites),
		shutdownTimeout: o.shutdownTimeout,
		wake:            make(chan struct{}, 1),
	}
}

// Attach adds receivers to the active set. It may be called before or while
// the broker runs. Attaching a receiver that already belongs to a broker
// fails with ErrReceiverAttached and attaches none of the given receivers.
func (b *Broker[T]) Attach(receivers ...*Receiver[T]) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sealed {
		return ErrBrokerSealed
	}

	for i, r := range receivers {
		if r == nil || !r.attached.CompareAndSwap(false, true) {
			for _, prev := range receivers[:i] {
				prev.attached.Store(false)
			}
			return ErrReceiverAttached
		}
	}

	for _, r := range receivers {
		b.lastID++
		r.q.setNotify(b.signal)
		b.active = append(b.active, attachedReceiver[T]{id: b.lastID, r: r})
	}

	b.signal()
	return nil
}

// Seal declares that no more receivers will be attached. Once every attached
// receiver is exhausted the broker stops with ErrBrokerDrained.
func (b *Broker[T]) Seal() {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
	b.signal()
}

func (b *Broker[T]) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Next advances the broker by one message: it selects a receiver round-robin,
// dequeues one message and dispatches its broadcast. It blocks without
// spinning while nothing is ready.
//
// Returns ErrBrokerDrained when sealed and every receiver is exhausted,
// ErrRegistryUnavailable when the registry is closed, or ctx's error.
func (b *Broker[T]) Next(ctx context.Context) (Delivery, error) {
	if b.registry == nil {
		return Delivery{}, ErrNilRegistry
	}

	b.step.Lock()
	defer b.step.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return Delivery{}, err
		}

		changed := b.registry.Changed()
		if !b.registry.Available() {
			return Delivery{}, ErrRegistryUnavailable
		}

		id, msg, ok, drained := b.selectNext()
		if ok {
			sinks, err := b.registry.Snapshot()
			if err != nil {
				return Delivery{}, fmt.Errorf("snapshot registry: %w", err)
			}
			return b.dispatch(ctx, id, msg, sinks), nil
		}
		if drained {
			return Delivery{}, ErrBrokerDrained
		}

		select {
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		case <-b.wake:
		case <-changed:
		}
	}
}

// selectNext scans the active set once starting at the cursor, pruning
// exhausted receivers on the way.
func (b *Broker[T]) selectNext() (ReceiverID, Message[T], bool, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.scans.Add(1)

	for n := len(b.active); n > 0; n-- {
		if b.cursor >= len(b.active) {
			b.cursor = 0
		}
		ar := b.active[b.cursor]

		msg, st := ar.r.q.poll()
		switch st {
		case pollReady:
			b.cursor++
			return ar.id, msg, true, false
		case pollExhausted:
			ar.r.q.setNotify(nil)
			b.active = slices.Delete(b.active, b.cursor, b.cursor+1)
			b.pruned.Add(1)
		default:
			b.cursor++
		}
	}

	return 0, Message[T]{}, false, b.sealed && len(b.active) == 0
}

func (b *Broker[T]) dispatch(ctx context.Context, id ReceiverID, msg Message[T], sinks []*Sink) Delivery {
	now := time.Now()
	d := Delivery{
		Seq:        b.seq.Add(1),
		ReceiverID: id,
		Targets:    len(sinks),
		At:         now,
	}

	for _, sink := range sinks {
		job := writeJob{
			payload: func() ([]byte, error) { return b.serialize(msg) },
			done: func(ctx context.Context, err error) {
				b.finishWrite(ctx, sink, err)
			},
			skip: func() { b.droppedWrites.Add(1) },
		}
		if sink.enqueue(job) {
			f := b.pool.Go(ctx, sink.drain)
			f.OnComplete(func(err error) {
				if err != nil {
					b.abandon(sink)
				}
			})
		}
	}

	b.lastActivityAt.Store(now.Unix())
	if b.onDelivery != nil {
		b.onDelivery(ctx, d)
	}
	return d
}

func (b *Broker[T]) finishWrite(ctx context.Context, sink *Sink, err error) {
	b.writes.Add(1)
	if err == nil {
		return
	}
	b.writeFailures.Add(1)

	report := FailureReport{
		SinkID: sink.ID(),
		Kind:   KindTransport,
		Err:    err,
		At:     time.Now(),
	}
	var we *WriteError
	if errors.As(err, &we) {
		report.Kind = we.Kind
		report.Err = we.Cause
	}

	if report.Kind.Fatal() {
		b.registry.Unregister(sink.ID())
	}
	b.reporter.ReportFailure(ctx, report)
}

// abandon drops a sink whose drain task ended abnormally, which happens when
// the Reporter panics. The failure is counted but not reported again.
func (b *Broker[T]) abandon(sink *Sink) {
	b.writeFailures.Add(1)
	b.registry.Unregister(sink.ID())
}

// Seq exposes the broker as a lazy sequence of deliveries. Each iteration
// advances the broker with Next. The sequence ends silently when the broker
// drains; any other error, including ctx's, is yielded once as the last item.
func (b *Broker[T]) Seq(ctx context.Context) iter.Seq2[Delivery, error] {
	return func(yield func(Delivery, error) bool) {
		for {
			d, err := b.Next(ctx)
			if err != nil {
				if !errors.Is(err, ErrBrokerDrained) {
					yield(Delivery{}, err)
				}
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// Start runs the broker until ctx is cancelled, the broker drains or the
// registry becomes unavailable. It returns nil when drained.
// Use Run() for errgroup pattern or call this in a goroutine.
func (b *Broker[T]) Start(ctx context.Context) error {
	b.lifeMu.Lock()
	if b.cancel != nil {
		b.lifeMu.Unlock()
		return ErrBrokerAlreadyStarted
	}
	if b.registry == nil {
		b.lifeMu.Unlock()
		return ErrNilRegistry
	}

	ctx, b.cancel = context.WithCancel(ctx)
	done := make(chan struct{})
	b.done = done
	b.running.Store(true)
	b.lifeMu.Unlock()

	defer close(done)
	defer b.running.Store(false)

	for {
		if _, err := b.Next(ctx); err != nil {
			if errors.Is(err, ErrBrokerDrained) {
				return nil
			}
			return err
		}
	}
}

// Stop ends the loop and waits for dispatched writes to finish, up to the
// shutdown timeout. Writes already dispatched are never aborted.
func (b *Broker[T]) Stop() error {
	b.lifeMu.Lock()
	if b.cancel == nil {
		b.lifeMu.Unlock()
		return ErrBrokerNotStarted
	}
	cancel, done := b.cancel, b.done
	b.cancel = nil
	b.lifeMu.Unlock()

	cancel()
	<-done

	ctx, ctxCancel := context.WithTimeout(context.Background(), b.shutdownTimeout)
	defer ctxCancel()

	if err := b.pool.Wait(ctx); err != nil {
		return fmt.Errorf("shutdown timeout exceeded after %s", b.shutdownTimeout)
	}
	return nil
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the broker, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (b *Broker[T]) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- b.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			err := <-errCh
			if stopErr := b.Stop(); stopErr != nil && !errors.Is(stopErr, ErrBrokerNotStarted) {
				return stopErr
			}
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		case err := <-errCh:
			if stopErr := b.Stop(); stopErr != nil && !errors.Is(stopErr, ErrBrokerNotStarted) && err == nil {
				err = stopErr
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Wait blocks until every dispatched write has finished or ctx ends.
func (b *Broker[T]) Wait(ctx context.Context) error {
	return b.pool.Wait(ctx)
}

// Stats returns current broker statistics.
func (b *Broker[T]) Stats() BrokerStats {
	b.mu.Lock()
	active := len(b.active)
	sealed := b.sealed
	b.mu.Unlock()

	var sinks int
	if b.registry != nil {
		sinks = b.registry.Len()
	}

	var lastActivity time.Time
	if ts := b.lastActivityAt.Load(); ts > 0 {
		lastActivity = time.Unix(ts, 0)
	}

	return BrokerStats{
		Delivered:       b.seq.Load(),
		Writes:          b.writes.Load(),
		WriteFailures:   b.writeFailures.Load(),
		DroppedWrites:   b.droppedWrites.Load(),
		PrunedReceivers: b.pruned.Load(),
		Scans:           b.scans.Load(),
		ActiveReceivers: active,
		Sinks:           sinks,
		InFlightWrites:  b.pool.Active(),
		IsRunning:       b.running.Load(),
		Sealed:          sealed,
		LastActivityAt:  lastActivity,
	}
}

// Healthcheck returns nil while the broker loop is running on an available registry.
func (b *Broker[T]) Healthcheck(ctx context.Context) error {
	if !b.running.Load() {
		return errors.Join(ErrHealthcheckFailed, ErrBrokerNotRunning)
	}
	if b.registry == nil || !b.registry.Available() {
		return errors.Join(ErrHealthcheckFailed, ErrRegistryUnavailable)
	}
	return nil
}
