// Package broadcast merges messages from many inbound channels and fans each
// one out to every connection registered in a Registry.
//
// # Architecture
//
// The package is built from four pieces:
//   - Channel: NewChannel returns a Sender and a Receiver for a FIFO queue of
//     Message values. Queues are unbounded by default; WithCapacity and
//     WithOverflowPolicy select a bounded queue that blocks, drops the oldest
//     message or fails the send when full.
//   - Sink: a handle to one outbound connection (any io.Writer). Writes to a
//     sink never interleave and happen in dispatch order.
//   - Registry: the set of sinks each broadcast targets.
//   - Broker: owns receivers and drives the merge-and-broadcast loop.
//
// # Usage
//
//	registry := broadcast.NewRegistry()
//	broker := broadcast.NewBroker(registry,
//		broadcast.WithSerializer(broadcast.JSONSerializer[Event]()),
//		broadcast.WithReporter[Event](broadcast.NewLogReporter(log)),
//	)
//
//	tx, rx := broadcast.NewChannel[Event]()
//	if err := broker.Attach(rx); err != nil {
//		return err
//	}
//
//	// Connections are registered by whoever accepts them.
//	sink := broadcast.NewSink(conn)
//	_ = registry.Register(sink)
//	defer registry.Unregister(sink.ID())
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(broker.Run(ctx))
//
//	_ = tx.Send(broadcast.NewMessage(Event{Name: "tick"}))
//
// # Selection and Broadcast
//
// Each step of the broker scans the attached receivers round-robin, starting
// after the receiver serviced last, so a busy receiver cannot starve the
// others. Receivers found exhausted (all senders closed and queue drained)
// are pruned for good. The first ready message is dequeued and broadcast to
// the sinks present in the registry at that moment; sinks registered later
// never see it.
//
// When nothing is ready the broker parks on a wake-up signal instead of
// polling. Sends, sender closes, Attach, Seal and registry mutations wake it.
//
// The broker can be driven in several ways:
//   - Next(ctx) performs exactly one step and returns its Delivery
//   - Seq(ctx) exposes the steps as an iter.Seq2
//   - Start(ctx) / Stop() / Run(ctx) run the loop with the usual lifecycle
//
// # Failure Isolation
//
// A failed write affects only its sink: the sink is unregistered, pending
// writes for it are discarded (counted as DroppedWrites) and a FailureReport
// goes to the configured Reporter. A panic in the serializer or the writer is
// recovered and treated as a failed write. Other sinks and the broker loop are unaffected. Serialization
// failures are reported but keep the sink registered.
//
// The only fatal condition is a closed Registry, reported as
// ErrRegistryUnavailable.
//
// # Concurrency
//
// Writes are dispatched to an async.Pool without waiting for them. By default
// write concurrency is unlimited; WithMaxConcurrentWrites bounds it, in which
// case the broker waits for a free slot before dequeuing further messages.
// The limit counts sinks being written, not queued messages: a stalled sink
// buffers every broadcast until its writer returns, so writers should carry a
// deadline.
// Stop waits for dispatched writes, up to the shutdown timeout, and never
// aborts them.
package broadcast
