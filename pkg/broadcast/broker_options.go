package broadcast

import (
	"context"
	"time"
)

// DefaultShutdownTimeout bounds how long Stop waits for dispatched writes.
const DefaultShutdownTimeout = 30 * time.Second

// BrokerOption configures a Broker.
type BrokerOption[T any] func(*brokerOptions[T])

type brokerOptions[T any] struct {
	serializer          Serializer[T]
	reporter            Reporter
	onDelivery          func(context.Context, Delivery)
	maxConcurrentWrites int
	shutdownTimeout     time.Duration
}

// WithSerializer sets how messages are converted to bytes.
// Defaults to DefaultSerializer.
func WithSerializer[T any](s Serializer[T]) BrokerOption[T] {
	return func(o *brokerOptions[T]) {
		if s != nil {
			o.serializer = s
		}
	}
}

// WithReporter sets the collaborator receiving write failures.
// By default failures are only counted in Stats.
func WithReporter[T any](r Reporter) BrokerOption[T] {
	return func(o *brokerOptions[T]) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithDeliveryHook registers a function called once per dequeued message,
// from the broker loop. It must not block.
func WithDeliveryHook[T any](fn func(context.Context, Delivery)) BrokerOption[T] {
	return func(o *brokerOptions[T]) {
		o.onDelivery = fn
	}
}

// WithMaxConcurrentWrites caps how many sinks are written concurrently.
// When the cap is reached the broker waits for a free slot before taking the
// next message. Zero (default) means unlimited.
//
// The cap bounds drain goroutines, not memory. A sink whose writer stalls
// holds one slot and keeps queueing every later broadcast in its pending
// list until a write returns. Bound stalls with a write deadline in the
// sink's writer (socket.WithWriteTimeout does this for websockets).
//
// Example:
//
//	broker := broadcast.NewBroker[Event](registry,
//	    broadcast.WithMaxConcurrentWrites[Event](256),
//	)
func WithMaxConcurrentWrites[T any](n int) BrokerOption[T] {
	return func(o *brokerOptions[T]) {
		if n >= 0 {
			o.maxConcurrentWrites = n
		}
	}
}

// WithShutdownTimeout configures how long Stop waits for in-flight writes.
func WithShutdownTimeout[T any](d time.Duration) BrokerOption[T] {
	return func(o *brokerOptions[T]) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
