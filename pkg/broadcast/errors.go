package broadcast

import (
	"errors"
	"fmt"
)

var (
	// ErrChannelClosed is returned by a Sender when the Receiver side is gone.
	ErrChannelClosed = errors.New("broadcast: channel closed")

	// ErrQueueFull is returned by a bounded channel using OverflowFail.
	ErrQueueFull = errors.New("broadcast: queue is full")

	// ErrRegistryUnavailable is returned when the registry can no longer be
	// snapshotted or mutated. It is fatal for the broker loop.
	ErrRegistryUnavailable = errors.New("broadcast: registry unavailable")

	// ErrBrokerDrained is returned once the broker is sealed and every attached
	// receiver is exhausted.
	ErrBrokerDrained = errors.New("broadcast: broker drained")

	// ErrBrokerSealed is returned by Attach after Seal.
	ErrBrokerSealed = errors.New("broadcast: broker sealed")

	// ErrReceiverAttached is returned when a receiver already belongs to a broker.
	ErrReceiverAttached = errors.New("broadcast: receiver already attached")

	// ErrPanic wraps a value recovered from a serializer, a sink writer or a
	// failure callback.
	ErrPanic = errors.New("broadcast: recovered panic")

	ErrBrokerAlreadyStarted = errors.New("broadcast: broker already started")
	ErrBrokerNotStarted     = errors.New("broadcast: broker not started")
	ErrBrokerNotRunning     = errors.New("broadcast: broker is not running")
	ErrHealthcheckFailed    = errors.New("broadcast: healthcheck failed")
	ErrNilRegistry          = errors.New("broadcast: registry is nil")
	ErrNilSink              = errors.New("broadcast: sink is nil")
)

// WriteError describes a failed delivery of one message to one sink.
type WriteError struct {
	SinkID SinkID
	Kind   ErrorKind
	Cause  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("broadcast: write to sink %s failed (%s): %v", e.SinkID, e.Kind, e.Cause)
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
