package broadcast

import (
	"fmt"
	"strings"
)

// OverflowPolicy decides what a bounded channel does with a send when it is full.
type OverflowPolicy int

const (
	// OverflowBlock makes the producer wait until space frees or its context ends.
	OverflowBlock OverflowPolicy = iota
	// OverflowDropOldest evicts the oldest buffered message to make room.
	OverflowDropOldest
	// OverflowFail rejects the send with ErrQueueFull.
	OverflowFail
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBlock:
		return "block"
	case OverflowDropOldest:
		return "drop_oldest"
	case OverflowFail:
		return "fail"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy converts a config value into a policy.
// Accepted values: block, drop_oldest, fail.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "block":
		return OverflowBlock, nil
	case "drop_oldest", "drop-oldest":
		return OverflowDropOldest, nil
	case "fail":
		return OverflowFail, nil
	}
	return OverflowBlock, fmt.Errorf("broadcast: unknown overflow policy %q", s)
}

// ChannelOption configures a channel created by NewChannel.
type ChannelOption func(*channelOptions)

type channelOptions struct {
	capacity int
	policy   OverflowPolicy
}

// WithCapacity bounds the queue to n buffered messages.
// Zero or negative keeps the queue unbounded.
func WithCapacity(n int) ChannelOption {
	return func(o *channelOptions) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithOverflowPolicy sets the policy applied when a bounded queue is full.
// It has no effect on unbounded queues.
func WithOverflowPolicy(p OverflowPolicy) ChannelOption {
	return func(o *channelOptions) {
		o.policy = p
	}
}
