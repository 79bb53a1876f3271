package broadcast

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// NewChannel creates a FIFO queue of messages and returns its producer and
// consumer ends. Without options the queue is unbounded and Send never blocks.
//
// Example:
//
//	tx, rx := broadcast.NewChannel[string]()
//	defer tx.Close()
//	_ = broker.Attach(rx)
//	_ = tx.Send(broadcast.NewMessage("hello"))
func NewChannel[T any](opts ...ChannelOption) (*Sender[T], *Receiver[T]) {
	o := channelOptions{policy: OverflowBlock}
	for _, opt := range opts {
		opt(&o)
	}

	q := &queue[T]{
		capacity: o.capacity,
		policy:   o.policy,
	}

	return newSender(q), &Receiver[T]{q: q}
}

type pollState uint8

const (
	pollEmpty pollState = iota
	pollReady
	pollExhausted
)

type queue[T any] struct {
	mu       sync.Mutex
	items    []Message[T]
	head     int
	capacity int
	policy   OverflowPolicy
	senders  int
	closed   bool
	dropped  uint64
	space    chan struct{}
	notify   func()
}

func (q *queue[T]) size() int {
	return len(q.items) - q.head
}

func (q *queue[T]) popLocked() Message[T] {
	var zero Message[T]
	msg := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	switch {
	case q.head == len(q.items):
		q.items = q.items[:0]
		q.head = 0
	case q.head > 64 && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}

	return msg
}

// releaseSpaceLocked wakes producers blocked on a full queue.
func (q *queue[T]) releaseSpaceLocked() {
	if q.space != nil {
		close(q.space)
		q.space = nil
	}
}

func (q *queue[T]) push(ctx context.Context, msg Message[T]) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrChannelClosed
		}

		full := q.capacity > 0 && q.size() >= q.capacity
		if full {
			switch q.policy {
			case OverflowFail:
				q.mu.Unlock()
				return ErrQueueFull
			case OverflowDropOldest:
				q.popLocked()
				q.dropped++
				full = false
			}
		}

		if !full {
			q.items = append(q.items, msg)
			notify := q.notify
			q.mu.Unlock()
			if notify != nil {
				notify()
			}
			return nil
		}

		if q.space == nil {
			q.space = make(chan struct{})
		}
		space := q.space
		q.mu.Unlock()

		select {
		case <-space:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (q *queue[T]) poll() (Message[T], pollState) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.size() > 0 {
		msg := q.popLocked()
		q.releaseSpaceLocked()
		return msg, pollReady
	}
	if q.senders == 0 || q.closed {
		return Message[T]{}, pollExhausted
	}
	return Message[T]{}, pollEmpty
}

func (q *queue[T]) setNotify(fn func()) {
	q.mu.Lock()
	q.notify = fn
	q.mu.Unlock()
}

func (q *queue[T]) addSender() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.senders == 0 {
		return false
	}
	q.senders++
	return true
}

func (q *queue[T]) dropSender() {
	q.mu.Lock()
	q.senders--
	last := q.senders == 0
	notify := q.notify
	q.mu.Unlock()

	// The consumer must see the exhaustion to prune the receiver.
	if last && notify != nil {
		notify()
	}
}

// Sender is the producer end of a channel. It is safe for concurrent use and
// can be cloned for additional producers. A receiver becomes exhausted once
// every Sender is closed; a Sender that becomes unreachable without Close is
// closed by the garbage collector.
type Sender[T any] struct {
	h *senderHandle[T]
}

type senderHandle[T any] struct {
	q      *queue[T]
	closed atomic.Bool
}

func (h *senderHandle[T]) release() {
	if h.closed.CompareAndSwap(false, true) {
		h.q.dropSender()
	}
}

func newSender[T any](q *queue[T]) *Sender[T] {
	q.mu.Lock()
	q.senders++
	q.mu.Unlock()
	return wrapSender(&senderHandle[T]{q: q})
}

func wrapSender[T any](h *senderHandle[T]) *Sender[T] {
	s := &Sender[T]{h: h}
	runtime.AddCleanup(s, func(h *senderHandle[T]) { h.release() }, h)
	return s
}

// Send enqueues msg. With the default unbounded queue it never blocks.
// Returns ErrChannelClosed when the receiver is closed or this sender was closed.
func (s *Sender[T]) Send(msg Message[T]) error {
	return s.SendContext(context.Background(), msg)
}

// SendContext is Send with a context bounding the wait of the OverflowBlock policy.
func (s *Sender[T]) SendContext(ctx context.Context, msg Message[T]) error {
	if s.h.closed.Load() {
		return ErrChannelClosed
	}
	return s.h.q.push(ctx, msg)
}

// Clone returns a new producer handle for the same queue.
// Cloning a closed sender yields a closed sender.
func (s *Sender[T]) Clone() *Sender[T] {
	h := &senderHandle[T]{q: s.h.q}
	if s.h.closed.Load() || !s.h.q.addSender() {
		h.closed.Store(true)
		return &Sender[T]{h: h}
	}
	return wrapSender(h)
}

// Close drops this producer. It is idempotent.
func (s *Sender[T]) Close() {
	s.h.release()
}

// Receiver is the consumer end of a channel. Once attached to a Broker it is
// owned by it and must not be polled by anyone else.
type Receiver[T any] struct {
	q        *queue[T]
	attached atomic.Bool
}

// TryTake returns the next message without blocking. The boolean is false
// when the queue is currently empty, which does not imply it is exhausted.
func (r *Receiver[T]) TryTake() (Message[T], bool) {
	msg, st := r.q.poll()
	return msg, st == pollReady
}

// Exhausted reports whether every sender is closed and the queue is empty,
// or the receiver itself was closed. Once true it stays true.
func (r *Receiver[T]) Exhausted() bool {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.closed || (r.q.senders == 0 && r.q.size() == 0)
}

// Len returns the number of buffered messages.
func (r *Receiver[T]) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.size()
}

// Dropped returns how many messages OverflowDropOldest has evicted.
func (r *Receiver[T]) Dropped() uint64 {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.dropped
}

// Close drops the consumer. Pending and future sends fail with ErrChannelClosed.
func (r *Receiver[T]) Close() {
	r.q.mu.Lock()
	r.q.closed = true
	clear(r.q.items)
	r.q.items = nil
	r.q.head = 0
	r.q.releaseSpaceLocked()
	notify := r.q.notify
	r.q.mu.Unlock()

	if notify != nil {
		notify()
	}
}
