package broadcast

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// SinkID identifies a registered connection.
type SinkID = uuid.UUID

// Sink is a shared handle to one outbound connection. The registry and the
// write task serving it share the same *Sink. Writes are serialized by an
// internal lock held for one write only, and pending broadcast writes are
// performed in the order they were dispatched.
type Sink struct {
	id SinkID
	w  io.Writer

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  []writeJob
	draining bool
	dead     bool
}

type writeJob struct {
	payload func() ([]byte, error)
	done    func(ctx context.Context, err error)
	// skip is called instead of done when the sink failed before the write.
	skip func()
}

// NewSink wraps w with a freshly generated ID.
func NewSink(w io.Writer) *Sink {
	return NewSinkWithID(uuid.New(), w)
}

// NewSinkWithID wraps w using the given ID.
func NewSinkWithID(id SinkID, w io.Writer) *Sink {
	return &Sink{id: id, w: w}
}

// ID returns the sink identifier.
func (s *Sink) ID() SinkID {
	return s.id
}

// Write writes p to the underlying connection while holding the sink's write
// lock. A short write without an error is reported as io.ErrShortWrite.
func (s *Sink) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Pending returns the number of broadcast writes queued for this sink.
func (s *Sink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Failed reports whether a write to this sink has failed.
// A failed sink accepts no further broadcast writes.
func (s *Sink) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dead
}

// enqueue queues a job. It reports whether the caller must start a drain task.
// Jobs for a failed sink are skipped.
func (s *Sink) enqueue(j writeJob) bool {
	s.mu.Lock()
	if s.dead {
		s.mu.Unlock()
		j.skipped()
		return false
	}
	s.pending = append(s.pending, j)
	if s.draining {
		s.mu.Unlock()
		return false
	}
	s.draining = true
	s.mu.Unlock()
	return true
}

// drain performs queued writes until the queue is empty or a write fails.
// A panic in the serializer or the writer becomes a WriteError for that job.
// A non-nil error means a completion callback panicked; the sink is then
// marked failed.
func (s *Sink) drain(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}

		s.mu.Lock()
		if err != nil {
			s.dead = true
		}
		var skipped []writeJob
		if s.dead {
			skipped = s.pending
			s.pending = nil
		}
		s.draining = false
		s.mu.Unlock()

		for _, j := range skipped {
			j.skipped()
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 || s.dead {
			s.mu.Unlock()
			return nil
		}
		j := s.pending[0]
		s.pending[0] = writeJob{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		data, err := j.serialize()
		if err != nil {
			j.done(ctx, &WriteError{SinkID: s.id, Kind: KindSerialize, Cause: err})
			continue
		}

		if err := s.write(data); err != nil {
			s.mu.Lock()
			s.dead = true
			s.mu.Unlock()
			j.done(ctx, &WriteError{SinkID: s.id, Kind: classify(err), Cause: err})
			continue
		}

		j.done(ctx, nil)
	}
}

func (s *Sink) write(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	_, err = s.Write(data)
	return err
}

func (j writeJob) serialize() (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return j.payload()
}

func (j writeJob) skipped() {
	if j.skip != nil {
		j.skip()
	}
}
