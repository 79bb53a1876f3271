package broadcast

import (
	"slices"
	"sync"
)

// Registry is the set of sinks every broadcast targets.
// It is safe for concurrent use; snapshots are copies, so no registry lock is
// ever held while writing to a connection.
type Registry struct {
	mu      sync.RWMutex
	sinks   []*Sink
	byID    map[SinkID]*Sink
	closed  bool
	changed chan struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:    make(map[SinkID]*Sink),
		changed: make(chan struct{}),
	}
}

// Register adds a sink. Registering a sink whose ID is already present is a no-op.
func (r *Registry) Register(sink *Sink) error {
	if sink == nil {
		return ErrNilSink
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryUnavailable
	}
	if _, ok := r.byID[sink.id]; ok {
		return nil
	}

	r.sinks = append(r.sinks, sink)
	r.byID[sink.id] = sink
	r.notifyLocked()
	return nil
}

// Unregister removes a sink and reports whether it was present.
// Removing an absent sink is a no-op.
func (r *Registry) Unregister(id SinkID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}

	delete(r.byID, id)
	r.sinks = slices.DeleteFunc(r.sinks, func(s *Sink) bool { return s.id == id })
	r.notifyLocked()
	return true
}

// Snapshot returns the current members in registration order.
func (r *Registry) Snapshot() ([]*Sink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, ErrRegistryUnavailable
	}
	return slices.Clone(r.sinks), nil
}

// Get returns the sink with the given ID.
func (r *Registry) Get(id SinkID) (*Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// Len returns the number of registered sinks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// Changed returns a channel closed by the next mutation of the registry.
func (r *Registry) Changed() <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.changed
}

// Available reports whether the registry can still be snapshotted.
func (r *Registry) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed
}

// Close makes the registry unavailable. Brokers using it stop with
// ErrRegistryUnavailable. Close is idempotent.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.sinks = nil
	clear(r.byID)
	r.notifyLocked()
}

func (r *Registry) notifyLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}
