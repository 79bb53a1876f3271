package broadcast_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// recorder is an in-memory connection capturing every write.
type recorder struct {
	mu    sync.Mutex
	msgs  []string
	err   error
	gate  chan struct{}
	delay time.Duration
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.gate != nil {
		<-r.gate
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	r.msgs = append(r.msgs, string(p))
	return len(p), nil
}

func (r *recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// reports collects failure reports.
type reports struct {
	mu   sync.Mutex
	list []broadcast.FailureReport
}

func (r *reports) ReportFailure(_ context.Context, report broadcast.FailureReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, report)
}

func (r *reports) All() []broadcast.FailureReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]broadcast.FailureReport(nil), r.list...)
}

func register(t *testing.T, reg *broadcast.Registry, w *recorder) *broadcast.Sink {
	t.Helper()
	sink := broadcast.NewSink(w)
	require.NoError(t, reg.Register(sink))
	return sink
}

func next(t *testing.T, b *broadcast.Broker[string]) broadcast.Delivery {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := b.Next(ctx)
	require.NoError(t, err)
	return d
}

func wait(t *testing.T, b *broadcast.Broker[string]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.Wait(ctx))
}

func send(t *testing.T, tx *broadcast.Sender[string], msgs ...string) {
	t.Helper()
	for _, m := range msgs {
		require.NoError(t, tx.Send(broadcast.NewMessage(m)))
	}
}
