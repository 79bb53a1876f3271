package broadcast_test

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

func TestBrokerBroadcastsToEverySink(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	sinks := []*recorder{{}, {}, {}}
	for _, s := range sinks {
		register(t, reg, s)
	}

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	send(t, tx, "hello")

	d := next(t, b)
	assert.Equal(t, uint64(1), d.Seq)
	assert.Equal(t, 3, d.Targets)
	wait(t, b)

	for _, s := range sinks {
		assert.Equal(t, []string{"hello"}, s.Messages())
	}
	stats := b.Stats()
	assert.Equal(t, uint64(1), stats.Delivered)
	assert.Equal(t, uint64(3), stats.Writes)
}

func TestBrokerRoundRobinFairness(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())

	tx1, rx1 := broadcast.NewChannel[string]()
	tx2, rx2 := broadcast.NewChannel[string]()
	tx3, rx3 := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx1, rx2, rx3))

	for i := range 20 {
		send(t, tx1, fmt.Sprintf("r1-%d", i))
		send(t, tx2, fmt.Sprintf("r2-%d", i))
	}
	// rx3 stays empty and must not disturb the rotation.
	_ = tx3

	var ids []broadcast.ReceiverID
	for range 20 {
		ids = append(ids, next(t, b).ReceiverID)
	}

	for i := 1; i < len(ids); i++ {
		assert.NotEqual(t, ids[i-1], ids[i], "receiver serviced twice in a row at %d: %v", i, ids)
	}
}

func TestBrokerHighVolumeReceiverDoesNotStarveOthers(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())

	busy, rxBusy := broadcast.NewChannel[string]()
	quiet, rxQuiet := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rxBusy, rxQuiet))

	for i := range 1000 {
		send(t, busy, fmt.Sprintf("busy-%d", i))
	}
	send(t, quiet, "quiet")

	first := next(t, b)
	second := next(t, b)
	assert.NotEqual(t, first.ReceiverID, second.ReceiverID)
}

func TestBrokerFailureIsolation(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	a, c := &recorder{}, &recorder{}
	bad := &recorder{err: errors.New("connection reset")}

	register(t, reg, a)
	badSink := register(t, reg, bad)
	register(t, reg, c)

	rep := &reports{}
	b := broadcast.NewBroker(reg, broadcast.WithReporter[string](rep))
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1")
	assert.Equal(t, 3, next(t, b).Targets)
	wait(t, b)

	assert.Equal(t, []string{"m1"}, a.Messages())
	assert.Equal(t, []string{"m1"}, c.Messages())
	assert.Equal(t, 2, reg.Len())
	assert.True(t, badSink.Failed())

	got := rep.All()
	require.Len(t, got, 1)
	assert.Equal(t, badSink.ID(), got[0].SinkID)
	assert.Equal(t, broadcast.KindTransport, got[0].Kind)

	send(t, tx, "m2")
	assert.Equal(t, 2, next(t, b).Targets)
	wait(t, b)

	assert.Equal(t, []string{"m1", "m2"}, a.Messages())
	assert.Equal(t, []string{"m1", "m2"}, c.Messages())
	assert.Empty(t, bad.Messages())
	assert.Equal(t, uint64(1), b.Stats().WriteFailures)
}

func TestBrokerClassifiesWriteFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want broadcast.ErrorKind
	}{
		{"closed", fmt.Errorf("write: %w", net.ErrClosed), broadcast.KindClosed},
		{"timeout", fmt.Errorf("write: %w", os.ErrDeadlineExceeded), broadcast.KindTimeout},
		{"other", errors.New("boom"), broadcast.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			reg := broadcast.NewRegistry()
			register(t, reg, &recorder{err: tt.err})

			rep := &reports{}
			b := broadcast.NewBroker(reg, broadcast.WithReporter[string](rep))
			tx, rx := broadcast.NewChannel[string]()
			require.NoError(t, b.Attach(rx))

			send(t, tx, "m")
			next(t, b)
			wait(t, b)

			got := rep.All()
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Kind)
			assert.ErrorIs(t, got[0].Err, tt.err)
			assert.Equal(t, 0, reg.Len())
		})
	}
}

func TestBrokerSerializeFailureKeepsSink(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	rep := &reports{}
	serialize := broadcast.Serializer[string](func(msg broadcast.Message[string]) ([]byte, error) {
		if msg.Data == "bad" {
			return nil, errors.New("cannot encode")
		}
		return []byte(msg.Data), nil
	})
	b := broadcast.NewBroker(reg,
		broadcast.WithSerializer(serialize),
		broadcast.WithReporter[string](rep),
	)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "bad", "good")
	next(t, b)
	next(t, b)
	wait(t, b)

	assert.Equal(t, []string{"good"}, w.Messages())
	assert.Equal(t, 1, reg.Len())
	got := rep.All()
	require.Len(t, got, 1)
	assert.Equal(t, broadcast.KindSerialize, got[0].Kind)
}

func TestBrokerSerializerPanicKeepsSinkDraining(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	sink := register(t, reg, w)

	rep := &reports{}
	serialize := broadcast.Serializer[string](func(msg broadcast.Message[string]) ([]byte, error) {
		if msg.Data == "boom" {
			panic("encoder exploded")
		}
		return []byte(msg.Data), nil
	})
	b := broadcast.NewBroker(reg,
		broadcast.WithSerializer(serialize),
		broadcast.WithReporter[string](rep),
	)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "boom")
	next(t, b)
	wait(t, b)

	send(t, tx, "a", "b", "c")
	for range 3 {
		next(t, b)
	}
	wait(t, b)

	assert.Equal(t, []string{"a", "b", "c"}, w.Messages())
	assert.Equal(t, 0, sink.Pending())
	_, ok := reg.Get(sink.ID())
	assert.True(t, ok)

	got := rep.All()
	require.Len(t, got, 1)
	assert.Equal(t, broadcast.KindSerialize, got[0].Kind)
	assert.ErrorIs(t, got[0].Err, broadcast.ErrPanic)
}

type panicWriter struct{}

func (panicWriter) Write([]byte) (int, error) {
	panic("writer exploded")
}

func TestBrokerWriterPanicUnregistersSink(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	good := &recorder{}
	register(t, reg, good)
	bad := broadcast.NewSink(panicWriter{})
	require.NoError(t, reg.Register(bad))

	rep := &reports{}
	b := broadcast.NewBroker(reg, broadcast.WithReporter[string](rep))
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1")
	next(t, b)
	wait(t, b)

	send(t, tx, "m2")
	assert.Equal(t, 1, next(t, b).Targets)
	wait(t, b)

	assert.Equal(t, []string{"m1", "m2"}, good.Messages())
	assert.True(t, bad.Failed())
	_, ok := reg.Get(bad.ID())
	assert.False(t, ok)

	got := rep.All()
	require.Len(t, got, 1)
	assert.Equal(t, bad.ID(), got[0].SinkID)
	assert.Equal(t, broadcast.KindTransport, got[0].Kind)
	assert.ErrorIs(t, got[0].Err, broadcast.ErrPanic)
}

func TestBrokerReporterPanicAbandonsSink(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	sink := register(t, reg, w)

	serialize := broadcast.Serializer[string](func(msg broadcast.Message[string]) ([]byte, error) {
		return nil, errors.New("cannot encode")
	})
	reporter := broadcast.ReporterFunc(func(context.Context, broadcast.FailureReport) {
		panic("reporter exploded")
	})
	b := broadcast.NewBroker(reg,
		broadcast.WithSerializer(serialize),
		broadcast.WithReporter[string](reporter),
	)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1")
	next(t, b)
	wait(t, b)

	assert.True(t, sink.Failed())
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, uint64(2), b.Stats().WriteFailures)
	assert.Empty(t, w.Messages())
}

func TestBrokerCountsDroppedWrites(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	gate := make(chan struct{})
	w := &recorder{gate: gate, err: errors.New("connection reset")}
	sink := register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1", "m2", "m3")
	for range 3 {
		next(t, b)
	}
	// m1 is held by the writer, the rest wait behind it.
	require.Eventually(t, func() bool { return sink.Pending() == 2 }, time.Second, 5*time.Millisecond)

	close(gate)
	wait(t, b)

	stats := b.Stats()
	assert.Equal(t, uint64(1), stats.Writes)
	assert.Equal(t, uint64(1), stats.WriteFailures)
	assert.Equal(t, uint64(2), stats.DroppedWrites)
	assert.Equal(t, 0, sink.Pending())
}

func TestBrokerNoRetroactiveDelivery(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	early, late := &recorder{}, &recorder{}
	register(t, reg, early)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1")
	next(t, b)
	register(t, reg, late)
	send(t, tx, "m2")
	next(t, b)
	wait(t, b)

	assert.Equal(t, []string{"m1", "m2"}, early.Messages())
	assert.Equal(t, []string{"m2"}, late.Messages())
}

func TestBrokerRemovedSinkKeepsInFlightWrite(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{gate: make(chan struct{})}
	sink := register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1")
	next(t, b)
	reg.Unregister(sink.ID())
	close(w.gate)

	send(t, tx, "m2")
	assert.Equal(t, 0, next(t, b).Targets)
	wait(t, b)

	assert.Equal(t, []string{"m1"}, w.Messages())
}

func TestBrokerExhaustionPruning(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx1, rx1 := broadcast.NewChannel[string]()
	tx2, rx2 := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx1, rx2))

	send(t, tx1, "a")
	tx1.Close()
	send(t, tx2, "x", "y", "z")

	first := next(t, b)
	for range 3 {
		d := next(t, b)
		assert.NotEqual(t, first.ReceiverID, d.ReceiverID, "exhausted receiver selected again")
	}
	wait(t, b)

	stats := b.Stats()
	assert.Equal(t, 1, stats.ActiveReceivers)
	assert.Equal(t, uint64(1), stats.PrunedReceivers)
	assert.ElementsMatch(t, []string{"a", "x", "y", "z"}, w.Messages())
}

func TestBrokerDrains(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	send(t, tx, "last")
	tx.Close()
	b.Seal()

	next(t, b)

	_, err := b.Next(context.Background())
	assert.ErrorIs(t, err, broadcast.ErrBrokerDrained)

	_, other := broadcast.NewChannel[string]()
	assert.ErrorIs(t, b.Attach(other), broadcast.ErrBrokerSealed)
}

func TestBrokerStartReturnsWhenDrained(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	errCh := make(chan error, 1)
	go func() { errCh <- b.Start(context.Background()) }()

	send(t, tx, "a", "b")
	tx.Close()
	b.Seal()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("broker did not drain")
	}
	assert.Equal(t, uint64(2), b.Stats().Delivered)
	require.NoError(t, b.Stop())
}

func TestBrokerAttachValidation(t *testing.T) {
	t.Parallel()
	b1 := broadcast.NewBroker[string](broadcast.NewRegistry())
	b2 := broadcast.NewBroker[string](broadcast.NewRegistry())

	_, rx := broadcast.NewChannel[string]()
	_, fresh := broadcast.NewChannel[string]()
	require.NoError(t, b1.Attach(rx))

	assert.ErrorIs(t, b1.Attach(rx), broadcast.ErrReceiverAttached)
	assert.ErrorIs(t, b2.Attach(fresh, rx), broadcast.ErrReceiverAttached)

	// The failed call must not have claimed fresh.
	require.NoError(t, b2.Attach(fresh))
	assert.Equal(t, 1, b2.Stats().ActiveReceivers)
}

func TestBrokerNoBusyWait(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Start(ctx) }()

	require.Eventually(t, func() bool { return b.Stats().IsRunning }, time.Second, time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	idle := b.Stats().Scans
	assert.LessOrEqual(t, idle, uint64(3), "broker scanned while idle")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, idle, b.Stats().Scans, "broker must stay parked without input")

	send(t, tx, "wake")
	assert.Eventually(t, func() bool {
		return slices.Equal(w.Messages(), []string{"wake"})
	}, time.Second, 5*time.Millisecond)
}

func TestBrokerAttachWhileRunning(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Start(ctx) }()

	// Messages queued before attach must not be lost.
	tx, rx := broadcast.NewChannel[string]()
	send(t, tx, "before")
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, b.Attach(rx))
	send(t, tx, "after")

	assert.Eventually(t, func() bool {
		return slices.Equal(w.Messages(), []string{"before", "after"})
	}, time.Second, 5*time.Millisecond)
}

func TestBrokerScenarioPerReceiverOrder(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx1, rx1 := broadcast.NewChannel[string]()
	tx2, rx2 := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx1, rx2))

	send(t, tx1, "a", "b")
	send(t, tx2, "x")
	for range 3 {
		next(t, b)
	}
	wait(t, b)

	got := w.Messages()
	require.Len(t, got, 3)
	assert.Contains(t, got, "x")
	assert.Less(t, slices.Index(got, "a"), slices.Index(got, "b"))
}

func TestBrokerPreservesOrderOnSlowSink(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	slow := &recorder{delay: time.Millisecond}
	register(t, reg, slow)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	var want []string
	for i := range 50 {
		want = append(want, fmt.Sprintf("m%02d", i))
	}
	send(t, tx, want...)
	for range want {
		next(t, b)
	}
	wait(t, b)

	assert.Equal(t, want, slow.Messages())
}

func TestBrokerSlowSinkDoesNotDelayOthers(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	stuck := &recorder{gate: make(chan struct{})}
	fast := &recorder{}
	register(t, reg, stuck)
	register(t, reg, fast)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	send(t, tx, "m1", "m2")
	next(t, b)
	next(t, b)

	assert.Eventually(t, func() bool {
		return slices.Equal(fast.Messages(), []string{"m1", "m2"})
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, stuck.Messages())

	close(stuck.gate)
	wait(t, b)
	assert.Equal(t, []string{"m1", "m2"}, stuck.Messages())
}

func TestBrokerMaxConcurrentWritesBlocksIntake(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	stuck := &recorder{gate: make(chan struct{})}
	other := &recorder{}
	register(t, reg, stuck)
	register(t, reg, other)

	b := broadcast.NewBroker(reg, broadcast.WithMaxConcurrentWrites[string](1))
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	send(t, tx, "m1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = b.Next(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("Next must wait for a free write slot")
	case <-time.After(50 * time.Millisecond):
	}

	close(stuck.gate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Next did not resume after a slot freed")
	}
	wait(t, b)
	assert.Equal(t, []string{"m1"}, other.Messages())
}

func TestBrokerRegistryUnavailable(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	b := broadcast.NewBroker[string](reg)
	_, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	errCh := make(chan error, 1)
	go func() { errCh <- b.Start(context.Background()) }()

	require.Eventually(t, func() bool { return b.Stats().IsRunning }, time.Second, time.Millisecond)
	require.NoError(t, b.Healthcheck(context.Background()))

	reg.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, broadcast.ErrRegistryUnavailable)
	case <-time.After(time.Second):
		t.Fatal("broker ignored unavailable registry")
	}
	assert.ErrorIs(t, b.Healthcheck(context.Background()), broadcast.ErrHealthcheckFailed)
}

func TestBrokerNextHonoursContext(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())
	_, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := b.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBrokerSeq(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	send(t, tx, "a", "b", "c")

	var seqs []uint64
	for d, err := range b.Seq(context.Background()) {
		require.NoError(t, err)
		seqs = append(seqs, d.Seq)
		if len(seqs) == 2 {
			break
		}
	}
	assert.Equal(t, []uint64{1, 2}, seqs)

	tx.Close()
	b.Seal()
	for d, err := range b.Seq(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, uint64(3), d.Seq)
	}
}

func TestBrokerDeliveryHook(t *testing.T) {
	t.Parallel()
	var got []broadcast.Delivery
	b := broadcast.NewBroker(broadcast.NewRegistry(),
		broadcast.WithDeliveryHook[string](func(_ context.Context, d broadcast.Delivery) {
			got = append(got, d)
		}),
	)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	send(t, tx, "a")

	d := next(t, b)
	require.Len(t, got, 1)
	assert.Equal(t, d, got[0])
}

func TestBrokerStopWaitsForInFlightWrites(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{gate: make(chan struct{})}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	go func() { _ = b.Start(context.Background()) }()

	send(t, tx, "m")
	require.Eventually(t, func() bool { return b.Stats().Delivered == 1 }, time.Second, time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- b.Stop() }()

	select {
	case <-stopped:
		t.Fatal("Stop returned before the in-flight write finished")
	case <-time.After(30 * time.Millisecond):
	}

	close(w.gate)
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Equal(t, []string{"m"}, w.Messages())
	assert.ErrorIs(t, b.Stop(), broadcast.ErrBrokerNotStarted)
}

func TestBrokerStopTimeout(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{gate: make(chan struct{})}
	defer close(w.gate)
	register(t, reg, w)

	b := broadcast.NewBroker(reg, broadcast.WithShutdownTimeout[string](20*time.Millisecond))
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))
	go func() { _ = b.Start(context.Background()) }()

	send(t, tx, "m")
	require.Eventually(t, func() bool { return b.Stats().Delivered == 1 }, time.Second, time.Millisecond)

	assert.Error(t, b.Stop())
}

func TestBrokerRunWithErrgroup(t *testing.T) {
	t.Parallel()
	reg := broadcast.NewRegistry()
	w := &recorder{}
	register(t, reg, w)

	b := broadcast.NewBroker[string](reg)
	tx, rx := broadcast.NewChannel[string]()
	require.NoError(t, b.Attach(rx))

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(b.Run(gctx))

	send(t, tx, "m")
	require.Eventually(t, func() bool { return len(w.Messages()) == 1 }, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, g.Wait())
	assert.False(t, b.Stats().IsRunning)
}

func TestBrokerStartTwice(t *testing.T) {
	t.Parallel()
	b := broadcast.NewBroker[string](broadcast.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = b.Start(ctx) }()
	require.Eventually(t, func() bool { return b.Stats().IsRunning }, time.Second, time.Millisecond)

	assert.ErrorIs(t, b.Start(ctx), broadcast.ErrBrokerAlreadyStarted)
	require.NoError(t, b.Stop())
}
