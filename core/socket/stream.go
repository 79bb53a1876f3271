package socket

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// eventWriter frames each Write as one server-sent event. It stops accepting
// writes once the handler has returned, since the ResponseWriter is no longer
// valid after that.
type eventWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	event   string
	closed  bool
}

func (e *eventWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	if e.event != "" {
		fmt.Fprintf(&buf, "event: %s\n", e.event)
	}
	for line := range bytes.Lines(p) {
		buf.WriteString("data: ")
		buf.Write(bytes.TrimRight(line, "\r\n"))
		buf.WriteByte('\n')
	}
	if len(p) == 0 {
		buf.WriteString("data: \n")
	}
	buf.WriteByte('\n')

	if err := e.send(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (e *eventWriter) comment(text string) error {
	return e.send([]byte(": " + text + "\n\n"))
}

func (e *eventWriter) send(frame []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return net.ErrClosed
	}
	if _, err := e.w.Write(frame); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e *eventWriter) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
}

// Stream serves broadcasts as a text/event-stream response. Each broadcast
// becomes one event whose data lines carry the serialized message. It is the
// fallback for clients that cannot open a websocket.
func Stream(registry *broadcast.Registry, opts ...Option) http.Handler {
	if registry == nil {
		panic(ErrNilRegistry)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger.With(logger.Component("socket"))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			o.handleError(ctx, ErrStreamingUnsupported)
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		// Streams outlive the server write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		ew := &eventWriter{w: w, flusher: flusher, event: o.eventName}
		defer ew.close()

		if err := ew.comment("connected"); err != nil {
			return
		}

		sink := broadcast.NewSink(ew)
		if o.onConnect != nil {
			if err := o.onConnect(ctx, sink, r); err != nil {
				o.handleError(ctx, fmt.Errorf("%w: %w", ErrConnectRejected, err))
				return
			}
		}
		if err := registry.Register(sink); err != nil {
			o.handleError(ctx, err)
			return
		}

		log.DebugContext(ctx, "stream connected",
			logger.SinkID(sink.ID().String()),
			logger.ClientIP(r.RemoteAddr),
		)

		var keepAlive <-chan time.Time
		if o.keepAlive > 0 {
			ticker := time.NewTicker(o.keepAlive)
			defer ticker.Stop()
			keepAlive = ticker.C
		}

	loop:
		for {
			select {
			case <-ctx.Done():
				break loop
			case <-o.closing:
				break loop
			case <-keepAlive:
				if err := ew.comment("keepalive"); err != nil {
					break loop
				}
			}
		}

		registry.Unregister(sink.ID())
		log.DebugContext(ctx, "stream disconnected", logger.SinkID(sink.ID().String()))
		if o.onDisconnect != nil {
			o.onDisconnect(ctx, sink)
		}
	})
}
