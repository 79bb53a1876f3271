package socket

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

type options struct {
	upgrader       websocket.Upgrader
	responseHeader http.Header
	messageType    int
	writeTimeout   time.Duration
	pingInterval   time.Duration
	pongWait       time.Duration
	readLimit      int64
	keepAlive      time.Duration
	eventName      string
	closing        <-chan struct{}
	logger         *slog.Logger
	onConnect      func(context.Context, *broadcast.Sink, *http.Request) error
	onDisconnect   func(context.Context, *broadcast.Sink)
	onError        func(context.Context, error)
}

func defaultOptions() *options {
	return &options{
		upgrader: websocket.Upgrader{
			ReadBufferSize:   DefaultBufferSize,
			WriteBufferSize:  DefaultBufferSize,
			HandshakeTimeout: DefaultHandshakeTimeout,
		},
		messageType:  websocket.TextMessage,
		writeTimeout: DefaultWriteTimeout,
		pingInterval: DefaultPingInterval,
		pongWait:     DefaultPongWait,
		readLimit:    DefaultReadLimit,
		keepAlive:    DefaultKeepAlive,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures the websocket and stream handlers.
type Option func(*options)

func WithReadBuffer(size int) Option {
	return func(o *options) {
		o.upgrader.ReadBufferSize = size
	}
}

func WithWriteBuffer(size int) Option {
	return func(o *options) {
		o.upgrader.WriteBufferSize = size
	}
}

func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.upgrader.HandshakeTimeout = timeout
	}
}

func WithOriginCheck(fn func(r *http.Request) bool) Option {
	return func(o *options) {
		o.upgrader.CheckOrigin = fn
	}
}

func WithAllowAnyOrigin() Option {
	return func(o *options) {
		o.upgrader.CheckOrigin = func(*http.Request) bool {
			return true
		}
	}
}

// WithAllowedOrigins accepts requests whose Origin host is in the list.
// "*" allows any origin; requests without an Origin header are accepted.
func WithAllowedOrigins(origins ...string) Option {
	if slices.Contains(origins, "*") {
		return WithAllowAnyOrigin()
	}
	return WithOriginCheck(func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.ContainsFunc(origins, func(allowed string) bool {
			return strings.EqualFold(allowed, u.Host)
		})
	})
}

func WithSubprotocols(protocols ...string) Option {
	return func(o *options) {
		o.upgrader.Subprotocols = protocols
	}
}

func WithUpgradeHeaders(header http.Header) Option {
	return func(o *options) {
		o.responseHeader = header
	}
}

// WithBinaryMessages sends broadcasts as binary frames instead of text frames.
func WithBinaryMessages() Option {
	return func(o *options) {
		o.messageType = websocket.BinaryMessage
	}
}

// WithWriteTimeout bounds each write to the client. Zero disables the deadline.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = timeout
	}
}

// WithPing sets the ping interval and how long to wait for any frame from the
// client before the connection is considered dead. Zero interval disables pings.
func WithPing(interval, pongWait time.Duration) Option {
	return func(o *options) {
		o.pingInterval = interval
		o.pongWait = pongWait
	}
}

// WithReadLimit caps the size of frames accepted from the client.
func WithReadLimit(n int64) Option {
	return func(o *options) {
		o.readLimit = n
	}
}

// WithKeepAlive sets the comment interval of event streams. Zero disables it.
func WithKeepAlive(interval time.Duration) Option {
	return func(o *options) {
		o.keepAlive = interval
	}
}

// WithEventName sets the event field of every streamed message.
func WithEventName(name string) Option {
	return func(o *options) {
		o.eventName = name
	}
}

// WithCloseOn closes every open connection with a going-away frame once done
// is closed. http.Server.Shutdown does not track upgraded connections, so pass
// the process context's Done channel here.
func WithCloseOn(done <-chan struct{}) Option {
	return func(o *options) {
		o.closing = done
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.logger = log
		}
	}
}

// WithOnConnect runs before the sink is registered. Returning an error closes
// the connection without registering it.
func WithOnConnect(fn func(context.Context, *broadcast.Sink, *http.Request) error) Option {
	return func(o *options) {
		o.onConnect = fn
	}
}

// WithOnDisconnect runs after the sink has been unregistered.
func WithOnDisconnect(fn func(context.Context, *broadcast.Sink)) Option {
	return func(o *options) {
		o.onDisconnect = fn
	}
}

func WithErrorHandler(fn func(context.Context, error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

func (o *options) handleError(ctx context.Context, err error) {
	if o.onError != nil {
		o.onError(ctx, err)
	}
}
