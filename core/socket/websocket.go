package socket

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// conn adapts a websocket connection to io.Writer: one Write is one frame.
type conn struct {
	ws          *websocket.Conn
	messageType int
	timeout     time.Duration
}

func (c *conn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	if err := c.ws.WriteMessage(c.messageType, p); err != nil {
		if errors.Is(err, websocket.ErrCloseSent) {
			return 0, fmt.Errorf("%w: %w", net.ErrClosed, err)
		}
		return 0, err
	}
	return len(p), nil
}

// Handler upgrades requests to websocket connections and registers each one
// as a sink of registry for as long as the client stays connected.
//
// Frames sent by the client are read and discarded; reading is what detects
// a closed connection. The sink is unregistered when the read loop ends.
//
// Example:
//
//	r := mux.NewRouter()
//	r.Handle("/ws", socket.Handler(registry,
//	    socket.WithAllowedOrigins("example.com"),
//	    socket.WithLogger(log),
//	))
func Handler(registry *broadcast.Registry, opts ...Option) http.Handler {
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

		ws, err := o.upgrader.Upgrade(w, r, o.responseHeader)
		if err != nil {
			// The upgrader has already replied with an HTTP error.
			log.DebugContext(ctx, "websocket upgrade failed", logger.Error(err))
			o.handleError(ctx, err)
			return
		}
		defer ws.Close()

		sink := broadcast.NewSink(&conn{ws: ws, messageType: o.messageType, timeout: o.writeTimeout})

		if o.onConnect != nil {
			if err := o.onConnect(ctx, sink, r); err != nil {
				o.handleError(ctx, errors.Join(ErrConnectRejected, err))
				closeWith(ws, websocket.ClosePolicyViolation, "rejected")
				return
			}
		}

		if err := registry.Register(sink); err != nil {
			o.handleError(ctx, err)
			closeWith(ws, websocket.CloseTryAgainLater, "unavailable")
			return
		}
		log.DebugContext(ctx, "websocket connected",
			logger.SinkID(sink.ID().String()),
			logger.ClientIP(r.RemoteAddr),
		)

		done := make(chan struct{})
		go o.ping(ws, done)

		err = o.read(ws)
		close(done)
		registry.Unregister(sink.ID())

		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			o.handleError(ctx, err)
		}
		log.DebugContext(ctx, "websocket disconnected",
			logger.SinkID(sink.ID().String()),
			logger.Error(err),
		)

		if o.onDisconnect != nil {
			o.onDisconnect(ctx, sink)
		}
	})
}

// read discards inbound frames until the connection fails.
func (o *options) read(ws *websocket.Conn) error {
	if o.readLimit > 0 {
		ws.SetReadLimit(o.readLimit)
	}
	if o.pongWait > 0 {
		_ = ws.SetReadDeadline(time.Now().Add(o.pongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(o.pongWait))
		})
	}

	for {
		if _, _, err := ws.NextReader(); err != nil {
			return err
		}
		if o.pongWait > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(o.pongWait))
		}
	}
}

// ping keeps the connection alive and closes it when the handler is shutting
// down. WriteControl is safe to call concurrently with the sink's writes.
func (o *options) ping(ws *websocket.Conn, done <-chan struct{}) {
	var tick <-chan time.Time
	if o.pingInterval > 0 {
		ticker := time.NewTicker(o.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-done:
			return
		case <-o.closing:
			closeWith(ws, websocket.CloseGoingAway, "shutting down")
			_ = ws.Close()
			return
		case <-tick:
			deadline := time.Now().Add(o.pingInterval)
			if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func closeWith(ws *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
