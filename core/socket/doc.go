// Package socket connects HTTP clients to a broadcast.Registry.
//
// Handler upgrades a request to a websocket and registers the connection as a
// sink; every broadcast becomes one websocket frame. Stream does the same over
// server-sent events for clients that cannot open a websocket. Both remove the
// sink from the registry when the client goes away.
//
//	registry := broadcast.NewRegistry()
//
//	r := mux.NewRouter()
//	r.Handle("/ws", socket.Handler(registry, socket.WithCloseOn(ctx.Done())))
//	r.Handle("/events", socket.Stream(registry, socket.WithEventName("message")))
//
// Inbound websocket frames are discarded. The read loop exists to answer
// control frames and to notice a dead peer: with WithPing the server pings
// periodically and drops clients silent for longer than the pong wait.
package socket
