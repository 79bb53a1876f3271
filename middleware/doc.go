// Package middleware provides net/http middleware for the fanout service.
//
// Every middleware has the func(http.Handler) http.Handler shape, so it plugs
// into gorilla/mux with Router.Use or wraps a single handler:
//
//	r := mux.NewRouter()
//	r.Use(middleware.RequestID())
//	r.Use(middleware.LoggingWithLogger(log))
//	r.Handle("/publish", middleware.BodyLimit(64*middleware.KB)(publish))
//
// # Request ID
//
// RequestID stores an ID in the request context (read it with GetRequestID)
// and echoes it in the X-Request-ID response header.
//
// # Logging
//
// Logging writes one record per request once the handler returns, with
// status, size and duration captured through httpsnoop. The wrapped writer
// keeps http.Hijacker and http.Flusher, so websocket upgrades and event
// streams pass through; upgraded requests are logged with upgraded=true when
// the connection ends.
//
// # Body Limit
//
// BodyLimit rejects oversized bodies with 413 Request Entity Too Large.
package middleware
