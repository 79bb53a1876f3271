// Package server wraps http.Server with graceful shutdown, functional options
// and an errgroup-friendly lifecycle.
//
// # Basic Usage
//
//	srv := server.New(":8080",
//		server.WithShutdownTimeout(10*time.Second),
//		server.WithLogger(log),
//	)
//
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, router))
//	if err := g.Wait(); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// # Configuration
//
// Config is loaded from SERVER_* environment variables:
//
//	var cfg server.Config
//	config.MustLoad(&cfg)
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//
// TLS is enabled when both SERVER_TLS_CERT_FILE and SERVER_TLS_KEY_FILE are set,
// or explicitly with WithTLS.
//
// # Listener Address
//
// The listener is bound inside Start. Addr blocks until it is bound, so a
// server created with ":0" can report the port it got:
//
//	go srv.Start(ctx, handler)
//	addr, err := srv.Addr(ctx)
//
// # Streaming Connections
//
// Read and write timeouts are applied by http.Server to regular requests.
// WebSocket handlers clear connection deadlines on upgrade and the hijacked
// connections are not waited for by Stop; close them through their own
// lifecycle (the broadcast registry does this for sinks).
package server
