package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/core/config"
	"github.com/dmitrymomot/fanout/core/health"
	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/core/server"
	"github.com/dmitrymomot/fanout/core/socket"
	"github.com/dmitrymomot/fanout/integration/database/pg"
	"github.com/dmitrymomot/fanout/integration/database/redis"
	"github.com/dmitrymomot/fanout/middleware"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg Config
	config.MustLoad(&cfg) // panic on error

	logOpts, err := cfg.loggerOptions()
	if err != nil {
		panic(err)
	}
	log := logger.New(logOpts...)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("Application failed", logger.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped")
}

func run(ctx context.Context, cfg Config, log *slog.Logger) error {
	registry := broadcast.NewRegistry()
	defer registry.Close()

	broker, err := broadcast.NewBrokerFromConfig[string](cfg.Broadcast, registry,
		broadcast.WithSerializer(broadcast.BytesSerializer[string]()),
		broadcast.WithReporter[string](broadcast.NewLogReporter(log)),
		broadcast.WithDeliveryHook[string](func(ctx context.Context, d broadcast.Delivery) {
			log.DebugContext(ctx, "message broadcast",
				logger.Component("broadcast"),
				logger.ReceiverID(uint64(d.ReceiverID)),
				logger.Count("targets", d.Targets),
			)
		}),
	)
	if err != nil {
		return err
	}

	chanOpts, err := cfg.Broadcast.ChannelOptions()
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	checks := []func(context.Context) error{broker.Healthcheck}

	// Every producer gets its own channel so the broker can rotate fairly between them.
	attach := func() (*broadcast.Sender[string], error) {
		tx, rx := broadcast.NewChannel[string](chanOpts...)
		return tx, broker.Attach(rx)
	}

	publishTx, err := attach()
	if err != nil {
		return err
	}
	defer publishTx.Close()

	if cfg.HeartbeatInterval > 0 {
		tx, err := attach()
		if err != nil {
			return err
		}
		eg.Go(func() error {
			return heartbeat(ctx, tx, cfg.HeartbeatInterval, cfg.HeartbeatMessage)
		})
	}

	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}
		defer client.Close()
		checks = append(checks, redis.Healthcheck(client))

		if len(cfg.Redis.Channels) > 0 {
			tx, err := attach()
			if err != nil {
				return err
			}
			sub := redis.NewSubscriber(client, tx, broadcast.RawDecoder[string](), cfg.Redis.Channels, log)
			eg.Go(func() error { return sub.Run(ctx) })
		}
	}

	if cfg.DB.Enabled() {
		pool, err := pg.Connect(ctx, cfg.DB, log)
		if err != nil {
			return err
		}
		defer pool.Close()
		checks = append(checks, pg.Healthcheck(pool))

		if len(cfg.DB.Channels) > 0 {
			tx, err := attach()
			if err != nil {
				return err
			}
			l := pg.NewListener(pool, tx, broadcast.RawDecoder[string](), cfg.DB.Channels, log)
			eg.Go(func() error { return l.Run(ctx) })
		}
	}

	socketOpts := append(cfg.Socket.Options(),
		socket.WithLogger(log),
		socket.WithCloseOn(ctx.Done()),
	)

	r := mux.NewRouter()
	r.Use(middleware.RequestID(), middleware.LoggingWithLogger(log))

	r.Handle("/ws", socket.Handler(registry, socketOpts...)).Methods(http.MethodGet)
	r.Handle("/events", socket.Stream(registry, socketOpts...)).Methods(http.MethodGet)
	r.Handle("/publish", middleware.BodyLimit(cfg.PublishMaxBytes)(publishHandler(publishTx, log))).Methods(http.MethodPost)
	r.Handle("/health/live", health.Liveness()).Methods(http.MethodGet)
	r.Handle("/health/ready", health.Readiness(log, checks...)).Methods(http.MethodGet)
	r.Handle("/stats", health.Stats(func() any { return broker.Stats() })).Methods(http.MethodGet)

	srv, err := server.NewFromConfig(cfg.Server, server.WithLogger(log))
	if err != nil {
		return err
	}

	eg.Go(broker.Run(ctx))
	eg.Go(srv.Run(ctx, r))

	return eg.Wait()
}
