// Package pg connects to PostgreSQL with pgx and relays LISTEN/NOTIFY
// payloads into a broadcast channel.
//
// # Connecting
//
//	pool, err := pg.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// Connect applies the pool settings from Config and retries with exponential
// backoff until a ping succeeds or cfg.RetryAttempts is used up.
// Healthcheck(pool) plugs into readiness probes.
//
// # Configuration
//
//	type Config struct {
//		ConnectionString  string        `env:"PG_CONN_URL"`
//		MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//		MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
//		HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`
//		MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"`
//		MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`
//		RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`
//		Channels          []string      `env:"PG_LISTEN_CHANNELS" envSeparator:","`
//	}
//
// # Relaying Notifications
//
// A Listener takes one connection out of the pool for its lifetime and
// forwards every notification payload:
//
//	tx, rx := broadcast.NewChannel[string]()
//	_ = broker.Attach(rx)
//
//	l := pg.NewListener(pool, tx, broadcast.RawDecoder[string](), cfg.Channels, log)
//	g.Go(func() error { return l.Run(ctx) })
//
// Any session can then publish with:
//
//	SELECT pg_notify('events', '{"name":"order.created"}');
//
// When Run returns the sender is closed and the broker prunes the receiver.
package pg
