// Package redis connects to Redis and relays Pub/Sub messages into a
// broadcast channel.
//
// # Connecting
//
//	client, err := redis.Connect(ctx, cfg, log)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Connect validates the URL (redis:// or rediss://), then pings with
// exponential backoff until Redis answers, cfg.RetryAttempts is used up or
// cfg.ConnectTimeout passes. Healthcheck(client) plugs into readiness probes.
//
// # Configuration
//
//	type Config struct {
//		ConnectionURL  string        `env:"REDIS_URL"`
//		RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
//		RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
//		ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
//		Channels       []string      `env:"REDIS_CHANNELS" envSeparator:","`
//	}
//
// # Relaying Pub/Sub
//
// A Subscriber owns one broadcast sender. Every published payload is decoded
// and sent; the broker then fans it out to all connected clients:
//
//	tx, rx := broadcast.NewChannel[string]()
//	_ = broker.Attach(rx)
//
//	sub := redis.NewSubscriber(client, tx, broadcast.RawDecoder[string](), cfg.Channels, log)
//	g.Go(func() error { return sub.Run(ctx) })
//
// Channel names with glob characters (news.*) use pattern subscriptions.
// When Run returns the sender is closed, so the broker prunes the receiver.
//
// # Error Handling
//
//   - ErrFailedToParseRedisConnString: malformed URL or unsupported scheme
//   - ErrRedisNotReady: no successful ping within the retry budget
//   - ErrEmptyConnectionURL: no URL configured
//   - ErrHealthcheckFailed: health check ping failed
//   - ErrNoChannels: a subscriber was started without channels
//   - ErrSubscriptionClosed: the server side ended the subscription
package redis
