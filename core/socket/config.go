package socket

import "time"

// Config holds connection settings for the websocket and stream handlers.
type Config struct {
	ReadBufferSize   int           `env:"WS_READ_BUFFER_SIZE" envDefault:"1024"`
	WriteBufferSize  int           `env:"WS_WRITE_BUFFER_SIZE" envDefault:"1024"`
	HandshakeTimeout time.Duration `env:"WS_HANDSHAKE_TIMEOUT" envDefault:"10s"`
	WriteTimeout     time.Duration `env:"WS_WRITE_TIMEOUT" envDefault:"10s"`
	PingInterval     time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	PongWait         time.Duration `env:"WS_PONG_WAIT" envDefault:"60s"`
	ReadLimit        int64         `env:"WS_READ_LIMIT" envDefault:"4096"`
	KeepAlive        time.Duration `env:"SSE_KEEPALIVE" envDefault:"30s"`

	// Hosts allowed in the Origin header. Empty keeps the same-origin check.
	AllowedOrigins []string `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		ReadBufferSize:   DefaultBufferSize,
		WriteBufferSize:  DefaultBufferSize,
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		PingInterval:     DefaultPingInterval,
		PongWait:         DefaultPongWait,
		ReadLimit:        DefaultReadLimit,
		KeepAlive:        DefaultKeepAlive,
	}
}

// Options converts the configuration into handler options.
func (c Config) Options() []Option {
	opts := []Option{
		WithReadBuffer(c.ReadBufferSize),
		WithWriteBuffer(c.WriteBufferSize),
		WithHandshakeTimeout(c.HandshakeTimeout),
		WithWriteTimeout(c.WriteTimeout),
		WithPing(c.PingInterval, c.PongWait),
		WithReadLimit(c.ReadLimit),
		WithKeepAlive(c.KeepAlive),
	}
	if len(c.AllowedOrigins) > 0 {
		opts = append(opts, WithAllowedOrigins(c.AllowedOrigins...))
	}
	return opts
}
