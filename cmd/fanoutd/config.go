package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/fanout/core/logger"

	"github.com/dmitrymomot/fanout/core/server"
	"github.com/dmitrymomot/fanout/core/socket"
	"github.com/dmitrymomot/fanout/integration/database/pg"
	"github.com/dmitrymomot/fanout/integration/database/redis"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

type Config struct {
	AppName string `env:"APP_NAME" envDefault:"fanoutd"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`

	// Override the APP_ENV logging preset when set.
	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	// Heartbeat producer; zero interval disables it.
	HeartbeatInterval time.Duration `env:"FANOUT_HEARTBEAT_INTERVAL" envDefault:"0s"`
	HeartbeatMessage  string        `env:"FANOUT_HEARTBEAT_MESSAGE" envDefault:"heartbeat"`

	PublishMaxBytes int64 `env:"FANOUT_PUBLISH_MAX_BYTES" envDefault:"65536"`

	Broadcast broadcast.Config
	Socket    socket.Config
	Redis     redis.Config
	DB        pg.Config
	Server    server.Config
}

// loggerOptions returns the environment preset followed by the LOG_* overrides.
func (c Config) loggerOptions() ([]logger.Option, error) {
	opts := []logger.Option{logger.WithEnvironment(c.AppEnv, c.AppName)}

	switch c.LogFormat {
	case "":
	case "json":
		opts = append(opts, logger.WithJSONFormatter())
	case "text":
		opts = append(opts, logger.WithTextFormatter())
	default:
		return nil, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	if c.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		opts = append(opts, logger.WithLevel(level))
	}

	return opts, nil
}
