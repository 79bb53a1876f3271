package pg

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// Listener relays PostgreSQL NOTIFY payloads into a broadcast channel.
type Listener[T any] struct {
	pool     *pgxpool.Pool
	tx       *broadcast.Sender[T]
	decode   broadcast.Decoder[T]
	channels []string
	logger   *slog.Logger
}

// NewListener creates a listener for the given channels.
// The listener owns tx and closes it when Run returns.
func NewListener[T any](pool *pgxpool.Pool, tx *broadcast.Sender[T], decode broadcast.Decoder[T], channels []string, log *slog.Logger) *Listener[T] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Listener[T]{
		pool:     pool,
		tx:       tx,
		decode:   decode,
		channels: channels,
		logger:   log.With(logger.Component("pg")),
	}
}

// Run holds one pool connection, issues LISTEN for every channel and forwards
// notifications until ctx is cancelled or the broadcast channel is closed.
func (l *Listener[T]) Run(ctx context.Context) error {
	defer l.tx.Close()

	if len(l.channels) == 0 {
		return ErrNoChannels
	}

	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return errors.Join(ErrFailedToOpenDBConnection, err)
	}
	// LISTEN state is per session; the connection never returns to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.WithoutCancel(ctx))

	for _, ch := range l.channels {
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ch}.Sanitize()); err != nil {
			return err
		}
	}
	l.logger.InfoContext(ctx, "listening", slog.Any("channels", l.channels))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		v, err := l.decode([]byte(n.Payload))
		if err != nil {
			l.logger.WarnContext(ctx, "dropping undecodable notification",
				logger.Channel(n.Channel),
				logger.Error(err),
			)
			continue
		}
		if err := l.tx.SendContext(ctx, broadcast.NewMessage(v)); err != nil {
			if errors.Is(err, broadcast.ErrChannelClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}
