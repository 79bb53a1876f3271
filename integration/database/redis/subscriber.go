package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// Subscriber relays Redis Pub/Sub messages into a broadcast channel.
type Subscriber[T any] struct {
	client   redis.UniversalClient
	tx       *broadcast.Sender[T]
	decode   broadcast.Decoder[T]
	channels []string
	logger   *slog.Logger
}

// NewSubscriber creates a subscriber for the given channels. Channel names
// containing glob characters are subscribed with PSUBSCRIBE.
// The subscriber owns tx and closes it when Run returns.
func NewSubscriber[T any](client redis.UniversalClient, tx *broadcast.Sender[T], decode broadcast.Decoder[T], channels []string, log *slog.Logger) *Subscriber[T] {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Subscriber[T]{
		client:   client,
		tx:       tx,
		decode:   decode,
		channels: channels,
		logger:   log.With(logger.Component("redis")),
	}
}

// Run subscribes and forwards every message until ctx is cancelled, the
// subscription breaks or the broadcast channel is closed. Payloads that fail
// to decode are logged and skipped.
func (s *Subscriber[T]) Run(ctx context.Context) error {
	defer s.tx.Close()

	if len(s.channels) == 0 {
		return ErrNoChannels
	}

	var plain, patterns []string
	for _, ch := range s.channels {
		if strings.ContainsAny(ch, "*?[") {
			patterns = append(patterns, ch)
		} else {
			plain = append(plain, ch)
		}
	}

	ps := s.client.Subscribe(ctx)
	defer ps.Close()

	if len(plain) > 0 {
		if err := ps.Subscribe(ctx, plain...); err != nil {
			return err
		}
	}
	if len(patterns) > 0 {
		if err := ps.PSubscribe(ctx, patterns...); err != nil {
			return err
		}
	}
	s.logger.InfoContext(ctx, "subscribed", slog.Any("channels", s.channels))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return ErrSubscriptionClosed
			}
			if err := s.forward(ctx, msg); err != nil {
				if errors.Is(err, broadcast.ErrChannelClosed) || errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Subscriber[T]) forward(ctx context.Context, msg *redis.Message) error {
	v, err := s.decode([]byte(msg.Payload))
	if err != nil {
		s.logger.WarnContext(ctx, "dropping undecodable message",
			logger.Channel(msg.Channel),
			logger.Error(err),
		)
		return nil
	}
	return s.tx.SendContext(ctx, broadcast.NewMessage(v))
}
