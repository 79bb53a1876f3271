package main

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// heartbeat sends text every interval until ctx ends. It owns tx.
func heartbeat(ctx context.Context, tx *broadcast.Sender[string], interval time.Duration, text string) error {
	defer tx.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := tx.SendContext(ctx, broadcast.NewMessage(text))
			switch {
			case err == nil, errors.Is(err, broadcast.ErrQueueFull):
				// A full queue means clients haven't caught up; skip this beat.
			case errors.Is(err, broadcast.ErrChannelClosed), ctx.Err() != nil:
				return nil
			default:
				return err
			}
		}
	}
}
