package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/fanout/core/logger"
	"github.com/dmitrymomot/fanout/pkg/broadcast"
)

// publishHandler queues the request body as one broadcast message.
// It replies 202 once the message is queued, not when it is delivered.
func publishHandler(tx *broadcast.Sender[string], log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "payload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		if len(body) == 0 {
			http.Error(w, "empty payload", http.StatusBadRequest)
			return
		}

		err = tx.SendContext(r.Context(), broadcast.NewMessage(string(body)))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusAccepted)
		case errors.Is(err, broadcast.ErrQueueFull):
			w.Header().Set("Retry-After", "1")
			http.Error(w, "queue full", http.StatusServiceUnavailable)
		case errors.Is(err, broadcast.ErrChannelClosed):
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			// Client went away while a bounded queue was blocking.
			log.WarnContext(r.Context(), "publish aborted", logger.Error(err))
			http.Error(w, "publish aborted", http.StatusServiceUnavailable)
		}
	})
}
