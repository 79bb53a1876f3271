package middleware

import (
	"fmt"
	"net/http"
)

const (
	KB int64 = 1024
	MB       = 1024 * KB
)

type BodyLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(r *http.Request) bool

	// MaxSize is the largest accepted body in bytes (default: 1MB)
	MaxSize int64

	// ErrorHandler replies when Content-Length already exceeds MaxSize
	ErrorHandler func(w http.ResponseWriter, r *http.Request, contentLength, maxSize int64)
}

// BodyLimit rejects request bodies larger than maxSize. Declared lengths are
// rejected up front with 413; undeclared bodies are cut off by
// http.MaxBytesReader, which makes the handler's read fail.
func BodyLimit(maxSize int64) func(http.Handler) http.Handler {
	return BodyLimitWithConfig(BodyLimitConfig{MaxSize: maxSize})
}

func BodyLimitWithConfig(cfg BodyLimitConfig) func(http.Handler) http.Handler {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = MB
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(w http.ResponseWriter, _ *http.Request, contentLength, maxSize int64) {
			msg := fmt.Sprintf("Request body too large. Size: %s, Maximum allowed: %s",
				formatBytes(contentLength), formatBytes(maxSize))
			http.Error(w, msg, http.StatusRequestEntityTooLarge)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > cfg.MaxSize {
				cfg.ErrorHandler(w, r, r.ContentLength, cfg.MaxSize)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func formatBytes(bytes int64) string {
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
