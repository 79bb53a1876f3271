package broadcast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/dmitrymomot/fanout/core/logger"
)

// ErrorKind classifies a failed write.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"
	KindClosed    ErrorKind = "closed"
	// KindSerialize means the message could not be encoded for the sink.
	// The sink stays registered.
	KindSerialize ErrorKind = "serialize"
)

// Fatal reports whether the failure ends the sink.
func (k ErrorKind) Fatal() bool {
	return k != KindSerialize
}

func classify(err error) ErrorKind {
	var netErr net.Error
	switch {
	case errors.Is(err, net.ErrClosed),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, io.EOF),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, syscall.ECONNRESET):
		return KindClosed
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return KindTimeout
	default:
		return KindTransport
	}
}

// FailureReport is emitted for every failed broadcast write.
type FailureReport struct {
	SinkID SinkID
	Kind   ErrorKind
	Err    error
	At     time.Time
}

// Reporter receives broadcast failures. Implementations must be safe for
// concurrent use; they are called from write tasks.
type Reporter interface {
	ReportFailure(ctx context.Context, report FailureReport)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, report FailureReport)

func (f ReporterFunc) ReportFailure(ctx context.Context, report FailureReport) {
	f(ctx, report)
}

type nopReporter struct{}

func (nopReporter) ReportFailure(context.Context, FailureReport) {}

// NewLogReporter reports failures as structured log records.
// Serialization failures are logged at error level, connection failures at
// warn level since a client going away is routine.
func NewLogReporter(log *slog.Logger) Reporter {
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("broadcast"))

	return ReporterFunc(func(ctx context.Context, report FailureReport) {
		level := slog.LevelWarn
		if !report.Kind.Fatal() {
			level = slog.LevelError
		}
		log.LogAttrs(ctx, level, "broadcast write failed",
			logger.SinkID(report.SinkID.String()),
			logger.Type(string(report.Kind)),
			logger.Error(report.Err),
		)
	})
}
