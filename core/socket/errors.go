package socket

import "errors"

var (
	ErrNilRegistry          = errors.New("socket: registry is required")
	ErrStreamingUnsupported = errors.New("socket: response writer does not support flushing")
	ErrConnectRejected      = errors.New("socket: connection rejected")
)
