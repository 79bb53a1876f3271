package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")

	// ErrListen wraps bind failures, such as the port already in use.
	ErrListen = errors.New("failed to bind listener")

	ErrHTTPServer     = errors.New("HTTP server error")
	ErrHTTPShutdown   = errors.New("HTTP shutdown error")
	ErrFailedLoadCert = errors.New("failed to load certificate")
)
