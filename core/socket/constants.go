package socket

import "time"

const (
	DefaultBufferSize       = 1024
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 10 * time.Second
	DefaultPingInterval     = 30 * time.Second
	DefaultPongWait         = 60 * time.Second
	DefaultReadLimit        = 4096
	DefaultKeepAlive        = 30 * time.Second
)
