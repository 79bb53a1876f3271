package redis

import "errors"

var (
	// Connect errors.
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")

	// Subscriber errors. ErrSubscriptionClosed means the server or client
	// closed the Pub/Sub connection while the subscriber was still running.
	ErrNoChannels         = errors.New("no redis channels to subscribe to")
	ErrSubscriptionClosed = errors.New("redis subscription closed")
)
