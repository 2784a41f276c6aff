package redis

import "errors"

var (
	// ErrInvalidConnectionURL is returned when the connection URL cannot be parsed.
	ErrInvalidConnectionURL = errors.New("redis: invalid connection URL")

	// ErrNotReady is returned when the server did not answer within the
	// configured attempts.
	ErrNotReady = errors.New("redis: server not ready")

	// ErrHealthcheckFailed is returned by the healthcheck probe.
	ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
)
