package session

import "errors"

// Domain-specific errors for session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when publish or subscribe is attempted
	// outside the Connected state.
	ErrNotConnected = errors.New("session: not connected")

	// ErrConnectionFailed is carried by the connectionFailed event when a
	// connect attempt is refused, times out, or the handle cannot be built.
	ErrConnectionFailed = errors.New("session: connection failed")

	// ErrClosed is returned when operations are attempted after Close.
	ErrClosed = errors.New("session: closed")

	// ErrPublishFailed is returned when the adapter rejects a publish.
	ErrPublishFailed = errors.New("session: publish failed")

	// ErrSubscribeFailed is returned when the adapter rejects a subscribe.
	ErrSubscribeFailed = errors.New("session: subscribe failed")

	// ErrUnsubscribeFailed is returned when the adapter rejects an unsubscribe.
	ErrUnsubscribeFailed = errors.New("session: unsubscribe failed")

	// ErrInvalidQoS is returned when an invalid QoS level is specified.
	// Valid QoS levels are 0, 1, or 2.
	ErrInvalidQoS = errors.New("session: invalid QoS level (must be 0, 1, or 2)")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("session: topic cannot be empty")

	// ErrInvalidConfig is returned by New when the configuration is unusable.
	ErrInvalidConfig = errors.New("session: invalid configuration")
)
