package mqtt

import "errors"

// Domain-specific errors for adapter operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected adapter.
	ErrNotConnected = errors.New("mqtt: adapter not connected")

	// ErrConnectFailed is returned when a connect attempt fails.
	ErrConnectFailed = errors.New("mqtt: connect failed")

	// ErrPublishFailed is returned when a publish operation fails.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when a subscribe operation fails.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed is returned when an unsubscribe operation fails.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidBroker is returned when the broker endpoint is unusable.
	ErrInvalidBroker = errors.New("mqtt: invalid broker endpoint")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("mqtt: operation timed out")
)
