package session

import "fmt"

// Publish sends a message to the specified topic.
//
// Requires the Connected state; otherwise the call is logged and returns
// ErrNotConnected without touching the adapter. The publish is forwarded to
// the adapter synchronously — failure is surfaced through the returned
// error, logged, and never retried here.
//
// Parameters:
//   - topic: The topic to publish to
//   - payload: The message payload
//   - qos: Quality of Service level (0, 1, or 2)
//   - retain: Whether the broker should retain the message for new subscribers
//
// Returns:
//   - error: nil on success, or a wrapped error describing the failure
func (s *Session) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}

	s.mu.Lock()
	handle := s.handle
	connected := s.state == StateConnected && handle != nil
	s.mu.Unlock()

	if !connected {
		s.logWarn("publish while not connected", "topic", topic)
		return ErrNotConnected
	}

	if err := handle.Publish(topic, payload, qos, retain); err != nil {
		s.logWarn("publish failed", "topic", topic, "error", err)
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// PublishString is a convenience method that publishes a string payload.
//
// This is equivalent to calling Publish with []byte(payload).
func (s *Session) PublishString(topic string, payload string, qos byte, retain bool) error {
	return s.Publish(topic, []byte(payload), qos, retain)
}
