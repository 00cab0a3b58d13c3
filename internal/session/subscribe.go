package session

import "fmt"

// Subscribe registers a handler for messages on the specified topic and
// issues the broker-level subscription.
//
// Requires the Connected state; otherwise the call is logged and returns
// ErrNotConnected without touching the adapter. Registering the same handler
// reference twice for one topic is a no-op locally, but the adapter
// subscribe is issued unconditionally so the broker-side subscription is
// refreshed either way.
//
// Handlers run on the host tick thread, inside ProcessEvents, in
// registration order.
//
// Parameters:
//   - topic: The topic to subscribe to
//   - qos: Maximum QoS level for received messages (0, 1, or 2)
//   - handler: Callback invoked for each message
//
// Returns:
//   - error: nil on success, or a wrapped error describing the failure
func (s *Session) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	s.mu.Lock()
	handle := s.handle
	connected := s.state == StateConnected && handle != nil
	s.mu.Unlock()

	if !connected {
		s.logWarn("subscribe while not connected", "topic", topic)
		return ErrNotConnected
	}

	added := s.registry.add(topic, qos, handler)

	if err := handle.Subscribe([]string{topic}, []byte{qos}); err != nil {
		// Keep the registry consistent with the broker: an entry this call
		// created is removed again.
		if added {
			s.registry.remove(topic, handler)
		}
		s.logWarn("subscribe failed", "topic", topic, "error", err)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe removes subscriber callbacks for a topic.
//
// With a handler, only that reference is removed; the broker-level
// unsubscribe is issued when the topic's set becomes empty. With a nil
// handler the whole entry is removed and the broker-level unsubscribe is
// issued regardless of prior registry state.
//
// When not connected the registry is still updated but no adapter call is
// made; the broker subscription died with the connection.
//
// Returns:
//   - error: nil on success, or a wrapped error describing the failure
func (s *Session) Unsubscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}

	var release bool
	if handler == nil {
		s.registry.removeTopic(topic)
		release = true
	} else {
		_, release = s.registry.remove(topic, handler)
	}

	if !release {
		return nil
	}

	s.mu.Lock()
	handle := s.handle
	connected := s.state == StateConnected && handle != nil
	s.mu.Unlock()

	if !connected {
		return nil
	}

	if err := handle.Unsubscribe(topic); err != nil {
		s.logWarn("unsubscribe failed", "topic", topic, "error", err)
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

// SubscriptionCount returns the number of topics with at least one
// registered callback. Useful for monitoring and tests.
func (s *Session) SubscriptionCount() int {
	return s.registry.count()
}
