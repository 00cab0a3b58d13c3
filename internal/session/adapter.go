package session

import "time"

// MessageFunc receives an inbound message notification from the adapter.
// It may be invoked from any goroutine.
type MessageFunc func(topic string, payload []byte)

// ClosedFunc receives the adapter's connection-closed notification.
// The error describes why the connection ended, if known.
type ClosedFunc func(err error)

// Adapter is the protocol client handle the session drives. Implementations
// wrap a concrete MQTT library; the session never sees wire-level detail.
//
// The session owns the handle exclusively: at most one Adapter exists per
// Session at a time, and it is never shared outside the lifecycle controller.
//
// Message and closed notifications registered via SetHandlers are expected
// to fire on the adapter's own I/O goroutines, concurrently with the host
// tick. Payload slices passed to the message handler must remain valid after
// the call returns (implementations copy if their library reuses buffers).
type Adapter interface {
	// Connect performs the blocking protocol connect. The session calls it
	// off the tick thread with a fresh client identifier per attempt.
	Connect(clientID, username, password string, timeout time.Duration) error

	// Disconnect tears down the network connection. Safe to call when
	// already disconnected.
	Disconnect()

	// Publish sends a message. Synchronous; errors are surfaced to the
	// caller and never retried here.
	Publish(topic string, payload []byte, qos byte, retain bool) error

	// Subscribe registers topic filters at the broker. topics and qos are
	// parallel slices.
	Subscribe(topics []string, qos []byte) error

	// Unsubscribe removes topic filters at the broker.
	Unsubscribe(topics ...string) error

	// IsConnected reports whether the handle has a live broker session.
	IsConnected() bool

	// SetHandlers registers the notification callbacks. Replaces any
	// previously registered pair.
	SetHandlers(onMessage MessageFunc, onClosed ClosedFunc)

	// ClearHandlers unregisters the notification callbacks so no stale
	// callback fires after teardown.
	ClearHandlers()
}

// AdapterFactory constructs a protocol handle for the given broker.
// Construction validates the address but does not open the network
// connection; that happens in Adapter.Connect.
type AdapterFactory func(broker BrokerInfo) (Adapter, error)
