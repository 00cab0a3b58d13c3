package mqtt

import (
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sableworks/mqtick/internal/session"
)

// Maximum payload size for MQTT messages (1MB).
// This prevents resource exhaustion and aligns with typical broker limits.
const maxPayloadSize = 1 << 20 // 1MB

// Adapter implements session.Adapter on paho.mqtt.golang.
//
// Construction validates the broker endpoint but opens nothing; the paho
// client is built inside Connect because the client identifier and
// credentials are fixed per attempt.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Inbound message and connection-lost notifications fire on paho's own
//     goroutines and are forwarded to the handlers registered via
//     SetHandlers, or silently dropped while none are registered.
type Adapter struct {
	broker session.BrokerInfo

	// client is rebuilt on each Connect. Guarded because the session's
	// publish path and lifecycle tasks run on different goroutines.
	mu     sync.Mutex
	client pahomqtt.Client

	handlerMu sync.RWMutex
	onMessage session.MessageFunc
	onClosed  session.ClosedFunc
}

// Factory adapts NewAdapter to the session.AdapterFactory contract.
func Factory(broker session.BrokerInfo) (session.Adapter, error) {
	return NewAdapter(broker)
}

// NewAdapter creates an adapter for the given broker endpoint.
//
// Returns:
//   - *Adapter: Ready for Connect; no network activity happens here
//   - error: If the endpoint is invalid
func NewAdapter(broker session.BrokerInfo) (*Adapter, error) {
	if broker.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBroker)
	}
	if broker.Port < 1 || broker.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidBroker, broker.Port)
	}
	return &Adapter{broker: broker}, nil
}

// Connect performs the blocking protocol connect with a fresh paho client.
//
// Parameters:
//   - clientID: Client identifier for this attempt
//   - username, password: Optional credentials (empty username = anonymous)
//   - timeout: Bound on the blocking dial
//
// Returns:
//   - error: nil on success, or a wrapped error describing the failure
func (a *Adapter) Connect(clientID, username, password string, timeout time.Duration) error {
	opts := buildClientOptions(a.broker, clientID, username, password, timeout)

	// Inbound messages route through the default handler: subscriptions are
	// issued without per-route callbacks, so every message lands here.
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		a.notifyMessage(msg)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		a.notifyClosed(err)
	})

	client := pahomqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w: %w after %v", ErrConnectFailed, ErrTimeout, timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	a.mu.Lock()
	a.client = client
	a.mu.Unlock()

	return nil
}

// Disconnect tears down the network connection with a quiesce period for
// pending operations. Safe to call when already disconnected.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return
	}
	client.Disconnect(defaultDisconnectQuiesce)
}

// IsConnected reports whether the adapter has a live broker session.
func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	return client != nil && client.IsConnected()
}

// Publish sends a message and waits for the acknowledgement appropriate to
// its QoS level.
func (a *Adapter) Publish(topic string, payload []byte, qos byte, retain bool) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	client := a.connectedClient()
	if client == nil {
		return ErrNotConnected
	}

	token := client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrPublishFailed, ErrTimeout, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}

// Subscribe registers topic filters at the broker. topics and qos are
// parallel slices; inbound messages route to the handler registered via
// SetHandlers.
func (a *Adapter) Subscribe(topics []string, qos []byte) error {
	if len(topics) == 0 {
		return nil
	}
	if len(topics) != len(qos) {
		return fmt.Errorf("%w: %d topics but %d QoS levels", ErrSubscribeFailed, len(topics), len(qos))
	}

	client := a.connectedClient()
	if client == nil {
		return ErrNotConnected
	}

	filters := make(map[string]byte, len(topics))
	for i, topic := range topics {
		filters[topic] = qos[i]
	}

	// nil per-route callback: delivery goes through the default handler.
	token := client.SubscribeMultiple(filters, nil)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrSubscribeFailed, ErrTimeout, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	return nil
}

// Unsubscribe removes topic filters at the broker.
func (a *Adapter) Unsubscribe(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}

	client := a.connectedClient()
	if client == nil {
		return ErrNotConnected
	}

	token := client.Unsubscribe(topics...)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: %w after %v", ErrUnsubscribeFailed, ErrTimeout, defaultOpTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsubscribeFailed, err)
	}

	return nil
}

// SetHandlers registers the notification callbacks, replacing any previous
// pair.
func (a *Adapter) SetHandlers(onMessage session.MessageFunc, onClosed session.ClosedFunc) {
	a.handlerMu.Lock()
	a.onMessage = onMessage
	a.onClosed = onClosed
	a.handlerMu.Unlock()
}

// ClearHandlers unregisters the notification callbacks so no stale callback
// fires after teardown.
func (a *Adapter) ClearHandlers() {
	a.handlerMu.Lock()
	a.onMessage = nil
	a.onClosed = nil
	a.handlerMu.Unlock()
}

// connectedClient returns the live paho client, or nil when disconnected.
func (a *Adapter) connectedClient() pahomqtt.Client {
	a.mu.Lock()
	client := a.client
	a.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return nil
	}
	return client
}

// notifyMessage forwards an inbound message to the registered handler.
// The payload is copied: paho may reuse its buffer after the callback
// returns, and the session queues messages across ticks.
func (a *Adapter) notifyMessage(msg pahomqtt.Message) {
	a.handlerMu.RLock()
	onMessage := a.onMessage
	a.handlerMu.RUnlock()

	if onMessage == nil {
		return
	}
	payload := make([]byte, len(msg.Payload()))
	copy(payload, msg.Payload())
	onMessage(msg.Topic(), payload)
}

// notifyClosed forwards the connection-lost notification to the registered
// handler.
func (a *Adapter) notifyClosed(err error) {
	a.handlerMu.RLock()
	onClosed := a.onClosed
	a.handlerMu.RUnlock()

	if onClosed == nil {
		return
	}
	onClosed(err)
}
