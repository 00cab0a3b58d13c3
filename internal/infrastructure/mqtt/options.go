package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sableworks/mqtick/internal/session"
)

// Connection constants.
const (
	// defaultOpTimeout is the maximum time to wait for publish, subscribe,
	// and unsubscribe acknowledgements.
	defaultOpTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 1000 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options for one connect attempt.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on the encryption flag)
//   - The per-attempt client identifier
//   - Authentication credentials (if provided)
//   - Clean session mode
//   - Connect timeout
//   - TLS configuration (if enabled)
//
// Auto-reconnect and connect-retry are deliberately disabled: the session
// lifecycle controller owns reconnection policy, so the library must report
// a lost connection rather than repair it behind the controller's back.
func buildClientOptions(broker session.BrokerInfo, clientID, username, password string, timeout time.Duration) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	// Broker URL
	scheme := "tcp"
	if broker.TLS {
		scheme = "ssl"
	}
	brokerURL := fmt.Sprintf("%s://%s:%d", scheme, broker.Host, broker.Port)
	opts.AddBroker(brokerURL)

	// Client identification - fresh per attempt
	opts.SetClientID(clientID)

	// Authentication (if credentials provided)
	if username != "" {
		opts.SetUsername(username)
		opts.SetPassword(password)
	}

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// The session owns the lifecycle; never reconnect on our own.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	// Connection timeout
	opts.SetConnectTimeout(timeout)

	// Keepalive - detects dead connections so the closed notification fires
	opts.SetKeepAlive(defaultKeepAlive)

	// Inbound handlers must observe arrival order
	opts.SetOrderMatters(true)

	// TLS configuration if enabled
	if broker.TLS {
		tlsConfig := &tls.Config{
			MinVersion: tlsMinVersion,
		}
		opts.SetTLSConfig(tlsConfig)
	}

	return opts
}
