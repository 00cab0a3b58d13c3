package session

import "time"

// QoS levels passed through to the adapter unmodified.
const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
	QoSExactlyOnce byte = 2
)

// maxQoS is the maximum QoS level supported.
const maxQoS = 2

// Default timing values applied by New when the corresponding Config field
// is zero.
const (
	// defaultConnectDelay is the pause before the blocking dial, giving
	// the host time to repaint first.
	defaultConnectDelay = 500 * time.Millisecond

	// defaultConnectTimeout bounds the blocking dial.
	defaultConnectTimeout = 10 * time.Second

	// defaultDisconnectWait bounds the one-tick suspension before a
	// disconnect teardown when the host has stopped ticking.
	defaultDisconnectWait = 100 * time.Millisecond

	// defaultClientIDPrefix prefixes generated client identifiers.
	defaultClientIDPrefix = "mqtick"
)

// BrokerInfo identifies the broker endpoint an adapter connects to.
type BrokerInfo struct {
	Host string
	Port int
	TLS  bool
}

// Credentials are optional broker credentials. An empty Username means
// anonymous access.
type Credentials struct {
	Username string
	Password string
}

// Config controls a Session's lifecycle behaviour.
type Config struct {
	Broker BrokerInfo
	Auth   Credentials

	// ConnectDelay is the suspension before a connect attempt issues the
	// blocking dial. Zero means the 500 ms default.
	ConnectDelay time.Duration

	// ConnectTimeout bounds the blocking dial. Zero means 10 s.
	ConnectTimeout time.Duration

	// DisconnectWait bounds the one-tick suspension before disconnect
	// teardown. Zero means 100 ms.
	DisconnectWait time.Duration

	// DefaultQoS is used for auto-subscriptions.
	DefaultQoS byte

	// ClientIDPrefix prefixes the random client identifier generated for
	// each connect attempt.
	ClientIDPrefix string

	// AutoSubscribe lists topics subscribed at the broker immediately
	// after a successful connect.
	AutoSubscribe []string
}

// withDefaults fills zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.ConnectDelay == 0 {
		c.ConnectDelay = defaultConnectDelay
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.DisconnectWait == 0 {
		c.DisconnectWait = defaultDisconnectWait
	}
	if c.ClientIDPrefix == "" {
		c.ClientIDPrefix = defaultClientIDPrefix
	}
	return c
}
