package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for mqtick.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Broker    BrokerConfig    `yaml:"broker"`
	Auth      AuthConfig      `yaml:"auth"`
	Session   SessionConfig   `yaml:"session"`
	Tick      TickConfig      `yaml:"tick"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BrokerConfig contains MQTT broker connection details.
type BrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

// AuthConfig contains MQTT authentication credentials.
// Empty username means anonymous access.
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SessionConfig contains connection lifecycle settings.
type SessionConfig struct {
	// ConnectDelayMs is the pause before a connect attempt issues the
	// blocking dial, giving the host a chance to repaint first.
	ConnectDelayMs int `yaml:"connect_delay_ms"`

	// ConnectTimeoutMs is the maximum time the blocking dial may take.
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`

	// DisconnectWaitMs bounds the one-tick suspension before teardown
	// when the host has stopped calling ProcessEvents.
	DisconnectWaitMs int `yaml:"disconnect_wait_ms"`

	// DefaultQoS is the QoS level used for auto-subscriptions.
	DefaultQoS int `yaml:"default_qos"`

	// ClientIDPrefix prefixes the random client identifier generated
	// for each connect attempt.
	ClientIDPrefix string `yaml:"client_id_prefix"`

	// AutoSubscribe lists topics subscribed at the broker immediately
	// after a successful connect.
	AutoSubscribe []string `yaml:"auto_subscribe"`
}

// TickConfig contains host tick loop settings.
type TickConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// JournalConfig contains lifecycle journal (SQLite) settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB connection settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads, parses, and validates the configuration file at path.
//
// Values not present in the file keep their defaults, and a small set of
// environment variables (MQTICK_SECTION_KEY) override the file afterwards.
// For example: MQTICK_BROKER_HOST, MQTICK_AUTH_PASSWORD.
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default session timing values (milliseconds).
const (
	defaultConnectDelayMs   = 500
	defaultConnectTimeoutMs = 10000
	defaultDisconnectWaitMs = 100
	defaultTickIntervalMs   = 50
)

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Broker: BrokerConfig{
			Host: "localhost",
			Port: 1883,
		},
		Session: SessionConfig{
			ConnectDelayMs:   defaultConnectDelayMs,
			ConnectTimeoutMs: defaultConnectTimeoutMs,
			DisconnectWaitMs: defaultDisconnectWaitMs,
			DefaultQoS:       2,
			ClientIDPrefix:   "mqtick",
		},
		Tick: TickConfig{
			IntervalMs: defaultTickIntervalMs,
		},
		Journal: JournalConfig{
			Enabled:     false,
			Path:        "./data/mqtick.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Telemetry: TelemetryConfig{
			Enabled:       false,
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MQTICK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Broker
	if v := os.Getenv("MQTICK_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}

	// Auth
	if v := os.Getenv("MQTICK_AUTH_USERNAME"); v != "" {
		cfg.Auth.Username = v
	}
	if v := os.Getenv("MQTICK_AUTH_PASSWORD"); v != "" {
		cfg.Auth.Password = v
	}

	// Journal
	if v := os.Getenv("MQTICK_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Telemetry
	if v := os.Getenv("MQTICK_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker validation
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}

	// Session validation
	if c.Session.ConnectDelayMs < 0 {
		errs = append(errs, "session.connect_delay_ms must not be negative")
	}
	if c.Session.ConnectTimeoutMs <= 0 {
		errs = append(errs, "session.connect_timeout_ms must be positive")
	}
	if c.Session.DisconnectWaitMs < 0 {
		errs = append(errs, "session.disconnect_wait_ms must not be negative")
	}
	if c.Session.DefaultQoS < 0 || c.Session.DefaultQoS > 2 {
		errs = append(errs, "session.default_qos must be 0, 1, or 2")
	}

	// Tick validation
	if c.Tick.IntervalMs <= 0 {
		errs = append(errs, "tick.interval_ms must be positive")
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal is enabled")
	}

	// Telemetry validation
	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			errs = append(errs, "telemetry.url is required when telemetry is enabled")
		}
		if c.Telemetry.Token == "" {
			errs = append(errs, "telemetry.token is required when telemetry is enabled (set MQTICK_TELEMETRY_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectDelay returns the connect delay as a Duration.
func (c *Config) GetConnectDelay() time.Duration {
	return time.Duration(c.Session.ConnectDelayMs) * time.Millisecond
}

// GetConnectTimeout returns the connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Session.ConnectTimeoutMs) * time.Millisecond
}

// GetDisconnectWait returns the disconnect wait bound as a Duration.
func (c *Config) GetDisconnectWait() time.Duration {
	return time.Duration(c.Session.DisconnectWaitMs) * time.Millisecond
}

// GetTickInterval returns the host tick interval as a Duration.
func (c *Config) GetTickInterval() time.Duration {
	return time.Duration(c.Tick.IntervalMs) * time.Millisecond
}
