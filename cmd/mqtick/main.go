// mqtick - tick-driven MQTT session manager
//
// This is the demonstration host for the mqtick session library. It runs a
// fixed-rate update tick, the way an embedded UI or game loop would, and
// drives one broker session through it: connect, subscribe, dispatch
// inbound messages once per frame, disconnect on shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sableworks/mqtick/internal/infrastructure/config"
	"github.com/sableworks/mqtick/internal/infrastructure/logging"
	"github.com/sableworks/mqtick/internal/infrastructure/mqtt"
	"github.com/sableworks/mqtick/internal/infrastructure/telemetry"
	"github.com/sableworks/mqtick/internal/journal"
	"github.com/sableworks/mqtick/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// statsSampleTicks is how many frames pass between telemetry samples.
const statsSampleTicks = 100

// heartbeatTicks is how many frames pass between heartbeat publishes.
const heartbeatTicks = 200

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting mqtick",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	brokerAddr := fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port)

	// Open lifecycle journal (optional)
	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(ctx, journal.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			log.Info("closing journal")
			if closeErr := store.Close(); closeErr != nil {
				log.Error("error closing journal", "error", closeErr)
			}
		}()
		log.Info("journal opened", "path", cfg.Journal.Path)
	} else {
		log.Info("journal disabled")
	}

	// Connect to InfluxDB (optional)
	var tel *telemetry.Client
	if cfg.Telemetry.Enabled {
		tel, err = telemetry.Connect(ctx, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting telemetry: %w", err)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := tel.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		log.Info("telemetry connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)

		tel.SetOnError(func(err error) {
			log.Error("telemetry write error", "error", err)
		})
	} else {
		log.Info("telemetry disabled")
	}

	// Build the session
	sess, err := session.New(session.Config{
		Broker: session.BrokerInfo{
			Host: cfg.Broker.Host,
			Port: cfg.Broker.Port,
			TLS:  cfg.Broker.TLS,
		},
		Auth: session.Credentials{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		},
		ConnectDelay:   cfg.GetConnectDelay(),
		ConnectTimeout: cfg.GetConnectTimeout(),
		DisconnectWait: cfg.GetDisconnectWait(),
		DefaultQoS:     byte(cfg.Session.DefaultQoS),
		ClientIDPrefix: cfg.Session.ClientIDPrefix,
		AutoSubscribe:  cfg.Session.AutoSubscribe,
	}, mqtt.Factory)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	sess.SetLogger(log.With("component", "session"))
	defer func() {
		log.Info("closing session")
		if closeErr := sess.Close(); closeErr != nil {
			log.Error("error closing session", "error", closeErr)
		}
	}()

	wireLifecycle(ctx, sess, store, tel, log, brokerAddr)

	// Demo subscription: echo anything on mqtick/demo once connected.
	sess.OnConnectionSucceeded(func() {
		subErr := sess.Subscribe("mqtick/demo", byte(cfg.Session.DefaultQoS),
			func(topic string, payload []byte) error {
				log.Info("message dispatched", "topic", topic, "payload", string(payload))
				return nil
			})
		if subErr != nil {
			log.Warn("demo subscription failed", "error", subErr)
		}
	})

	sess.Connect()
	log.Info("connect requested, entering tick loop",
		"broker", brokerAddr,
		"tick_interval", cfg.GetTickInterval(),
	)

	// The host tick: ProcessEvents exactly once per frame.
	ticker := time.NewTicker(cfg.GetTickInterval())
	defer ticker.Stop()

	tickCount := 0
	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			// Deferred Close() calls run in reverse order:
			// session, then telemetry, then journal.
			log.Info("mqtick stopped")
			return nil
		case <-ticker.C:
			sess.ProcessEvents()

			tickCount++
			if tickCount%heartbeatTicks == 0 && sess.State() == session.StateConnected {
				hb := fmt.Sprintf(`{"tick":%d,"ts":%q}`, tickCount, time.Now().UTC().Format(time.RFC3339))
				if pubErr := sess.PublishString("mqtick/heartbeat", hb, 0, false); pubErr != nil {
					log.Warn("heartbeat publish failed", "error", pubErr)
				}
			}
			if tel != nil && tickCount%statsSampleTicks == 0 {
				stats := sess.Stats()
				tel.WriteTickStats(brokerAddr, stats.Dispatched, stats.Dropped, stats.Pending)
			}
		}
	}
}

// wireLifecycle registers event handlers that feed the journal and
// telemetry sinks. Both sinks are optional; nil means skip.
func wireLifecycle(ctx context.Context, sess *session.Session, store *journal.Store, tel *telemetry.Client, log *logging.Logger, brokerAddr string) {
	record := func(event, detail string) {
		if store != nil {
			if err := store.Record(ctx, event, brokerAddr, detail); err != nil {
				log.Error("journal write failed", "event", event, "error", err)
			}
		}
		if tel != nil {
			tel.WriteLifecycleEvent(brokerAddr, event)
		}
	}

	var connectStarted time.Time

	sess.OnConnecting(func() {
		connectStarted = time.Now()
		record(journal.EventConnecting, "")
	})
	sess.OnConnectionSucceeded(func() {
		log.Info("broker session established", "broker", brokerAddr)
		record(journal.EventConnected, "")
		if tel != nil && !connectStarted.IsZero() {
			tel.WriteConnectDuration(brokerAddr, time.Since(connectStarted), true)
		}
	})
	sess.OnConnectionFailed(func(err error) {
		log.Warn("broker connect failed", "broker", brokerAddr, "error", err)
		record(journal.EventFailed, err.Error())
		if tel != nil && !connectStarted.IsZero() {
			tel.WriteConnectDuration(brokerAddr, time.Since(connectStarted), false)
		}
	})
	sess.OnConnectionLost(func() {
		log.Warn("broker session lost", "broker", brokerAddr)
		record(journal.EventLost, "")
	})
	sess.OnDisconnected(func() {
		log.Info("broker session closed", "broker", brokerAddr)
		record(journal.EventDisconnected, "")
	})
}

// getConfigPath returns the configuration file path.
// Uses MQTICK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MQTICK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
