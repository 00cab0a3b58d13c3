package session

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is the connection lifecycle state.
type State int

// Lifecycle states. Exactly one connect attempt and one disconnect attempt
// may be in flight at a time.
const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnecting
)

// String returns the state name for logging.
func (st State) String() string {
	switch st {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	Info(msg string, args ...any)
}

// Session is the connection lifecycle controller. It owns at most one
// adapter handle, coordinates the adapter's I/O goroutines with the host
// tick, and dispatches inbound messages to per-topic subscriber callbacks.
//
// Thread Safety:
//   - Connect, Disconnect, Close, Subscribe, Unsubscribe, Publish and the
//     On* registrations are safe from any goroutine.
//   - ProcessEvents must be called from exactly one goroutine (the host
//     tick), once per frame, never overlapping with itself.
type Session struct {
	cfg     Config
	factory AdapterFactory

	// mu guards the lifecycle state, the handle, and the task generation
	// counters. Never held across a blocking adapter call.
	mu                 sync.Mutex
	state              State
	handle             Adapter
	connectGen         uint64
	disconnectGen      uint64
	deferredDisconnect bool
	closed             bool

	// quit is closed by Close to abandon every pending delayed task.
	quit chan struct{}

	// queue is the only cross-thread message handoff; lost is the
	// connection-lost flag, set by the adapter's closed notification and
	// consumed by the next ProcessEvents pass.
	queue inboundQueue
	lost  atomic.Bool

	registry *topicRegistry
	events   lifecycleEvents
	stats    statCounters

	// tick is the per-frame barrier: ProcessEvents closes and replaces it,
	// releasing delayed disconnect tasks waiting for the next tick.
	tickMu sync.Mutex
	tick   chan struct{}

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a Session for one broker connection. The host owns the
// returned Session; singularity is by construction — the adapter handle
// lives inside the Session and is never exposed.
//
// Returns:
//   - *Session: Ready to Connect; no network activity happens here
//   - error: If the factory is missing or the broker endpoint is invalid
func New(cfg Config, factory AdapterFactory) (*Session, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: adapter factory is required", ErrInvalidConfig)
	}
	if cfg.Broker.Host == "" {
		return nil, fmt.Errorf("%w: broker host is required", ErrInvalidConfig)
	}
	if cfg.Broker.Port < 1 || cfg.Broker.Port > 65535 {
		return nil, fmt.Errorf("%w: broker port must be between 1 and 65535", ErrInvalidConfig)
	}
	if cfg.DefaultQoS > maxQoS {
		return nil, fmt.Errorf("%w: default QoS must be 0, 1, or 2", ErrInvalidConfig)
	}

	return &Session{
		cfg:      cfg.withDefaults(),
		factory:  factory,
		quit:     make(chan struct{}),
		tick:     make(chan struct{}),
		registry: newTopicRegistry(),
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetLogger sets a logger for lifecycle and dispatch logging.
// If not set, the session is silent.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// Connect starts an asynchronous connect attempt and returns immediately.
//
// Already Connected: no-op. An attempt already in flight is superseded: its
// pending work is abandoned, but an adapter handle it created is kept for
// this attempt to reuse. The attempt itself waits the configured connect
// delay, constructs a handle if none exists, then issues the blocking dial
// with a fresh random client identifier. The outcome is reported through the
// connectionSucceeded or connectionFailed events, never as a return value.
func (s *Session) Connect() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.state == StateConnected {
		s.mu.Unlock()
		return
	}
	s.connectGen++
	gen := s.connectGen
	s.state = StateConnecting
	s.mu.Unlock()

	s.logInfo("connect requested", "broker", s.brokerAddr())
	s.events.fireConnecting(s)

	go s.runConnect(gen)
}

// runConnect is one cancellable connect attempt. gen identifies it; a newer
// Connect call bumps the session counter and this attempt abandons its work
// at the next checkpoint.
func (s *Session) runConnect(gen uint64) {
	// Suspension before the blocking dial so the host can repaint.
	timer := time.NewTimer(s.cfg.ConnectDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.quit:
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.connectGen {
		s.mu.Unlock()
		return
	}
	handle := s.handle
	s.mu.Unlock()

	if handle == nil {
		created, err := s.factory(s.cfg.Broker)
		if err != nil {
			s.finishConnectFailure(gen, fmt.Errorf("%w: %w", ErrConnectionFailed, err))
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		// Store the handle even when this attempt has been superseded:
		// cancellation must not discard a handle that already exists; the
		// successor reuses it.
		s.handle = created
		stale := gen != s.connectGen
		s.mu.Unlock()
		if stale {
			return
		}
		handle = created
	}

	// A superseded attempt may have finished the dial on this handle.
	if handle.IsConnected() {
		s.completeConnect(gen, handle, true)
		return
	}

	clientID := s.nextClientID()
	if err := handle.Connect(clientID, s.cfg.Auth.Username, s.cfg.Auth.Password, s.cfg.ConnectTimeout); err != nil {
		s.finishConnectFailure(gen, fmt.Errorf("%w: %w", ErrConnectionFailed, err))
		return
	}

	s.completeConnect(gen, handle, false)
}

// finishConnectFailure discards the handle, returns to Idle, and fires
// connectionFailed — unless the attempt was superseded, in which case the
// successor owns the outcome.
func (s *Session) finishConnectFailure(gen uint64, err error) {
	s.mu.Lock()
	if s.closed || gen != s.connectGen {
		s.mu.Unlock()
		return
	}
	s.handle = nil
	s.state = StateIdle
	s.deferredDisconnect = false
	s.mu.Unlock()

	s.logWarn("connect attempt failed", "broker", s.brokerAddr(), "error", err)
	s.events.fireFailed(s, err)
}

// completeConnect registers the adapter notifications, transitions to
// Connected, fires connectionSucceeded, and performs auto-subscriptions.
// silent handles the case where a superseded attempt already dialled this
// handle: the state is fixed up without re-firing events.
func (s *Session) completeConnect(gen uint64, handle Adapter, silent bool) {
	handle.SetHandlers(s.onInboundMessage, s.onConnectionClosed)

	s.mu.Lock()
	if s.closed || gen != s.connectGen {
		s.mu.Unlock()
		return
	}
	s.state = StateConnected
	deferred := s.deferredDisconnect
	s.deferredDisconnect = false
	s.mu.Unlock()

	if !silent {
		s.logInfo("connected", "broker", s.brokerAddr())
		s.events.fireSucceeded(s)
		s.autoSubscribe(handle)
	}

	// A disconnect requested mid-attempt was deferred until resolution.
	if deferred {
		s.Disconnect()
	}
}

// autoSubscribe issues the configured broker-level subscriptions. Local
// callbacks are the host's business; it typically registers them from an
// OnConnectionSucceeded handler.
func (s *Session) autoSubscribe(handle Adapter) {
	if len(s.cfg.AutoSubscribe) == 0 {
		return
	}
	qos := make([]byte, len(s.cfg.AutoSubscribe))
	for i := range qos {
		qos[i] = s.cfg.DefaultQoS
	}
	if err := handle.Subscribe(s.cfg.AutoSubscribe, qos); err != nil {
		s.logWarn("auto-subscribe failed", "topics", s.cfg.AutoSubscribe, "error", err)
	}
}

// Disconnect starts an asynchronous controlled disconnect and returns
// immediately.
//
// No handle: no-op. During an in-flight connect the request is deferred
// until that attempt resolves. Otherwise any in-flight disconnect is
// superseded and a fresh one runs: a one-tick suspension (so the host can
// update) followed by teardown — notifications unregistered, all topics
// unsubscribed, adapter disconnected, handle discarded, `disconnected`
// fired.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.closed || s.handle == nil {
		s.mu.Unlock()
		return
	}
	if s.state == StateConnecting {
		s.deferredDisconnect = true
		s.mu.Unlock()
		s.logInfo("disconnect deferred until connect attempt resolves")
		return
	}
	s.disconnectGen++
	gen := s.disconnectGen
	s.state = StateDisconnecting
	s.mu.Unlock()

	s.logInfo("disconnect requested", "broker", s.brokerAddr())
	go s.runDisconnect(gen)
}

// runDisconnect is one cancellable disconnect task.
func (s *Session) runDisconnect(gen uint64) {
	// One-tick suspension; the timer bounds the wait when the host has
	// stopped calling ProcessEvents.
	timer := time.NewTimer(s.cfg.DisconnectWait)
	defer timer.Stop()
	select {
	case <-s.nextTick():
	case <-timer.C:
	case <-s.quit:
		return
	}

	s.mu.Lock()
	if s.closed || gen != s.disconnectGen || s.state != StateDisconnecting {
		s.mu.Unlock()
		return
	}
	handle := s.handle
	s.handle = nil
	s.state = StateIdle
	s.mu.Unlock()

	s.teardown(handle)
	s.logInfo("disconnected", "broker", s.brokerAddr())
	s.events.fireDisconnected(s)
}

// Close performs the final synchronous disconnect-and-cleanup for process
// shutdown: every pending delayed task is abandoned, notifications are
// unregistered, and the adapter is torn down before Close returns, so no
// dangling adapter callback survives. The Session is unusable afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.connectGen++
	s.disconnectGen++
	close(s.quit)
	handle := s.handle
	s.handle = nil
	s.state = StateIdle
	s.deferredDisconnect = false
	s.mu.Unlock()

	s.teardown(handle)
	if handle != nil {
		s.logInfo("closed", "broker", s.brokerAddr())
		s.events.fireDisconnected(s)
	}
	return nil
}

// teardown unregisters notifications, drops the local registry, and closes
// the adapter connection. handle may be nil (nothing was connected).
func (s *Session) teardown(handle Adapter) {
	s.lost.Store(false)
	topics := s.registry.clear()

	if handle == nil {
		return
	}
	handle.ClearHandlers()
	if !handle.IsConnected() {
		return
	}
	if len(topics) > 0 {
		if err := handle.Unsubscribe(topics...); err != nil {
			s.logWarn("unsubscribe during teardown failed", "error", err)
		}
	}
	handle.Disconnect()
}

// onInboundMessage is the adapter's receive notification. It fires on the
// adapter's I/O goroutine; the append is the only cross-thread mutation.
func (s *Session) onInboundMessage(topic string, payload []byte) {
	s.stats.received.Add(1)
	s.queue.append(topic, payload)
}

// onConnectionClosed is the adapter's closed notification. The flag is
// raised only when the prior state was Connected, distinguishing an
// unexpected drop from a controlled disconnect; the next ProcessEvents pass
// consumes it.
func (s *Session) onConnectionClosed(err error) {
	s.mu.Lock()
	wasConnected := s.state == StateConnected
	s.mu.Unlock()

	if !wasConnected {
		return
	}
	s.lost.Store(true)
	s.logWarn("broker connection closed unexpectedly", "error", err)
}

// nextClientID generates a fresh random client identifier for one connect
// attempt.
func (s *Session) nextClientID() string {
	return s.cfg.ClientIDPrefix + "-" + uuid.NewString()[:8]
}

// nextTick returns the channel closed by the next ProcessEvents pass.
func (s *Session) nextTick() <-chan struct{} {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	return s.tick
}

func (s *Session) brokerAddr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Broker.Host, s.cfg.Broker.Port)
}

// getLogger returns the current logger (may be nil).
func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

func (s *Session) logInfo(msg string, args ...any) {
	if logger := s.getLogger(); logger != nil {
		logger.Info(msg, args...)
	}
}

func (s *Session) logWarn(msg string, args ...any) {
	if logger := s.getLogger(); logger != nil {
		logger.Warn(msg, args...)
	}
}

func (s *Session) logError(msg string, args ...any) {
	if logger := s.getLogger(); logger != nil {
		logger.Error(msg, args...)
	}
}
