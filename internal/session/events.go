package session

import "sync"

// lifecycleEvents holds ordered handler lists for the session's named
// lifecycle events. Components compose by registering handlers; there is no
// inheritance hook. Handlers are invoked in registration order with panic
// recovery, outside the session mutex, so a handler may call back into the
// Session.
type lifecycleEvents struct {
	mu           sync.RWMutex
	connecting   []func()
	succeeded    []func()
	failed       []func(error)
	lost         []func()
	disconnected []func()
}

// OnConnecting registers a handler fired when a connect attempt is accepted.
// Runs on the goroutine that called Connect.
func (s *Session) OnConnecting(fn func()) {
	if fn == nil {
		return
	}
	s.events.mu.Lock()
	s.events.connecting = append(s.events.connecting, fn)
	s.events.mu.Unlock()
}

// OnConnectionSucceeded registers a handler fired when a connect attempt
// establishes a broker session. Runs on the connect task goroutine, not the
// tick thread; handlers must be safe to call there.
func (s *Session) OnConnectionSucceeded(fn func()) {
	if fn == nil {
		return
	}
	s.events.mu.Lock()
	s.events.succeeded = append(s.events.succeeded, fn)
	s.events.mu.Unlock()
}

// OnConnectionFailed registers a handler fired when a connect attempt fails.
// The error wraps ErrConnectionFailed with the adapter's reason.
func (s *Session) OnConnectionFailed(fn func(err error)) {
	if fn == nil {
		return
	}
	s.events.mu.Lock()
	s.events.failed = append(s.events.failed, fn)
	s.events.mu.Unlock()
}

// OnConnectionLost registers a handler fired when the broker connection
// drops while Connected. Always runs on the tick thread, during the
// ProcessEvents call that consumed the connection-lost flag.
func (s *Session) OnConnectionLost(fn func()) {
	if fn == nil {
		return
	}
	s.events.mu.Lock()
	s.events.lost = append(s.events.lost, fn)
	s.events.mu.Unlock()
}

// OnDisconnected registers a handler fired after a controlled disconnect
// completes its teardown.
func (s *Session) OnDisconnected(fn func()) {
	if fn == nil {
		return
	}
	s.events.mu.Lock()
	s.events.disconnected = append(s.events.disconnected, fn)
	s.events.mu.Unlock()
}

func (e *lifecycleEvents) fireConnecting(s *Session) {
	e.mu.RLock()
	handlers := append([]func(){}, e.connecting...)
	e.mu.RUnlock()
	for _, fn := range handlers {
		s.invokeEvent(func() { fn() })
	}
}

func (e *lifecycleEvents) fireSucceeded(s *Session) {
	e.mu.RLock()
	handlers := append([]func(){}, e.succeeded...)
	e.mu.RUnlock()
	for _, fn := range handlers {
		s.invokeEvent(func() { fn() })
	}
}

func (e *lifecycleEvents) fireFailed(s *Session, err error) {
	e.mu.RLock()
	handlers := append([]func(error){}, e.failed...)
	e.mu.RUnlock()
	for _, fn := range handlers {
		fn := fn
		s.invokeEvent(func() { fn(err) })
	}
}

func (e *lifecycleEvents) fireLost(s *Session) {
	e.mu.RLock()
	handlers := append([]func(){}, e.lost...)
	e.mu.RUnlock()
	for _, fn := range handlers {
		s.invokeEvent(func() { fn() })
	}
}

func (e *lifecycleEvents) fireDisconnected(s *Session) {
	e.mu.RLock()
	handlers := append([]func(){}, e.disconnected...)
	e.mu.RUnlock()
	for _, fn := range handlers {
		s.invokeEvent(func() { fn() })
	}
}

// invokeEvent runs one lifecycle handler with panic recovery so a broken
// handler cannot take down the session.
func (s *Session) invokeEvent(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logError("lifecycle handler panic recovered", "panic", r)
		}
	}()
	fn()
}
