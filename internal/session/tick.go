package session

import "sync/atomic"

// statCounters accumulates dispatch statistics. Atomics, because received
// is bumped on the adapter's I/O goroutine while the rest belong to the
// tick thread.
type statCounters struct {
	received         atomic.Uint64
	dispatched       atomic.Uint64
	dropped          atomic.Uint64
	callbackFailures atomic.Uint64
}

// Stats is a point-in-time snapshot of the session's dispatch counters.
type Stats struct {
	// Received counts adapter message notifications.
	Received uint64
	// Dispatched counts handler invocations.
	Dispatched uint64
	// Dropped counts messages that arrived with no registered subscriber.
	Dropped uint64
	// CallbackFailures counts handler errors and recovered panics.
	CallbackFailures uint64
	// Pending is the number of messages waiting for the next tick.
	Pending int
}

// Stats returns a snapshot of the dispatch counters.
func (s *Session) Stats() Stats {
	return Stats{
		Received:         s.stats.received.Load(),
		Dispatched:       s.stats.dispatched.Load(),
		Dropped:          s.stats.dropped.Load(),
		CallbackFailures: s.stats.callbackFailures.Load(),
		Pending:          s.queue.pending(),
	}
}

// ProcessEvents drains the inbound queue and dispatches each message to its
// topic's subscribers, in arrival order. The host must call it exactly once
// per frame, from a single goroutine.
//
// The queue is swapped and drained twice: the second pass catches messages
// that arrived while the first batch was draining. A message landing during
// the second drain waits for the following tick — delivery staleness is
// bounded to one tick, it is not real-time.
//
// After both drains, a raised connection-lost flag is consumed: the handle
// is discarded, the state returns to Idle, and connectionLost fires exactly
// once, on this thread.
func (s *Session) ProcessEvents() {
	for pass := 0; pass < 2; pass++ {
		batch := s.queue.swap()
		for i := range batch {
			s.dispatch(batch[i].topic, batch[i].payload)
		}
	}

	if s.lost.CompareAndSwap(true, false) {
		s.mu.Lock()
		handle := s.handle
		s.handle = nil
		s.state = StateIdle
		s.deferredDisconnect = false
		s.mu.Unlock()

		if handle != nil {
			handle.ClearHandlers()
		}
		s.logWarn("connection lost", "broker", s.brokerAddr())
		s.events.fireLost(s)
	}

	// Release delayed tasks waiting on the tick barrier.
	s.tickMu.Lock()
	close(s.tick)
	s.tick = make(chan struct{})
	s.tickMu.Unlock()
}

// dispatch fans one message out to its topic's subscribers in registration
// order. Arrival without a live subscription is logged and dropped; it is
// not severe enough to abort processing.
func (s *Session) dispatch(topic string, payload []byte) {
	handlers := s.registry.handlersFor(topic)
	if len(handlers) == 0 {
		s.stats.dropped.Add(1)
		s.logWarn("message arrived with no subscriber", "topic", topic)
		return
	}
	for _, h := range handlers {
		s.invokeHandler(topic, payload, h)
		s.stats.dispatched.Add(1)
	}
}

// invokeHandler runs one subscriber callback with panic recovery. A failing
// callback never prevents its siblings from running.
func (s *Session) invokeHandler(topic string, payload []byte, h MessageHandler) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.callbackFailures.Add(1)
			s.logError("subscriber panic recovered", "topic", topic, "panic", r)
		}
	}()

	if err := h(topic, payload); err != nil {
		s.stats.callbackFailures.Add(1)
		s.logWarn("subscriber returned error", "topic", topic, "error", err)
	}
}
