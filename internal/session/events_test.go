package session

import (
	"sync/atomic"
	"testing"
)

func TestLifecycleEventsFanOut(t *testing.T) {
	s, _ := newTestSession(t, testConfig())

	var first, second atomic.Int32
	s.OnConnecting(func() { first.Add(1) })
	s.OnConnecting(func() { second.Add(1) })

	var ok atomic.Bool
	s.OnConnectionSucceeded(func() { ok.Store(true) })
	s.Connect()
	waitFor(t, "connect", ok.Load)

	if first.Load() != 1 || second.Load() != 1 {
		t.Errorf("connecting handlers fired (%d, %d) times, want (1, 1)", first.Load(), second.Load())
	}
}

func TestLifecycleEventPanicDoesNotStopSiblings(t *testing.T) {
	s, _ := newTestSession(t, testConfig())

	var sibling atomic.Int32
	s.OnConnecting(func() { panic("handler bug") })
	s.OnConnecting(func() { sibling.Add(1) })

	var ok atomic.Bool
	s.OnConnectionSucceeded(func() { ok.Store(true) })
	s.Connect()
	waitFor(t, "connect despite panicking handler", ok.Load)

	if n := sibling.Load(); n != 1 {
		t.Errorf("sibling handler fired %d times, want 1", n)
	}
}
