package session

import (
	"errors"
	"testing"
)

// =============================================================================
// Subscribe Tests
// =============================================================================

func TestSubscribe(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if n := s.SubscriptionCount(); n != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", n)
	}
	subs := ff.latest().subscribedTopics()
	if len(subs) != 1 || len(subs[0]) != 1 || subs[0][0] != "t/1" {
		t.Errorf("adapter subscriptions = %v, want [[t/1]]", subs)
	}
}

func TestSubscribeValidation(t *testing.T) {
	s, _ := newConnectedSession(t)

	if err := s.Subscribe("", QoSAtMostOnce, handlerA); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Subscribe(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := s.Subscribe("t/1", 3, handlerA); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Subscribe(qos 3) error = %v, want ErrInvalidQoS", err)
	}
	if err := s.Subscribe("t/1", QoSAtMostOnce, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("Subscribe(nil handler) error = %v, want ErrSubscribeFailed", err)
	}
}

func TestSubscribeNotConnected(t *testing.T) {
	s, ff := newTestSession(t, testConfig())

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if n := s.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0: failed subscribe must not register", n)
	}
	if n := ff.createdCount(); n != 0 {
		t.Errorf("factory created %d handles, want 0: adapter untouched while idle", n)
	}
}

func TestSubscribeDuplicateRefreshesBroker(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("duplicate Subscribe() error = %v", err)
	}

	// Local registration stays single; the broker-level subscribe is
	// reissued each time.
	if n := s.SubscriptionCount(); n != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", n)
	}
	if n := len(ff.latest().subscribedTopics()); n != 2 {
		t.Errorf("adapter Subscribe issued %d times, want 2", n)
	}
}

func TestSubscribeAdapterFailureRollsBack(t *testing.T) {
	s, ff := newConnectedSession(t)
	ff.latest().subscribeErr = errors.New("broker rejected")

	err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA)
	if !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if n := s.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d after rollback, want 0", n)
	}
}

func TestSubscribeAdapterFailureKeepsPriorRegistration(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	// A failing refresh of an already-registered handler must not evict it.
	ff.latest().subscribeErr = errors.New("broker rejected")
	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); !errors.Is(err, ErrSubscribeFailed) {
		t.Fatalf("refresh Subscribe() error = %v, want ErrSubscribeFailed", err)
	}
	if n := s.SubscriptionCount(); n != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", n)
	}
}

// =============================================================================
// Unsubscribe Tests
// =============================================================================

func TestUnsubscribeStopsDelivery(t *testing.T) {
	s, ff := newConnectedSession(t)
	rec := &recorder{}
	h := rec.handler()
	if err := s.Subscribe("t/1", QoSAtLeastOnce, h); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	adapter := ff.latest()
	adapter.deliver("t/1", []byte("before"))
	s.ProcessEvents()

	if err := s.Unsubscribe("t/1", h); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	adapter.deliver("t/1", []byte("after"))
	s.ProcessEvents()

	got := rec.got()
	if len(got) != 1 || got[0] != "before" {
		t.Errorf("dispatched %v, want only [before]", got)
	}
	unsubs := adapter.unsubscribedTopics()
	if len(unsubs) != 1 || unsubs[0][0] != "t/1" {
		t.Errorf("adapter unsubscriptions = %v, want [[t/1]]", unsubs)
	}
}

func TestUnsubscribeKeepsSiblingHandlers(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe(handlerA) error = %v", err)
	}
	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerB); err != nil {
		t.Fatalf("Subscribe(handlerB) error = %v", err)
	}

	if err := s.Unsubscribe("t/1", handlerA); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}

	// The topic still has a subscriber, so the broker keeps the
	// subscription.
	if n := s.SubscriptionCount(); n != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", n)
	}
	if n := len(ff.latest().unsubscribedTopics()); n != 0 {
		t.Errorf("adapter Unsubscribe issued %d times, want 0", n)
	}

	if err := s.Unsubscribe("t/1", handlerB); err != nil {
		t.Fatalf("Unsubscribe(last) error = %v", err)
	}
	if n := len(ff.latest().unsubscribedTopics()); n != 1 {
		t.Errorf("adapter Unsubscribe issued %d times after emptying, want 1", n)
	}
}

func TestUnsubscribeNilHandlerRemovesTopic(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe(handlerA) error = %v", err)
	}
	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerB); err != nil {
		t.Fatalf("Subscribe(handlerB) error = %v", err)
	}

	if err := s.Unsubscribe("t/1", nil); err != nil {
		t.Fatalf("Unsubscribe(nil) error = %v", err)
	}
	if n := s.SubscriptionCount(); n != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", n)
	}
	if n := len(ff.latest().unsubscribedTopics()); n != 1 {
		t.Errorf("adapter Unsubscribe issued %d times, want 1", n)
	}
}

func TestUnsubscribeUnknownHandlerSkipsBroker(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Subscribe("t/1", QoSAtLeastOnce, handlerA); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := s.Unsubscribe("t/1", handlerB); err != nil {
		t.Fatalf("Unsubscribe(unknown) error = %v", err)
	}

	if n := s.SubscriptionCount(); n != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", n)
	}
	if n := len(ff.latest().unsubscribedTopics()); n != 0 {
		t.Errorf("adapter Unsubscribe issued %d times, want 0", n)
	}
}

func TestUnsubscribeWhileIdleUpdatesRegistryOnly(t *testing.T) {
	s, _ := newTestSession(t, testConfig())

	// No error and no adapter interaction: the broker subscription, if it
	// ever existed, died with the connection.
	if err := s.Unsubscribe("t/1", nil); err != nil {
		t.Errorf("Unsubscribe() error = %v, want nil", err)
	}
}

// =============================================================================
// Publish Tests
// =============================================================================

func TestPublish(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.Publish("t/1", []byte("payload"), QoSAtLeastOnce, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if n := ff.latest().publishCount(); n != 1 {
		t.Errorf("adapter Publish called %d times, want 1", n)
	}
}

func TestPublishValidation(t *testing.T) {
	s, _ := newConnectedSession(t)

	if err := s.Publish("", []byte("x"), QoSAtMostOnce, false); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Publish(empty topic) error = %v, want ErrInvalidTopic", err)
	}
	if err := s.Publish("t/1", []byte("x"), 3, false); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("Publish(qos 3) error = %v, want ErrInvalidQoS", err)
	}
}

func TestPublishNotConnected(t *testing.T) {
	s, ff := newTestSession(t, testConfig())

	if err := s.Publish("t/1", []byte("x"), QoSAtMostOnce, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
	if n := ff.createdCount(); n != 0 {
		t.Errorf("factory created %d handles, want 0: adapter untouched while idle", n)
	}
}

func TestPublishAdapterFailure(t *testing.T) {
	s, ff := newConnectedSession(t)
	ff.latest().publishErr = errors.New("send buffer full")

	err := s.Publish("t/1", []byte("x"), QoSAtLeastOnce, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishString(t *testing.T) {
	s, ff := newConnectedSession(t)

	if err := s.PublishString("t/1", "hello", QoSExactlyOnce, true); err != nil {
		t.Fatalf("PublishString() error = %v", err)
	}

	adapter := ff.latest()
	adapter.mu.Lock()
	defer adapter.mu.Unlock()
	if len(adapter.publishes) != 1 {
		t.Fatalf("adapter recorded %d publishes, want 1", len(adapter.publishes))
	}
	p := adapter.publishes[0]
	if string(p.payload) != "hello" || p.qos != QoSExactlyOnce || !p.retain {
		t.Errorf("publish = {%s qos=%d retain=%v}, want {hello qos=2 retain=true}", p.payload, p.qos, p.retain)
	}
}
