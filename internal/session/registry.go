package session

import (
	"reflect"
	"sync"
)

// MessageHandler is the callback signature for subscribed messages.
//
// Handlers run on the host tick thread, inside ProcessEvents, in
// registration order. A handler that returns an error or panics is logged
// and does not prevent the remaining handlers from running.
type MessageHandler func(topic string, payload []byte) error

// subscriberEntry pairs a handler with its identity key for duplicate
// suppression and targeted removal.
type subscriberEntry struct {
	key     uintptr
	qos     byte
	handler MessageHandler
}

// topicRegistry maps topic names to ordered subscriber sets. Slices keep
// registration order; duplicate handler references are suppressed by
// function identity.
//
// Reads happen on the tick thread during dispatch; writes happen on
// whichever thread calls Subscribe/Unsubscribe or tears the session down,
// so access is guarded by a read-write mutex.
type topicRegistry struct {
	mu     sync.RWMutex
	topics map[string][]subscriberEntry
}

func newTopicRegistry() *topicRegistry {
	return &topicRegistry{topics: make(map[string][]subscriberEntry)}
}

// handlerKey returns the identity of a handler function. Two references to
// the same function value share a key; distinct closures do not.
func handlerKey(h MessageHandler) uintptr {
	return reflect.ValueOf(h).Pointer()
}

// add registers a handler for a topic. Registering the same handler
// reference twice is a no-op; add reports whether the entry was inserted.
func (r *topicRegistry) add(topic string, qos byte, h MessageHandler) bool {
	key := handlerKey(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.topics[topic] {
		if e.key == key {
			return false
		}
	}
	r.topics[topic] = append(r.topics[topic], subscriberEntry{key: key, qos: qos, handler: h})
	return true
}

// remove deletes one handler reference from a topic. It reports whether the
// reference was found and whether the topic's set became empty (in which
// case the entry itself is destroyed).
func (r *topicRegistry) remove(topic string, h MessageHandler) (found, emptied bool) {
	key := handlerKey(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.topics[topic]
	for i, e := range entries {
		if e.key != key {
			continue
		}
		entries = append(entries[:i], entries[i+1:]...)
		if len(entries) == 0 {
			delete(r.topics, topic)
			return true, true
		}
		r.topics[topic] = entries
		return true, false
	}
	return false, false
}

// removeTopic destroys a topic's entire entry regardless of how many
// handlers it held. It reports whether an entry existed.
func (r *topicRegistry) removeTopic(topic string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.topics[topic]
	delete(r.topics, topic)
	return ok
}

// handlersFor returns the topic's handlers in registration order. The
// returned slice is a copy, safe to iterate while other threads mutate the
// registry.
func (r *topicRegistry) handlersFor(topic string) []MessageHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.topics[topic]
	if len(entries) == 0 {
		return nil
	}
	handlers := make([]MessageHandler, len(entries))
	for i, e := range entries {
		handlers[i] = e.handler
	}
	return handlers
}

// clear removes every entry and returns the topics that were registered,
// for broker-level unsubscription during teardown.
func (r *topicRegistry) clear() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.topics) == 0 {
		return nil
	}
	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	r.topics = make(map[string][]subscriberEntry)
	return topics
}

// count returns the number of topics with at least one subscriber.
func (r *topicRegistry) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics)
}
