package session

import "sync"

// pendingMessage is an immutable record of one inbound notification.
// Created by the adapter's receive callback, consumed exactly once by the
// tick processor, never mutated.
type pendingMessage struct {
	topic   string
	payload []byte
}

// inboundQueue is the double-buffered handoff between the adapter's I/O
// goroutines and the host tick. Two fixed containers hold interchangeable
// roles: "front" accepts appends, "back" is drained by the tick. The roles
// are swapped, the containers are never copied.
//
// The mutex guards only the role assignment and the O(1) append, so the
// network thread is never blocked behind the processing loop. Draining the
// returned batch happens outside the lock; the single tick thread finishes a
// drain before it swaps again, so the batch is never touched concurrently.
type inboundQueue struct {
	mu    sync.Mutex
	front []pendingMessage
	back  []pendingMessage
}

// append records an arrival in the container currently holding the front
// role. Safe to call from any goroutine.
func (q *inboundQueue) append(topic string, payload []byte) {
	q.mu.Lock()
	q.front = append(q.front, pendingMessage{topic: topic, payload: payload})
	q.mu.Unlock()
}

// swap exchanges the front and back roles and returns the batch to drain,
// in arrival order. The previous back container, already drained, becomes
// the new (emptied) front target; its capacity is reused.
func (q *inboundQueue) swap() []pendingMessage {
	q.mu.Lock()
	q.front, q.back = q.back[:0], q.front
	batch := q.back
	q.mu.Unlock()
	return batch
}

// pending reports how many messages are currently waiting in the front
// container. For stats only; the value is stale as soon as it is read.
func (q *inboundQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.front)
}
