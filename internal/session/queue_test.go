package session

import (
	"fmt"
	"sync"
	"testing"
)

func TestQueueSwapReturnsArrivalOrder(t *testing.T) {
	q := &inboundQueue{}
	q.append("a", []byte("1"))
	q.append("b", []byte("2"))
	q.append("a", []byte("3"))

	batch := q.swap()
	if len(batch) != 3 {
		t.Fatalf("swap() returned %d messages, want 3", len(batch))
	}
	want := []pendingMessage{
		{topic: "a", payload: []byte("1")},
		{topic: "b", payload: []byte("2")},
		{topic: "a", payload: []byte("3")},
	}
	for i := range want {
		if batch[i].topic != want[i].topic || string(batch[i].payload) != string(want[i].payload) {
			t.Errorf("batch[%d] = {%s %s}, want {%s %s}",
				i, batch[i].topic, batch[i].payload, want[i].topic, want[i].payload)
		}
	}
}

func TestQueueSwapEmptiesFront(t *testing.T) {
	q := &inboundQueue{}
	q.append("t", []byte("x"))

	if got := q.swap(); len(got) != 1 {
		t.Fatalf("first swap() returned %d messages, want 1", len(got))
	}
	if got := q.swap(); len(got) != 0 {
		t.Fatalf("second swap() returned %d messages, want 0", len(got))
	}
	if n := q.pending(); n != 0 {
		t.Errorf("pending() = %d, want 0", n)
	}
}

func TestQueueAppendDuringDrainLandsInNewFront(t *testing.T) {
	q := &inboundQueue{}
	q.append("t", []byte("old"))

	batch := q.swap()
	// The batch is being drained; a new arrival must not touch it.
	q.append("t", []byte("new"))

	if len(batch) != 1 || string(batch[0].payload) != "old" {
		t.Fatalf("drained batch = %v, want only the pre-swap message", batch)
	}
	next := q.swap()
	if len(next) != 1 || string(next[0].payload) != "new" {
		t.Fatalf("next batch = %v, want only the mid-drain arrival", next)
	}
}

func TestQueueConcurrentAppend(t *testing.T) {
	q := &inboundQueue{}

	const producers = 8
	const perProducer = 200

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.append(fmt.Sprintf("t/%d", p), []byte("x"))
			}
		}(p)
	}
	wg.Wait()

	total := 0
	for _, batch := range [][]pendingMessage{q.swap(), q.swap()} {
		total += len(batch)
	}
	if total != producers*perProducer {
		t.Errorf("drained %d messages, want %d", total, producers*perProducer)
	}
}
