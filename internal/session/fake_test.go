package session

import (
	"sync"
	"time"
)

// fakeAdapter is a scripted in-memory Adapter for tests. It records every
// call and lets tests inject inbound messages and connection-closed
// notifications the way a network thread would.
type fakeAdapter struct {
	mu sync.Mutex

	connectErr     error
	subscribeErr   error
	unsubscribeErr error
	publishErr     error

	connected       bool
	connectCalls    int
	disconnectCalls int
	clientIDs       []string

	publishes    []fakePublish
	subscribes   [][]string
	unsubscribes [][]string

	onMessage MessageFunc
	onClosed  ClosedFunc
}

type fakePublish struct {
	topic   string
	payload []byte
	qos     byte
	retain  bool
}

func (f *fakeAdapter) Connect(clientID, _, _ string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connectCalls++
	f.clientIDs = append(f.clientIDs, clientID)
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeAdapter) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnectCalls++
	f.connected = false
}

func (f *fakeAdapter) Publish(topic string, payload []byte, qos byte, retain bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.publishes = append(f.publishes, fakePublish{topic: topic, payload: payload, qos: qos, retain: retain})
	return nil
}

func (f *fakeAdapter) Subscribe(topics []string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.subscribes = append(f.subscribes, append([]string{}, topics...))
	return nil
}

func (f *fakeAdapter) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsubscribeErr != nil {
		return f.unsubscribeErr
	}
	f.unsubscribes = append(f.unsubscribes, append([]string{}, topics...))
	return nil
}

func (f *fakeAdapter) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeAdapter) SetHandlers(onMessage MessageFunc, onClosed ClosedFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMessage = onMessage
	f.onClosed = onClosed
}

func (f *fakeAdapter) ClearHandlers() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMessage = nil
	f.onClosed = nil
}

// deliver simulates the network thread raising a message-received
// notification.
func (f *fakeAdapter) deliver(topic string, payload []byte) {
	f.mu.Lock()
	onMessage := f.onMessage
	f.mu.Unlock()
	if onMessage != nil {
		onMessage(topic, payload)
	}
}

// dropConnection simulates the network thread raising the
// connection-closed notification.
func (f *fakeAdapter) dropConnection(err error) {
	f.mu.Lock()
	f.connected = false
	onClosed := f.onClosed
	f.mu.Unlock()
	if onClosed != nil {
		onClosed(err)
	}
}

func (f *fakeAdapter) connectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connectCalls
}

func (f *fakeAdapter) disconnectCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnectCalls
}

func (f *fakeAdapter) subscribedTopics() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.subscribes))
	copy(out, f.subscribes)
	return out
}

func (f *fakeAdapter) unsubscribedTopics() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.unsubscribes))
	copy(out, f.unsubscribes)
	return out
}

func (f *fakeAdapter) publishCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.publishes)
}

// fakeFactory builds fakeAdapters and records how many handles were
// constructed.
type fakeFactory struct {
	mu        sync.Mutex
	createErr error
	created   []*fakeAdapter
	next      *fakeAdapter
}

func (ff *fakeFactory) factory() AdapterFactory {
	return func(_ BrokerInfo) (Adapter, error) {
		ff.mu.Lock()
		defer ff.mu.Unlock()
		if ff.createErr != nil {
			return nil, ff.createErr
		}
		a := ff.next
		if a == nil {
			a = &fakeAdapter{}
		}
		ff.next = nil
		ff.created = append(ff.created, a)
		return a, nil
	}
}

func (ff *fakeFactory) createdCount() int {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return len(ff.created)
}

func (ff *fakeFactory) latest() *fakeAdapter {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.created) == 0 {
		return nil
	}
	return ff.created[len(ff.created)-1]
}
