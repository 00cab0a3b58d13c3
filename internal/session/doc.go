// Package session manages a client-side MQTT broker connection for hosts
// that run a cooperative, single-threaded update tick.
//
// This package manages:
//   - Asynchronous connect/disconnect that never blocks the host tick
//   - A double-buffered inbound queue handing network-thread messages
//     to the tick thread without a lock around the processing loop
//   - Per-topic subscriber callbacks dispatched in registration order
//   - Lifecycle events (connecting, connected, failed, lost, disconnected)
//
// # Architecture
//
// Two threads of control meet here. The protocol adapter invokes its
// notifications from its own I/O goroutines; the host calls ProcessEvents
// exactly once per frame. The only cross-thread mutation is an O(1) append
// into the front queue container; the tick swaps the front/back roles and
// drains the back container, twice per tick.
//
//	adapter I/O goroutine → append(front)
//	host tick             → swap roles → drain(back) → swap → drain
//
// Messages are dispatched in arrival order with no drops and no duplicates.
// A message that arrives while the second drain is running is delivered on
// the following tick: delivery is bounded-latency, not real-time.
//
// Connect and disconnect are cancellable delayed tasks. A connect attempt
// waits a configured delay before the blocking dial so the host can repaint;
// a second Connect supersedes the first attempt (by generation counter)
// without discarding an adapter handle the first attempt already created.
// A Disconnect during an in-flight connect is deferred until the attempt
// resolves. Close performs a synchronous, undelayed teardown for shutdown.
//
// # Usage
//
//	sess, err := session.New(cfg, mqtt.Factory)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sess.OnConnectionSucceeded(func() {
//	    sess.Subscribe("sensors/temp", session.QoSExactlyOnce, onTemp)
//	})
//	sess.Connect()
//	for range ticker.C {
//	    sess.ProcessEvents() // exactly once per frame
//	}
//	sess.Close()
package session
