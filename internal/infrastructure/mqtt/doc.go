// Package mqtt implements the session.Adapter contract on
// paho.mqtt.golang.
//
// This package manages:
//   - Per-attempt paho client construction (fresh client ID each dial)
//   - Blocking connect with timeout, publish/subscribe/unsubscribe with
//     acknowledgement waits
//   - Forwarding paho's inbound-message and connection-lost callbacks to
//     the handlers the session registers
//
// # Architecture
//
// The adapter is deliberately policy-free: auto-reconnect and connect-retry
// are disabled because the session's lifecycle controller owns reconnection.
// Inbound messages route through paho's default publish handler (routes are
// registered without callbacks), so every subscribed message reaches the
// session's queue in arrival order.
//
// # Usage
//
//	sess, err := session.New(cfg, mqtt.Factory)
package mqtt
