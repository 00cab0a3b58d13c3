// Package journal persists session lifecycle transitions to SQLite.
//
// The journal exists for diagnosing flaky broker links after the fact:
// every connecting/connected/failed/lost/disconnected transition becomes a
// timestamped row. It is optional — the host wires it by registering
// lifecycle event handlers that call Record.
//
// Usage:
//
//	store, err := journal.Open(ctx, journal.Config{Path: "./data/mqtick.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	sess.OnConnectionLost(func() {
//	    store.Record(ctx, journal.EventLost, brokerAddr, "")
//	})
package journal
