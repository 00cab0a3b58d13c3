// Package telemetry records session metrics to InfluxDB.
//
// This package manages:
//   - Connect-attempt durations (session_connect)
//   - Per-tick dispatch counters (session_ticks)
//   - Lifecycle event counts (session_lifecycle)
//
// Writes are non-blocking and batched; the recorder never sits on the host
// tick's critical path. Telemetry is optional and disabled by default.
//
// Usage:
//
//	tel, err := telemetry.Connect(ctx, cfg.Telemetry)
//	if errors.Is(err, telemetry.ErrDisabled) {
//	    // run without telemetry
//	}
//	defer tel.Close()
//
//	tel.WriteLifecycleEvent("localhost:1883", "connected")
package telemetry
