package telemetry

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteConnectDuration records how long a connect attempt took, successful
// or not. Non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - broker: Broker endpoint ("host:port")
//   - duration: Wall time of the attempt, delay included
//   - succeeded: Whether the attempt reached Connected
func (c *Client) WriteConnectDuration(broker string, duration time.Duration, succeeded bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_connect",
		map[string]string{
			"broker": broker,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Milliseconds()),
			"succeeded":   succeeded,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteTickStats records the session's dispatch counters, typically sampled
// every few ticks by the host loop.
//
// Parameters:
//   - broker: Broker endpoint ("host:port")
//   - dispatched: Cumulative handler invocations
//   - dropped: Cumulative messages with no subscriber
//   - pending: Messages waiting for the next tick at sample time
func (c *Client) WriteTickStats(broker string, dispatched, dropped uint64, pending int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_ticks",
		map[string]string{
			"broker": broker,
		},
		map[string]interface{}{
			"dispatched": float64(dispatched),
			"dropped":    float64(dropped),
			"pending":    pending,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteLifecycleEvent records one lifecycle transition (connected, lost,
// disconnected, ...) as a counted event.
func (c *Client) WriteLifecycleEvent(broker string, event string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"session_lifecycle",
		map[string]string{
			"broker": broker,
			"event":  event,
		},
		map[string]interface{}{
			"count": 1,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
