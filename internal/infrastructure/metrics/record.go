package metrics

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordSyncCycle records the outcome of one model sync cycle.
//
// The write is non-blocking; data is batched and sent asynchronously.
func (c *Client) RecordSyncCycle(duration time.Duration, typesChanged, instancesChanged int, failed bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sync_cycles",
		map[string]string{
			"outcome": outcomeTag(failed),
		},
		map[string]interface{}{
			"duration_ms":       duration.Milliseconds(),
			"types_changed":     typesChanged,
			"instances_changed": instancesChanged,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordEvent records the outcome of one processed telemetry event:
// how many samples made it into batches, how many were dropped, and
// how many batch writes failed.
func (c *Client) RecordEvent(samples, dropped, failedBatches int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"ingest_events",
		nil,
		map[string]interface{}{
			"samples":        samples,
			"dropped":        dropped,
			"failed_batches": failedBatches,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point for measurements the helpers do not
// cover. Tags should stay low cardinality.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

func outcomeTag(failed bool) string {
	if failed {
		return "failure"
	}
	return "success"
}
