// Package stream consumes the upstream telemetry event stream over
// MQTT. The receiver subscribes to every event partition, decodes
// envelopes, runs them through the ingest pipeline and maintains the
// per-partition checkpoint cursors that give the bridge at-least-once
// delivery across restarts.
package stream
