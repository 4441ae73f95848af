// Package ingest converts the telemetry/property event stream into
// type-segregated, identity-resolved, batched time-series writes.
//
// One handler invocation processes one decoded event. Attribute names are
// resolved to downstream identities through a shared, never-evicted cache;
// resolved samples are demultiplexed into per-data-type column batches and
// each non-empty batch is submitted as an independent write. Sample-level
// problems (unknown attribute, malformed value) drop that sample only;
// batch-level write failures are reported per batch; only scope mismatch
// and an unresolvable timestamp abort the event itself.
//
// Delivery is at-least-once: the stream checkpoint advances only after all
// of an event's batches were attempted, and downstream upserts are
// idempotent per (attribute id, timestamp), so redelivery is harmless.
package ingest
