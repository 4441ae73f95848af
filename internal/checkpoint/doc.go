// Package checkpoint persists the stream receiver's per-partition
// cursors in the local database. The cursor marks the last event whose
// batches were all attempted downstream; holding it back on failure is
// what gives the pipeline at-least-once delivery.
package checkpoint
