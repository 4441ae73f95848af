// Package sync drives incremental model synchronisation from the upstream
// catalog into the downstream store.
//
// The orchestrator runs fixed-interval poll cycles, sequential and never
// overlapping: a cycle always finishes (success or failure) before the
// timer re-arms. Each cycle diffs the catalog snapshot against cached
// version fingerprints, transforms the changed capability models, merges
// them into one package and submits it as a single write. Fingerprints are
// only advanced after the store accepts the write, so failed batches are
// retried on the next cycle with no extra backoff.
//
// Fingerprint caches are volatile and instance-owned. On the first cycle
// after process start, persisted tags for the changed candidates are
// fetched from the store so an unchanged catalog does not trigger a
// redundant import after every restart.
package sync
