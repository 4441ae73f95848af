// Package store is the boundary to the downstream asset-and-time-series
// database.
//
// The downstream model is owned by the database itself: type and instance
// imports go through stored procedures (model.import_type_system,
// model.import_equipment) that reconcile the submitted package against the
// existing graph, and time-series writes go through per-data-type array
// upsert procedures in the history schema. This package never issues plain
// INSERTs against model tables.
//
// Upsert semantics are idempotent per (attribute id, timestamp): redelivered
// events overwrite rather than duplicate.
//
// The Postgres implementation uses a pgx connection pool. All methods take a
// context and are safe for concurrent use.
package store
