// Package database provides the local SQLite database for TwinBridge
// Core. The downstream model and time series live in Postgres; this
// database holds only bridge-side state, most importantly the per
// partition stream checkpoint cursors.
//
// This package manages:
//   - Connection setup with WAL mode and a busy timeout
//   - Embedded schema migrations
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.LocalDB.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migrations are additive-only: new columns must be nullable or carry a
// default, and columns are never dropped or renamed. Each migration file
// has an .up.sql and usually a matching .down.sql.
package database
