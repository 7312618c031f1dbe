// Package database provides the SQLite store backing clean logs and
// status history.
//
// The connection is opened in WAL mode with a single writer, which
// matches SQLite's locking model and lets the HTTP handlers read while
// the event recorder writes. All queries use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Schema changes ship as embedded up/down SQL file pairs (see the
// migrations package at the repository root). Migrations are additive:
// new columns are nullable or carry defaults, and existing columns are
// never dropped or renamed, so older builds can still read a newer
// database file.
package database
