// Package database provides read-only SQLite connectivity to monitored targets.
//
// This package manages:
//   - Opening an existing database file without ever creating or mutating it
//   - Busy timeout and journal mode pragmas matching the target's owner
//   - The probe surface (Connected, Ping) consumed by the monitoring loops
//
// Security Considerations:
//   - Handles are opened with mode=ro; a monitor holds no write capability
//   - All queries use parameterised statements (no SQL injection)
//
// Performance Characteristics:
//   - A single pooled connection per target keeps probes honest: a dead
//     file cannot hide behind a freshly opened handle
//   - Busy timeout prevents lock contention errors while the owner writes
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: target.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
