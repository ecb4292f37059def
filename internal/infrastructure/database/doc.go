// Package database provides SQLite database connectivity for the bridge.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Connection pooling and lifecycle management
//
// The bridge uses SQLite for one thing: remembering the last known state of
// each device across restarts, so nodes come back up with sane values instead
// of factory defaults. Schema creation lives with the state store that owns
// the table.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only)
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: "./data/bridge.db", WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
package database
