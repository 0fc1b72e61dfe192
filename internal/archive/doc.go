// Package archive provides SQLite-backed storage of parsed snapshot entries.
//
// An archive holds any number of imports. Each import is the full entry list
// produced by parsing one log, identified by a UUIDv7 and numbered by a
// logical sequence (never wall-clock time). The raw log text is not stored.
//
// # Ordering
//
// Entries are read back with ORDER BY node_id, line_n, seq so that every
// node's sequence satisfies logstore's non-decreasing line precondition, even
// if entries were written in a different interleaving.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Deleting an import cascades to its entries
package archive
