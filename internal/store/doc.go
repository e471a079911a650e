// Package store provides SQLite-backed run history for kat.
//
// Each recorded run stores the document it read, the content hash of the
// parsed document and the outcome of every test case:
//   - runs: one row per run, ordered by a logical seq
//   - case_results: one row per test case, keyed by (run_id, idx)
//
// # Ordering
//
// Listing uses ORDER BY seq, never timestamps, so results are stable even
// when the wall clock moves backwards between runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs are UUIDv7 by default; tests inject deterministic IDs and clocks
// through WithIDGenerator and WithClock.
package store
