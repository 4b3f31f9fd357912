// Package store provides SQLite-backed storage for sign runs.
//
// A run records:
//   - Run: the namespace hash it was computed from, the signed-tree hash it
//     produced, and the options in effect
//   - Signatures: one row per (module, name) holding the canonical JSON
//     encoding of the signature and its hash
//
// # Ordering
//
// Runs are ordered by seq, a per-database counter assigned at write time,
// never by timestamp. Signature reads are ordered by
// module, name COLLATE BINARY so results are identical across runs.
//
// # Idempotency
//
// Writing a run whose ID already exists is a no-op that returns the stored
// run. Signature rows are keyed by (run_id, module, name).
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Hashes are computed with internal/ir using RFC 8785 canonical JSON and
// SHA-256 with domain separation.
package store
