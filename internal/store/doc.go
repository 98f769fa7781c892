// Package store provides SQLite-backed durable storage for point economies.
//
// The store implements an append-only ledger with:
//   - Economies and Currencies: namespaces and their point currencies
//   - Activities: signed ledger entries, never updated or deleted
//   - Activity Buttons: reusable presets that produce activities
//   - Transfer Requests, Exchange Requests, Rate Submissions
//
// # Critical Patterns
//
// Append-only ledger:
//   - activities rows are guarded by triggers that abort UPDATE and DELETE
//   - batches are appended inside one transaction (all-or-nothing)
//
// Deterministic query results:
//   - ledger queries order by created_at, then id COLLATE BINARY
//   - replay and daily aggregation depend on this ordering
//
// Status transitions are compare-and-set:
//   - UPDATE ... WHERE status = <expected>; zero rows affected means another
//     writer won and the caller must report the conflict
//
// Exact amounts:
//   - points, amounts and rates are decimal TEXT, never REAL
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - one open connection: every transaction is serialized
//
// The single connection means a callback running inside WithTx or
// ReplayActivities must not call back into the Store; use the Tx it was given.
package store
