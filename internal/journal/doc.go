// Package journal provides SQLite-backed durable storage for arbitration
// records.
//
// The journal is an append-only log with three record kinds:
//   - Events: raw and loopback key event observations
//   - Verdicts: per-delegate responses to an event
//   - Decisions: the final handled/redispatched/passthrough outcome
//
// # Critical Patterns
//
// Logical Identity and Time
//   - All ordering uses seq INTEGER (logical clock), NEVER timestamps
//   - Enables deterministic replay regardless of wall time
//
// Write Idempotency
//   - All IDs are content-addressed; INSERT uses ON CONFLICT(id) DO NOTHING
//   - UNIQUE(event_id, delegate_id) rejects a second verdict per pair
//   - UNIQUE(event_id) on decisions enforces one decision per event
//
// Deterministic Query Results
//   - All queries include: ORDER BY seq ASC, id COLLATE BINARY ASC
//   - Ensures identical results across replays
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
//
// Content-addressed IDs are computed in internal/keyevent/hash.go using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package journal
