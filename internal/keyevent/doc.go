// Package keyevent defines the key event model shared by the arbiter,
// journal, and harness.
//
// A KeyEvent is one observation from the platform's raw input callback:
// virtual key, hardware scan code, press/release action, resolved character
// (if any), the extended-key flag, and the auto-repeat flag. Events are
// immutable once captured.
//
// The package also provides:
//   - Canonical JSON serialization (RFC 8785 style) used for
//     content-addressed record identity and golden trace comparison.
//   - Content-addressed IDs for journal records (SHA-256 with domain
//     separation), so replays produce byte-identical logs.
//   - The journal record types (EventRecord, VerdictRecord, DecisionRecord)
//     written by the arbiter and read back by trace and replay tooling.
//
// Scan codes, not virtual keys, are the correlation key throughout: a
// redispatched synthetic event is recognized on loopback by its scan code
// and action edge.
package keyevent
