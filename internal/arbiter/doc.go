// Package arbiter implements the keygate keyboard-event arbitration core.
//
// The arbiter sits between the platform's raw input callback and any number
// of registered delegates. For every new raw event it fans the event out to
// all delegates, collects their verdicts (possibly asynchronously and out of
// order), and either swallows the event (some delegate accepted it) or
// redispatches the original raw event back into the platform pipeline so
// default processing still happens. A redispatched event is recognized when
// it loops back in, by scan code and action edge, and passed through exactly
// once without being reprocessed.
//
// ARCHITECTURE:
//
// Single-Context Model:
// All arbiter state is mutated from one logical context - the context that
// delivers raw input events. HandleRawEvent never blocks; it returns as soon
// as delegates have been offered the event. Delegates may defer their
// response arbitrarily, but must deliver it from the same context. The
// arbiter performs no locking. Delegates that decide on another goroutine
// marshal their responses back through a Loop (see loop.go).
//
// Event Processing Flow:
//  1. Raw event arrives at HandleRawEvent.
//  2. Loopback check: a matching outstanding redispatch record means this is
//     the arbiter's own synthetic event returning. Consume the record and
//     return false - no delegate sees it.
//  3. Otherwise a pending entry is created and the event is offered to every
//     delegate with a one-shot response func.
//  4. Each response ORs into the accepted flag and decrements the
//     outstanding count. The last response finalizes the entry: accepted
//     events are discarded; rejected events are injected back and tracked
//     for loopback.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every journaled record is stamped with a monotonic seq from Clock.Next().
// Ordering never depends on wall-clock time, so a journaled session replays
// to a byte-identical log.
//
// Order Independence:
// Two in-flight events resolve independently. The decision for each depends
// only on the set of verdicts received for it, never on arrival order
// relative to other events.
//
// One-Shot Resolution:
// Exactly one finalization per event. Duplicate or stale delegate responses
// are silent no-ops, never faults.
package arbiter
