// Package harness provides conformance testing for the key arbitration
// pipeline.
//
// The harness builds a real arbiter with deterministic collaborators,
// drives it through a scripted sequence of raw key events and delegate
// resolutions, and validates the journaled trace as an executable
// contract test.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	session_token: session-fixed
//	delegates:
//	  - name: shortcuts
//	    mode: hold
//	  - name: text_input
//	    mode: reject
//	steps:
//	  - key:
//	      virtual_key: 64
//	      scan_code: 20
//	      action: down
//	      character: a
//	      expect_claimed: true
//	  - resolve:
//	      delegate: shortcuts
//	      call: 1
//	      accepted: false
//	assertions:
//	  - type: injection_count
//	    count: 1
//	  - type: decision_outcome
//	    event_seq: 1
//	    outcome: redispatched
//
// # Assertion Types
//
// The following assertion types are supported:
//
//   - trace_count: count journaled entries, filterable by record type,
//     event kind, and decision outcome
//   - trace_order: entry types appear in the given order (gaps allowed)
//   - injection_count: total redispatch injections performed
//   - injection_contains: an injection with scan_code/action exists
//   - outstanding_redispatch: final RedispatchedCount value
//   - pending_count: final PendingCount value
//   - decision_outcome: the decision recorded for the event at event_seq
//
// # Deterministic Testing
//
// All scenarios execute with a fresh logical clock, a fixed session
// token, an in-memory journal, and a capture injector. This ensures
// identical traces across runs for golden file comparison: trace
// entries reference events by journal seq, never by wall time.
package harness
