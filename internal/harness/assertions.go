package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEntry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for i, entry := range e.Trace {
		switch entry.Type {
		case "event":
			fmt.Fprintf(&buf, "  [%d] seq=%d event kind=%s scan=%d action=%s\n",
				i+1, entry.Seq, entry.Kind, entry.ScanCode, entry.Action)
		case "verdict":
			fmt.Fprintf(&buf, "  [%d] seq=%d verdict delegate=%d accepted=%t event_seq=%d\n",
				i+1, entry.Seq, entry.Delegate, entry.Accepted, entry.EventSeq)
		case "decision":
			fmt.Fprintf(&buf, "  [%d] seq=%d decision outcome=%s event_seq=%d\n",
				i+1, entry.Seq, entry.Outcome, entry.EventSeq)
		}
	}

	return buf.String()
}

// matchesTraceFilter reports whether a trace entry matches the assertion's
// record/kind/outcome filters. Empty filters match everything.
func matchesTraceFilter(entry TraceEntry, assertion Assertion) bool {
	if assertion.Record != "" && entry.Type != assertion.Record {
		return false
	}
	if assertion.Kind != "" && entry.Kind != assertion.Kind {
		return false
	}
	if assertion.Outcome != "" && entry.Outcome != assertion.Outcome {
		return false
	}
	return true
}

// assertTraceCount checks the number of matching trace entries.
func assertTraceCount(trace []TraceEntry, assertion Assertion) error {
	count := 0
	for _, entry := range trace {
		if matchesTraceFilter(entry, assertion) {
			count++
		}
	}

	if count != assertion.Count {
		filter := assertion.Record
		if assertion.Kind != "" {
			filter += " kind=" + assertion.Kind
		}
		if assertion.Outcome != "" {
			filter += " outcome=" + assertion.Outcome
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d entries matching %q", assertion.Count, strings.TrimSpace(filter)),
			Actual:   fmt.Sprintf("%d entries", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceOrder checks that entry types appear in the given order.
// Entries don't need to be consecutive (intervening entries are allowed).
func assertTraceOrder(trace []TraceEntry, assertion Assertion) error {
	pos := 0
	for _, entry := range trace {
		if pos < len(assertion.Records) && entry.Type == assertion.Records[pos] {
			pos++
		}
	}

	if pos != len(assertion.Records) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("entry types in order: %v", assertion.Records),
			Actual:   fmt.Sprintf("matched only the first %d of %d", pos, len(assertion.Records)),
			Trace:    trace,
		}
	}

	return nil
}

// assertInjectionCount checks the total number of injections performed.
func assertInjectionCount(result *Result, assertion Assertion) error {
	if len(result.Injections) != assertion.Count {
		return &AssertionError{
			Type:     AssertInjectionCount,
			Expected: fmt.Sprintf("%d injections", assertion.Count),
			Actual:   fmt.Sprintf("%d injections: %+v", len(result.Injections), result.Injections),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertInjectionContains checks that some injection matches scan code
// and action.
func assertInjectionContains(result *Result, assertion Assertion) error {
	for _, inj := range result.Injections {
		if inj.ScanCode == assertion.ScanCode && inj.Action == assertion.Action {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertInjectionContains,
		Expected: fmt.Sprintf("injection scan_code=%d action=%s", assertion.ScanCode, assertion.Action),
		Actual:   fmt.Sprintf("injections: %+v", result.Injections),
		Trace:    result.Trace,
	}
}

// assertOutstandingRedispatch checks the final RedispatchedCount.
func assertOutstandingRedispatch(result *Result, assertion Assertion) error {
	if result.OutstandingRedispatch != assertion.Count {
		return &AssertionError{
			Type:     AssertOutstandingRedispatch,
			Expected: fmt.Sprintf("outstanding redispatch count %d", assertion.Count),
			Actual:   fmt.Sprintf("count %d", result.OutstandingRedispatch),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertPendingCount checks the final PendingCount.
func assertPendingCount(result *Result, assertion Assertion) error {
	if result.PendingCount != assertion.Count {
		return &AssertionError{
			Type:     AssertPendingCount,
			Expected: fmt.Sprintf("pending count %d", assertion.Count),
			Actual:   fmt.Sprintf("count %d", result.PendingCount),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertDecisionOutcome checks the decision recorded for the event at
// the given journal seq.
func assertDecisionOutcome(trace []TraceEntry, assertion Assertion) error {
	for _, entry := range trace {
		if entry.Type == "decision" && entry.EventSeq == assertion.EventSeq {
			if entry.Outcome == assertion.Outcome {
				return nil
			}
			return &AssertionError{
				Type:     AssertDecisionOutcome,
				Expected: fmt.Sprintf("event at seq %d decided %q", assertion.EventSeq, assertion.Outcome),
				Actual:   fmt.Sprintf("decided %q", entry.Outcome),
				Trace:    trace,
			}
		}
	}

	return &AssertionError{
		Type:     AssertDecisionOutcome,
		Expected: fmt.Sprintf("event at seq %d decided %q", assertion.EventSeq, assertion.Outcome),
		Actual:   "no decision recorded for that event",
		Trace:    trace,
	}
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertInjectionCount:
			err = assertInjectionCount(result, assertion)
		case AssertInjectionContains:
			err = assertInjectionContains(result, assertion)
		case AssertOutstandingRedispatch:
			err = assertOutstandingRedispatch(result, assertion)
		case AssertPendingCount:
			err = assertPendingCount(result, assertion)
		case AssertDecisionOutcome:
			err = assertDecisionOutcome(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
