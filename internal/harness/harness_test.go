package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

// keyDown builds a down step for the standard test key.
func keyDown(scanCode int, expectClaimed bool) Step {
	return Step{Key: &KeyStep{
		VirtualKey:    64,
		ScanCode:      scanCode,
		Action:        "down",
		Character:     "a",
		ExpectClaimed: boolPtr(expectClaimed),
	}}
}

func TestRun_AcceptingDelegate(t *testing.T) {
	scenario := &Scenario{
		Name:         "accept",
		Description:  "delegate accepts",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeAccept}},
		Steps:        []Step{keyDown(20, true)},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 0},
			{Type: AssertDecisionOutcome, EventSeq: 1, Outcome: "handled"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	// event, verdict, decision
	assert.Len(t, result.Trace, 3)
	assert.Empty(t, result.Injections)
	assert.Equal(t, 0, result.OutstandingRedispatch)
}

func TestRun_RejectingDelegateAndLoopback(t *testing.T) {
	scenario := &Scenario{
		Name:         "reject",
		Description:  "delegate rejects, loopback consumed",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeReject}},
		Steps:        []Step{keyDown(20, true), keyDown(20, false)},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 1},
			{Type: AssertInjectionContains, ScanCode: 20, Action: "down"},
			{Type: AssertOutstandingRedispatch, Count: 0},
			{Type: AssertTraceCount, Record: "event", Kind: "loopback", Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_HoldAndResolveOutOfOrder(t *testing.T) {
	scenario := &Scenario{
		Name:         "hold",
		Description:  "held events resolved in reverse order",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeHold}},
		Steps: []Step{
			keyDown(20, true),
			keyDown(22, true),
			{Resolve: &ResolveStep{Delegate: "d", Call: 2, Accepted: false}},
			{Resolve: &ResolveStep{Delegate: "d", Call: 1, Accepted: true}},
		},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 1},
			{Type: AssertInjectionContains, ScanCode: 22, Action: "down"},
			{Type: AssertDecisionOutcome, EventSeq: 1, Outcome: "handled"},
			{Type: AssertDecisionOutcome, EventSeq: 2, Outcome: "redispatched"},
			{Type: AssertPendingCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ScriptedDelegate(t *testing.T) {
	scenario := &Scenario{
		Name:         "script",
		Description:  "per-call scripted verdicts",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeScript, Script: []bool{true, false}}},
		Steps:        []Step{keyDown(20, true), keyDown(22, true)},
		Assertions: []Assertion{
			{Type: AssertDecisionOutcome, EventSeq: 1, Outcome: "handled"},
			{Type: AssertDecisionOutcome, EventSeq: 2, Outcome: "redispatched"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_ExpectClaimedMismatchFails(t *testing.T) {
	scenario := &Scenario{
		Name:         "mismatch",
		Description:  "wrong claim expectation",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeAccept}},
		// A genuinely new event is always claimed; expecting false fails.
		Steps: []Step{keyDown(20, false)},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "HandleRawEvent")
}

func TestRun_FailedAssertionReportsError(t *testing.T) {
	scenario := &Scenario{
		Name:         "wrong-count",
		Description:  "assertion fails",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeAccept}},
		Steps:        []Step{keyDown(20, true)},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 5},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "injection_count")
}

func TestRun_ResolveOutOfRangeIsExecutionError(t *testing.T) {
	scenario := &Scenario{
		Name:         "bad-resolve",
		Description:  "resolve targets a call that never happened",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeHold}},
		Steps: []Step{
			keyDown(20, true),
			{Resolve: &ResolveStep{Delegate: "d", Call: 2, Accepted: true}},
		},
		Assertions: []Assertion{
			{Type: AssertInjectionCount, Count: 0},
		},
	}

	_, err := Run(scenario)
	assert.Error(t, err)
}

func TestRun_UnresolvedHoldLeavesPending(t *testing.T) {
	scenario := &Scenario{
		Name:         "pending",
		Description:  "held event stays pending",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeHold}},
		Steps:        []Step{keyDown(20, true)},
		Assertions: []Assertion{
			{Type: AssertPendingCount, Count: 1},
			{Type: AssertTraceCount, Record: "decision", Count: 0},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.PendingCount)
}

func TestRun_IsDeterministic(t *testing.T) {
	scenario := &Scenario{
		Name:         "deterministic",
		Description:  "identical runs produce identical traces",
		SessionToken: "session-test",
		Delegates:    []DelegateSpec{{Name: "d", Mode: ModeReject}},
		Steps:        []Step{keyDown(20, true), keyDown(20, false)},
		Assertions: []Assertion{
			{Type: AssertOutstandingRedispatch, Count: 0},
		},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Injections, second.Injections)
}
