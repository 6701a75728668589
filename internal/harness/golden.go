package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// TraceSnapshot captures the complete trace for a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SessionToken string       `json:"session_token,omitempty"`
	Trace        []TraceEntry `json:"trace"`
	Injections   []Injection  `json:"injections,omitempty"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for
// canonical JSON serialization. Zero-valued optional fields are omitted
// so golden files stay compact and hand-checkable.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, entry := range s.Trace {
		entryMap := map[string]any{
			"type": entry.Type,
			"seq":  entry.Seq,
		}
		switch entry.Type {
		case "event":
			entryMap["kind"] = entry.Kind
			entryMap["scan_code"] = entry.ScanCode
			entryMap["action"] = entry.Action
			if entry.VirtualKey != 0 {
				entryMap["virtual_key"] = entry.VirtualKey
			}
			if entry.Character != "" {
				entryMap["character"] = entry.Character
			}
			if entry.Extended {
				entryMap["extended"] = true
			}
			if entry.WasDown {
				entryMap["was_down"] = true
			}
		case "verdict":
			entryMap["delegate"] = entry.Delegate
			entryMap["accepted"] = entry.Accepted
			entryMap["event_seq"] = entry.EventSeq
		case "decision":
			entryMap["outcome"] = entry.Outcome
			entryMap["event_seq"] = entry.EventSeq
		}
		traceList[i] = entryMap
	}

	result := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.SessionToken != "" {
		result["session_token"] = s.SessionToken
	}
	if len(s.Injections) > 0 {
		injList := make([]any, len(s.Injections))
		for i, inj := range s.Injections {
			injMap := map[string]any{
				"scan_code": inj.ScanCode,
				"action":    inj.Action,
			}
			if inj.Extended {
				injMap["extended"] = true
			}
			injList[i] = injMap
		}
		result["injections"] = injList
	}
	return result
}

// RunWithGolden executes a scenario and compares the trace against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected trace behavior.
// Returns error if scenario execution fails; trace mismatches fail the
// test via goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := TraceSnapshot{
		ScenarioName: scenario.Name,
		SessionToken: scenario.SessionToken,
		Trace:        result.Trace,
		Injections:   result.Injections,
	}
	return assertSnapshot(t, scenario.Name, &snapshot)
}

// AssertGolden compares an existing result's trace against a golden file.
// Useful when a scenario has already run and only the comparison is needed.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Injections:   result.Injections,
	}
	return assertSnapshot(t, scenarioName, &snapshot)
}

func assertSnapshot(t *testing.T, name string, snapshot *TraceSnapshot) error {
	t.Helper()

	traceJSON, err := keyevent.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, traceJSON)

	return nil
}
