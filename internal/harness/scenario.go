package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// Scenario defines a conformance test scenario.
// Scenarios drive an arbiter through a sequence of raw key events and
// deferred delegate resolutions, then assert on the journaled trace and
// the injector's output.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SessionToken is an optional fixed session token for deterministic
	// golden file comparison. If empty, defaults to "session-default".
	SessionToken string `yaml:"session_token,omitempty"`

	// Delegates declares the delegates registered on the arbiter, in
	// registration order.
	Delegates []DelegateSpec `yaml:"delegates"`

	// Steps contains the main test flow. Each step either feeds a raw key
	// event into the arbiter or resolves a held delegate callback.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace, injections, and counters.
	Assertions []Assertion `yaml:"assertions"`
}

// DelegateSpec declares one scripted delegate.
type DelegateSpec struct {
	// Name identifies the delegate within the scenario (resolve steps
	// reference it). Registration order defines the numeric delegate ID
	// appearing in the trace.
	Name string `yaml:"name"`

	// Mode selects the response behavior:
	//   - "accept": respond true synchronously
	//   - "reject": respond false synchronously
	//   - "hold":   never respond; resolve steps answer later
	//   - "script": respond synchronously per the Script list, one entry
	//     per hook call in order
	Mode string `yaml:"mode"`

	// Script lists per-call verdicts for mode "script".
	Script []bool `yaml:"script,omitempty"`
}

// Delegate mode constants.
const (
	ModeAccept = "accept"
	ModeReject = "reject"
	ModeHold   = "hold"
	ModeScript = "script"
)

// Step is one scenario step. Exactly one of Key and Resolve is set.
type Step struct {
	Key     *KeyStep     `yaml:"key,omitempty"`
	Resolve *ResolveStep `yaml:"resolve,omitempty"`
}

// KeyStep feeds one raw key event into the arbiter.
type KeyStep struct {
	VirtualKey int    `yaml:"virtual_key"`
	ScanCode   int    `yaml:"scan_code"`
	Action     string `yaml:"action"`
	Character  string `yaml:"character,omitempty"`
	Extended   bool   `yaml:"extended,omitempty"`
	WasDown    bool   `yaml:"was_down,omitempty"`

	// ExpectClaimed, if set, asserts the HandleRawEvent return value:
	// true for claimed (offered to delegates), false for loopback.
	ExpectClaimed *bool `yaml:"expect_claimed,omitempty"`
}

// Event converts the step to a KeyEvent.
func (k *KeyStep) Event() (keyevent.KeyEvent, error) {
	action, err := keyevent.ParseAction(k.Action)
	if err != nil {
		return keyevent.KeyEvent{}, err
	}

	var ch rune
	if k.Character != "" {
		runes := []rune(k.Character)
		if len(runes) != 1 {
			return keyevent.KeyEvent{}, fmt.Errorf("character must be a single rune, got %q", k.Character)
		}
		ch = runes[0]
	}

	ev := keyevent.KeyEvent{
		VirtualKey: k.VirtualKey,
		ScanCode:   k.ScanCode,
		Action:     action,
		Character:  ch,
		Extended:   k.Extended,
		WasDown:    k.WasDown,
	}
	if err := ev.Validate(); err != nil {
		return keyevent.KeyEvent{}, err
	}
	return ev, nil
}

// ResolveStep answers a held delegate callback.
type ResolveStep struct {
	// Delegate names the delegate whose callback is resolved.
	Delegate string `yaml:"delegate"`

	// Call selects which of the delegate's recorded hook calls to answer,
	// 1-based in call order.
	Call int `yaml:"call"`

	// Accepted is the verdict to deliver.
	Accepted bool `yaml:"accepted"`
}

// Assertion validates the trace, injections, or counters after all
// steps have run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": count trace entries, optionally filtered
	// - "trace_order": entry types appear in this order (gaps allowed)
	// - "injection_count": total injections performed
	// - "injection_contains": an injection with scan_code/action exists
	// - "outstanding_redispatch": final RedispatchedCount value
	// - "pending_count": final PendingCount value
	// - "decision_outcome": the decision for the event at event_seq
	Type string `yaml:"type"`

	// Record filters trace entries by type: "event", "verdict", "decision"
	// (used by trace_count).
	Record string `yaml:"record,omitempty"`

	// Kind filters event entries: "raw" or "loopback" (trace_count).
	Kind string `yaml:"kind,omitempty"`

	// Outcome filters decision entries (trace_count) or names the
	// expected outcome (decision_outcome).
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of occurrences (trace_count,
	// injection_count, outstanding_redispatch, pending_count).
	Count int `yaml:"count,omitempty"`

	// Records is the expected entry type order (trace_order).
	Records []string `yaml:"records,omitempty"`

	// ScanCode and Action identify an injection (injection_contains).
	ScanCode int    `yaml:"scan_code,omitempty"`
	Action   string `yaml:"action,omitempty"`

	// EventSeq identifies an event by its journal seq (decision_outcome).
	EventSeq int64 `yaml:"event_seq,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount            = "trace_count"
	AssertTraceOrder            = "trace_order"
	AssertInjectionCount        = "injection_count"
	AssertInjectionContains     = "injection_contains"
	AssertOutstandingRedispatch = "outstanding_redispatch"
	AssertPendingCount          = "pending_count"
	AssertDecisionOutcome       = "decision_outcome"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every .yaml/.yml scenario in a directory,
// sorted by filename for deterministic suite order.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}

	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool, len(s.Delegates))
	for i, d := range s.Delegates {
		if d.Name == "" {
			return fmt.Errorf("delegates[%d]: name is required", i)
		}
		if names[d.Name] {
			return fmt.Errorf("delegates[%d]: duplicate name %q", i, d.Name)
		}
		names[d.Name] = true

		switch d.Mode {
		case ModeAccept, ModeReject, ModeHold:
			if len(d.Script) > 0 {
				return fmt.Errorf("delegates[%d]: script is only valid for mode %q", i, ModeScript)
			}
		case ModeScript:
			if len(d.Script) == 0 {
				return fmt.Errorf("delegates[%d]: script is required for mode %q", i, ModeScript)
			}
		default:
			return fmt.Errorf("delegates[%d]: unknown mode %q", i, d.Mode)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, names); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step.
func validateStep(index int, step *Step, delegates map[string]bool) error {
	if step.Key == nil && step.Resolve == nil {
		return fmt.Errorf("steps[%d]: either key or resolve is required", index)
	}
	if step.Key != nil && step.Resolve != nil {
		return fmt.Errorf("steps[%d]: key and resolve are mutually exclusive", index)
	}

	if step.Key != nil {
		if _, err := step.Key.Event(); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
		return nil
	}

	r := step.Resolve
	if r.Delegate == "" {
		return fmt.Errorf("steps[%d]: resolve.delegate is required", index)
	}
	if !delegates[r.Delegate] {
		return fmt.Errorf("steps[%d]: resolve references unknown delegate %q", index, r.Delegate)
	}
	if r.Call < 1 {
		return fmt.Errorf("steps[%d]: resolve.call must be >= 1 (1-based)", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceCount:
		if a.Record != "" && a.Record != "event" && a.Record != "verdict" && a.Record != "decision" {
			return fmt.Errorf("assertions[%d]: unknown record type %q", index, a.Record)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceOrder:
		if len(a.Records) == 0 {
			return fmt.Errorf("assertions[%d]: records list is required for trace_order", index)
		}
	case AssertInjectionCount, AssertOutstandingRedispatch, AssertPendingCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertInjectionContains:
		if a.ScanCode <= 0 {
			return fmt.Errorf("assertions[%d]: scan_code is required for injection_contains", index)
		}
		if _, err := keyevent.ParseAction(a.Action); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertDecisionOutcome:
		if a.EventSeq <= 0 {
			return fmt.Errorf("assertions[%d]: event_seq is required for decision_outcome", index)
		}
		if !keyevent.Outcome(a.Outcome).Valid() {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
