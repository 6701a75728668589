package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/keygate-dev/keygate/internal/arbiter"
	"github.com/keygate-dev/keygate/internal/journal"
	"github.com/keygate-dev/keygate/internal/keyevent"
	"github.com/keygate-dev/keygate/internal/testutil"
)

// Harness drives one scenario against a real arbiter.
//
// Each scenario runs with a fresh in-memory journal, a fixed session
// token, and a capture injector, so the journaled trace is fully
// deterministic and comparable against golden files.
type Harness struct {
	journal   *journal.Journal
	arbiter   *arbiter.Arbiter
	injector  *testutil.CaptureInjector
	delegates map[string]*scriptedDelegate
	logger    *slog.Logger
}

// scriptedDelegate implements one DelegateSpec. It records every hook
// call so resolve steps can answer held callbacks later.
type scriptedDelegate struct {
	spec  DelegateSpec
	calls []arbiter.ResponseFunc
}

func (d *scriptedDelegate) KeyboardHook(_ keyevent.KeyEvent, respond arbiter.ResponseFunc) {
	call := len(d.calls)
	d.calls = append(d.calls, respond)

	switch d.spec.Mode {
	case ModeAccept:
		respond(true)
	case ModeReject:
		respond(false)
	case ModeScript:
		// Out-of-script calls are held; scenario validation makes this a
		// visible assertion failure via pending_count rather than a panic.
		if call < len(d.spec.Script) {
			respond(d.spec.Script[call])
		}
	case ModeHold:
		// Resolved later by a resolve step, or never.
	}
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
//  1. Create fresh in-memory journal
//  2. Build the arbiter with deterministic session token and clock
//  3. Register scripted delegates in declaration order
//  4. Execute steps, checking expect_claimed inline
//  5. Read the journaled trace back and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	j, err := journal.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	ctx := context.Background()
	injector := testutil.NewCaptureInjector()

	a := arbiter.New(injector,
		arbiter.WithRecorder(journal.NewRecorder(j, ctx)),
		arbiter.WithTokenGenerator(arbiter.NewStaticGenerator(scenario.SessionToken)),
		arbiter.WithClock(arbiter.NewClock()),
	)

	h := &Harness{
		journal:   j,
		arbiter:   a,
		injector:  injector,
		delegates: make(map[string]*scriptedDelegate, len(scenario.Delegates)),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	for _, spec := range scenario.Delegates {
		d := &scriptedDelegate{spec: spec}
		h.delegates[spec.Name] = d
		a.AddDelegate(d)
	}

	result := NewResult()
	if err := h.executeSteps(scenario.Steps, result); err != nil {
		return nil, fmt.Errorf("failed to execute steps: %w", err)
	}

	if err := h.collectTrace(ctx, a.SessionToken(), result); err != nil {
		return nil, fmt.Errorf("failed to collect trace: %w", err)
	}

	for _, inj := range injector.Injections() {
		result.Injections = append(result.Injections, Injection{
			ScanCode: inj.ScanCode,
			Action:   inj.Action.String(),
			Extended: inj.Extended,
		})
	}
	result.OutstandingRedispatch = a.RedispatchedCount()
	result.PendingCount = a.PendingCount()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeSteps runs all scenario steps in order.
func (h *Harness) executeSteps(steps []Step, result *Result) error {
	for i, step := range steps {
		if step.Key != nil {
			if err := h.executeKeyStep(i, step.Key, result); err != nil {
				return err
			}
			continue
		}
		if err := h.executeResolveStep(i, step.Resolve); err != nil {
			return err
		}
	}
	return nil
}

func (h *Harness) executeKeyStep(index int, step *KeyStep, result *Result) error {
	ev, err := step.Event()
	if err != nil {
		return fmt.Errorf("step %d: %w", index, err)
	}

	claimed := h.arbiter.HandleRawEvent(ev)
	h.logger.Info("key step executed", "step", index, "event", ev.String(), "claimed", claimed)

	if step.ExpectClaimed != nil && claimed != *step.ExpectClaimed {
		result.AddError(fmt.Sprintf(
			"step %d: HandleRawEvent(%s) = %t, expected %t",
			index, ev.String(), claimed, *step.ExpectClaimed))
	}
	return nil
}

func (h *Harness) executeResolveStep(index int, step *ResolveStep) error {
	d, ok := h.delegates[step.Delegate]
	if !ok {
		return fmt.Errorf("step %d: unknown delegate %q", index, step.Delegate)
	}
	if step.Call > len(d.calls) {
		return fmt.Errorf("step %d: delegate %q has %d recorded calls, resolve asks for call %d",
			index, step.Delegate, len(d.calls), step.Call)
	}

	d.calls[step.Call-1](step.Accepted)
	h.logger.Info("resolve step executed",
		"step", index, "delegate", step.Delegate, "call", step.Call, "accepted", step.Accepted)
	return nil
}

// collectTrace reads the session's journal back into the result.
func (h *Harness) collectTrace(ctx context.Context, sessionToken string, result *Result) error {
	entries, err := h.journal.ReplaySession(ctx, sessionToken)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		result.Trace = append(result.Trace, flattenEntry(entry))
	}
	return nil
}

// flattenEntry converts a journal timeline entry to the harness trace form.
func flattenEntry(entry journal.TimelineEntry) TraceEntry {
	switch entry.Type {
	case journal.EntryEvent:
		e := entry.Event
		ch := ""
		if e.Event.Character != 0 {
			ch = string(e.Event.Character)
		}
		return TraceEntry{
			Type:       "event",
			Seq:        e.Seq,
			Kind:       string(e.Kind),
			VirtualKey: e.Event.VirtualKey,
			ScanCode:   e.Event.ScanCode,
			Action:     e.Event.Action.String(),
			Character:  ch,
			Extended:   e.Event.Extended,
			WasDown:    e.Event.WasDown,
		}
	case journal.EntryVerdict:
		v := entry.Verdict
		return TraceEntry{
			Type:     "verdict",
			Seq:      v.Seq,
			Delegate: v.DelegateID,
			Accepted: v.Accepted,
			EventSeq: v.EventSeq,
		}
	default:
		d := entry.Decision
		return TraceEntry{
			Type:     "decision",
			Seq:      d.Seq,
			EventSeq: d.EventSeq,
			Outcome:  string(d.Outcome),
		}
	}
}
