package arbiter

import (
	"io"
	"log/slog"

	"github.com/keygate-dev/keygate/internal/inject"
	"github.com/keygate-dev/keygate/internal/keyevent"
)

// Arbiter coordinates key-event arbitration between the platform's raw
// input callback and the registered delegates.
//
// Thread-safety model:
//   - All methods must be called from the arbiter's owning context.
//   - Delegates responding from another goroutine marshal through a Loop.
//   - The arbiter itself performs no locking.
//
// INVARIANTS:
//   - Delegate offer order is registration order and never changes.
//   - Each event finalizes exactly once, triggered by the last verdict.
//   - A verdict for an already finalized event is a silent no-op.
type Arbiter struct {
	delegates  []Delegate
	pending    *pendingLedger
	redispatch *redispatchTracker
	injector   inject.Injector
	clock      *Clock
	recorder   Recorder
	logger     *slog.Logger

	sessionToken string
}

// Option configures an Arbiter.
type Option func(*Arbiter)

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Arbiter) {
		a.logger = logger
	}
}

// WithRecorder attaches a journal recorder. Defaults to a no-op recorder.
func WithRecorder(r Recorder) Option {
	return func(a *Arbiter) {
		a.recorder = r
	}
}

// WithTokenGenerator overrides the session token source.
// Tests use a StaticGenerator for deterministic journals.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(a *Arbiter) {
		a.sessionToken = gen.Generate()
	}
}

// WithClock overrides the logical clock.
// Used when resuming an existing journaled session.
func WithClock(clock *Clock) Option {
	return func(a *Arbiter) {
		a.clock = clock
	}
}

// New creates an Arbiter that redispatches unclaimed events through
// injector. The session token defaults to a fresh UUIDv7.
func New(injector inject.Injector, opts ...Option) *Arbiter {
	a := &Arbiter{
		pending:      newPendingLedger(),
		redispatch:   newRedispatchTracker(),
		injector:     injector,
		clock:        NewClock(),
		recorder:     nopRecorder{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		sessionToken: UUIDv7Generator{}.Generate(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SessionToken returns the token correlating this arbiter's journal records.
func (a *Arbiter) SessionToken() string {
	return a.sessionToken
}

// AddDelegate appends a delegate to the ordered receiver list.
// Delegates registered while events are pending only see later events.
func (a *Arbiter) AddDelegate(d Delegate) {
	a.delegates = append(a.delegates, d)
}

// RedispatchedCount returns the number of injected events whose loopback
// has not yet arrived. It returns to zero once all loopbacks are consumed
// and is never negative.
func (a *Arbiter) RedispatchedCount() int {
	return a.redispatch.count()
}

// PendingCount returns the number of events awaiting delegate verdicts.
// A delegate that never responds leaves its event here permanently; embedders
// wanting a timeout policy can watch this observable.
func (a *Arbiter) PendingCount() int {
	return a.pending.len()
}

// HandleRawEvent processes one observation from the platform's raw input
// callback.
//
// The return value tells the platform whether this layer has taken custody
// of the event:
//
//   - false: the event is a recognized loopback of a previous redispatch.
//     No delegate is consulted; default platform processing should proceed.
//   - true: the event has been offered to all delegates and may still be
//     replayed synthetically; the platform must not apply default processing.
//
// HandleRawEvent never blocks. It returns true immediately after fan-out
// even if no delegate has responded yet; the redispatch decision happens
// whenever the last verdict arrives.
func (a *Arbiter) HandleRawEvent(ev keyevent.KeyEvent) bool {
	if a.redispatch.consume(ev.ScanCode, ev.Action) {
		a.recordEvent(keyevent.KindLoopback, ev, keyevent.OutcomePassthrough)
		a.logger.Debug("loopback consumed", "scan_code", ev.ScanCode, "action", ev.Action.String())
		return false
	}

	seq := a.clock.Next()
	record, err := keyevent.NewEventRecord(a.sessionToken, keyevent.KindRaw, ev, seq)
	if err != nil {
		// Only malformed events hash-fail; arbitration still proceeds so a
		// journaling problem can never eat a key.
		a.logger.Error("event record failed", "error", err)
		record = keyevent.EventRecord{SessionToken: a.sessionToken, Seq: seq, Kind: keyevent.KindRaw, Event: ev}
	} else if err := a.recorder.RecordEvent(record); err != nil {
		a.logger.Error("journal event failed", "error", err, "scan_code", ev.ScanCode)
	}

	p := a.pending.add(record, len(a.delegates))
	a.logger.Debug("event accepted", "scan_code", ev.ScanCode, "action", ev.Action.String(), "delegates", len(a.delegates))

	if len(a.delegates) == 0 {
		// Nothing can claim the event; resolve immediately as unclaimed.
		a.finalize(p)
		return true
	}

	for id, d := range a.delegates {
		d.KeyboardHook(ev, a.bindResponse(p, id))
	}

	return true
}

// bindResponse creates the one-shot response func for one (event, delegate)
// pair. The func is bound to the pending entry itself, so a duplicate scan
// code in flight can never receive the wrong verdict.
func (a *Arbiter) bindResponse(p *pendingEvent, delegateID int) ResponseFunc {
	responded := false
	return func(handled bool) {
		if responded {
			a.logger.Warn("duplicate delegate response ignored",
				"delegate", delegateID, "scan_code", p.record.Event.ScanCode)
			return
		}
		responded = true

		if p.finalized {
			// Stale response after finalization. Defends against delegates
			// that respond for every pending entry they ever saw.
			a.logger.Warn("stale delegate response ignored",
				"delegate", delegateID, "scan_code", p.record.Event.ScanCode)
			return
		}

		a.recordVerdict(p, delegateID, handled)

		p.accepted = p.accepted || handled
		p.outstanding--
		if p.outstanding == 0 {
			a.finalize(p)
		}
	}
}

// finalize applies the aggregate decision for a fully resolved event:
// accepted events are discarded, rejected events are injected back into
// the platform pipeline and tracked for loopback.
func (a *Arbiter) finalize(p *pendingEvent) {
	p.finalized = true
	a.pending.remove(p)

	ev := p.record.Event
	if p.accepted {
		a.recordDecision(p, keyevent.OutcomeHandled)
		a.logger.Debug("event handled", "scan_code", ev.ScanCode)
		return
	}

	// Track before injecting: on a reentrant pipeline the loopback may
	// arrive before Inject returns.
	a.redispatch.track(ev.ScanCode, ev.Action, ev.Extended)
	if err := a.injector.Inject(ev.ScanCode, ev.Action, ev.Extended); err != nil {
		// No loopback will arrive for a failed injection; withdrawing the
		// record keeps RedispatchedCount honest.
		a.redispatch.withdraw(ev.ScanCode, ev.Action)
		a.logger.Error("redispatch injection failed", "error", err, "scan_code", ev.ScanCode)
		return
	}

	a.recordDecision(p, keyevent.OutcomeRedispatched)
	a.logger.Debug("event redispatched", "scan_code", ev.ScanCode, "action", ev.Action.String())
}

// recordEvent journals a loopback event together with its passthrough
// decision.
func (a *Arbiter) recordEvent(kind keyevent.EventKind, ev keyevent.KeyEvent, outcome keyevent.Outcome) {
	seq := a.clock.Next()
	record, err := keyevent.NewEventRecord(a.sessionToken, kind, ev, seq)
	if err != nil {
		a.logger.Error("event record failed", "error", err)
		return
	}
	if err := a.recorder.RecordEvent(record); err != nil {
		a.logger.Error("journal event failed", "error", err, "scan_code", ev.ScanCode)
		return
	}

	decision, err := keyevent.NewDecisionRecord(record.ID, record.Seq, outcome, a.clock.Next())
	if err != nil {
		a.logger.Error("decision record failed", "error", err)
		return
	}
	if err := a.recorder.RecordDecision(decision); err != nil {
		a.logger.Error("journal decision failed", "error", err, "scan_code", ev.ScanCode)
	}
}

func (a *Arbiter) recordVerdict(p *pendingEvent, delegateID int, accepted bool) {
	rec, err := keyevent.NewVerdictRecord(p.record.ID, p.record.Seq, delegateID, accepted, a.clock.Next())
	if err != nil {
		a.logger.Error("verdict record failed", "error", err)
		return
	}
	if err := a.recorder.RecordVerdict(rec); err != nil {
		a.logger.Error("journal verdict failed", "error", err, "delegate", delegateID)
	}
}

func (a *Arbiter) recordDecision(p *pendingEvent, outcome keyevent.Outcome) {
	rec, err := keyevent.NewDecisionRecord(p.record.ID, p.record.Seq, outcome, a.clock.Next())
	if err != nil {
		a.logger.Error("decision record failed", "error", err)
		return
	}
	if err := a.recorder.RecordDecision(rec); err != nil {
		a.logger.Error("journal decision failed", "error", err, "scan_code", p.record.Event.ScanCode)
	}
}
