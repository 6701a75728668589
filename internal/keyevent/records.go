package keyevent

import "fmt"

// EventKind distinguishes how an event entered the arbiter.
type EventKind string

const (
	// KindRaw is a genuinely new event accepted for arbitration.
	KindRaw EventKind = "raw"
	// KindLoopback is a previously redispatched event returning through the
	// platform pipeline. Loopback events are passed through, never fanned out.
	KindLoopback EventKind = "loopback"
)

// Valid reports whether k is a known event kind.
func (k EventKind) Valid() bool {
	return k == KindRaw || k == KindLoopback
}

// Outcome is the final arbitration decision for one event.
type Outcome string

const (
	// OutcomeHandled means at least one delegate accepted the event; it is
	// fully consumed and never redispatched.
	OutcomeHandled Outcome = "handled"
	// OutcomeRedispatched means every delegate rejected the event and a
	// synthetic replay was injected into the platform pipeline.
	OutcomeRedispatched Outcome = "redispatched"
	// OutcomePassthrough means the event was a recognized loopback and was
	// handed back to default platform processing untouched.
	OutcomePassthrough Outcome = "passthrough"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeHandled, OutcomeRedispatched, OutcomePassthrough:
		return true
	}
	return false
}

// EventRecord is one journaled key event observation.
type EventRecord struct {
	ID           string
	SessionToken string
	Seq          int64
	Kind         EventKind
	Event        KeyEvent
}

// NewEventRecord stamps an event with its content-addressed ID.
func NewEventRecord(sessionToken string, kind EventKind, ev KeyEvent, seq int64) (EventRecord, error) {
	if !kind.Valid() {
		return EventRecord{}, fmt.Errorf("event record: invalid kind %q", kind)
	}
	id, err := EventRecordID(sessionToken, kind, ev, seq)
	if err != nil {
		return EventRecord{}, err
	}
	return EventRecord{
		ID:           id,
		SessionToken: sessionToken,
		Seq:          seq,
		Kind:         kind,
		Event:        ev,
	}, nil
}

// VerdictRecord is one delegate's response to one event.
// Each (event, delegate) pair produces exactly one verdict.
type VerdictRecord struct {
	ID         string
	EventID    string
	EventSeq   int64
	DelegateID int
	Accepted   bool
	Seq        int64
}

// NewVerdictRecord stamps a verdict with its content-addressed ID.
func NewVerdictRecord(eventID string, eventSeq int64, delegateID int, accepted bool, seq int64) (VerdictRecord, error) {
	id, err := VerdictID(eventID, delegateID, accepted, seq)
	if err != nil {
		return VerdictRecord{}, err
	}
	return VerdictRecord{
		ID:         id,
		EventID:    eventID,
		EventSeq:   eventSeq,
		DelegateID: delegateID,
		Accepted:   accepted,
		Seq:        seq,
	}, nil
}

// DecisionRecord is the final arbitration decision for one event.
// Each event has at most one decision.
type DecisionRecord struct {
	ID       string
	EventID  string
	EventSeq int64
	Outcome  Outcome
	Seq      int64
}

// NewDecisionRecord stamps a decision with its content-addressed ID.
func NewDecisionRecord(eventID string, eventSeq int64, outcome Outcome, seq int64) (DecisionRecord, error) {
	if !outcome.Valid() {
		return DecisionRecord{}, fmt.Errorf("decision record: invalid outcome %q", outcome)
	}
	id, err := DecisionID(eventID, outcome, seq)
	if err != nil {
		return DecisionRecord{}, err
	}
	return DecisionRecord{
		ID:       id,
		EventID:  eventID,
		EventSeq: eventSeq,
		Outcome:  outcome,
		Seq:      seq,
	}, nil
}
