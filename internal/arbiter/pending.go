package arbiter

import "github.com/keygate-dev/keygate/internal/keyevent"

// pendingEvent is the in-flight aggregation record for one raw event,
// alive between fan-out and the final handled/redispatch decision.
//
// It is strictly transient: the entry is destroyed the instant the last
// outstanding delegate responds. It is not a queue entry awaiting any
// consumer action.
type pendingEvent struct {
	record      keyevent.EventRecord
	outstanding int
	accepted    bool
	finalized   bool
}

// pendingLedger tracks all in-flight events.
//
// Entries are held in arrival order. Two in-flight events with the same
// scan code are allowed: responses are bound to their entry when the event
// is fanned out, never looked up by scan code, so duplicates cannot
// cross-talk.
type pendingLedger struct {
	entries []*pendingEvent
}

func newPendingLedger() *pendingLedger {
	return &pendingLedger{}
}

// add creates a pending entry for a freshly accepted raw event.
func (l *pendingLedger) add(record keyevent.EventRecord, delegates int) *pendingEvent {
	p := &pendingEvent{
		record:      record,
		outstanding: delegates,
	}
	l.entries = append(l.entries, p)
	return p
}

// remove drops the entry from the ledger. Removing an entry that is no
// longer present is a no-op.
func (l *pendingLedger) remove(p *pendingEvent) {
	for i, entry := range l.entries {
		if entry == p {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			return
		}
	}
}

// len returns the number of in-flight events.
func (l *pendingLedger) len() int {
	return len(l.entries)
}
