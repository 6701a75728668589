package arbiter

import "github.com/keygate-dev/keygate/internal/keyevent"

// redispatchRecord marks one synthetically re-injected event awaiting its
// loopback arrival. The action edge is kept alongside the scan code so
// repeated down/up sequences on the same physical key are not confused.
type redispatchRecord struct {
	scanCode int
	action   keyevent.Action
	extended bool
}

// redispatchTracker holds the outstanding redispatch records.
//
// Matching is FIFO per (scan code, action): if the same key is redispatched
// twice before either loopback returns, the loopbacks consume records in
// injection order. A loopback that matches no record is indistinguishable
// from a genuine key press and is treated as new input by the arbiter.
type redispatchTracker struct {
	records []redispatchRecord
}

func newRedispatchTracker() *redispatchTracker {
	return &redispatchTracker{}
}

// track registers a freshly injected event so its loopback is recognized.
func (t *redispatchTracker) track(scanCode int, action keyevent.Action, extended bool) {
	t.records = append(t.records, redispatchRecord{
		scanCode: scanCode,
		action:   action,
		extended: extended,
	})
}

// consume removes the oldest record matching the scan code and action.
// Returns true if a record was consumed, meaning the event is a loopback.
func (t *redispatchTracker) consume(scanCode int, action keyevent.Action) bool {
	for i, rec := range t.records {
		if rec.scanCode == scanCode && rec.action == action {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return true
		}
	}
	return false
}

// withdraw removes the newest record for the scan code and action.
// Used when an injection fails after the record was tracked: no loopback
// will ever arrive for it.
func (t *redispatchTracker) withdraw(scanCode int, action keyevent.Action) {
	for i := len(t.records) - 1; i >= 0; i-- {
		rec := t.records[i]
		if rec.scanCode == scanCode && rec.action == action {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return
		}
	}
}

// count returns the number of outstanding redispatch records.
func (t *redispatchTracker) count() int {
	return len(t.records)
}
