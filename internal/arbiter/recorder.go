package arbiter

import "github.com/keygate-dev/keygate/internal/keyevent"

// Recorder receives every arbitration record as it is produced.
// Implemented by the journal package; tests use in-memory recorders.
//
// Recording is observational: a failing recorder never changes an
// arbitration decision. Errors are reported to the arbiter's logger.
type Recorder interface {
	RecordEvent(rec keyevent.EventRecord) error
	RecordVerdict(rec keyevent.VerdictRecord) error
	RecordDecision(rec keyevent.DecisionRecord) error
}

// nopRecorder discards all records. Used when no journal is attached.
type nopRecorder struct{}

func (nopRecorder) RecordEvent(keyevent.EventRecord) error       { return nil }
func (nopRecorder) RecordVerdict(keyevent.VerdictRecord) error   { return nil }
func (nopRecorder) RecordDecision(keyevent.DecisionRecord) error { return nil }
