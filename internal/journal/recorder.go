package journal

import (
	"context"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// Recorder adapts a Journal to the arbiter's recorder contract.
//
// The arbiter records synchronously from its owning context and carries
// no context of its own, so the adapter holds one. Cancelling ctx stops
// further writes without disturbing arbitration.
type Recorder struct {
	journal *Journal
	ctx     context.Context
}

// NewRecorder creates a recorder writing into journal.
// A nil ctx defaults to context.Background().
func NewRecorder(journal *Journal, ctx context.Context) *Recorder {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Recorder{journal: journal, ctx: ctx}
}

// RecordEvent journals one event record.
func (r *Recorder) RecordEvent(rec keyevent.EventRecord) error {
	return r.journal.WriteEvent(r.ctx, rec)
}

// RecordVerdict journals one verdict record.
func (r *Recorder) RecordVerdict(rec keyevent.VerdictRecord) error {
	return r.journal.WriteVerdict(r.ctx, rec)
}

// RecordDecision journals one decision record.
func (r *Recorder) RecordDecision(rec keyevent.DecisionRecord) error {
	return r.journal.WriteDecision(r.ctx, rec)
}
