package journal

import (
	"context"
	"fmt"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// WriteEvent inserts an event record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are
// silently ignored. Other constraint violations still return errors.
func (j *Journal) WriteEvent(ctx context.Context, rec keyevent.EventRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO events
		(id, session_token, seq, kind, virtual_key, scan_code, action, character, extended, was_down)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SessionToken,
		rec.Seq,
		string(rec.Kind),
		rec.Event.VirtualKey,
		rec.Event.ScanCode,
		rec.Event.Action.String(),
		int64(rec.Event.Character),
		rec.Event.Extended,
		rec.Event.WasDown,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteVerdict inserts a verdict record.
// ON CONFLICT DO NOTHING handles both:
//  1. Duplicate verdict ID (same verdict written twice)
//  2. Duplicate (event_id, delegate_id) pair (second verdict from the
//     same delegate for the same event)
//
// Both are silently ignored for idempotency.
//
// The event referenced by EventID must exist (foreign key constraint).
func (j *Journal) WriteVerdict(ctx context.Context, rec keyevent.VerdictRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(id, event_id, event_seq, delegate_id, accepted, seq)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.EventID,
		rec.EventSeq,
		rec.DelegateID,
		rec.Accepted,
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write verdict: %w", err)
	}
	return nil
}

// WriteDecision inserts a decision record.
// Each event can have exactly ONE decision (UNIQUE constraint on
// event_id); duplicate writes are silently ignored.
//
// The event referenced by EventID must exist (foreign key constraint).
func (j *Journal) WriteDecision(ctx context.Context, rec keyevent.DecisionRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO decisions
		(id, event_id, event_seq, outcome, seq)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		rec.ID,
		rec.EventID,
		rec.EventSeq,
		string(rec.Outcome),
		rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("write decision: %w", err)
	}
	return nil
}
