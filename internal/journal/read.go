package journal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// ReadSession returns all events, verdicts, and decisions for a session
// token. Results are ordered deterministically: ORDER BY seq ASC,
// id COLLATE BINARY ASC.
//
// Returns empty slices (not nil) if no records exist for the session.
func (j *Journal) ReadSession(ctx context.Context, sessionToken string) ([]keyevent.EventRecord, []keyevent.VerdictRecord, []keyevent.DecisionRecord, error) {
	events, err := j.readSessionEvents(ctx, sessionToken)
	if err != nil {
		return nil, nil, nil, err
	}

	verdicts, err := j.readSessionVerdicts(ctx, sessionToken)
	if err != nil {
		return nil, nil, nil, err
	}

	decisions, err := j.readSessionDecisions(ctx, sessionToken)
	if err != nil {
		return nil, nil, nil, err
	}

	return events, verdicts, decisions, nil
}

func (j *Journal) readSessionEvents(ctx context.Context, sessionToken string) ([]keyevent.EventRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session_token, seq, kind, virtual_key, scan_code, action, character, extended, was_down
		FROM events
		WHERE session_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []keyevent.EventRecord
	for rows.Next() {
		rec, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []keyevent.EventRecord{}
	}

	return events, nil
}

func (j *Journal) readSessionVerdicts(ctx context.Context, sessionToken string) ([]keyevent.VerdictRecord, error) {
	// Join with events to filter by session_token.
	rows, err := j.db.QueryContext(ctx, `
		SELECT v.id, v.event_id, v.event_seq, v.delegate_id, v.accepted, v.seq
		FROM verdicts v
		JOIN events e ON v.event_id = e.id
		WHERE e.session_token = ?
		ORDER BY v.seq ASC, v.id COLLATE BINARY ASC
	`, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []keyevent.VerdictRecord
	for rows.Next() {
		var rec keyevent.VerdictRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventSeq, &rec.DelegateID, &rec.Accepted, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	if verdicts == nil {
		verdicts = []keyevent.VerdictRecord{}
	}

	return verdicts, nil
}

func (j *Journal) readSessionDecisions(ctx context.Context, sessionToken string) ([]keyevent.DecisionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT d.id, d.event_id, d.event_seq, d.outcome, d.seq
		FROM decisions d
		JOIN events e ON d.event_id = e.id
		WHERE e.session_token = ?
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC
	`, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []keyevent.DecisionRecord
	for rows.Next() {
		rec, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}

	if decisions == nil {
		decisions = []keyevent.DecisionRecord{}
	}

	return decisions, nil
}

// ReadEvent retrieves a single event record by ID.
// Returns sql.ErrNoRows if not found.
func (j *Journal) ReadEvent(ctx context.Context, id string) (keyevent.EventRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, session_token, seq, kind, virtual_key, scan_code, action, character, extended, was_down
		FROM events
		WHERE id = ?
	`, id)
	return scanEventRow(row)
}

// ReadVerdictsForEvent returns all verdicts recorded for one event.
// Results ordered by seq ASC, id COLLATE BINARY ASC.
func (j *Journal) ReadVerdictsForEvent(ctx context.Context, eventID string) ([]keyevent.VerdictRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, event_id, event_seq, delegate_id, accepted, seq
		FROM verdicts
		WHERE event_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("query verdicts for event: %w", err)
	}
	defer rows.Close()

	var verdicts []keyevent.VerdictRecord
	for rows.Next() {
		var rec keyevent.VerdictRecord
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventSeq, &rec.DelegateID, &rec.Accepted, &rec.Seq); err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		verdicts = append(verdicts, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}

	if verdicts == nil {
		verdicts = []keyevent.VerdictRecord{}
	}

	return verdicts, nil
}

// ReadDecisionForEvent retrieves the decision for one event.
// Returns sql.ErrNoRows if the event has no decision yet.
func (j *Journal) ReadDecisionForEvent(ctx context.Context, eventID string) (keyevent.DecisionRecord, error) {
	var rec keyevent.DecisionRecord
	var outcome string
	err := j.db.QueryRowContext(ctx, `
		SELECT id, event_id, event_seq, outcome, seq
		FROM decisions
		WHERE event_id = ?
	`, eventID).Scan(&rec.ID, &rec.EventID, &rec.EventSeq, &outcome, &rec.Seq)
	if err != nil {
		return keyevent.DecisionRecord{}, err
	}
	rec.Outcome = keyevent.Outcome(outcome)
	return rec, nil
}

// scanEvent scans a multi-row result into an EventRecord.
func scanEvent(rows *sql.Rows) (keyevent.EventRecord, error) {
	var rec keyevent.EventRecord
	var kind, action string
	var character int64

	if err := rows.Scan(
		&rec.ID, &rec.SessionToken, &rec.Seq, &kind,
		&rec.Event.VirtualKey, &rec.Event.ScanCode, &action,
		&character, &rec.Event.Extended, &rec.Event.WasDown,
	); err != nil {
		return keyevent.EventRecord{}, fmt.Errorf("scan event: %w", err)
	}

	return finishEvent(rec, kind, action, character)
}

// scanEventRow scans a single-row result into an EventRecord.
func scanEventRow(row *sql.Row) (keyevent.EventRecord, error) {
	var rec keyevent.EventRecord
	var kind, action string
	var character int64

	if err := row.Scan(
		&rec.ID, &rec.SessionToken, &rec.Seq, &kind,
		&rec.Event.VirtualKey, &rec.Event.ScanCode, &action,
		&character, &rec.Event.Extended, &rec.Event.WasDown,
	); err != nil {
		return keyevent.EventRecord{}, err
	}

	return finishEvent(rec, kind, action, character)
}

func finishEvent(rec keyevent.EventRecord, kind, action string, character int64) (keyevent.EventRecord, error) {
	rec.Kind = keyevent.EventKind(kind)
	if !rec.Kind.Valid() {
		return keyevent.EventRecord{}, fmt.Errorf("scan event: unknown kind %q", kind)
	}

	a, err := keyevent.ParseAction(action)
	if err != nil {
		return keyevent.EventRecord{}, fmt.Errorf("scan event: %w", err)
	}
	rec.Event.Action = a
	rec.Event.Character = rune(character)

	return rec, nil
}

func scanDecision(rows *sql.Rows) (keyevent.DecisionRecord, error) {
	var rec keyevent.DecisionRecord
	var outcome string
	if err := rows.Scan(&rec.ID, &rec.EventID, &rec.EventSeq, &outcome, &rec.Seq); err != nil {
		return keyevent.DecisionRecord{}, fmt.Errorf("scan decision: %w", err)
	}
	rec.Outcome = keyevent.Outcome(outcome)
	if !rec.Outcome.Valid() {
		return keyevent.DecisionRecord{}, fmt.Errorf("scan decision: unknown outcome %q", outcome)
	}
	return rec, nil
}
