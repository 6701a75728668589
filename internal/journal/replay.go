package journal

import (
	"context"
	"fmt"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// SessionState summarizes one session for inspection and recovery.
type SessionState struct {
	SessionToken string
	Events       []keyevent.EventRecord
	Verdicts     []keyevent.VerdictRecord
	Decisions    []keyevent.DecisionRecord
	LastSeq      int64
	Undecided    int // Raw events without a decision record
}

// GetSessionState retrieves the full state of a session with analysis
// of decision completeness.
func (j *Journal) GetSessionState(ctx context.Context, sessionToken string) (SessionState, error) {
	state := SessionState{SessionToken: sessionToken}

	events, verdicts, decisions, err := j.ReadSession(ctx, sessionToken)
	if err != nil {
		return state, fmt.Errorf("get session state: %w", err)
	}
	state.Events = events
	state.Verdicts = verdicts
	state.Decisions = decisions

	decided := make(map[string]bool, len(decisions))
	for _, d := range decisions {
		decided[d.EventID] = true
		if d.Seq > state.LastSeq {
			state.LastSeq = d.Seq
		}
	}
	for _, v := range verdicts {
		if v.Seq > state.LastSeq {
			state.LastSeq = v.Seq
		}
	}
	for _, e := range events {
		if e.Seq > state.LastSeq {
			state.LastSeq = e.Seq
		}
		// A raw event with no decision is still mid-arbitration (or the
		// session was cut short). Loopbacks always carry a decision.
		if e.Kind == keyevent.KindRaw && !decided[e.ID] {
			state.Undecided++
		}
	}

	return state, nil
}

// TimelineEntry is a single entry in a session's merged replay timeline.
// Exactly one of Event, Verdict, Decision is non-nil, indicated by Type.
type TimelineEntry struct {
	Type     EntryType
	Seq      int64
	ID       string
	Event    *keyevent.EventRecord
	Verdict  *keyevent.VerdictRecord
	Decision *keyevent.DecisionRecord
}

// EntryType distinguishes record kinds in a timeline.
type EntryType int

const (
	EntryEvent EntryType = iota
	EntryVerdict
	EntryDecision
)

// String returns the entry type as a string.
func (t EntryType) String() string {
	switch t {
	case EntryEvent:
		return "event"
	case EntryVerdict:
		return "verdict"
	case EntryDecision:
		return "decision"
	default:
		return "unknown"
	}
}

// ReplaySession returns all records for a session merged into one
// seq-ordered timeline. Replaying the timeline reproduces the exact
// interleaving of observations, verdicts, and decisions the arbiter saw.
func (j *Journal) ReplaySession(ctx context.Context, sessionToken string) ([]TimelineEntry, error) {
	events, verdicts, decisions, err := j.ReadSession(ctx, sessionToken)
	if err != nil {
		return nil, err
	}

	entries := make([]TimelineEntry, 0, len(events)+len(verdicts)+len(decisions))

	for i := range events {
		e := &events[i]
		entries = append(entries, TimelineEntry{Type: EntryEvent, Seq: e.Seq, ID: e.ID, Event: e})
	}
	for i := range verdicts {
		v := &verdicts[i]
		entries = append(entries, TimelineEntry{Type: EntryVerdict, Seq: v.Seq, ID: v.ID, Verdict: v})
	}
	for i := range decisions {
		d := &decisions[i]
		entries = append(entries, TimelineEntry{Type: EntryDecision, Seq: d.Seq, ID: d.ID, Decision: d})
	}

	sortTimeline(entries)
	return entries, nil
}

// sortTimeline sorts entries by seq, then type, then ID.
// Seqs are unique per session in practice (one logical clock), the
// tie-breakers keep ordering total even for hand-built journals.
func sortTimeline(entries []TimelineEntry) {
	for i := 1; i < len(entries); i++ {
		j := i
		for j > 0 && entryLess(entries[j], entries[j-1]) {
			entries[j], entries[j-1] = entries[j-1], entries[j]
			j--
		}
	}
}

func entryLess(a, b TimelineEntry) bool {
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.ID < b.ID
}

// ListSessionTokens returns all distinct session tokens in the journal.
// Results ordered alphabetically.
func (j *Journal) ListSessionTokens(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT session_token FROM events
		ORDER BY session_token
	`)
	if err != nil {
		return nil, fmt.Errorf("list session tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan session token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session tokens: %w", err)
	}

	if tokens == nil {
		tokens = []string{}
	}

	return tokens, nil
}

// GetLastSeqForSession returns the highest seq recorded for a session.
// Used to resume the logical clock when journaling continues an
// existing session.
func (j *Journal) GetLastSeqForSession(ctx context.Context, sessionToken string) (int64, error) {
	var maxSeq int64

	var eventSeq int64
	err := j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE session_token = ?
	`, sessionToken).Scan(&eventSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from events: %w", err)
	}
	maxSeq = eventSeq

	var verdictSeq int64
	err = j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(v.seq), 0)
		FROM verdicts v
		JOIN events e ON v.event_id = e.id
		WHERE e.session_token = ?
	`, sessionToken).Scan(&verdictSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from verdicts: %w", err)
	}
	if verdictSeq > maxSeq {
		maxSeq = verdictSeq
	}

	var decisionSeq int64
	err = j.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(d.seq), 0)
		FROM decisions d
		JOIN events e ON d.event_id = e.id
		WHERE e.session_token = ?
	`, sessionToken).Scan(&decisionSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq from decisions: %w", err)
	}
	if decisionSeq > maxSeq {
		maxSeq = decisionSeq
	}

	return maxSeq, nil
}
