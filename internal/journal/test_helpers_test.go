package journal

import (
	"path/filepath"
	"testing"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// createTestJournal creates a file-backed journal in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// createTestEvent builds an event record with a real content-addressed ID.
func createTestEvent(t *testing.T, sessionToken string, kind keyevent.EventKind, scanCode int, action keyevent.Action, seq int64) keyevent.EventRecord {
	t.Helper()
	rec, err := keyevent.NewEventRecord(sessionToken, kind, keyevent.KeyEvent{
		VirtualKey: 64,
		ScanCode:   scanCode,
		Action:     action,
		Character:  'a',
	}, seq)
	if err != nil {
		t.Fatalf("NewEventRecord() failed: %v", err)
	}
	return rec
}

// createTestVerdict builds a verdict record for an event.
func createTestVerdict(t *testing.T, event keyevent.EventRecord, delegateID int, accepted bool, seq int64) keyevent.VerdictRecord {
	t.Helper()
	rec, err := keyevent.NewVerdictRecord(event.ID, event.Seq, delegateID, accepted, seq)
	if err != nil {
		t.Fatalf("NewVerdictRecord() failed: %v", err)
	}
	return rec
}

// createTestDecision builds a decision record for an event.
func createTestDecision(t *testing.T, event keyevent.EventRecord, outcome keyevent.Outcome, seq int64) keyevent.DecisionRecord {
	t.Helper()
	rec, err := keyevent.NewDecisionRecord(event.ID, event.Seq, outcome, seq)
	if err != nil {
		t.Fatalf("NewDecisionRecord() failed: %v", err)
	}
	return rec
}
