package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keygate-dev/keygate/internal/journal"
	"github.com/keygate-dev/keygate/internal/keyevent"
)

func TestReplay_Deterministic(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "replay", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, out, "Replay Summary: 1 session(s)")
	assert.Contains(t, out, "✓ Session: session-cli")
	assert.Contains(t, out, "All sessions verified deterministic")
}

func TestReplay_SpecificSession(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	// A second session must not appear when --session is given.
	j, err := journal.Open(db)
	require.NoError(t, err)
	ev := keyevent.KeyEvent{VirtualKey: 65, ScanCode: 30, Action: keyevent.ActionDown}
	rec, err := keyevent.NewEventRecord("session-other", keyevent.KindRaw, ev, 1)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(context.Background(), rec))
	require.NoError(t, j.Close())

	out, err := executeCommand(t, "replay", "--db", db, "--session", "session-cli")
	require.NoError(t, err)
	assert.Contains(t, out, "session-cli")
	assert.NotContains(t, out, "session-other")
}

func TestReplay_JSONOutput(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "--format", "json", "replay", "--db", db)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result ReplayResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, 1, result.TotalSessions)
	assert.True(t, result.AllDeterministic)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, 2, result.Sessions[0].Events)
	assert.Equal(t, 1, result.Sessions[0].Verdicts)
	assert.Equal(t, 2, result.Sessions[0].Decisions)
	assert.True(t, result.Sessions[0].IsComplete)
}

func TestReplay_VerboseStats(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "-v", "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Events:    2")
	assert.Contains(t, out, "Verdicts:  1")
	assert.Contains(t, out, "Decisions: 2")
	assert.Contains(t, out, "Undecided: 0")
}

func TestReplay_EmptyJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := executeCommand(t, "replay", "--db", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in journal.")
}

func TestReplay_CompareTimelines(t *testing.T) {
	ev := keyevent.KeyEvent{VirtualKey: 64, ScanCode: 20, Action: keyevent.ActionDown}
	rec, err := keyevent.NewEventRecord("s", keyevent.KindRaw, ev, 1)
	require.NoError(t, err)

	a := []journal.TimelineEntry{{Type: journal.EntryEvent, Seq: 1, ID: rec.ID, Event: &rec}}
	b := []journal.TimelineEntry{{Type: journal.EntryEvent, Seq: 1, ID: rec.ID, Event: &rec}}
	assert.True(t, compareTimelines(a, b))

	assert.False(t, compareTimelines(a, nil))

	shifted := []journal.TimelineEntry{{Type: journal.EntryEvent, Seq: 2, ID: rec.ID, Event: &rec}}
	assert.False(t, compareTimelines(a, shifted))
}
