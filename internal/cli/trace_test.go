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

// writeJournalFixture builds an on-disk journal holding one full
// arbitration: raw event rejected, redispatched, loopback passthrough.
func writeJournalFixture(t *testing.T, sessionToken string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "keygate.db")
	j, err := journal.Open(path)
	require.NoError(t, err)
	defer j.Close()

	ctx := context.Background()
	ev := keyevent.KeyEvent{VirtualKey: 64, ScanCode: 20, Action: keyevent.ActionDown, Character: 'a'}

	raw, err := keyevent.NewEventRecord(sessionToken, keyevent.KindRaw, ev, 1)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(ctx, raw))

	verdict, err := keyevent.NewVerdictRecord(raw.ID, raw.Seq, 0, false, 2)
	require.NoError(t, err)
	require.NoError(t, j.WriteVerdict(ctx, verdict))

	decision, err := keyevent.NewDecisionRecord(raw.ID, raw.Seq, keyevent.OutcomeRedispatched, 3)
	require.NoError(t, err)
	require.NoError(t, j.WriteDecision(ctx, decision))

	loopback, err := keyevent.NewEventRecord(sessionToken, keyevent.KindLoopback, ev, 4)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(ctx, loopback))

	passthrough, err := keyevent.NewDecisionRecord(loopback.ID, loopback.Seq, keyevent.OutcomePassthrough, 5)
	require.NoError(t, err)
	require.NoError(t, j.WriteDecision(ctx, passthrough))

	return path
}

func TestTrace_TextOutput(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "trace", "--db", db, "--session", "session-cli")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace for Session: session-cli")
	assert.Contains(t, out, "Status: Complete")
	assert.Contains(t, out, "[1] EVENT raw scan=20 action=down")
	assert.Contains(t, out, "[2] VERDICT delegate=0 rejected (event 1)")
	assert.Contains(t, out, "[3] DECISION redispatched (event 1)")
	assert.Contains(t, out, "[4] EVENT loopback scan=20 action=down")
	assert.Contains(t, out, "[5] DECISION passthrough (event 4)")
	assert.Contains(t, out, "Redispatched: 1")
}

func TestTrace_JSONOutput(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "--format", "json", "trace", "--db", db, "--session", "session-cli")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "session-cli", result.SessionToken)
	require.Len(t, result.Timeline, 5)
	assert.Equal(t, "event", result.Timeline[0].Type)
	assert.Equal(t, "raw", result.Timeline[0].Kind)
	assert.Equal(t, 5, result.Stats.TotalRecords)
	assert.Equal(t, 1, result.Stats.Events)
	assert.Equal(t, 1, result.Stats.Loopbacks)
	assert.Equal(t, 1, result.Stats.Redispatched)
	assert.True(t, result.Stats.IsComplete)
}

func TestTrace_ScanCodeFilter(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	// Add an event for a different key; the filter must exclude it.
	j, err := journal.Open(db)
	require.NoError(t, err)
	other := keyevent.KeyEvent{VirtualKey: 66, ScanCode: 48, Action: keyevent.ActionDown, Character: 'b'}
	rec, err := keyevent.NewEventRecord("session-cli", keyevent.KindRaw, other, 6)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(context.Background(), rec))
	require.NoError(t, j.Close())

	out, err := executeCommand(t, "trace", "--db", db, "--session", "session-cli", "--scan-code", "48")
	require.NoError(t, err)
	assert.Contains(t, out, "scan=48")
	assert.NotContains(t, out, "scan=20")
}

func TestTrace_UnknownSession(t *testing.T) {
	db := writeJournalFixture(t, "session-cli")

	out, err := executeCommand(t, "trace", "--db", db, "--session", "session-unknown")
	require.NoError(t, err)
	assert.Contains(t, out, "No records found for session: session-unknown")
}

func TestTrace_RequiresFlags(t *testing.T) {
	_, err := executeCommand(t, "trace")
	require.Error(t, err)
}

func TestTrace_UndecidedSessionIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keygate.db")
	j, err := journal.Open(path)
	require.NoError(t, err)

	ev := keyevent.KeyEvent{VirtualKey: 64, ScanCode: 20, Action: keyevent.ActionDown}
	rec, err := keyevent.NewEventRecord("session-open", keyevent.KindRaw, ev, 1)
	require.NoError(t, err)
	require.NoError(t, j.WriteEvent(context.Background(), rec))
	require.NoError(t, j.Close())

	out, err := executeCommand(t, "trace", "--db", path, "--session", "session-open")
	require.NoError(t, err)
	assert.Contains(t, out, "Incomplete (1 undecided event(s))")
}
