package keyevent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvent = KeyEvent{
	VirtualKey: 64,
	ScanCode:   20,
	Action:     ActionDown,
	Character:  'a',
	Extended:   false,
	WasDown:    false,
}

func TestEventRecordID_Deterministic(t *testing.T) {
	first, err := EventRecordID("session-1", KindRaw, testEvent, 1)
	require.NoError(t, err)

	second, err := EventRecordID("session-1", KindRaw, testEvent, 1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded SHA-256
}

func TestEventRecordID_SensitiveToInputs(t *testing.T) {
	base, err := EventRecordID("session-1", KindRaw, testEvent, 1)
	require.NoError(t, err)

	otherSeq, err := EventRecordID("session-1", KindRaw, testEvent, 2)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherSeq)

	otherKind, err := EventRecordID("session-1", KindLoopback, testEvent, 1)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherKind)

	otherScan := testEvent
	otherScan.ScanCode = 22
	otherEvent, err := EventRecordID("session-1", KindRaw, otherScan, 1)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherEvent)

	otherSession, err := EventRecordID("session-2", KindRaw, testEvent, 1)
	require.NoError(t, err)
	assert.NotEqual(t, base, otherSession)
}

func TestVerdictID_DomainSeparation(t *testing.T) {
	// Same logical fields hashed under different domains must not collide.
	eventID, err := EventRecordID("session-1", KindRaw, testEvent, 1)
	require.NoError(t, err)

	verdictID, err := VerdictID(eventID, 1, true, 2)
	require.NoError(t, err)
	assert.NotEqual(t, eventID, verdictID)
}

func TestNewEventRecord(t *testing.T) {
	rec, err := NewEventRecord("session-1", KindRaw, testEvent, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "session-1", rec.SessionToken)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, KindRaw, rec.Kind)
	assert.Equal(t, testEvent, rec.Event)
}

func TestNewEventRecord_InvalidKind(t *testing.T) {
	_, err := NewEventRecord("session-1", EventKind("bogus"), testEvent, 1)
	assert.Error(t, err)
}

func TestNewVerdictRecord(t *testing.T) {
	rec, err := NewVerdictRecord("event-id", 1, 2, true, 3)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "event-id", rec.EventID)
	assert.Equal(t, int64(1), rec.EventSeq)
	assert.Equal(t, 2, rec.DelegateID)
	assert.True(t, rec.Accepted)
	assert.Equal(t, int64(3), rec.Seq)
}

func TestNewDecisionRecord(t *testing.T) {
	rec, err := NewDecisionRecord("event-id", 1, OutcomeRedispatched, 4)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, OutcomeRedispatched, rec.Outcome)

	_, err = NewDecisionRecord("event-id", 1, Outcome("shrugged"), 4)
	assert.Error(t, err)
}

func TestOutcome_Valid(t *testing.T) {
	assert.True(t, OutcomeHandled.Valid())
	assert.True(t, OutcomeRedispatched.Valid())
	assert.True(t, OutcomePassthrough.Valid())
	assert.False(t, Outcome("").Valid())
}
