package keyevent

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed record identity.
// Version suffix enables future algorithm migration.
const (
	DomainEvent    = "keygate/event/v1"
	DomainVerdict  = "keygate/verdict/v1"
	DomainDecision = "keygate/decision/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventRecordID computes the content-addressed ID for a journaled event.
// The ID is stable across restarts and replays given the same inputs, so a
// replayed session produces a byte-identical journal.
func EventRecordID(sessionToken string, kind EventKind, ev KeyEvent, seq int64) (string, error) {
	obj := map[string]any{
		"session_token": sessionToken,
		"kind":          string(kind),
		"event":         ev.canonicalObject(),
		"seq":           seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EventRecordID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEvent, canonical), nil
}

// VerdictID computes the content-addressed ID for a delegate verdict.
// Links to the event it responds to via eventID.
func VerdictID(eventID string, delegateID int, accepted bool, seq int64) (string, error) {
	obj := map[string]any{
		"event_id":    eventID,
		"delegate_id": int64(delegateID),
		"accepted":    accepted,
		"seq":         seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("VerdictID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainVerdict, canonical), nil
}

// DecisionID computes the content-addressed ID for a final decision.
func DecisionID(eventID string, outcome Outcome, seq int64) (string, error) {
	obj := map[string]any{
		"event_id": eventID,
		"outcome":  string(outcome),
		"seq":      seq,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DecisionID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainDecision, canonical), nil
}
