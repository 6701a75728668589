package keyevent

import "fmt"

// Action identifies the edge of a key transition.
type Action int

const (
	// ActionDown is a key press (including auto-repeat, see KeyEvent.WasDown).
	ActionDown Action = iota + 1
	// ActionUp is a key release.
	ActionUp
)

// String returns the wire/storage form of the action.
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionUp:
		return "up"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	return a == ActionDown || a == ActionUp
}

// ParseAction converts the storage form back to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "down":
		return ActionDown, nil
	case "up":
		return ActionUp, nil
	default:
		return 0, fmt.Errorf("unknown key action %q", s)
	}
}

// KeyEvent is a single observation from the platform's raw input callback.
//
// The scan code is the hardware-level key identifier and is the correlation
// key for redispatch loopback detection. VirtualKey is the logical key code
// and is carried for delegates only. Character is the resolved character for
// the event, or 0 when the key produces none.
//
// KeyEvent is a value type and is never mutated after capture.
type KeyEvent struct {
	VirtualKey int
	ScanCode   int
	Action     Action
	Character  rune
	Extended   bool
	WasDown    bool
}

// Validate checks the event for fields the arbiter cannot work with.
// Scan code zero is rejected: it cannot be correlated on loopback.
func (e KeyEvent) Validate() error {
	if !e.Action.Valid() {
		return fmt.Errorf("key event: invalid action %d", int(e.Action))
	}
	if e.ScanCode <= 0 {
		return fmt.Errorf("key event: scan code must be positive, got %d", e.ScanCode)
	}
	if e.VirtualKey < 0 {
		return fmt.Errorf("key event: virtual key must not be negative, got %d", e.VirtualKey)
	}
	return nil
}

// String renders a compact human-readable form for logs.
func (e KeyEvent) String() string {
	ch := "-"
	if e.Character != 0 {
		ch = string(e.Character)
	}
	return fmt.Sprintf("key=%d scan=%d action=%s char=%s extended=%t wasDown=%t",
		e.VirtualKey, e.ScanCode, e.Action, ch, e.Extended, e.WasDown)
}

// canonicalObject returns the canonical JSON object form of the event,
// used for content-addressed identity. Character is stored as its code
// point; canonical JSON forbids floats so all fields are ints, bools, or
// strings.
func (e KeyEvent) canonicalObject() map[string]any {
	return map[string]any{
		"virtual_key": int64(e.VirtualKey),
		"scan_code":   int64(e.ScanCode),
		"action":      e.Action.String(),
		"character":   int64(e.Character),
		"extended":    e.Extended,
		"was_down":    e.WasDown,
	}
}
