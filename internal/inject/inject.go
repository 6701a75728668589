// Package inject abstracts the platform's raw-input injection facility.
//
// The arbiter redispatches unclaimed key events by synthesizing a raw input
// event that is indistinguishable from hardware input, so it re-enters the
// platform pipeline through the same raw input callback. The arbiter only
// decides when to inject and with what payload; the mechanism lives here so
// tests can substitute a capture double.
//
// On Windows the real implementation wraps user32 SendInput with
// KEYEVENTF_SCANCODE, carrying the original scan code, action edge, and
// extended-key flag. Other platforms return ErrUnsupported.
package inject

import (
	"errors"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// ErrUnsupported is returned on platforms without an injection facility.
var ErrUnsupported = errors.New("raw input injection is not supported on this platform")

// Injector synthesizes one raw key event into the platform input pipeline.
//
// The payload is exactly what loopback recognition needs: scan code, action
// edge, and extended flag. Implementations must deliver the event so it
// re-enters via the platform's normal raw input callback.
type Injector interface {
	Inject(scanCode int, action keyevent.Action, extended bool) error
}

// Func adapts a function literal to the Injector interface.
type Func func(scanCode int, action keyevent.Action, extended bool) error

// Inject calls the underlying function.
func (f Func) Inject(scanCode int, action keyevent.Action, extended bool) error {
	return f(scanCode, action, extended)
}

// Null discards every injection request. Useful for headless runs where
// unclaimed events should simply be dropped.
type Null struct{}

// Inject does nothing.
func (Null) Inject(int, keyevent.Action, bool) error { return nil }
