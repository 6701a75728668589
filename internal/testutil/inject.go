// Package testutil provides deterministic doubles for arbiter tests and the
// conformance harness: a capture injector that records redispatch requests
// and delegates with scriptable response behavior.
package testutil

import (
	"sync"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

// Injection is one recorded redispatch request.
type Injection struct {
	ScanCode int
	Action   keyevent.Action
	Extended bool
}

// CaptureInjector records every injection request instead of delivering it.
//
// Thread-safety: safe for concurrent use, though the arbiter's
// single-context model means injections normally arrive from one goroutine.
type CaptureInjector struct {
	mu         sync.Mutex
	injections []Injection
}

// NewCaptureInjector creates an empty capture injector.
func NewCaptureInjector() *CaptureInjector {
	return &CaptureInjector{}
}

// Inject records the request and reports success.
func (c *CaptureInjector) Inject(scanCode int, action keyevent.Action, extended bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injections = append(c.injections, Injection{
		ScanCode: scanCode,
		Action:   action,
		Extended: extended,
	})
	return nil
}

// Injections returns a copy of all recorded requests in order.
func (c *CaptureInjector) Injections() []Injection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Injection, len(c.injections))
	copy(out, c.injections)
	return out
}

// Count returns the number of recorded requests.
func (c *CaptureInjector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.injections)
}

// Last returns the most recent request.
// The second return is false if nothing has been injected.
func (c *CaptureInjector) Last() (Injection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.injections) == 0 {
		return Injection{}, false
	}
	return c.injections[len(c.injections)-1], true
}

// Reset clears the recorded requests.
func (c *CaptureInjector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.injections = nil
}

// FailInjector rejects every injection with Err.
type FailInjector struct {
	Err error
}

// Inject returns the configured error.
func (f *FailInjector) Inject(int, keyevent.Action, bool) error {
	return f.Err
}
