package arbiter

import "github.com/keygate-dev/keygate/internal/keyevent"

// ResponseFunc reports one delegate's verdict for one event.
//
// Each func is one-shot: the first call registers the verdict, later calls
// are ignored. A delegate may call it synchronously inside KeyboardHook or
// store it and call it later from the arbiter's owning context.
type ResponseFunc func(handled bool)

// Delegate is an independent consumer consulted for every raw key event.
//
// KeyboardHook must not block. The delegate eventually invokes respond with
// true if it semantically consumed the event. Delegates are offered events
// in registration order, but their responses may arrive in any order.
type Delegate interface {
	KeyboardHook(ev keyevent.KeyEvent, respond ResponseFunc)
}

// DelegateFunc adapts a function literal to the Delegate interface.
type DelegateFunc func(ev keyevent.KeyEvent, respond ResponseFunc)

// KeyboardHook calls the underlying function.
func (f DelegateFunc) KeyboardHook(ev keyevent.KeyEvent, respond ResponseFunc) {
	f(ev, respond)
}
