package testutil

import (
	"github.com/keygate-dev/keygate/internal/arbiter"
	"github.com/keygate-dev/keygate/internal/keyevent"
)

// HookCall records one delivery of an event to a RecorderDelegate, keeping
// the response func so tests can resolve events later and out of order.
type HookCall struct {
	DelegateID int
	Event      keyevent.KeyEvent
	Respond    arbiter.ResponseFunc
}

// RecorderDelegate appends every hook call to a shared history and then
// runs its Behavior, which may respond synchronously, respond later, or
// not at all.
//
// The DelegateID is an arbitrary number to tell delegates apart in the
// shared history.
type RecorderDelegate struct {
	DelegateID int
	History    *[]HookCall
	Behavior   func(respond arbiter.ResponseFunc)
}

// NewRecorderDelegate creates a delegate that records into history and
// never responds on its own. Set Behavior to change that.
func NewRecorderDelegate(id int, history *[]HookCall) *RecorderDelegate {
	return &RecorderDelegate{
		DelegateID: id,
		History:    history,
		Behavior:   DontRespond,
	}
}

// KeyboardHook implements arbiter.Delegate.
func (d *RecorderDelegate) KeyboardHook(ev keyevent.KeyEvent, respond arbiter.ResponseFunc) {
	*d.History = append(*d.History, HookCall{
		DelegateID: d.DelegateID,
		Event:      ev,
		Respond:    respond,
	})
	if d.Behavior != nil {
		d.Behavior(respond)
	}
}

// DontRespond leaves the event pending for the test to resolve.
func DontRespond(arbiter.ResponseFunc) {}

// RespondTrue accepts the event synchronously.
func RespondTrue(respond arbiter.ResponseFunc) { respond(true) }

// RespondFalse rejects the event synchronously.
func RespondFalse(respond arbiter.ResponseFunc) { respond(false) }
