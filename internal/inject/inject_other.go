//go:build !windows

package inject

import "github.com/keygate-dev/keygate/internal/keyevent"

// SendInput is the Windows raw-input injector. On other platforms every
// injection attempt reports ErrUnsupported; embedders supply their own
// Injector for the platform input stack they run on.
type SendInput struct{}

// NewSendInput returns the platform injector stub.
func NewSendInput() *SendInput { return &SendInput{} }

// Inject reports ErrUnsupported.
func (*SendInput) Inject(int, keyevent.Action, bool) error {
	return ErrUnsupported
}
