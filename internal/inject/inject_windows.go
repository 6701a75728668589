//go:build windows

package inject

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/keygate-dev/keygate/internal/keyevent"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfScanCode    = 0x0008
)

// keybdInput mirrors the Win32 KEYBDINPUT structure.
type keybdInput struct {
	Vk          uint16
	Scan        uint16
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

// input mirrors the Win32 INPUT structure for keyboard events.
// The union is padded to the size of MOUSEINPUT, the largest member.
type input struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// SendInput injects synthetic raw key events via the Win32 SendInput API.
//
// Events are injected with KEYEVENTF_SCANCODE so the scan code, not the
// virtual key, drives translation. The injected event is indistinguishable
// from hardware input and re-enters through the low-level keyboard hook,
// which is exactly what loopback recognition depends on.
type SendInput struct{}

// NewSendInput returns the Windows raw-input injector.
func NewSendInput() *SendInput { return &SendInput{} }

// Inject synthesizes one key event carrying the given scan code and edge.
func (*SendInput) Inject(scanCode int, action keyevent.Action, extended bool) error {
	flags := uint32(keyeventfScanCode)
	if action == keyevent.ActionUp {
		flags |= keyeventfKeyUp
	}
	if extended {
		flags |= keyeventfExtendedKey
	}

	in := input{
		Type: inputKeyboard,
		Ki: keybdInput{
			Scan:  uint16(scanCode),
			Flags: flags,
		},
	}

	sent, _, err := procSendInput.Call(
		1,
		uintptr(unsafe.Pointer(&in)),
		unsafe.Sizeof(in),
	)
	if sent != 1 {
		return fmt.Errorf("SendInput failed for scan code %d: %w", scanCode, err)
	}
	return nil
}
