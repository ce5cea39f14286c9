package desktop

import (
	"context"
	"fmt"

	"jordanella.com/pagecapture-go/internal/input"
)

// RightArrowKeyCode is the macOS virtual key code of the right arrow
const RightArrowKeyCode = 124

// SystemEventsSender presses the key through System Events, which needs the
// Accessibility permission for the terminal
type SystemEventsSender struct {
	host    *Host
	keyCode int
}

// NewSystemEventsSender creates the primary key path
func NewSystemEventsSender(host *Host) *SystemEventsSender {
	return &SystemEventsSender{host: host, keyCode: RightArrowKeyCode}
}

// Name implements input.KeySender
func (s *SystemEventsSender) Name() string { return "system events" }

// SendNextKey implements input.KeySender
func (s *SystemEventsSender) SendNextKey(ctx context.Context) error {
	_, err := s.host.appleScript(ctx, fmt.Sprintf(`tell application "System Events" to key code %d`, s.keyCode))
	return err
}

const postKeyScript = `
ObjC.import('CoreGraphics');
function run(argv) {
	var code = parseInt(argv[0], 10);
	var down = $.CGEventCreateKeyboardEvent(null, code, true);
	var up = $.CGEventCreateKeyboardEvent(null, code, false);
	$.CGEventPost($.kCGHIDEventTap, down);
	$.CGEventPost($.kCGHIDEventTap, up);
	return 'ok';
}`

// EventTapSender posts key down and up events directly to the HID event tap
type EventTapSender struct {
	host    *Host
	keyCode int
}

// NewEventTapSender creates the secondary key path
func NewEventTapSender(host *Host) *EventTapSender {
	return &EventTapSender{host: host, keyCode: RightArrowKeyCode}
}

// Name implements input.KeySender
func (s *EventTapSender) Name() string { return "event tap" }

// SendNextKey implements input.KeySender
func (s *EventTapSender) SendNextKey(ctx context.Context) error {
	_, err := s.host.jxa(ctx, postKeyScript, fmt.Sprintf("%d", s.keyCode))
	return err
}

var (
	_ input.KeySender = (*SystemEventsSender)(nil)
	_ input.KeySender = (*EventTapSender)(nil)
)
