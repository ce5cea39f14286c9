package adb

import (
	"context"
	"image"
	"sync"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/input"
)

// Source captures the device screen. The device shows one app at a time, so
// the target only matters for the focus check.
type Source struct {
	ctrl *Controller
}

// NewSource creates a frame source over ctrl
func NewSource(ctrl *Controller) *Source {
	return &Source{ctrl: ctrl}
}

// CaptureWindow implements cv.FrameSource
func (s *Source) CaptureWindow(ctx context.Context, _ cv.Target) (*image.RGBA, error) {
	return s.ctrl.Screencap(ctx)
}

// CaptureProbe implements cv.FrameSource
func (s *Source) CaptureProbe(ctx context.Context, target cv.Target, region cv.Region) (*image.RGBA, error) {
	return cv.ProbeFromWindow(ctx, s, target, region)
}

// KeyEventSender sends a key event such as KEYCODE_DPAD_RIGHT
type KeyEventSender struct {
	ctrl *Controller
	key  string
}

// NewKeyEventSender creates a key event path
func NewKeyEventSender(ctrl *Controller, key string) *KeyEventSender {
	if key == "" {
		key = "KEYCODE_DPAD_RIGHT"
	}
	return &KeyEventSender{ctrl: ctrl, key: key}
}

// Name implements input.KeySender
func (k *KeyEventSender) Name() string { return "adb keyevent " + k.key }

// SendNextKey implements input.KeySender
func (k *KeyEventSender) SendNextKey(ctx context.Context) error {
	return k.ctrl.SendKey(ctx, k.key)
}

// SwipeSender turns the page with a right-to-left swipe across the middle of
// the screen
type SwipeSender struct {
	ctrl       *Controller
	durationMs int

	mu            sync.Mutex
	width, height int
}

// NewSwipeSender creates a swipe path
func NewSwipeSender(ctrl *Controller) *SwipeSender {
	return &SwipeSender{ctrl: ctrl, durationMs: 200}
}

// Name implements input.KeySender
func (s *SwipeSender) Name() string { return "adb swipe" }

// SendNextKey implements input.KeySender
func (s *SwipeSender) SendNextKey(ctx context.Context) error {
	width, height, err := s.screenSize(ctx)
	if err != nil {
		return err
	}

	x1, y, x2 := swipeLine(width, height)
	return s.ctrl.Swipe(ctx, x1, y, x2, y, s.durationMs)
}

// screenSize reads the screen size once it succeeds; failures are retried
// on the next swipe
func (s *SwipeSender) screenSize(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.width > 0 && s.height > 0 {
		return s.width, s.height, nil
	}
	w, h, err := s.ctrl.GetWindowSize(ctx)
	if err != nil {
		return 0, 0, err
	}
	s.width, s.height = w, h
	return w, h, nil
}

// swipeLine runs from 80% to 20% of the width at half height
func swipeLine(width, height int) (x1, y, x2 int) {
	return width * 4 / 5, height / 2, width / 5
}

// FocusObserver reports the focused package
type FocusObserver struct {
	ctrl *Controller
}

// NewFocusObserver creates a focus observer over ctrl
func NewFocusObserver(ctrl *Controller) *FocusObserver {
	return &FocusObserver{ctrl: ctrl}
}

// CurrentForeground implements input.FocusObserver
func (f *FocusObserver) CurrentForeground(ctx context.Context) (string, bool) {
	pkg, err := f.ctrl.CurrentFocus(ctx)
	if err != nil {
		return "", false
	}
	return pkg, true
}

var (
	_ cv.FrameSource      = (*Source)(nil)
	_ input.KeySender     = (*KeyEventSender)(nil)
	_ input.KeySender     = (*SwipeSender)(nil)
	_ input.FocusObserver = (*FocusObserver)(nil)
)
