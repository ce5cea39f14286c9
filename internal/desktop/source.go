package desktop

import (
	"context"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"

	"jordanella.com/pagecapture-go/internal/cv"
)

// Locator finds the screen rectangle of a target's window
type Locator func(ctx context.Context, target cv.Target) (image.Rectangle, error)

// Grabber captures a screen rectangle
type Grabber func(rect image.Rectangle) (*image.RGBA, error)

// Source captures a target's window from the display
type Source struct {
	locate  Locator
	grab    Grabber
	screens func() image.Rectangle
}

// NewSource creates a frame source using host for window lookup and the
// display for pixels
func NewSource(host *Host) *Source {
	return &Source{
		locate:  host.WindowBounds,
		grab:    screenshot.CaptureRect,
		screens: displayBounds,
	}
}

// NewSourceWith creates a source over custom lookup and capture functions
func NewSourceWith(locate Locator, grab Grabber, screens func() image.Rectangle) *Source {
	return &Source{locate: locate, grab: grab, screens: screens}
}

// displayBounds is the union of all active displays
func displayBounds() image.Rectangle {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}
	}
	bounds := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		bounds = bounds.Union(screenshot.GetDisplayBounds(i))
	}
	return bounds
}

// windowRect returns the visible part of the target's window
func (s *Source) windowRect(ctx context.Context, target cv.Target) (image.Rectangle, error) {
	rect, err := s.locate(ctx, target)
	if err != nil {
		return image.Rectangle{}, err
	}
	if s.screens != nil {
		if screens := s.screens(); !screens.Empty() {
			rect = rect.Intersect(screens)
		}
	}
	if rect.Empty() {
		return image.Rectangle{}, cv.ErrNoVisibleWindow
	}
	return rect, nil
}

// CaptureWindow implements cv.FrameSource
func (s *Source) CaptureWindow(ctx context.Context, target cv.Target) (*image.RGBA, error) {
	rect, err := s.windowRect(ctx, target)
	if err != nil {
		return nil, err
	}
	return s.capture(rect)
}

// CaptureProbe implements cv.FrameSource. Only the region is read from the
// display.
func (s *Source) CaptureProbe(ctx context.Context, target cv.Target, region cv.Region) (*image.RGBA, error) {
	rect, err := s.windowRect(ctx, target)
	if err != nil {
		return nil, err
	}
	sub, _ := region.Rect(rect)
	return s.capture(sub)
}

func (s *Source) capture(rect image.Rectangle) (*image.RGBA, error) {
	img, err := s.grab(rect)
	if err != nil {
		return nil, fmt.Errorf("capture %v failed: %w", rect, err)
	}
	return cv.ToRGBA(img), nil
}

var _ cv.FrameSource = (*Source)(nil)
