package cv

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrNoVisibleWindow is returned by a FrameSource when the target owns no
// on-screen window
var ErrNoVisibleWindow = errors.New("no visible window for target")

// Target identifies the app whose window is captured
type Target struct {
	ID   string // bundle identifier or Android package
	Name string
	PID  int
}

func (t Target) String() string {
	if t.Name != "" {
		return fmt.Sprintf("%s (%s)", t.Name, t.ID)
	}
	return t.ID
}

// FrameSource captures frames of a target's frontmost visible window.
// Implementations return an error, never panic, when no window matches.
type FrameSource interface {
	// CaptureWindow captures the full window
	CaptureWindow(ctx context.Context, target Target) (*image.RGBA, error)
	// CaptureProbe captures only region of the window, for cheap pre-checks
	CaptureProbe(ctx context.Context, target Target, region Region) (*image.RGBA, error)
}

// CaptureMethod defines how frames are captured
type CaptureMethod int

const (
	// CaptureMethodScreen grabs the window rectangle from the display
	CaptureMethodScreen CaptureMethod = iota
	// CaptureMethodADB captures via ADB screencap (emulators)
	CaptureMethodADB
)

func (m CaptureMethod) String() string {
	switch m {
	case CaptureMethodScreen:
		return "desktop"
	case CaptureMethodADB:
		return "adb"
	default:
		return "unknown"
	}
}

// ParseCaptureMethod maps a config value to a CaptureMethod
func ParseCaptureMethod(s string) (CaptureMethod, error) {
	switch s {
	case "", "desktop", "screen":
		return CaptureMethodScreen, nil
	case "adb":
		return CaptureMethodADB, nil
	default:
		return 0, fmt.Errorf("unknown capture backend %q", s)
	}
}

// ProbeFromWindow implements CaptureProbe for sources that can only grab the
// whole window
func ProbeFromWindow(ctx context.Context, src FrameSource, target Target, region Region) (*image.RGBA, error) {
	frame, err := src.CaptureWindow(ctx, target)
	if err != nil {
		return nil, err
	}
	return Crop(frame, region), nil
}

// ToRGBA returns img as *image.RGBA, copying only when needed
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	return Crop(img, FullFrame)
}
