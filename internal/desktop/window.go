package desktop

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strconv"

	"jordanella.com/pagecapture-go/internal/cv"
)

// windowBoundsScript prints the bounds of the first on-screen, normal-layer
// window owned by the pid in argv[0], or the first running instance of the
// bundle id in argv[1] when the pid is 0
const windowBoundsScript = `
ObjC.import('AppKit');
ObjC.import('CoreGraphics');
function run(argv) {
	var pid = parseInt(argv[0], 10);
	if (!pid) {
		var running = $.NSRunningApplication.runningApplicationsWithBundleIdentifier(argv[1]);
		if (running.count === 0) return JSON.stringify({found: false});
		pid = running.objectAtIndex(0).processIdentifier;
	}
	var list = ObjC.deepUnwrap(ObjC.castRefToObject(
		$.CGWindowListCopyWindowInfo($.kCGWindowListOptionAll, $.kCGNullWindowID)));
	for (var i = 0; i < list.length; i++) {
		var w = list[i];
		if (w.kCGWindowOwnerPID !== pid || !w.kCGWindowIsOnscreen || w.kCGWindowLayer !== 0) continue;
		var b = w.kCGWindowBounds;
		return JSON.stringify({found: true, pid: pid, id: w.kCGWindowNumber, x: b.X, y: b.Y, width: b.Width, height: b.Height});
	}
	return JSON.stringify({found: false, pid: pid});
}`

// WindowInfo is the frontmost visible window of a process
type WindowInfo struct {
	Found  bool    `json:"found"`
	PID    int     `json:"pid"`
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds returns the window rectangle in screen points
func (w WindowInfo) Bounds() image.Rectangle {
	return image.Rect(int(w.X), int(w.Y), int(w.X+w.Width), int(w.Y+w.Height))
}

// FindWindow locates the target's visible window
func (h *Host) FindWindow(ctx context.Context, target cv.Target) (WindowInfo, error) {
	out, err := h.jxa(ctx, windowBoundsScript, strconv.Itoa(target.PID), target.ID)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("failed to query windows: %w", err)
	}
	return parseWindowInfo(out)
}

func parseWindowInfo(out []byte) (WindowInfo, error) {
	var info WindowInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return WindowInfo{}, fmt.Errorf("failed to parse window info: %w", err)
	}
	if !info.Found || info.Bounds().Empty() {
		return WindowInfo{}, cv.ErrNoVisibleWindow
	}
	return info, nil
}

// WindowBounds returns the target's window rectangle
func (h *Host) WindowBounds(ctx context.Context, target cv.Target) (image.Rectangle, error) {
	info, err := h.FindWindow(ctx, target)
	if err != nil {
		return image.Rectangle{}, err
	}
	return info.Bounds(), nil
}
