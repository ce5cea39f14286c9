package desktop

import (
	"context"
	"fmt"

	"jordanella.com/pagecapture-go/internal/input"
)

// Focus brings the app to the front with "open -b", falling back to an
// AppleScript activate
func (h *Host) Focus(ctx context.Context, bundleID string) error {
	_, openErr := h.runner.Run(ctx, "open", "-b", bundleID)
	if openErr == nil {
		return nil
	}

	script := fmt.Sprintf(`tell application id %q to activate`, bundleID)
	if _, err := h.appleScript(ctx, script); err != nil {
		return fmt.Errorf("failed to focus %s: open: %v, activate: %w", bundleID, openErr, err)
	}
	return nil
}

// FrontmostApp returns the bundle id of the frontmost application
func (h *Host) FrontmostApp(ctx context.Context) (string, error) {
	id, err := h.appleScript(ctx, `id of application (path to frontmost application as text)`)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", fmt.Errorf("frontmost application has no bundle id")
	}
	return id, nil
}

// CurrentForeground implements input.FocusObserver
func (h *Host) CurrentForeground(ctx context.Context) (string, bool) {
	id, err := h.FrontmostApp(ctx)
	if err != nil {
		return "", false
	}
	return id, true
}

var _ input.FocusObserver = (*Host)(nil)
