package adb

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"regexp"
	"sort"
	"strings"

	"jordanella.com/pagecapture-go/internal/cv"
)

// Shell executes a shell command on the device and returns trimmed output
func (c *Controller) Shell(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	output, err := c.runner.Run(ctx, c.path, c.args("shell", command)...)
	if err != nil {
		return "", fmt.Errorf("shell command failed: %w, output: %s", err, output)
	}

	return strings.TrimSpace(string(output)), nil
}

// SendKey sends a key event (e.g., "KEYCODE_DPAD_RIGHT", "KEYCODE_PAGE_DOWN")
func (c *Controller) SendKey(ctx context.Context, key string) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input keyevent %s", key))
	return err
}

// Swipe performs a swipe gesture in device pixels
func (c *Controller) Swipe(ctx context.Context, x1, y1, x2, y2, durationMs int) error {
	_, err := c.Shell(ctx, fmt.Sprintf("input swipe %d %d %d %d %d", x1, y1, x2, y2, durationMs))
	return err
}

// Screencap grabs the screen as PNG over stdout and decodes it
func (c *Controller) Screencap(ctx context.Context) (*image.RGBA, error) {
	c.mu.Lock()
	data, err := c.runner.Run(ctx, c.path, c.args("exec-out", "screencap", "-p")...)
	c.mu.Unlock()

	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to capture screenshot: %w", cv.ErrEmptyFrame)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screenshot: %w", err)
	}
	return cv.ToRGBA(img), nil
}

// GetWindowSize returns the current screen size, preferring an override size
func (c *Controller) GetWindowSize(ctx context.Context) (width, height int, err error) {
	output, err := c.Shell(ctx, "wm size")
	if err != nil {
		return 0, 0, err
	}
	return parseWindowSize(output)
}

// parseWindowSize reads "Physical size: 1080x1920" with an optional
// "Override size: ..." line that takes precedence
func parseWindowSize(output string) (int, int, error) {
	var w, h int
	found := false
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		var lw, lh int
		if _, err := fmt.Sscanf(line, "Override size: %dx%d", &lw, &lh); err == nil {
			return lw, lh, nil
		}
		if _, err := fmt.Sscanf(line, "Physical size: %dx%d", &lw, &lh); err == nil {
			w, h, found = lw, lh, true
		}
	}
	if !found {
		return 0, 0, fmt.Errorf("failed to parse window size: %s", output)
	}
	return w, h, nil
}

// focusPattern matches "mCurrentFocus=Window{42 u0 com.example/com.example.Main}"
var focusPattern = regexp.MustCompile(`mCurrentFocus=Window\{\S+ \S+ ([A-Za-z0-9_.]+)(?:/\S*)?\}`)

// CurrentFocus returns the package name of the focused window
func (c *Controller) CurrentFocus(ctx context.Context) (string, error) {
	output, err := c.Shell(ctx, "dumpsys window | grep mCurrentFocus")
	if err != nil {
		return "", err
	}
	return parseCurrentFocus(output)
}

func parseCurrentFocus(output string) (string, error) {
	m := focusPattern.FindStringSubmatch(output)
	if m == nil {
		return "", fmt.Errorf("no focused window in: %s", strings.TrimSpace(output))
	}
	return m[1], nil
}

// LaunchApp brings a package to the foreground through its launcher intent
func (c *Controller) LaunchApp(ctx context.Context, packageName string) error {
	output, err := c.Shell(ctx, fmt.Sprintf("monkey -p %s -c android.intent.category.LAUNCHER 1", packageName))
	if err != nil {
		return err
	}
	if strings.Contains(output, "No activities found") {
		return fmt.Errorf("package %s has no launcher activity", packageName)
	}
	return nil
}

// ListPackages returns third-party package names, sorted
func (c *Controller) ListPackages(ctx context.Context) ([]string, error) {
	output, err := c.Shell(ctx, "pm list packages -3")
	if err != nil {
		return nil, err
	}
	return parsePackages(output), nil
}

func parsePackages(output string) []string {
	var pkgs []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, "package:"); ok && name != "" {
			pkgs = append(pkgs, name)
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// IsAppRunning checks if an app is currently running
func (c *Controller) IsAppRunning(ctx context.Context, packageName string) (bool, error) {
	output, err := c.Shell(ctx, fmt.Sprintf("pidof %s", packageName))
	if err != nil {
		return false, nil // pidof returns error if not found
	}
	return len(strings.TrimSpace(output)) > 0, nil
}
