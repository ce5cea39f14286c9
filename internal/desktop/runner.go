// Package desktop is the macOS backend: it lists and focuses apps through
// osascript and open, sends the right-arrow key and captures a target's
// window rectangle from the display.
package desktop

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes a binary and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, err
	}
	return out, nil
}

// Host runs the automation commands
type Host struct {
	runner Runner
}

// NewHost creates a host that runs real commands
func NewHost() *Host {
	return &Host{runner: execRunner{}}
}

// NewHostWithRunner creates a host over runner, for tests
func NewHostWithRunner(r Runner) *Host {
	return &Host{runner: r}
}

// appleScript runs an AppleScript one-liner
func (h *Host) appleScript(ctx context.Context, script string) (string, error) {
	out, err := h.runner.Run(ctx, "osascript", "-e", script)
	if err != nil {
		return "", fmt.Errorf("osascript failed: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// jxa runs a JavaScript for Automation script whose run(argv) receives args
func (h *Host) jxa(ctx context.Context, script string, args ...string) ([]byte, error) {
	argv := append([]string{"-l", "JavaScript", "-e", script}, args...)
	out, err := h.runner.Run(ctx, "osascript", argv...)
	if err != nil {
		return nil, fmt.Errorf("osascript failed: %w", err)
	}
	return out, nil
}
