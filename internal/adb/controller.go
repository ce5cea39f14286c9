// Package adb drives an Android device or emulator through the adb binary:
// screenshots, key events, swipes and foreground-app queries.
package adb

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"jordanella.com/pagecapture-go/internal/logging"
)

// Runner executes a binary and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs real processes
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

// Controller talks to one device
type Controller struct {
	path      string
	device    string // serial, e.g. "emulator-5554" or "127.0.0.1:16384"
	runner    Runner
	logger    *logging.Logger
	mu        sync.Mutex
	connected bool
}

// Option customises a Controller
type Option func(*Controller)

// WithRunner replaces process execution, for tests
func WithRunner(r Runner) Option {
	return func(c *Controller) { c.runner = r }
}

// NewController creates a new ADB controller. An empty device lets adb pick
// the only attached device.
func NewController(adbPath, device string, opts ...Option) *Controller {
	c := &Controller{
		path:   adbPath,
		device: device,
		runner: execRunner{},
		logger: logging.NewLogger("adb"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Device returns the device serial
func (c *Controller) Device() string {
	return c.device
}

// args prefixes the device selector
func (c *Controller) args(rest ...string) []string {
	if c.device == "" {
		return rest
	}
	return append([]string{"-s", c.device}, rest...)
}

// Connect attaches a network device. Local serials need no connect step.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.Contains(c.device, ":") {
		c.connected = true
		return nil
	}

	output, err := c.runner.Run(ctx, c.path, "connect", c.device)
	if err != nil {
		return fmt.Errorf("failed to connect to device %s: %w, output: %s", c.device, err, output)
	}

	// Verify connection
	if !strings.Contains(string(output), "connected") {
		return fmt.Errorf("unexpected connect output: %s", strings.TrimSpace(string(output)))
	}

	c.connected = true
	c.logger.InfoWithContext("Connected to device", map[string]interface{}{"device": c.device})
	return nil
}

// Disconnect detaches a network device
func (c *Controller) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected && strings.Contains(c.device, ":") {
		if _, err := c.runner.Run(ctx, c.path, "disconnect", c.device); err != nil {
			return fmt.Errorf("failed to disconnect %s: %w", c.device, err)
		}
	}

	c.connected = false
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
